package schema

// NetworkBlogsTable represents the 'network.blogs' site registry
type NetworkBlogsTable struct {
	Table    string
	BlogID   string
	Domain   string
	Path     string
	Public   string
	Archived string
	Spam     string
	Deleted  string
}

// NetworkBlogs is the schema definition for network.blogs
var NetworkBlogs = NetworkBlogsTable{
	Table:    "network.blogs",
	BlogID:   "blog_id",
	Domain:   "domain",
	Path:     "path",
	Public:   "public",
	Archived: "archived",
	Spam:     "spam",
	Deleted:  "deleted",
}

func (t NetworkBlogsTable) Columns() []string {
	return []string{t.BlogID, t.Domain, t.Path, t.Public, t.Archived, t.Spam, t.Deleted}
}
