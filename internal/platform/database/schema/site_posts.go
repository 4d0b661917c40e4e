package schema

import "fmt"

// SitePostsTable represents one site's posts table. Every site owns a
// physically separate table, so the name depends on the blog ID.
type SitePostsTable struct {
	ID      string
	Title   string
	Content string
	Excerpt string
	Date    string
	Status  string
	Name    string
	Type    string
}

// SitePosts holds the column names shared by every per-site posts table.
var SitePosts = SitePostsTable{
	ID:      "id",
	Title:   "post_title",
	Content: "post_content",
	Excerpt: "post_excerpt",
	Date:    "post_date",
	Status:  "post_status",
	Name:    "post_name",
	Type:    "post_type",
}

// Table returns the posts table of the given site. The main site (blog 1)
// uses the bare prefix, every other site embeds its ID.
func (t SitePostsTable) Table(prefix string, blogID int64) string {
	if blogID <= 1 {
		return prefix + "posts"
	}
	return fmt.Sprintf("%s%d_posts", prefix, blogID)
}

func (t SitePostsTable) Columns() []string {
	return []string{t.ID, t.Title, t.Content, t.Excerpt, t.Date, t.Status, t.Name, t.Type}
}
