package schema

// NetworkTermTaxonomyTable represents the 'network.term_taxonomy' table.
// Each row binds one term to one taxonomy and carries its hierarchy pointer.
type NetworkTermTaxonomyTable struct {
	Table       string
	MtmtID      string
	TermID      string
	Taxonomy    string
	Description string
	Parent      string
	Count       string
}

// NetworkTermTaxonomy is the schema definition for network.term_taxonomy
var NetworkTermTaxonomy = NetworkTermTaxonomyTable{
	Table:       "network.term_taxonomy",
	MtmtID:      "mtmt_id",
	TermID:      "term_id",
	Taxonomy:    "taxonomy",
	Description: "description",
	Parent:      "parent",
	Count:       "count",
}

func (t NetworkTermTaxonomyTable) Columns() []string {
	return []string{t.MtmtID, t.TermID, t.Taxonomy, t.Description, t.Parent, t.Count}
}
