package schema

// NetworkTermsTable represents the 'network.terms' table
type NetworkTermsTable struct {
	Table     string
	TermID    string
	Name      string
	Slug      string
	TermGroup string
}

// NetworkTerms is the schema definition for network.terms
var NetworkTerms = NetworkTermsTable{
	Table:     "network.terms",
	TermID:    "term_id",
	Name:      "name",
	Slug:      "slug",
	TermGroup: "term_group",
}

func (t NetworkTermsTable) Columns() []string {
	return []string{t.TermID, t.Name, t.Slug, t.TermGroup}
}
