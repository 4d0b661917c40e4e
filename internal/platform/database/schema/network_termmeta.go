package schema

// NetworkTermMetaTable represents the 'network.termmeta' table
type NetworkTermMetaTable struct {
	Table     string
	MetaID    string
	TermID    string
	MetaKey   string
	MetaValue string
}

// NetworkTermMeta is the schema definition for network.termmeta
var NetworkTermMeta = NetworkTermMetaTable{
	Table:     "network.termmeta",
	MetaID:    "meta_id",
	TermID:    "term_id",
	MetaKey:   "meta_key",
	MetaValue: "meta_value",
}

func (t NetworkTermMetaTable) Columns() []string {
	return []string{t.MetaID, t.TermID, t.MetaKey, t.MetaValue}
}
