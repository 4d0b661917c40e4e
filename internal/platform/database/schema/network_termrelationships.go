package schema

// NetworkTermRelationshipsTable represents the 'network.term_relationships' table
type NetworkTermRelationshipsTable struct {
	Table     string
	BlogID    string
	ObjectID  string
	MtmtID    string
	TermOrder string
}

// NetworkTermRelationships is the schema definition for network.term_relationships
var NetworkTermRelationships = NetworkTermRelationshipsTable{
	Table:     "network.term_relationships",
	BlogID:    "blog_id",
	ObjectID:  "object_id",
	MtmtID:    "mtmt_id",
	TermOrder: "term_order",
}

func (t NetworkTermRelationshipsTable) Columns() []string {
	return []string{t.BlogID, t.ObjectID, t.MtmtID, t.TermOrder}
}
