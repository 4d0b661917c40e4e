package schema

// NetworkOptionsTable represents the 'network.options' table
type NetworkOptionsTable struct {
	Table     string
	Name      string
	Value     string
	UpdatedAt string
}

var NetworkOptions = NetworkOptionsTable{
	Table:     "network.options",
	Name:      "option_name",
	Value:     "option_value",
	UpdatedAt: "updated_at",
}
