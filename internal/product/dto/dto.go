package dto

type ProductFilters struct {
	Category    string
	SearchQuery string // Case-insensitive match on name
	LowStock    bool
}
