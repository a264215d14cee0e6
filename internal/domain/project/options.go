package project

// ListOptions provides filtering options for listing projects.
type ListOptions struct {
	Statuses    []Status
	MinPriority int
	Limit       int
	Offset      int
}

// SearchOptions provides filtering options for search.
type SearchOptions struct {
	Statuses []Status
	Limit    int
	Offset   int
}
