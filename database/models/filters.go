package models

type Filter struct {
	Status   string
	Sender   string
	Receiver string
	Track    string
	Category string
}

type PaginatedResult struct {
	Items      []Transaction `json:"items"`
	TotalCount int64         `json:"total_count"`
	Page       int64         `json:"page"`
	PageSize   int64         `json:"page_size"`
	Pending    int64         `json:"pending_count"`
	Disputed   int64         `json:"disputed_count"`
}
