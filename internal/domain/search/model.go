package search

// Entry is the denormalized text of one service
type Entry struct {
	ServiceID int64
	Document  string
}
