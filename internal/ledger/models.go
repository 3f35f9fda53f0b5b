package ledger

import "time"

// Run is one digest execution with the item count rendered per category.
type Run struct {
	ID        string
	Date      string
	StartedAt time.Time
	Research  int
	Docs      int
	GitHub    int
	Errors    int
}

// Item is a rendered link, tracked across runs by URL.
type Item struct {
	ID        string
	Category  string
	Title     string
	URL       string
	FirstSeen time.Time
	LastSeen  time.Time
}

type Stats struct {
	Runs  int
	Items int
	Size  int64
}
