package productivity

import (
	"context"
	"time"
)

// Record is one parsed Voalle aggregate row: whole-day counters for a single
// agent, carrying the file-level reference date.
type Record struct {
	ReferenceDate     time.Time
	EmployeeName      string // canonical key from the name resolver
	ClientsServed     int
	Interactions      int
	FinalizedRequests int
}

// Fact is a dimension-resolved daily productivity row. At most one exists
// per (employee, date).
type Fact struct {
	ReferenceDate     time.Time
	ClientsServed     int
	Interactions      int
	FinalizedRequests int
	EmployeeID        uint
}

type Repository interface {
	BulkInsert(ctx context.Context, facts []*Fact) error
	// EmployeeIDsForDate preloads which employees already have a row for
	// the date, so repeat submissions dedup in memory and get counted.
	EmployeeIDsForDate(ctx context.Context, date time.Time) (map[uint]struct{}, error)
}
