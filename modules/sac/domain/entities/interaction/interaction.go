package interaction

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vialuz/sac-dashboard/modules/sac/domain/value_objects/shift"
)

// Record is one parsed transactional row before dimension resolution. The
// shift is derived from the timestamp at parse time and travels with the
// record so it is persisted exactly as computed.
type Record struct {
	ReferenceTS   time.Time
	Shift         shift.Shift
	EmployeeName  string // canonical key from the name resolver
	Team          *string
	ChannelName   string
	StatusName    string
	Protocol      *string
	Direction     *string
	WaitSeconds   int
	HandleSeconds int
	SolutionScore *decimal.Decimal
	ServiceScore  *decimal.Decimal
}

// Fact is a dimension-resolved row ready for bulk insert. Facts are only
// created by the ingestion batch writer and never updated or deleted.
type Fact struct {
	ReferenceTS   time.Time
	Shift         shift.Shift
	Protocol      *string
	Direction     *string
	WaitSeconds   int
	HandleSeconds int
	SolutionScore *decimal.Decimal
	ServiceScore  *decimal.Decimal
	EmployeeID    uint
	ChannelID     uint
	StatusID      uint
}

type Repository interface {
	BulkInsert(ctx context.Context, facts []*Fact) error
	// ExistingProtocols returns which of the given protocol values are
	// already persisted, batching the lookup in bounded round trips.
	ExistingProtocols(ctx context.Context, protocols []string) (map[string]struct{}, error)
	// ShiftCounts groups persisted facts by (employee, shift) for the
	// predominant-shift recompute.
	ShiftCounts(ctx context.Context, employeeIDs []uint) (map[uint]map[shift.Shift]int, error)
}
