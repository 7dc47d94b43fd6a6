package employee

import (
	"context"

	"github.com/vialuz/sac-dashboard/modules/sac/domain/value_objects/shift"
)

type Repository interface {
	GetAll(ctx context.Context) ([]*Employee, error)
	GetByNames(ctx context.Context, names []string) ([]*Employee, error)
	Aliases(ctx context.Context) ([]*Alias, error)
	// CreateMissing inserts only names not present yet; safe under
	// concurrent batches discovering the same agent.
	CreateMissing(ctx context.Context, employees []*Employee) error
	UpdateShift(ctx context.Context, id uint, s shift.Shift) error
}
