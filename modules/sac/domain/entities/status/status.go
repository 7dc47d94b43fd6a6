package status

import "context"

// Perdida marks abandoned calls; the KPI layer excludes it from answered
// totals.
const Perdida = "Perdida"

// Status is a lazily-created dimension value, unique by name.
type Status struct {
	id   uint
	name string
}

func New(name string) *Status {
	return &Status{name: name}
}

func NewWithID(id uint, name string) *Status {
	return &Status{id: id, name: name}
}

func (s *Status) ID() uint {
	return s.id
}

func (s *Status) Name() string {
	return s.name
}

type Repository interface {
	GetAll(ctx context.Context) ([]*Status, error)
	GetByNames(ctx context.Context, names []string) ([]*Status, error)
	CreateMissing(ctx context.Context, names []string) error
}
