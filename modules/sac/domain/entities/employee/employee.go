package employee

import (
	"github.com/vialuz/sac-dashboard/modules/sac/domain/value_objects/shift"
)

// TeamSAC is the default team for agents discovered through the
// transactional imports.
const TeamSAC = "SAC"

// Employee is one row of the employee dimension. All known spellings of an
// agent's name resolve to exactly one Employee.
type Employee struct {
	id    uint
	name  string
	team  *string
	shift *shift.Shift
}

type Option func(*Employee)

func WithID(id uint) Option {
	return func(e *Employee) {
		e.id = id
	}
}

func WithTeam(team *string) Option {
	return func(e *Employee) {
		e.team = team
	}
}

func WithShift(s *shift.Shift) Option {
	return func(e *Employee) {
		e.shift = s
	}
}

func New(name string, opts ...Option) *Employee {
	e := &Employee{name: name}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Employee) ID() uint {
	return e.id
}

func (e *Employee) Name() string {
	return e.name
}

func (e *Employee) Team() *string {
	return e.team
}

// Shift is the predominant band, recomputed after every batch that touches
// this employee; nil until the first transactional fact lands.
func (e *Employee) Shift() *shift.Shift {
	return e.shift
}

func (e *Employee) IsSAC() bool {
	return e.team != nil && *e.team == TeamSAC
}

// Alias maps one externally-observed spelling (exact capture) to its
// canonical Employee.
type Alias struct {
	id       uint
	alias    string
	employee *Employee
}

func NewAlias(alias string, emp *Employee, opts ...AliasOption) *Alias {
	a := &Alias{alias: alias, employee: emp}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

type AliasOption func(*Alias)

func AliasWithID(id uint) AliasOption {
	return func(a *Alias) {
		a.id = id
	}
}

func (a *Alias) ID() uint {
	return a.id
}

func (a *Alias) Alias() string {
	return a.alias
}

func (a *Alias) Employee() *Employee {
	return a.employee
}
