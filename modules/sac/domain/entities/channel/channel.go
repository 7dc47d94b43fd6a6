package channel

import "context"

// Known channel names produced by the importers.
const (
	WhatsApp = "WhatsApp"
	Ligacao  = "Ligação"
)

// Channel is a lazily-created dimension value, unique by name.
type Channel struct {
	id   uint
	name string
}

func New(name string) *Channel {
	return &Channel{name: name}
}

func NewWithID(id uint, name string) *Channel {
	return &Channel{id: id, name: name}
}

func (c *Channel) ID() uint {
	return c.id
}

func (c *Channel) Name() string {
	return c.name
}

type Repository interface {
	GetAll(ctx context.Context) ([]*Channel, error)
	GetByNames(ctx context.Context, names []string) ([]*Channel, error)
	CreateMissing(ctx context.Context, names []string) error
}
