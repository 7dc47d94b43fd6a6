package persistence

import (
	"context"

	"github.com/vialuz/sac-dashboard/modules/sac/domain/entities/channel"
	"github.com/vialuz/sac-dashboard/modules/sac/infrastructure/persistence/models"
	"github.com/vialuz/sac-dashboard/pkg/composables"
)

const (
	selectChannelsQuery = `
		SELECT id, name FROM dim_channels ORDER BY name`
	selectChannelsByNamesQuery = `
		SELECT id, name FROM dim_channels WHERE name = ANY($1)`
	insertMissingChannelsQuery = `
		INSERT INTO dim_channels (name)
		SELECT unnest($1::text[])
		ON CONFLICT (name) DO NOTHING`
)

type PgChannelRepository struct{}

func NewChannelRepository() channel.Repository {
	return &PgChannelRepository{}
}

func (r *PgChannelRepository) GetAll(ctx context.Context) ([]*channel.Channel, error) {
	return r.query(ctx, selectChannelsQuery)
}

func (r *PgChannelRepository) GetByNames(ctx context.Context, names []string) ([]*channel.Channel, error) {
	if len(names) == 0 {
		return nil, nil
	}
	return r.query(ctx, selectChannelsByNamesQuery, names)
}

func (r *PgChannelRepository) CreateMissing(ctx context.Context, names []string) error {
	if len(names) == 0 {
		return nil
	}
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	_, err = tx.Exec(ctx, insertMissingChannelsQuery, names)
	return err
}

func (r *PgChannelRepository) query(ctx context.Context, query string, args ...interface{}) ([]*channel.Channel, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var channels []*channel.Channel
	for rows.Next() {
		var row models.Channel
		if err := rows.Scan(&row.ID, &row.Name); err != nil {
			return nil, err
		}
		channels = append(channels, ToDomainChannel(&row))
	}
	return channels, rows.Err()
}
