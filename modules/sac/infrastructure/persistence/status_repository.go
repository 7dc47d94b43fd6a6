package persistence

import (
	"context"

	"github.com/vialuz/sac-dashboard/modules/sac/domain/entities/status"
	"github.com/vialuz/sac-dashboard/modules/sac/infrastructure/persistence/models"
	"github.com/vialuz/sac-dashboard/pkg/composables"
)

const (
	selectStatusesQuery = `
		SELECT id, name FROM dim_statuses ORDER BY name`
	selectStatusesByNamesQuery = `
		SELECT id, name FROM dim_statuses WHERE name = ANY($1)`
	insertMissingStatusesQuery = `
		INSERT INTO dim_statuses (name)
		SELECT unnest($1::text[])
		ON CONFLICT (name) DO NOTHING`
)

type PgStatusRepository struct{}

func NewStatusRepository() status.Repository {
	return &PgStatusRepository{}
}

func (r *PgStatusRepository) GetAll(ctx context.Context) ([]*status.Status, error) {
	return r.query(ctx, selectStatusesQuery)
}

func (r *PgStatusRepository) GetByNames(ctx context.Context, names []string) ([]*status.Status, error) {
	if len(names) == 0 {
		return nil, nil
	}
	return r.query(ctx, selectStatusesByNamesQuery, names)
}

func (r *PgStatusRepository) CreateMissing(ctx context.Context, names []string) error {
	if len(names) == 0 {
		return nil
	}
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	_, err = tx.Exec(ctx, insertMissingStatusesQuery, names)
	return err
}

func (r *PgStatusRepository) query(ctx context.Context, query string, args ...interface{}) ([]*status.Status, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var statuses []*status.Status
	for rows.Next() {
		var row models.Status
		if err := rows.Scan(&row.ID, &row.Name); err != nil {
			return nil, err
		}
		statuses = append(statuses, ToDomainStatus(&row))
	}
	return statuses, rows.Err()
}
