package persistence

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/vialuz/sac-dashboard/modules/sac/domain/entities/productivity"
	"github.com/vialuz/sac-dashboard/pkg/composables"
)

const selectProductivityEmployeeIDsQuery = `
	SELECT employee_id FROM fact_daily_productivity WHERE reference_date = $1`

type PgProductivityRepository struct{}

func NewProductivityRepository() productivity.Repository {
	return &PgProductivityRepository{}
}

func (r *PgProductivityRepository) BulkInsert(ctx context.Context, facts []*productivity.Fact) error {
	if len(facts) == 0 {
		return nil
	}
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}

	rows := make([][]interface{}, 0, len(facts))
	for _, fact := range facts {
		row := ToDBDailyProductivity(fact)
		rows = append(rows, []interface{}{
			row.ReferenceDate,
			row.ClientsServed,
			row.Interactions,
			row.FinalizedRequests,
			row.EmployeeID,
		})
	}

	_, err = tx.CopyFrom(
		ctx,
		pgx.Identifier{"fact_daily_productivity"},
		[]string{
			"reference_date",
			"clients_served",
			"interactions",
			"finalized_requests",
			"employee_id",
		},
		pgx.CopyFromRows(rows),
	)
	return err
}

func (r *PgProductivityRepository) EmployeeIDsForDate(ctx context.Context, date time.Time) (map[uint]struct{}, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := tx.Query(ctx, selectProductivityEmployeeIDsQuery, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make(map[uint]struct{})
	for rows.Next() {
		var id uint
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids[id] = struct{}{}
	}
	return ids, rows.Err()
}
