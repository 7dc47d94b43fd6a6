package persistence

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/vialuz/sac-dashboard/modules/sac/domain/entities/interaction"
	"github.com/vialuz/sac-dashboard/modules/sac/domain/value_objects/shift"
	"github.com/vialuz/sac-dashboard/pkg/composables"
)

const (
	selectExistingProtocolsQuery = `
		SELECT protocol FROM fact_interactions WHERE protocol = ANY($1)`
	selectShiftCountsQuery = `
		SELECT employee_id, shift, COUNT(*)
		FROM fact_interactions
		WHERE employee_id = ANY($1)
		GROUP BY employee_id, shift`
)

// protocolBatchSize bounds the ANY() array so lookups for large files stay in
// reasonably sized round trips.
const protocolBatchSize = 500

type PgInteractionRepository struct{}

func NewInteractionRepository() interaction.Repository {
	return &PgInteractionRepository{}
}

func (r *PgInteractionRepository) BulkInsert(ctx context.Context, facts []*interaction.Fact) error {
	if len(facts) == 0 {
		return nil
	}
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}

	rows := make([][]interface{}, 0, len(facts))
	for _, fact := range facts {
		row := ToDBInteraction(fact)
		rows = append(rows, []interface{}{
			row.ReferenceTS,
			row.Shift,
			row.Protocol,
			row.Direction,
			row.WaitSeconds,
			row.HandleSeconds,
			row.SolutionScore,
			row.ServiceScore,
			row.EmployeeID,
			row.ChannelID,
			row.StatusID,
		})
	}

	_, err = tx.CopyFrom(
		ctx,
		pgx.Identifier{"fact_interactions"},
		[]string{
			"reference_ts",
			"shift",
			"protocol",
			"direction",
			"wait_seconds",
			"handle_seconds",
			"solution_score",
			"service_score",
			"employee_id",
			"channel_id",
			"status_id",
		},
		pgx.CopyFromRows(rows),
	)
	return err
}

func (r *PgInteractionRepository) ExistingProtocols(ctx context.Context, protocols []string) (map[string]struct{}, error) {
	existing := make(map[string]struct{})
	if len(protocols) == 0 {
		return existing, nil
	}
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	for start := 0; start < len(protocols); start += protocolBatchSize {
		end := start + protocolBatchSize
		if end > len(protocols) {
			end = len(protocols)
		}

		rows, err := tx.Query(ctx, selectExistingProtocolsQuery, protocols[start:end])
		if err != nil {
			return nil, err
		}
		for rows.Next() {
			var protocol string
			if err := rows.Scan(&protocol); err != nil {
				rows.Close()
				return nil, err
			}
			existing[protocol] = struct{}{}
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return nil, err
		}
	}
	return existing, nil
}

func (r *PgInteractionRepository) ShiftCounts(ctx context.Context, employeeIDs []uint) (map[uint]map[shift.Shift]int, error) {
	counts := make(map[uint]map[shift.Shift]int)
	if len(employeeIDs) == 0 {
		return counts, nil
	}
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := tx.Query(ctx, selectShiftCountsQuery, employeeIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var employeeID uint
		var shiftName string
		var count int
		if err := rows.Scan(&employeeID, &shiftName, &count); err != nil {
			return nil, err
		}
		if counts[employeeID] == nil {
			counts[employeeID] = make(map[shift.Shift]int)
		}
		counts[employeeID][shift.Shift(shiftName)] = count
	}
	return counts, rows.Err()
}
