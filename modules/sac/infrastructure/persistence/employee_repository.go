package persistence

import (
	"context"

	"github.com/vialuz/sac-dashboard/modules/sac/domain/entities/employee"
	"github.com/vialuz/sac-dashboard/modules/sac/domain/value_objects/shift"
	"github.com/vialuz/sac-dashboard/modules/sac/infrastructure/persistence/models"
	"github.com/vialuz/sac-dashboard/pkg/composables"
)

const (
	selectEmployeesQuery = `
		SELECT id, name, team, shift, created_at
		FROM dim_employees
		ORDER BY name`
	selectEmployeesByNamesQuery = `
		SELECT id, name, team, shift, created_at
		FROM dim_employees
		WHERE name = ANY($1)`
	selectAliasesQuery = `
		SELECT a.id, a.alias, e.id, e.name, e.team, e.shift, e.created_at
		FROM dim_employee_aliases a
		JOIN dim_employees e ON e.id = a.employee_id`
	insertMissingEmployeesQuery = `
		INSERT INTO dim_employees (name, team)
		SELECT n, t FROM unnest($1::text[], $2::text[]) AS x(n, t)
		ON CONFLICT (name) DO NOTHING`
	updateEmployeeShiftQuery = `
		UPDATE dim_employees SET shift = $2 WHERE id = $1`
)

type PgEmployeeRepository struct{}

func NewEmployeeRepository() employee.Repository {
	return &PgEmployeeRepository{}
}

func (r *PgEmployeeRepository) GetAll(ctx context.Context) ([]*employee.Employee, error) {
	return r.queryEmployees(ctx, selectEmployeesQuery)
}

func (r *PgEmployeeRepository) GetByNames(ctx context.Context, names []string) ([]*employee.Employee, error) {
	if len(names) == 0 {
		return nil, nil
	}
	return r.queryEmployees(ctx, selectEmployeesByNamesQuery, names)
}

func (r *PgEmployeeRepository) Aliases(ctx context.Context) ([]*employee.Alias, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := tx.Query(ctx, selectAliasesQuery)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var aliases []*employee.Alias
	for rows.Next() {
		var aliasRow models.EmployeeAlias
		var empRow models.Employee
		if err := rows.Scan(
			&aliasRow.ID,
			&aliasRow.Alias,
			&empRow.ID,
			&empRow.Name,
			&empRow.Team,
			&empRow.Shift,
			&empRow.CreatedAt,
		); err != nil {
			return nil, err
		}
		emp, err := ToDomainEmployee(&empRow)
		if err != nil {
			return nil, err
		}
		aliases = append(aliases, employee.NewAlias(aliasRow.Alias, emp, employee.AliasWithID(aliasRow.ID)))
	}
	return aliases, rows.Err()
}

func (r *PgEmployeeRepository) CreateMissing(ctx context.Context, employees []*employee.Employee) error {
	if len(employees) == 0 {
		return nil
	}
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}

	names := make([]string, 0, len(employees))
	teams := make([]*string, 0, len(employees))
	for _, e := range employees {
		names = append(names, e.Name())
		teams = append(teams, e.Team())
	}

	_, err = tx.Exec(ctx, insertMissingEmployeesQuery, names, teams)
	return err
}

func (r *PgEmployeeRepository) UpdateShift(ctx context.Context, id uint, s shift.Shift) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	_, err = tx.Exec(ctx, updateEmployeeShiftQuery, id, string(s))
	return err
}

func (r *PgEmployeeRepository) queryEmployees(ctx context.Context, query string, args ...interface{}) ([]*employee.Employee, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var employees []*employee.Employee
	for rows.Next() {
		var row models.Employee
		if err := rows.Scan(&row.ID, &row.Name, &row.Team, &row.Shift, &row.CreatedAt); err != nil {
			return nil, err
		}
		emp, err := ToDomainEmployee(&row)
		if err != nil {
			return nil, err
		}
		employees = append(employees, emp)
	}
	return employees, rows.Err()
}
