package persistence

import (
	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vialuz/sac-dashboard/modules/sac/domain/entities/channel"
	"github.com/vialuz/sac-dashboard/modules/sac/domain/entities/employee"
	"github.com/vialuz/sac-dashboard/modules/sac/domain/entities/interaction"
	"github.com/vialuz/sac-dashboard/modules/sac/domain/entities/productivity"
	"github.com/vialuz/sac-dashboard/modules/sac/domain/entities/status"
	"github.com/vialuz/sac-dashboard/modules/sac/domain/entities/upload"
	"github.com/vialuz/sac-dashboard/modules/sac/domain/value_objects/shift"
	"github.com/vialuz/sac-dashboard/modules/sac/infrastructure/persistence/models"
	"github.com/vialuz/sac-dashboard/pkg/mapping"
)

func ToDomainEmployee(row *models.Employee) (*employee.Employee, error) {
	opts := []employee.Option{
		employee.WithID(row.ID),
		employee.WithTeam(mapping.SQLNullStringToPointer(row.Team)),
	}
	if row.Shift.Valid {
		s := shift.Shift(row.Shift.String)
		if !shift.IsValid(s) {
			return nil, errors.Errorf("unknown shift %q for employee %d", row.Shift.String, row.ID)
		}
		opts = append(opts, employee.WithShift(&s))
	}
	return employee.New(row.Name, opts...), nil
}

func ToDomainChannel(row *models.Channel) *channel.Channel {
	return channel.NewWithID(row.ID, row.Name)
}

func ToDomainStatus(row *models.Status) *status.Status {
	return status.NewWithID(row.ID, row.Name)
}

func ToDBInteraction(fact *interaction.Fact) *models.Interaction {
	return &models.Interaction{
		ReferenceTS:   fact.ReferenceTS,
		Shift:         string(fact.Shift),
		Protocol:      mapping.PointerToSQLNullString(fact.Protocol),
		Direction:     mapping.PointerToSQLNullString(fact.Direction),
		WaitSeconds:   fact.WaitSeconds,
		HandleSeconds: fact.HandleSeconds,
		SolutionScore: mapping.PointerToSQLNullFloat64(decimalToFloatPointer(fact.SolutionScore)),
		ServiceScore:  mapping.PointerToSQLNullFloat64(decimalToFloatPointer(fact.ServiceScore)),
		EmployeeID:    fact.EmployeeID,
		ChannelID:     fact.ChannelID,
		StatusID:      fact.StatusID,
	}
}

func ToDBDailyProductivity(fact *productivity.Fact) *models.DailyProductivity {
	return &models.DailyProductivity{
		ReferenceDate:     fact.ReferenceDate,
		ClientsServed:     fact.ClientsServed,
		Interactions:      fact.Interactions,
		FinalizedRequests: fact.FinalizedRequests,
		EmployeeID:        fact.EmployeeID,
	}
}

func ToDBUpload(u *upload.Upload) *models.Upload {
	return &models.Upload{
		ID:             u.ID().String(),
		Filename:       u.Filename(),
		FileHash:       u.FileHash(),
		Status:         string(u.Status()),
		ImportedCount:  u.ImportedCount(),
		DuplicateCount: u.DuplicateCount(),
		ErrorText:      mapping.PointerToSQLNullString(u.ErrorText()),
		CreatedAt:      u.CreatedAt(),
		ProcessedAt:    mapping.PointerToSQLNullTime(u.ProcessedAt()),
	}
}

func ToDomainUpload(row *models.Upload) (*upload.Upload, error) {
	id, err := uuid.Parse(row.ID)
	if err != nil {
		return nil, errors.Wrap(err, "parsing upload id")
	}
	return upload.New(
		row.Filename,
		row.FileHash,
		upload.WithID(id),
		upload.WithStatus(upload.Status(row.Status)),
		upload.WithCounts(row.ImportedCount, row.DuplicateCount),
		upload.WithErrorText(mapping.SQLNullStringToPointer(row.ErrorText)),
		upload.WithCreatedAt(row.CreatedAt),
		upload.WithProcessedAt(mapping.SQLNullTimeToPointer(row.ProcessedAt)),
	), nil
}

func decimalToFloatPointer(d *decimal.Decimal) *float64 {
	if d == nil {
		return nil
	}
	f, _ := d.Float64()
	return &f
}
