package sac

import (
	"embed"

	"github.com/sirupsen/logrus"

	"github.com/vialuz/sac-dashboard/modules/sac/domain/value_objects/agentname"
	"github.com/vialuz/sac-dashboard/modules/sac/infrastructure/persistence"
	"github.com/vialuz/sac-dashboard/modules/sac/presentation/controllers"
	"github.com/vialuz/sac-dashboard/modules/sac/services"
	"github.com/vialuz/sac-dashboard/pkg/application"
	"github.com/vialuz/sac-dashboard/pkg/configuration"
)

//go:embed infrastructure/persistence/schema/*.sql
var migrationFiles embed.FS

func NewModule() application.Module {
	return &Module{}
}

type Module struct{}

func (m *Module) Register(app application.Application) error {
	conf := configuration.Use()

	app.Migrations().RegisterSchema(&migrationFiles, "infrastructure/persistence/schema")

	employeeRepo := persistence.NewEmployeeRepository()

	app.RegisterServices(
		services.NewIngestionService(
			persistence.NewUploadRepository(),
			employeeRepo,
			persistence.NewChannelRepository(),
			persistence.NewStatusRepository(),
			persistence.NewInteractionRepository(),
			persistence.NewProductivityRepository(),
			agentname.DefaultResolver(),
			conf.Upload.MaxFileSizeBytes,
			app.EventPublisher(),
		),
		services.NewDashboardService(employeeRepo),
	)
	app.RegisterControllers(
		controllers.NewIngestionController(app),
		controllers.NewDashboardController(app),
	)

	logger := conf.Logger()
	app.EventPublisher().Subscribe(func(event *services.FileIngestedEvent) {
		logger.WithFields(logrus.Fields{
			"upload_id": event.UploadID,
			"file":      event.Filename,
			"format":    event.Format,
			"status":    event.Status,
			"imported":  event.Imported,
		}).Info("arquivo importado")
	})
	return nil
}

func (m *Module) Name() string {
	return "sac"
}
