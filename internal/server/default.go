package server

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"github.com/vialuz/sac-dashboard/pkg/application"
	"github.com/vialuz/sac-dashboard/pkg/configuration"
	"github.com/vialuz/sac-dashboard/pkg/constants"
	"github.com/vialuz/sac-dashboard/pkg/httpapi"
	"github.com/vialuz/sac-dashboard/pkg/middleware"
	"github.com/vialuz/sac-dashboard/pkg/server"
)

type DefaultOptions struct {
	Logger        *logrus.Logger
	Configuration *configuration.Configuration
	Application   application.Application
	Pool          *pgxpool.Pool
}

// Default assembles the standard middleware stack and the HTTP server.
func Default(options *DefaultOptions) (*server.HTTPServer, error) {
	app := options.Application

	app.RegisterMiddleware(
		middleware.WithLogger(options.Logger),
		middleware.Provide(constants.AppKey, app),
		middleware.Provide(constants.PoolKey, options.Pool),
		middleware.Cors(options.Configuration.AllowedOrigins...),
	)

	app.RegisterControllers(healthController{})

	return server.NewHTTPServer(app), nil
}

type healthController struct{}

func (healthController) Key() string {
	return "/health"
}

func (healthController) Register(r *mux.Router) {
	r.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		_ = httpapi.WriteJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
	}).Methods(http.MethodGet)
}
