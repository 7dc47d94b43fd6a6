package controllers

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/vialuz/sac-dashboard/modules/sac/domain/entities/upload"
	"github.com/vialuz/sac-dashboard/modules/sac/services"
	"github.com/vialuz/sac-dashboard/pkg/application"
	"github.com/vialuz/sac-dashboard/pkg/httpapi"
	"github.com/vialuz/sac-dashboard/pkg/middleware"
	"github.com/vialuz/sac-dashboard/pkg/serrors"
)

const maxMultipartMemory = 32 << 20

type IngestionController struct {
	service *services.IngestionService
}

func NewIngestionController(app application.Application) application.Controller {
	return &IngestionController{
		service: app.Service(services.IngestionService{}).(*services.IngestionService),
	}
}

func (c *IngestionController) Key() string {
	return "/ingestion"
}

func (c *IngestionController) Register(r *mux.Router) {
	router := r.PathPrefix("/ingestion").Subrouter()
	router.HandleFunc("/upload", c.Upload).Methods(http.MethodPost)
	router.HandleFunc("/uploads", c.ListUploads).Methods(http.MethodGet)
}

type uploadDetails struct {
	Format      string   `json:"formato_detectado"`
	TotalRows   int      `json:"total_linhas_arquivo"`
	Imported    int      `json:"success_count"`
	Ignored     int      `json:"ignored_count"`
	Duplicates  int      `json:"duplicate_count"`
	ErrorCount  int      `json:"error_count"`
	Errors      []string `json:"errors"`
}

type uploadResponse struct {
	Status  string        `json:"status"`
	Message string        `json:"message"`
	Details uploadDetails `json:"detalhes"`
}

func (c *IngestionController) Upload(w http.ResponseWriter, r *http.Request) {
	logger := middleware.UseLogger(r.Context())

	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, services.ErrCodeInvalidFile,
			"Envie o arquivo no campo 'file' de um formulário multipart.")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, services.ErrCodeInvalidFile,
			"Envie o arquivo no campo 'file' de um formulário multipart.")
		return
	}
	defer func() {
		_ = file.Close()
	}()

	raw, err := io.ReadAll(file)
	if err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, services.ErrCodeInvalidFile,
			"Não foi possível ler o arquivo enviado. Tente novamente.")
		return
	}

	var referenceDate *time.Time
	if value := r.FormValue("reference_date"); value != "" {
		parsed, err := time.Parse("2006-01-02", value)
		if err != nil {
			_ = httpapi.WriteError(w, http.StatusBadRequest, services.ErrCodeInvalidFile,
				"A data '"+value+"' não é válida. Selecione uma data válida no calendário.")
			return
		}
		referenceDate = &parsed
	}

	result, err := c.service.Ingest(r.Context(), header.Filename, raw, referenceDate)
	if err != nil {
		c.writeIngestError(w, logger, err)
		return
	}

	logger.WithField("upload_id", result.UploadID).
		WithField("format", result.Format).
		WithField("imported", result.Imported).
		Info("file ingested")

	_ = httpapi.WriteJSON(w, http.StatusOK, &uploadResponse{
		Status:  string(result.Status),
		Message: result.Message,
		Details: uploadDetails{
			Format:     result.Format,
			TotalRows:  result.TotalRows,
			Imported:   result.Imported,
			Ignored:    result.Ignored,
			Duplicates: result.Duplicates,
			ErrorCount: result.ErrorCount,
			Errors:     result.Errors,
		},
	})
}

func (c *IngestionController) writeIngestError(w http.ResponseWriter, logger *logrus.Entry, err error) {
	var validation *services.ValidationError
	if errors.As(err, &validation) {
		_ = httpapi.WriteErrorDetails(w, http.StatusUnprocessableEntity,
			services.ErrCodeValidation, validation.Message, map[string]any{
				"tipo":         "validacao",
				"formato":      validation.Format,
				"erros":        validation.Errors,
				"total_linhas": validation.TotalRows,
			})
		return
	}

	switch serrors.Code(err) {
	case services.ErrCodeInvalidFile:
		_ = httpapi.WriteError(w, http.StatusBadRequest, services.ErrCodeInvalidFile, err.Error())
	case services.ErrCodeDuplicateFile:
		_ = httpapi.WriteError(w, http.StatusConflict, services.ErrCodeDuplicateFile, err.Error())
	default:
		logger.Error(err)
		_ = httpapi.WriteError(w, http.StatusInternalServerError, services.ErrCodeInternal, err.Error())
	}
}

type uploadListItem struct {
	ID          string     `json:"id"`
	Filename    string     `json:"arquivo"`
	Status      string     `json:"status"`
	Imported    int        `json:"registros_importados"`
	Duplicates  int        `json:"registros_duplicados"`
	Error       *string    `json:"erro,omitempty"`
	CreatedAt   time.Time  `json:"criado_em"`
	ProcessedAt *time.Time `json:"processado_em,omitempty"`
}

func (c *IngestionController) ListUploads(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if value := r.URL.Query().Get("limite"); value != "" {
		parsed, err := strconv.Atoi(value)
		if err != nil || parsed <= 0 {
			_ = httpapi.WriteError(w, http.StatusBadRequest, services.ErrCodeInvalidFile,
				"O parâmetro 'limite' deve ser um número inteiro positivo.")
			return
		}
		limit = parsed
	}

	uploads, err := c.service.Uploads(r.Context(), limit)
	if err != nil {
		middleware.UseLogger(r.Context()).Error(err)
		_ = httpapi.WriteError(w, http.StatusInternalServerError, services.ErrCodeInternal,
			"Erro ao consultar o histórico de importações. Tente novamente.")
		return
	}

	items := make([]uploadListItem, 0, len(uploads))
	for _, u := range uploads {
		items = append(items, toUploadListItem(u))
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, items)
}

func toUploadListItem(u *upload.Upload) uploadListItem {
	return uploadListItem{
		ID:          u.ID().String(),
		Filename:    u.Filename(),
		Status:      string(u.Status()),
		Imported:    u.ImportedCount(),
		Duplicates:  u.DuplicateCount(),
		Error:       u.ErrorText(),
		CreatedAt:   u.CreatedAt(),
		ProcessedAt: u.ProcessedAt(),
	}
}
