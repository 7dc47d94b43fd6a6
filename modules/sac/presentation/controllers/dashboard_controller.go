package controllers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/vialuz/sac-dashboard/modules/sac/domain/entities/employee"
	"github.com/vialuz/sac-dashboard/modules/sac/domain/value_objects/shift"
	"github.com/vialuz/sac-dashboard/modules/sac/services"
	"github.com/vialuz/sac-dashboard/pkg/application"
	"github.com/vialuz/sac-dashboard/pkg/httpapi"
	"github.com/vialuz/sac-dashboard/pkg/middleware"
)

const errCodeBadQuery = "bad_query"

type DashboardController struct {
	service *services.DashboardService
}

func NewDashboardController(app application.Application) application.Controller {
	return &DashboardController{
		service: app.Service(services.DashboardService{}).(*services.DashboardService),
	}
}

func (c *DashboardController) Key() string {
	return "/dashboard"
}

func (c *DashboardController) Register(r *mux.Router) {
	router := r.PathPrefix("/dashboard").Subrouter()
	router.HandleFunc("/metrics", c.Metrics).Methods(http.MethodGet)
	router.HandleFunc("/ranking", c.Ranking).Methods(http.MethodGet)
	router.HandleFunc("/channels", c.Channels).Methods(http.MethodGet)
	router.HandleFunc("/productivity", c.Productivity).Methods(http.MethodGet)

	r.HandleFunc("/employees", c.Employees).Methods(http.MethodGet)
}

// parseFilter reads data_inicio, data_fim (YYYY-MM-DD) and turno. A written
// error response is signaled by ok=false.
func parseFilter(w http.ResponseWriter, r *http.Request) (*services.DashboardFilter, bool) {
	filter := &services.DashboardFilter{}
	query := r.URL.Query()

	if value := query.Get("data_inicio"); value != "" {
		parsed, err := time.Parse("2006-01-02", value)
		if err != nil {
			_ = httpapi.WriteError(w, http.StatusBadRequest, errCodeBadQuery,
				"A data inicial '"+value+"' não é válida. Use o formato AAAA-MM-DD.")
			return nil, false
		}
		filter.From = &parsed
	}
	if value := query.Get("data_fim"); value != "" {
		parsed, err := time.Parse("2006-01-02", value)
		if err != nil {
			_ = httpapi.WriteError(w, http.StatusBadRequest, errCodeBadQuery,
				"A data final '"+value+"' não é válida. Use o formato AAAA-MM-DD.")
			return nil, false
		}
		end := parsed.Add(24*time.Hour - time.Second)
		filter.To = &end
	}
	if value := query.Get("turno"); value != "" {
		band := shift.Shift(value)
		if !shift.IsValid(band) {
			_ = httpapi.WriteError(w, http.StatusBadRequest, errCodeBadQuery,
				"O turno '"+value+"' não é válido. Use Madrugada, Manhã, Tarde ou Noite.")
			return nil, false
		}
		filter.Shift = &band
	}
	return filter, true
}

type channelCountDTO struct {
	Channel string `json:"canal"`
	Total   int    `json:"total"`
}

type metricsDTO struct {
	TotalAnswered        int               `json:"total_atendimentos"`
	TotalMissed          int               `json:"total_perdidas"`
	AbandonmentRate      float64           `json:"taxa_abandono"`
	SLAPercent           float64           `json:"sla_percentual"`
	AvgWaitLigacao       int               `json:"tme_ligacao_segundos"`
	AvgWaitOmni          int               `json:"tme_omni_segundos"`
	AvgHandleLigacao     int               `json:"tma_ligacao_segundos"`
	AvgHandleOmni        int               `json:"tma_omni_segundos"`
	AvgScoreLigacao      float64           `json:"nota_media_ligacao"`
	AvgScoreOmni         float64           `json:"nota_media_omni"`
	AvgSolutionScoreOmni float64           `json:"nota_media_solucao_omni"`
	ByChannel            []channelCountDTO `json:"atendimentos_por_canal"`
}

func (c *DashboardController) Metrics(w http.ResponseWriter, r *http.Request) {
	filter, ok := parseFilter(w, r)
	if !ok {
		return
	}

	metrics, err := c.service.Metrics(r.Context(), filter)
	if err != nil {
		middleware.UseLogger(r.Context()).Error(err)
		_ = httpapi.WriteError(w, http.StatusInternalServerError, services.ErrCodeInternal,
			"Erro ao calcular os indicadores. Tente novamente.")
		return
	}

	dto := &metricsDTO{
		TotalAnswered:        metrics.TotalAnswered,
		TotalMissed:          metrics.TotalMissed,
		AbandonmentRate:      metrics.AbandonmentRate,
		SLAPercent:           metrics.SLAPercent,
		AvgWaitLigacao:       metrics.AvgWaitLigacao,
		AvgWaitOmni:          metrics.AvgWaitOmni,
		AvgHandleLigacao:     metrics.AvgHandleLigacao,
		AvgHandleOmni:        metrics.AvgHandleOmni,
		AvgScoreLigacao:      metrics.AvgScoreLigacao,
		AvgScoreOmni:         metrics.AvgScoreOmni,
		AvgSolutionScoreOmni: metrics.AvgSolutionScoreOmni,
		ByChannel:            make([]channelCountDTO, 0, len(metrics.ByChannel)),
	}
	for _, cc := range metrics.ByChannel {
		dto.ByChannel = append(dto.ByChannel, channelCountDTO{Channel: cc.Channel, Total: cc.Total})
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, dto)
}

func (c *DashboardController) Channels(w http.ResponseWriter, r *http.Request) {
	filter, ok := parseFilter(w, r)
	if !ok {
		return
	}

	counts, err := c.service.ChannelBreakdown(r.Context(), filter)
	if err != nil {
		middleware.UseLogger(r.Context()).Error(err)
		_ = httpapi.WriteError(w, http.StatusInternalServerError, services.ErrCodeInternal,
			"Erro ao consultar os atendimentos por canal. Tente novamente.")
		return
	}

	dtos := make([]channelCountDTO, 0, len(counts))
	for _, cc := range counts {
		dtos = append(dtos, channelCountDTO{Channel: cc.Channel, Total: cc.Total})
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, dtos)
}

type rankingEntryDTO struct {
	EmployeeID       uint     `json:"colaborador_id"`
	Name             string   `json:"nome"`
	Team             *string  `json:"equipe"`
	Shift            *string  `json:"turno"`
	Position         int      `json:"posicao"`
	CallsAnswered    int      `json:"ligacoes_atendidas"`
	CallsMissed      int      `json:"ligacoes_perdidas"`
	CallsWait        int      `json:"tme_ligacao_segundos"`
	CallsHandle      int      `json:"tma_ligacao_segundos"`
	CallsScore       *float64 `json:"nota_ligacao"`
	OmniTotal        int      `json:"atendimentos_omni"`
	OmniWait         int      `json:"tme_omni_segundos"`
	OmniHandle       int      `json:"tma_omni_segundos"`
	OmniScore        *float64 `json:"nota_omni"`
	VoalleClients    int      `json:"voalle_clientes_atendidos"`
	VoalleTotal      int      `json:"voalle_atendimentos"`
	VoalleFinalized  int      `json:"voalle_finalizados"`
	FinalizationRate *float64 `json:"voalle_taxa_finalizacao"`
	TotalAnswered    int      `json:"total_atendimentos"`
	FinalScore       *float64 `json:"nota_final"`
}

func (c *DashboardController) Ranking(w http.ResponseWriter, r *http.Request) {
	filter, ok := parseFilter(w, r)
	if !ok {
		return
	}

	limit := 50
	if value := r.URL.Query().Get("limite"); value != "" {
		parsed, err := strconv.Atoi(value)
		if err != nil || parsed <= 0 {
			_ = httpapi.WriteError(w, http.StatusBadRequest, errCodeBadQuery,
				"O parâmetro 'limite' deve ser um número inteiro positivo.")
			return
		}
		limit = parsed
	}

	entries, err := c.service.Ranking(r.Context(), filter, limit)
	if err != nil {
		middleware.UseLogger(r.Context()).Error(err)
		_ = httpapi.WriteError(w, http.StatusInternalServerError, services.ErrCodeInternal,
			"Erro ao montar o ranking. Tente novamente.")
		return
	}

	dtos := make([]rankingEntryDTO, 0, len(entries))
	for _, e := range entries {
		dtos = append(dtos, rankingEntryDTO{
			EmployeeID:       e.EmployeeID,
			Name:             e.Name,
			Team:             e.Team,
			Shift:            shiftToString(e.Shift),
			Position:         e.Position,
			CallsAnswered:    e.CallsTotal,
			CallsMissed:      e.CallsMissed,
			CallsWait:        e.CallsWait,
			CallsHandle:      e.CallsHandle,
			CallsScore:       e.CallsScore,
			OmniTotal:        e.OmniTotal,
			OmniWait:         e.OmniWait,
			OmniHandle:       e.OmniHandle,
			OmniScore:        e.OmniScore,
			VoalleClients:    e.VoalleClients,
			VoalleTotal:      e.VoalleTotal,
			VoalleFinalized:  e.VoalleFinalized,
			FinalizationRate: e.FinalizationRate,
			TotalAnswered:    e.TotalAnswered,
			FinalScore:       e.FinalScore,
		})
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, dtos)
}

type productivityRowDTO struct {
	ReferenceDate     string  `json:"data_referencia"`
	EmployeeID        uint    `json:"colaborador_id"`
	Name              string  `json:"nome"`
	Team              *string `json:"equipe"`
	ClientsServed     int     `json:"clientes_atendidos"`
	Interactions      int     `json:"numero_atendimentos"`
	FinalizedRequests int     `json:"solicitacao_finalizada"`
}

type productivityDTO struct {
	TotalClientsServed int                  `json:"total_clientes_atendidos"`
	TotalInteractions  int                  `json:"total_atendimentos"`
	TotalFinalized     int                  `json:"total_finalizados"`
	FinalizationRate   float64              `json:"taxa_finalizacao"`
	Rows               []productivityRowDTO `json:"registros"`
}

func (c *DashboardController) Productivity(w http.ResponseWriter, r *http.Request) {
	filter, ok := parseFilter(w, r)
	if !ok {
		return
	}

	var employeeID *uint
	if value := r.URL.Query().Get("colaborador_id"); value != "" {
		parsed, err := strconv.ParseUint(value, 10, 64)
		if err != nil {
			_ = httpapi.WriteError(w, http.StatusBadRequest, errCodeBadQuery,
				"O parâmetro 'colaborador_id' deve ser um número inteiro.")
			return
		}
		id := uint(parsed)
		employeeID = &id
	}

	report, err := c.service.Productivity(r.Context(), filter.From, filter.To, employeeID)
	if err != nil {
		middleware.UseLogger(r.Context()).Error(err)
		_ = httpapi.WriteError(w, http.StatusInternalServerError, services.ErrCodeInternal,
			"Erro ao consultar a produtividade. Tente novamente.")
		return
	}

	dto := &productivityDTO{
		TotalClientsServed: report.TotalClientsServed,
		TotalInteractions:  report.TotalInteractions,
		TotalFinalized:     report.TotalFinalized,
		FinalizationRate:   report.FinalizationRate,
		Rows:               make([]productivityRowDTO, 0, len(report.Rows)),
	}
	for _, row := range report.Rows {
		dto.Rows = append(dto.Rows, productivityRowDTO{
			ReferenceDate:     row.ReferenceDate.Format("2006-01-02"),
			EmployeeID:        row.EmployeeID,
			Name:              row.Name,
			Team:              row.Team,
			ClientsServed:     row.ClientsServed,
			Interactions:      row.Interactions,
			FinalizedRequests: row.FinalizedRequests,
		})
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, dto)
}

type employeeDTO struct {
	ID    uint    `json:"id"`
	Name  string  `json:"nome"`
	Team  *string `json:"equipe"`
	Shift string  `json:"turno"`
}

func (c *DashboardController) Employees(w http.ResponseWriter, r *http.Request) {
	employees, err := c.service.Employees(r.Context())
	if err != nil {
		middleware.UseLogger(r.Context()).Error(err)
		_ = httpapi.WriteError(w, http.StatusInternalServerError, services.ErrCodeInternal,
			"Erro ao listar os colaboradores. Tente novamente.")
		return
	}

	dtos := make([]employeeDTO, 0, len(employees))
	for _, e := range employees {
		dtos = append(dtos, toEmployeeDTO(e))
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, dtos)
}

func toEmployeeDTO(e *employee.Employee) employeeDTO {
	band := "Não calculado"
	if e.Shift() != nil {
		band = e.Shift().String()
	}
	return employeeDTO{
		ID:    e.ID(),
		Name:  e.Name(),
		Team:  e.Team(),
		Shift: band,
	}
}

func shiftToString(s *shift.Shift) *string {
	if s == nil {
		return nil
	}
	value := string(*s)
	return &value
}
