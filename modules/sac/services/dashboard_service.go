package services

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/vialuz/sac-dashboard/modules/sac/domain/entities/channel"
	"github.com/vialuz/sac-dashboard/modules/sac/domain/entities/employee"
	"github.com/vialuz/sac-dashboard/modules/sac/domain/entities/status"
	"github.com/vialuz/sac-dashboard/modules/sac/domain/value_objects/shift"
	"github.com/vialuz/sac-dashboard/pkg/composables"
)

// SLAThresholdSeconds is the queue-wait limit an answered interaction must
// stay under to count as within SLA.
const SLAThresholdSeconds = 300

// DashboardFilter restricts KPI queries by period and shift. Nil fields mean
// no restriction.
type DashboardFilter struct {
	From  *time.Time
	To    *time.Time
	Shift *shift.Shift
}

// clause renders the filter as SQL conditions with placeholders starting at
// next, returning the fragment and its arguments.
func (f *DashboardFilter) clause(next int) (string, []interface{}) {
	var out string
	var args []interface{}
	if f == nil {
		return "", nil
	}
	if f.From != nil {
		out += fmt.Sprintf(" AND f.reference_ts >= $%d", next)
		args = append(args, *f.From)
		next++
	}
	if f.To != nil {
		out += fmt.Sprintf(" AND f.reference_ts <= $%d", next)
		args = append(args, *f.To)
		next++
	}
	if f.Shift != nil {
		out += fmt.Sprintf(" AND f.shift = $%d", next)
		args = append(args, string(*f.Shift))
	}
	return out, args
}

type ChannelCount struct {
	Channel string
	Total   int
}

// Metrics is the consolidated KPI panel for one period.
type Metrics struct {
	TotalAnswered        int
	TotalMissed          int
	AbandonmentRate      float64
	SLAPercent           float64
	AvgWaitLigacao       int
	AvgWaitOmni          int
	AvgHandleLigacao     int
	AvgHandleOmni        int
	AvgScoreLigacao      float64
	AvgScoreOmni         float64
	AvgSolutionScoreOmni float64
	ByChannel            []ChannelCount
}

// RankingEntry is one agent's consolidated performance line.
type RankingEntry struct {
	EmployeeID       uint
	Name             string
	Team             *string
	Shift            *shift.Shift
	Position         int
	CallsTotal       int
	CallsMissed      int
	CallsWait        int
	CallsHandle      int
	CallsScore       *float64
	OmniTotal        int
	OmniWait         int
	OmniHandle       int
	OmniScore        *float64
	VoalleClients    int
	VoalleTotal      int
	VoalleFinalized  int
	FinalizationRate *float64
	TotalAnswered    int
	FinalScore       *float64
}

// ProductivityRow is one Voalle daily record with the agent resolved.
type ProductivityRow struct {
	ReferenceDate     time.Time
	EmployeeID        uint
	Name              string
	Team              *string
	ClientsServed     int
	Interactions      int
	FinalizedRequests int
}

// ProductivityReport aggregates Voalle rows for a period.
type ProductivityReport struct {
	TotalClientsServed int
	TotalInteractions  int
	TotalFinalized     int
	FinalizationRate   float64
	Rows               []*ProductivityRow
}

type DashboardService struct {
	employees employee.Repository
}

func NewDashboardService(employees employee.Repository) *DashboardService {
	return &DashboardService{employees: employees}
}

// Metrics computes the consolidated KPI panel. Missed calls are excluded from
// answered totals and averages throughout.
func (s *DashboardService) Metrics(ctx context.Context, filter *DashboardFilter) (*Metrics, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	cond, args := filter.clause(3)

	m := &Metrics{}

	overall := `
		SELECT
			COUNT(*) FILTER (WHERE st.name <> $1) AS answered,
			COUNT(*) FILTER (WHERE st.name = $1) AS missed,
			COUNT(*) FILTER (WHERE st.name <> $1 AND f.wait_seconds <= $2) AS within_sla
		FROM fact_interactions f
		JOIN dim_statuses st ON st.id = f.status_id
		WHERE TRUE` + cond
	var withinSLA int
	allArgs := append([]interface{}{status.Perdida, SLAThresholdSeconds}, args...)
	if err := tx.QueryRow(ctx, overall, allArgs...).Scan(&m.TotalAnswered, &m.TotalMissed, &withinSLA); err != nil {
		return nil, err
	}

	if total := m.TotalAnswered + m.TotalMissed; total > 0 {
		m.AbandonmentRate = round1(float64(m.TotalMissed) / float64(total) * 100)
	}
	if m.TotalAnswered > 0 {
		m.SLAPercent = round1(float64(withinSLA) / float64(m.TotalAnswered) * 100)
	}

	averages := `
		SELECT
			COALESCE(AVG(f.wait_seconds) FILTER (WHERE ch.name = $3 AND st.name <> $1), 0),
			COALESCE(AVG(f.wait_seconds) FILTER (WHERE ch.name = $4), 0),
			COALESCE(AVG(f.handle_seconds) FILTER (WHERE ch.name = $3 AND st.name <> $1 AND f.handle_seconds > 0), 0),
			COALESCE(AVG(f.handle_seconds) FILTER (WHERE ch.name = $4 AND f.handle_seconds > 0), 0),
			COALESCE(AVG(f.service_score) FILTER (WHERE ch.name = $3 AND f.service_score IS NOT NULL), 0),
			COALESCE(AVG((f.solution_score + f.service_score) / 2)
				FILTER (WHERE ch.name = $4 AND f.solution_score IS NOT NULL AND f.service_score IS NOT NULL), 0),
			COALESCE(AVG(f.solution_score) FILTER (WHERE ch.name = $4 AND f.solution_score IS NOT NULL), 0)
		FROM fact_interactions f
		JOIN dim_channels ch ON ch.id = f.channel_id
		JOIN dim_statuses st ON st.id = f.status_id
		WHERE TRUE` + filterConditionAt(filter, 5)
	var waitLig, waitOmni, handleLig, handleOmni, scoreLig, scoreOmni, solutionOmni float64
	_, avgArgs := filter.clause(5)
	avgAll := append([]interface{}{status.Perdida, SLAThresholdSeconds, channel.Ligacao, channel.WhatsApp}, avgArgs...)
	if err := tx.QueryRow(ctx, averages, avgAll...).Scan(
		&waitLig, &waitOmni, &handleLig, &handleOmni, &scoreLig, &scoreOmni, &solutionOmni,
	); err != nil {
		return nil, err
	}
	m.AvgWaitLigacao = int(waitLig)
	m.AvgWaitOmni = int(waitOmni)
	m.AvgHandleLigacao = int(handleLig)
	m.AvgHandleOmni = int(handleOmni)
	m.AvgScoreLigacao = round2(scoreLig)
	m.AvgScoreOmni = round2(scoreOmni)
	m.AvgSolutionScoreOmni = round2(solutionOmni)

	m.ByChannel, err = s.ChannelBreakdown(ctx, filter)
	if err != nil {
		return nil, err
	}
	return m, nil
}

// ChannelBreakdown counts answered interactions per channel.
func (s *DashboardService) ChannelBreakdown(ctx context.Context, filter *DashboardFilter) ([]ChannelCount, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	query := `
		SELECT ch.name, COUNT(*)
		FROM fact_interactions f
		JOIN dim_channels ch ON ch.id = f.channel_id
		JOIN dim_statuses st ON st.id = f.status_id
		WHERE st.name <> $1` + filterConditionAt(filter, 2) + `
		GROUP BY ch.name
		ORDER BY ch.name`
	_, args := filter.clause(2)
	rows, err := tx.Query(ctx, query, append([]interface{}{status.Perdida}, args...)...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var counts []ChannelCount
	for rows.Next() {
		var cc ChannelCount
		if err := rows.Scan(&cc.Channel, &cc.Total); err != nil {
			return nil, err
		}
		counts = append(counts, cc)
	}
	return counts, rows.Err()
}

// channelAggregate is one employee's grouped stats for a single channel.
type channelAggregate struct {
	total  int
	missed int
	wait   float64
	handle float64
	score  *float64
}

// Ranking builds the per-agent consolidated board. Only SAC employees with
// activity in the period appear; ordering is by final score, unrated agents
// last.
func (s *DashboardService) Ranking(ctx context.Context, filter *DashboardFilter, limit int) ([]*RankingEntry, error) {
	if limit <= 0 {
		limit = 50
	}

	calls, err := s.channelAggregates(ctx, filter, channel.Ligacao)
	if err != nil {
		return nil, err
	}
	omni, err := s.channelAggregates(ctx, filter, channel.WhatsApp)
	if err != nil {
		return nil, err
	}
	voalle, err := s.voalleAggregates(ctx, filter)
	if err != nil {
		return nil, err
	}

	employees, err := s.employees.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	var entries []*RankingEntry
	for _, emp := range employees {
		if !emp.IsSAC() {
			continue
		}
		lig, hasLig := calls[emp.ID()]
		om, hasOmni := omni[emp.ID()]
		vo, hasVoalle := voalle[emp.ID()]
		if !hasLig && !hasOmni && !hasVoalle {
			continue
		}

		answered := lig.total - lig.missed
		entry := &RankingEntry{
			EmployeeID:      emp.ID(),
			Name:            emp.Name(),
			Team:            emp.Team(),
			Shift:           emp.Shift(),
			CallsTotal:      answered,
			CallsMissed:     lig.missed,
			CallsWait:       int(lig.wait),
			CallsHandle:     int(lig.handle),
			CallsScore:      roundScore(lig.score),
			OmniTotal:       om.total,
			OmniWait:        int(om.wait),
			OmniHandle:      int(om.handle),
			OmniScore:       roundScore(om.score),
			VoalleClients:   vo.clients,
			VoalleTotal:     vo.total,
			VoalleFinalized: vo.finalized,
			TotalAnswered:   answered + om.total,
		}
		if vo.total > 0 {
			rate := round1(float64(vo.finalized) / float64(vo.total) * 100)
			entry.FinalizationRate = &rate
		}
		entry.FinalScore = finalScore(entry.CallsScore, answered, entry.OmniScore, om.total)
		entries = append(entries, entry)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return scoreOrNegative(entries[i].FinalScore) > scoreOrNegative(entries[j].FinalScore)
	})
	if len(entries) > limit {
		entries = entries[:limit]
	}
	for i, e := range entries {
		e.Position = i + 1
	}
	return entries, nil
}

func (s *DashboardService) channelAggregates(
	ctx context.Context,
	filter *DashboardFilter,
	channelName string,
) (map[uint]channelAggregate, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	query := `
		SELECT
			f.employee_id,
			COUNT(*),
			COUNT(*) FILTER (WHERE st.name = $1),
			COALESCE(AVG(f.wait_seconds), 0),
			COALESCE(AVG(f.handle_seconds) FILTER (WHERE f.handle_seconds > 0), 0),
			CASE WHEN $2 = '` + channel.WhatsApp + `'
				THEN AVG((f.solution_score + f.service_score) / 2)
					FILTER (WHERE f.solution_score IS NOT NULL AND f.service_score IS NOT NULL)
				ELSE AVG(f.service_score) FILTER (WHERE f.service_score IS NOT NULL)
			END
		FROM fact_interactions f
		JOIN dim_channels ch ON ch.id = f.channel_id
		JOIN dim_statuses st ON st.id = f.status_id
		WHERE ch.name = $2` + filterConditionAt(filter, 3) + `
		GROUP BY f.employee_id`
	_, args := filter.clause(3)

	rows, err := tx.Query(ctx, query, append([]interface{}{status.Perdida, channelName}, args...)...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[uint]channelAggregate)
	for rows.Next() {
		var id uint
		var agg channelAggregate
		if err := rows.Scan(&id, &agg.total, &agg.missed, &agg.wait, &agg.handle, &agg.score); err != nil {
			return nil, err
		}
		out[id] = agg
	}
	return out, rows.Err()
}

type voalleAggregate struct {
	clients   int
	total     int
	finalized int
}

// voalleAggregates ignores the shift filter: daily aggregates carry no
// hour-level granularity.
func (s *DashboardService) voalleAggregates(ctx context.Context, filter *DashboardFilter) (map[uint]voalleAggregate, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	query := `
		SELECT employee_id,
			COALESCE(SUM(clients_served), 0),
			COALESCE(SUM(interactions), 0),
			COALESCE(SUM(finalized_requests), 0)
		FROM fact_daily_productivity
		WHERE TRUE`
	var args []interface{}
	next := 1
	if filter != nil && filter.From != nil {
		query += fmt.Sprintf(" AND reference_date >= $%d", next)
		args = append(args, *filter.From)
		next++
	}
	if filter != nil && filter.To != nil {
		query += fmt.Sprintf(" AND reference_date <= $%d", next)
		args = append(args, *filter.To)
	}
	query += " GROUP BY employee_id"

	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[uint]voalleAggregate)
	for rows.Next() {
		var id uint
		var agg voalleAggregate
		if err := rows.Scan(&id, &agg.clients, &agg.total, &agg.finalized); err != nil {
			return nil, err
		}
		out[id] = agg
	}
	return out, rows.Err()
}

// Productivity returns Voalle daily rows with a period summary, optionally
// restricted to one employee.
func (s *DashboardService) Productivity(
	ctx context.Context,
	from, to *time.Time,
	employeeID *uint,
) (*ProductivityReport, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	query := `
		SELECT p.reference_date, p.employee_id, e.name, e.team,
			p.clients_served, p.interactions, p.finalized_requests
		FROM fact_daily_productivity p
		JOIN dim_employees e ON e.id = p.employee_id
		WHERE TRUE`
	var args []interface{}
	next := 1
	if from != nil {
		query += fmt.Sprintf(" AND p.reference_date >= $%d", next)
		args = append(args, *from)
		next++
	}
	if to != nil {
		query += fmt.Sprintf(" AND p.reference_date <= $%d", next)
		args = append(args, *to)
		next++
	}
	if employeeID != nil {
		query += fmt.Sprintf(" AND p.employee_id = $%d", next)
		args = append(args, *employeeID)
	}
	query += " ORDER BY p.reference_date DESC, e.name"

	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	report := &ProductivityReport{}
	for rows.Next() {
		row := &ProductivityRow{}
		if err := rows.Scan(
			&row.ReferenceDate,
			&row.EmployeeID,
			&row.Name,
			&row.Team,
			&row.ClientsServed,
			&row.Interactions,
			&row.FinalizedRequests,
		); err != nil {
			return nil, err
		}
		report.Rows = append(report.Rows, row)
		report.TotalClientsServed += row.ClientsServed
		report.TotalInteractions += row.Interactions
		report.TotalFinalized += row.FinalizedRequests
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if report.TotalInteractions > 0 {
		report.FinalizationRate = round1(float64(report.TotalFinalized) / float64(report.TotalInteractions) * 100)
	}
	return report, nil
}

// Employees lists all agents ordered by shift then name.
func (s *DashboardService) Employees(ctx context.Context) ([]*employee.Employee, error) {
	employees, err := s.employees.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(employees, func(i, j int) bool {
		si, sj := shiftLabel(employees[i].Shift()), shiftLabel(employees[j].Shift())
		if si != sj {
			return si < sj
		}
		return employees[i].Name() < employees[j].Name()
	})
	return employees, nil
}

// finalScore weights each channel's average score by its answered volume.
// With only one channel rated, that score stands alone; with none, there is
// no final score.
func finalScore(callsScore *float64, callsAnswered int, omniScore *float64, omniTotal int) *float64 {
	switch {
	case callsScore != nil && omniScore != nil:
		volume := callsAnswered + omniTotal
		if volume == 0 {
			return nil
		}
		weighted := round2((*callsScore*float64(callsAnswered) + *omniScore*float64(omniTotal)) / float64(volume))
		return &weighted
	case callsScore != nil:
		return callsScore
	case omniScore != nil:
		return omniScore
	default:
		return nil
	}
}

func filterConditionAt(filter *DashboardFilter, next int) string {
	cond, _ := filter.clause(next)
	return cond
}

func scoreOrNegative(score *float64) float64 {
	if score == nil {
		return -1
	}
	return *score
}

func roundScore(score *float64) *float64 {
	if score == nil {
		return nil
	}
	v := round2(*score)
	return &v
}

func shiftLabel(s *shift.Shift) string {
	if s == nil {
		return "zzz"
	}
	return string(*s)
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
