package services

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vialuz/sac-dashboard/modules/sac/domain/entities/channel"
	"github.com/vialuz/sac-dashboard/modules/sac/domain/entities/interaction"
	"github.com/vialuz/sac-dashboard/modules/sac/domain/entities/productivity"
	"github.com/vialuz/sac-dashboard/modules/sac/domain/value_objects/agentname"
	"github.com/vialuz/sac-dashboard/modules/sac/domain/value_objects/shift"
	"github.com/vialuz/sac-dashboard/modules/sac/infrastructure/tabular"
)

// Format identifies which source system produced an uploaded report.
type Format int

const (
	FormatUnknown Format = iota
	FormatVoalle
	FormatOmnichannel
	FormatLigacao
)

func (f Format) String() string {
	switch f {
	case FormatVoalle:
		return "Voalle"
	case FormatOmnichannel:
		return "Omnichannel"
	case FormatLigacao:
		return "Ligação"
	default:
		return "Desconhecido"
	}
}

const (
	chunkSize          = 6000
	sectorPrefix       = "SAC"
	maxDurationSeconds = 86400
	maxDateOffsetDays  = 1

	timestampLayout = "02/01/2006 15:04:05"
)

var minReferenceDate = time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC)

// System rows in Voalle exports: bots and grand-total lines, matched by
// substring on the normalized name.
var blockedVoalleSenders = []string{"SYNTESIS", "TOTAL GERAL", "OLIVIA BOT"}

var (
	scoreMin = decimal.NewFromFloat(-999.99)
	scoreMax = decimal.NewFromFloat(999.99)
)

// DetectFormat inspects the header row. Voalle aggregates carry the CA/NA/NSF
// counter columns; omnichannel and telephony are told apart by their
// agent and start-date columns.
func DetectFormat(headers []string) Format {
	upper := make(map[string]struct{}, len(headers))
	exact := make(map[string]struct{}, len(headers))
	for _, h := range headers {
		upper[strings.ToUpper(h)] = struct{}{}
		exact[h] = struct{}{}
	}

	has := func(m map[string]struct{}, key string) bool {
		_, ok := m[key]
		return ok
	}

	if has(upper, "CA") && has(upper, "NA") && has(upper, "NSF") {
		return FormatVoalle
	}
	if has(exact, "Nome do Atendente") || has(exact, "Tempo em Espera na Fila") {
		return FormatOmnichannel
	}
	if has(exact, "Data de início") && has(exact, "Sentido") {
		return FormatLigacao
	}
	return FormatUnknown
}

func parseTimestamp(value string) (time.Time, error) {
	return time.Parse(timestampLayout, value)
}

// parseDurationSeconds accepts H:MM:SS or M:SS. Blank, "-" and anything
// unparsable count as zero, matching how the source systems export idle rows.
func parseDurationSeconds(value string) int {
	value = strings.TrimSpace(value)
	if value == "" || value == "-" {
		return 0
	}
	parts := strings.Split(value, ":")
	switch len(parts) {
	case 3:
		h, err1 := strconv.Atoi(parts[0])
		m, err2 := strconv.Atoi(parts[1])
		s, err3 := strconv.Atoi(parts[2])
		if err1 != nil || err2 != nil || err3 != nil {
			return 0
		}
		return h*3600 + m*60 + s
	case 2:
		m, err1 := strconv.Atoi(parts[0])
		s, err2 := strconv.Atoi(parts[1])
		if err1 != nil || err2 != nil {
			return 0
		}
		return m*60 + s
	default:
		return 0
	}
}

// parseCount reads an integer counter cell, tolerating comma decimals.
// Unparsable values count as zero.
func parseCount(value string) int {
	value = strings.TrimSpace(value)
	if value == "" || value == "-" {
		return 0
	}
	f, err := strconv.ParseFloat(strings.ReplaceAll(value, ",", "."), 64)
	if err != nil {
		return 0
	}
	return int(f)
}

// parseScore reads a satisfaction score with comma decimals, clamped to the
// NUMERIC(5,2) column range. Blank and "-" mean no evaluation was given.
func parseScore(value string) *decimal.Decimal {
	value = strings.TrimSpace(value)
	if value == "" || value == "-" {
		return nil
	}
	d, err := decimal.NewFromString(strings.ReplaceAll(value, ",", "."))
	if err != nil {
		return nil
	}
	if d.LessThan(scoreMin) {
		d = scoreMin
	}
	if d.GreaterThan(scoreMax) {
		d = scoreMax
	}
	return &d
}

// isAllowedSector keeps only SAC queues and teams. A blank cell passes, since
// some exports omit the column for internal rows.
func isAllowedSector(value string) bool {
	value = strings.TrimSpace(value)
	if value == "" {
		return true
	}
	return strings.HasPrefix(strings.ToUpper(value), sectorPrefix)
}

func isBlockedVoalleSender(normalizedName string) bool {
	for _, blocked := range blockedVoalleSenders {
		if strings.Contains(normalizedName, blocked) {
			return true
		}
	}
	return false
}

var filenameDatePattern = regexp.MustCompile(`(\d{2,4}[-_]?\d{2}[-_]?\d{2,4})`)

// extractDateFromFilename pulls an 8-digit date out of the filename, reading
// YYYYMMDD when it starts with "20" and DDMMYYYY otherwise. Falls back to
// today when nothing matches.
func extractDateFromFilename(filename string, now time.Time) time.Time {
	match := filenameDatePattern.FindString(filename)
	if match != "" {
		digits := strings.NewReplacer("-", "", "_", "").Replace(match)
		if len(digits) == 8 {
			layout := "02012006"
			if strings.HasPrefix(digits, "20") {
				layout = "20060102"
			}
			if d, err := time.Parse(layout, digits); err == nil {
				return d
			}
		}
	}
	return now.Truncate(24 * time.Hour)
}

func validateReferenceDate(t time.Time, now time.Time) error {
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	maxDate := now.AddDate(0, 0, maxDateOffsetDays)

	if day.Before(minReferenceDate) {
		return fmt.Errorf(
			"A data %s é anterior a %s. Por favor, verifique se o arquivo contém datas válidas.",
			day.Format("02/01/2006"), minReferenceDate.Format("02/01/2006"),
		)
	}
	if day.After(maxDate) {
		return fmt.Errorf(
			"A data %s é uma data no futuro. Por favor, insira uma data válida.",
			day.Format("02/01/2006"),
		)
	}
	return nil
}

func validateDuration(seconds int, kind string) error {
	if seconds > maxDurationSeconds {
		return fmt.Errorf(
			"O tempo de %s encontrado foi de %.1f horas, o que excede o limite de 24 horas.",
			kind, float64(seconds)/3600,
		)
	}
	return nil
}

const preValidationCap = 5

// preValidate scans transactional rows for broken dates and absurd durations
// before anything touches storage, so a bad file is rejected whole. Voalle
// aggregates carry no per-row timestamps and skip this pass.
func preValidate(rows []tabular.Row, format Format, now time.Time) []string {
	if format == FormatVoalle {
		return nil
	}

	var errs []string
	for i, row := range rows {
		if len(errs) >= preValidationCap {
			errs = append(errs, "... e possivelmente mais linhas com problemas semelhantes.")
			break
		}
		line := i + 1

		var raw string
		var waitStr, handleStr string
		switch format {
		case FormatOmnichannel:
			date := row.Get("Data Inicial")
			if date == "" {
				continue
			}
			raw = strings.TrimSpace(date + " " + row.Get("Hora Inicial"))
			waitStr = row.Get("Tempo em Espera na Fila")
			handleStr = row.Get("Tempo em Atendimento")
		case FormatLigacao:
			raw = row.Get("Data de início")
			if raw == "" {
				continue
			}
			waitStr = row.Get("Espera")
			handleStr = row.Get("Atendimento")
		default:
			continue
		}

		ts, err := parseTimestamp(raw)
		if err != nil {
			errs = append(errs, fmt.Sprintf(
				"Linha %d: A data '%s' não está no formato esperado (DD/MM/AAAA HH:MM:SS).", line, raw,
			))
			continue
		}
		if err := validateReferenceDate(ts, now); err != nil {
			errs = append(errs, fmt.Sprintf("Linha %d: %s", line, err.Error()))
			continue
		}
		if err := validateDuration(parseDurationSeconds(waitStr), "espera"); err != nil {
			errs = append(errs, fmt.Sprintf("Linha %d: %s", line, err.Error()))
		}
		if err := validateDuration(parseDurationSeconds(handleStr), "atendimento"); err != nil {
			errs = append(errs, fmt.Sprintf("Linha %d: %s", line, err.Error()))
		}
	}
	return errs
}

// parsedRow is the outcome of parsing one data row. Both pointers nil with a
// nil error means the row was filtered out (non-SAC sector).
type parsedRow struct {
	Interaction  *interaction.Record
	Productivity *productivity.Record
}

type rowParser struct {
	format     Format
	voalleDate time.Time
	resolver   *agentname.Resolver
}

func (p *rowParser) Parse(row tabular.Row) (*parsedRow, error) {
	switch p.format {
	case FormatVoalle:
		return p.parseVoalle(row), nil
	case FormatOmnichannel:
		return p.parseOmnichannel(row)
	case FormatLigacao:
		return p.parseLigacao(row)
	default:
		return nil, fmt.Errorf("Formato não reconhecido.")
	}
}

func (p *rowParser) parseVoalle(row tabular.Row) *parsedRow {
	name := agentname.Clean(row.Get("Atendente"))
	return &parsedRow{
		Productivity: &productivity.Record{
			ReferenceDate:     p.voalleDate,
			EmployeeName:      p.resolver.Resolve(name),
			ClientsServed:     parseCount(row.Get("CA")),
			Interactions:      parseCount(row.Get("NA")),
			FinalizedRequests: parseCount(row.Get("NSF")),
		},
	}
}

func (p *rowParser) parseOmnichannel(row tabular.Row) (*parsedRow, error) {
	team := row.Get("Nome da Equipe")
	if !isAllowedSector(team) {
		return &parsedRow{}, nil
	}

	raw := strings.TrimSpace(row.Get("Data Inicial") + " " + row.Get("Hora Inicial"))
	ts, err := parseTimestamp(raw)
	if err != nil {
		return nil, fmt.Errorf("A data '%s' não está no formato esperado (DD/MM/AAAA HH:MM:SS).", raw)
	}

	name := agentname.Clean(row.Get("Nome do Atendente"))
	return &parsedRow{
		Interaction: &interaction.Record{
			ReferenceTS:   ts,
			Shift:         shift.FromTime(ts),
			EmployeeName:  p.resolver.Resolve(name),
			Team:          optionalString(team),
			ChannelName:   channel.WhatsApp,
			StatusName:    defaultString(row.Get("Status"), agentname.Unknown),
			Protocol:      optionalString(row.Get("Número do Protocolo")),
			WaitSeconds:   parseDurationSeconds(row.Get("Tempo em Espera na Fila")),
			HandleSeconds: parseDurationSeconds(row.Get("Tempo em Atendimento")),
			SolutionScore: parseScore(row.Get("Avaliação - Nota da Solução Oferecida")),
			ServiceScore:  parseScore(row.Get("Avaliação - Nota do Atendimento Prestado")),
		},
	}, nil
}

func (p *rowParser) parseLigacao(row tabular.Row) (*parsedRow, error) {
	queue := row.Get("Fila")
	if !isAllowedSector(queue) {
		return &parsedRow{}, nil
	}

	raw := row.Get("Data de início")
	ts, err := parseTimestamp(raw)
	if err != nil {
		return nil, fmt.Errorf("A data '%s' não está no formato esperado (DD/MM/AAAA HH:MM:SS).", raw)
	}

	name := agentname.Clean(row.Get("Agente"))
	return &parsedRow{
		Interaction: &interaction.Record{
			ReferenceTS:   ts,
			Shift:         shift.FromTime(ts),
			EmployeeName:  p.resolver.Resolve(name),
			Team:          optionalString(queue),
			ChannelName:   channel.Ligacao,
			StatusName:    defaultString(row.Get("Status"), agentname.Unknown),
			Protocol:      optionalString(row.Get("Protocolo")),
			Direction:     optionalString(row.Get("Sentido")),
			WaitSeconds:   parseDurationSeconds(row.Get("Espera")),
			HandleSeconds: parseDurationSeconds(row.Get("Atendimento")),
			ServiceScore:  parseScore(row.Get("Avaliação 1")),
		},
	}, nil
}

func optionalString(value string) *string {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	return &value
}

func defaultString(value, fallback string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return fallback
	}
	return value
}
