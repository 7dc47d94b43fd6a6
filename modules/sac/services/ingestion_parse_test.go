package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vialuz/sac-dashboard/modules/sac/domain/value_objects/agentname"
	"github.com/vialuz/sac-dashboard/modules/sac/domain/value_objects/shift"
	"github.com/vialuz/sac-dashboard/modules/sac/infrastructure/tabular"
)

func TestDetectFormat(t *testing.T) {
	cases := []struct {
		name    string
		headers []string
		want    Format
	}{
		{
			name:    "voalle counters",
			headers: []string{"Atendente", "CA", "NA", "NSF"},
			want:    FormatVoalle,
		},
		{
			name:    "voalle counters lowercase",
			headers: []string{"Atendente", "ca", "na", "nsf"},
			want:    FormatVoalle,
		},
		{
			name:    "omnichannel by agent column",
			headers: []string{"Data Inicial", "Hora Inicial", "Nome do Atendente", "Status"},
			want:    FormatOmnichannel,
		},
		{
			name:    "omnichannel by queue wait column",
			headers: []string{"Data Inicial", "Tempo em Espera na Fila"},
			want:    FormatOmnichannel,
		},
		{
			name:    "telephony",
			headers: []string{"Data de início", "Sentido", "Agente", "Fila"},
			want:    FormatLigacao,
		},
		{
			name:    "unrecognized",
			headers: []string{"Coluna A", "Coluna B"},
			want:    FormatUnknown,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, DetectFormat(tc.headers))
		})
	}
}

func TestParseDurationSeconds(t *testing.T) {
	assert.Equal(t, 3723, parseDurationSeconds("1:02:03"))
	assert.Equal(t, 62, parseDurationSeconds("1:02"))
	assert.Equal(t, 0, parseDurationSeconds("-"))
	assert.Equal(t, 0, parseDurationSeconds(""))
	assert.Equal(t, 0, parseDurationSeconds("abc"))
	assert.Equal(t, 0, parseDurationSeconds("1:xx:03"))
	assert.Equal(t, 0, parseDurationSeconds("120"))
}

func TestParseCount(t *testing.T) {
	assert.Equal(t, 42, parseCount("42"))
	assert.Equal(t, 3, parseCount("3,7"))
	assert.Equal(t, 0, parseCount("-"))
	assert.Equal(t, 0, parseCount(""))
	assert.Equal(t, 0, parseCount("n/d"))
}

func TestParseScore(t *testing.T) {
	require.Nil(t, parseScore(""))
	require.Nil(t, parseScore("-"))
	require.Nil(t, parseScore("ótimo"))

	got := parseScore("4,5")
	require.NotNil(t, got)
	assert.Equal(t, "4.5", got.String())

	clampedHigh := parseScore("10000")
	require.NotNil(t, clampedHigh)
	assert.Equal(t, "999.99", clampedHigh.String())

	clampedLow := parseScore("-10000")
	require.NotNil(t, clampedLow)
	assert.Equal(t, "-999.99", clampedLow.String())
}

func TestIsAllowedSector(t *testing.T) {
	assert.True(t, isAllowedSector("SAC Geral"))
	assert.True(t, isAllowedSector("sac atendimento"))
	assert.True(t, isAllowedSector(""))
	assert.True(t, isAllowedSector("   "))
	assert.False(t, isAllowedSector("Financeiro"))
	assert.False(t, isAllowedSector("Suporte Técnico"))
}

func TestExtractDateFromFilename(t *testing.T) {
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)

	got := extractDateFromFilename("relatorio_20260115.csv", now)
	assert.Equal(t, time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC), got)

	got = extractDateFromFilename("voalle-15012026.xlsx", now)
	assert.Equal(t, time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC), got)

	got = extractDateFromFilename("relatorio_2026-01-15.csv", now)
	assert.Equal(t, time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC), got)

	got = extractDateFromFilename("sem_data.csv", now)
	assert.Equal(t, now.Truncate(24*time.Hour), got)
}

func TestValidateReferenceDate(t *testing.T) {
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)

	require.NoError(t, validateReferenceDate(time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC), now))
	require.NoError(t, validateReferenceDate(now.AddDate(0, 0, 1), now))

	err := validateReferenceDate(time.Date(2019, 12, 31, 0, 0, 0, 0, time.UTC), now)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "anterior")

	err = validateReferenceDate(now.AddDate(0, 0, 2), now)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "futuro")
}

func TestPreValidate(t *testing.T) {
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)

	t.Run("voalle skips prevalidation", func(t *testing.T) {
		rows := []tabular.Row{{"Atendente": "x", "CA": "nonsense"}}
		assert.Empty(t, preValidate(rows, FormatVoalle, now))
	})

	t.Run("telephony bad date", func(t *testing.T) {
		rows := []tabular.Row{{"Data de início": "2026-08-30 10:00:00"}}
		errs := preValidate(rows, FormatLigacao, now)
		require.Len(t, errs, 1)
		assert.Contains(t, errs[0], "Linha 1")
		assert.Contains(t, errs[0], "formato esperado")
	})

	t.Run("omnichannel duration over limit", func(t *testing.T) {
		rows := []tabular.Row{{
			"Data Inicial":            "30/08/2026",
			"Hora Inicial":            "10:00:00",
			"Tempo em Espera na Fila": "30:00:00",
			"Tempo em Atendimento":    "0:30",
		}}
		errs := preValidate(rows, FormatOmnichannel, now)
		require.Len(t, errs, 1)
		assert.Contains(t, errs[0], "espera")
		assert.Contains(t, errs[0], "24 horas")
	})

	t.Run("caps at five errors with marker", func(t *testing.T) {
		var rows []tabular.Row
		for i := 0; i < 10; i++ {
			rows = append(rows, tabular.Row{"Data de início": "data inválida"})
		}
		errs := preValidate(rows, FormatLigacao, now)
		require.Len(t, errs, 6)
		assert.Equal(t, "... e possivelmente mais linhas com problemas semelhantes.", errs[5])
	})

	t.Run("blank date rows pass", func(t *testing.T) {
		rows := []tabular.Row{{"Data de início": ""}}
		assert.Empty(t, preValidate(rows, FormatLigacao, now))
	})
}

func TestRowParser_Omnichannel(t *testing.T) {
	parser := &rowParser{format: FormatOmnichannel, resolver: agentname.DefaultResolver()}

	row := tabular.Row{
		"Data Inicial":      "30/08/2026",
		"Hora Inicial":      "14:35:10",
		"Nome do Atendente": "Wellington Silva de Souza - 6373",
		"Nome da Equipe":    "SAC Digital",
		"Status":            "Finalizada",
		"Número do Protocolo": "P-001",
		"Tempo em Espera na Fila": "0:45",
		"Tempo em Atendimento":    "12:30",
		"Avaliação - Nota da Solução Oferecida":  "4,5",
		"Avaliação - Nota do Atendimento Prestado": "5",
	}

	parsed, err := parser.Parse(row)
	require.NoError(t, err)
	rec := parsed.Interaction
	require.NotNil(t, rec)

	assert.Equal(t, time.Date(2026, 8, 30, 14, 35, 10, 0, time.UTC), rec.ReferenceTS)
	assert.Equal(t, shift.Tarde, rec.Shift)
	assert.Equal(t, "WELLINGTON SILVA DE SOUZA", rec.EmployeeName)
	require.NotNil(t, rec.Team)
	assert.Equal(t, "SAC Digital", *rec.Team)
	assert.Equal(t, "WhatsApp", rec.ChannelName)
	assert.Equal(t, "Finalizada", rec.StatusName)
	require.NotNil(t, rec.Protocol)
	assert.Equal(t, "P-001", *rec.Protocol)
	assert.Nil(t, rec.Direction)
	assert.Equal(t, 45, rec.WaitSeconds)
	assert.Equal(t, 750, rec.HandleSeconds)
	require.NotNil(t, rec.SolutionScore)
	assert.Equal(t, "4.5", rec.SolutionScore.String())
	require.NotNil(t, rec.ServiceScore)
	assert.Equal(t, "5", rec.ServiceScore.String())
}

func TestRowParser_OmnichannelFiltersOtherSectors(t *testing.T) {
	parser := &rowParser{format: FormatOmnichannel, resolver: agentname.DefaultResolver()}

	parsed, err := parser.Parse(tabular.Row{
		"Data Inicial":   "30/08/2026",
		"Hora Inicial":   "10:00:00",
		"Nome da Equipe": "Financeiro",
	})
	require.NoError(t, err)
	assert.Nil(t, parsed.Interaction)
	assert.Nil(t, parsed.Productivity)
}

func TestRowParser_Ligacao(t *testing.T) {
	parser := &rowParser{format: FormatLigacao, resolver: agentname.DefaultResolver()}

	row := tabular.Row{
		"Data de início": "30/08/2026 03:12:00",
		"Sentido":        "Recebida",
		"Agente":         "KLEBER ALVES JARENKO- 6372",
		"Fila":           "SAC",
		"Status":         "Perdida",
		"Protocolo":      "L-77",
		"Espera":         "5:00",
		"Atendimento":    "-",
		"Avaliação 1":    "-",
	}

	parsed, err := parser.Parse(row)
	require.NoError(t, err)
	rec := parsed.Interaction
	require.NotNil(t, rec)

	assert.Equal(t, shift.Madrugada, rec.Shift)
	assert.Equal(t, "KLEBER ALVES JARENKO", rec.EmployeeName)
	assert.Equal(t, "Ligação", rec.ChannelName)
	require.NotNil(t, rec.Direction)
	assert.Equal(t, "Recebida", *rec.Direction)
	assert.Equal(t, 300, rec.WaitSeconds)
	assert.Equal(t, 0, rec.HandleSeconds)
	assert.Nil(t, rec.SolutionScore)
	assert.Nil(t, rec.ServiceScore)
}

func TestRowParser_Voalle(t *testing.T) {
	date := time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC)
	parser := &rowParser{format: FormatVoalle, voalleDate: date, resolver: agentname.DefaultResolver()}

	parsed, err := parser.Parse(tabular.Row{
		"Atendente": "Plácido Júnior",
		"CA":        "12",
		"NA":        "20",
		"NSF":       "18",
	})
	require.NoError(t, err)
	rec := parsed.Productivity
	require.NotNil(t, rec)

	assert.Equal(t, date, rec.ReferenceDate)
	assert.Equal(t, 12, rec.ClientsServed)
	assert.Equal(t, 20, rec.Interactions)
	assert.Equal(t, 18, rec.FinalizedRequests)
}

func TestRowParser_MissingAgentFallsBackToUnknown(t *testing.T) {
	parser := &rowParser{format: FormatLigacao, resolver: agentname.DefaultResolver()}

	parsed, err := parser.Parse(tabular.Row{
		"Data de início": "30/08/2026 10:00:00",
		"Fila":           "SAC",
	})
	require.NoError(t, err)
	require.NotNil(t, parsed.Interaction)
	assert.Equal(t, "DESCONHECIDO", parsed.Interaction.EmployeeName)
	assert.Equal(t, "Desconhecido", parsed.Interaction.StatusName)
}

func TestIsBlockedVoalleSender(t *testing.T) {
	assert.True(t, isBlockedVoalleSender(agentname.Normalize("Olivia Bot")))
	assert.True(t, isBlockedVoalleSender(agentname.Normalize("TOTAL GERAL")))
	assert.True(t, isBlockedVoalleSender(agentname.Normalize("Syntesis Robô")))
	assert.False(t, isBlockedVoalleSender(agentname.Normalize("Maria Souza")))
}
