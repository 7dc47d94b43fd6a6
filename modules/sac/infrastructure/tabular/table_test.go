package tabular_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vialuz/sac-dashboard/modules/sac/infrastructure/tabular"
)

func TestValidate(t *testing.T) {
	payload := []byte("a;b\n1;2\n")

	require.NoError(t, tabular.Validate("relatorio.csv", payload, 1024))
	require.NoError(t, tabular.Validate("Relatorio.XLSX", payload, 1024))

	err := tabular.Validate("relatorio.pdf", payload, 1024)
	require.ErrorIs(t, err, tabular.ErrUnsupportedExtension)

	err = tabular.Validate("relatorio.csv", nil, 1024)
	require.ErrorIs(t, err, tabular.ErrEmptyFile)

	err = tabular.Validate("relatorio.csv", payload, 3)
	require.ErrorIs(t, err, tabular.ErrFileTooLarge)
}

func TestDecode_SemicolonCSV(t *testing.T) {
	raw := []byte("Agente;Fila;Espera\nMaria;SAC Geral;0:45\n\nJoão;SAC Geral;1:02:03\n")

	table, err := tabular.Decode("ligacoes.csv", raw, 0)
	require.NoError(t, err)

	assert.Equal(t, []string{"Agente", "Fila", "Espera"}, table.Headers)
	require.Len(t, table.Rows, 2)
	assert.Equal(t, "Maria", table.Rows[0].Get("Agente"))
	assert.Equal(t, "1:02:03", table.Rows[1].Get("Espera"))
}

func TestDecode_CommaCSVWithBOM(t *testing.T) {
	raw := append([]byte{0xEF, 0xBB, 0xBF}, []byte("Nome do Atendente,Status\nAna,Finalizada\n")...)

	table, err := tabular.Decode("omni.csv", raw, 0)
	require.NoError(t, err)

	assert.Equal(t, []string{"Nome do Atendente", "Status"}, table.Headers)
	require.Len(t, table.Rows, 1)
	assert.Equal(t, "Ana", table.Rows[0].Get("Nome do Atendente"))
}

func TestDecode_Latin1Fallback(t *testing.T) {
	// "Ligação" encoded as ISO-8859-1, invalid as UTF-8.
	raw := []byte("Agente;Sentido\nJo\xe3o;Recebida\n")

	table, err := tabular.Decode("ligacoes.csv", raw, 0)
	require.NoError(t, err)
	require.Len(t, table.Rows, 1)
	assert.Equal(t, "João", table.Rows[0].Get("Agente"))
}

func TestDecode_RaggedRows(t *testing.T) {
	raw := []byte("a;b;c\n1;2\n1;2;3;4\n")

	table, err := tabular.Decode("f.csv", raw, 0)
	require.NoError(t, err)
	require.Len(t, table.Rows, 2)
	assert.Equal(t, "", table.Rows[0].Get("c"), "short rows pad with empty cells")
	assert.Equal(t, "3", table.Rows[1].Get("c"), "long rows drop the overflow")
}

func TestDecode_TrimsCells(t *testing.T) {
	raw := []byte("  Agente ; Status \n  Maria  ;  Perdida \n")

	table, err := tabular.Decode("f.csv", raw, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"Agente", "Status"}, table.Headers)
	assert.Equal(t, "Maria", table.Rows[0].Get("Agente"))
	assert.Equal(t, "Perdida", table.Rows[0].Get("Status"))
}

func TestDecode_HeaderOnly(t *testing.T) {
	table, err := tabular.Decode("f.csv", []byte("a;b;c\n"), 0)
	require.NoError(t, err)
	assert.Empty(t, table.Rows)
}

func TestDetectDelimiter_DefaultsToSemicolon(t *testing.T) {
	table, err := tabular.Decode("f.csv", []byte("coluna\nvalor\n"), 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"coluna"}, table.Headers)
	require.Len(t, table.Rows, 1)
	assert.Equal(t, "valor", strings.TrimSpace(table.Rows[0].Get("coluna")))
}
