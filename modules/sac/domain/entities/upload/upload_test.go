package upload

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResolveStatus(t *testing.T) {
	cases := []struct {
		imported, duplicates, errors int
		want                         Status
	}{
		{imported: 10, duplicates: 0, errors: 0, want: StatusSuccess},
		{imported: 10, duplicates: 3, errors: 0, want: StatusSuccess},
		{imported: 10, duplicates: 0, errors: 2, want: StatusWarning},
		{imported: 10, duplicates: 3, errors: 2, want: StatusWarning},
		{imported: 0, duplicates: 5, errors: 0, want: StatusDuplicate},
		{imported: 0, duplicates: 5, errors: 1, want: StatusError},
		{imported: 0, duplicates: 0, errors: 0, want: StatusError},
		{imported: 0, duplicates: 0, errors: 4, want: StatusError},
	}
	for _, tc := range cases {
		got := ResolveStatus(tc.imported, tc.duplicates, tc.errors)
		require.Equal(t, tc.want, got, "imported=%d duplicates=%d errors=%d", tc.imported, tc.duplicates, tc.errors)
	}
}

func TestFinish_TerminalIsImmutable(t *testing.T) {
	u := New("report.csv", "abc123")
	require.Equal(t, StatusPending, u.Status())

	u.MarkProcessing()
	require.Equal(t, StatusProcessing, u.Status())

	u.Finish(StatusSuccess, 42, 3, nil)
	require.Equal(t, StatusSuccess, u.Status())
	require.Equal(t, 42, u.ImportedCount())
	require.NotNil(t, u.ProcessedAt())

	u.Finish(StatusError, 0, 0, nil)
	require.Equal(t, StatusSuccess, u.Status(), "terminal status must not be overwritten")
	require.Equal(t, 42, u.ImportedCount())
}
