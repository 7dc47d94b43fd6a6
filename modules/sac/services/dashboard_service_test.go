package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vialuz/sac-dashboard/modules/sac/domain/value_objects/shift"
)

func floatPtr(v float64) *float64 {
	return &v
}

func TestFinalScore(t *testing.T) {
	t.Run("weighted by answered volume", func(t *testing.T) {
		// 4.0 over 30 calls and 5.0 over 10 chats: (4*30 + 5*10) / 40 = 4.25
		got := finalScore(floatPtr(4.0), 30, floatPtr(5.0), 10)
		require.NotNil(t, got)
		assert.InDelta(t, 4.25, *got, 0.001)
	})

	t.Run("single channel stands alone", func(t *testing.T) {
		got := finalScore(floatPtr(4.7), 12, nil, 0)
		require.NotNil(t, got)
		assert.InDelta(t, 4.7, *got, 0.001)

		got = finalScore(nil, 0, floatPtr(3.9), 25)
		require.NotNil(t, got)
		assert.InDelta(t, 3.9, *got, 0.001)
	})

	t.Run("no ratings no score", func(t *testing.T) {
		assert.Nil(t, finalScore(nil, 10, nil, 10))
	})

	t.Run("both rated but zero volume", func(t *testing.T) {
		assert.Nil(t, finalScore(floatPtr(4.0), 0, floatPtr(5.0), 0))
	})
}

func TestDashboardFilterClause(t *testing.T) {
	t.Run("nil filter", func(t *testing.T) {
		var f *DashboardFilter
		cond, args := f.clause(1)
		assert.Empty(t, cond)
		assert.Empty(t, args)
	})

	t.Run("all fields", func(t *testing.T) {
		from := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
		to := time.Date(2024, 3, 31, 23, 59, 59, 0, time.UTC)
		band := shift.Tarde
		f := &DashboardFilter{From: &from, To: &to, Shift: &band}

		cond, args := f.clause(3)
		assert.Equal(t, " AND f.reference_ts >= $3 AND f.reference_ts <= $4 AND f.shift = $5", cond)
		require.Len(t, args, 3)
		assert.Equal(t, from, args[0])
		assert.Equal(t, to, args[1])
		assert.Equal(t, "Tarde", args[2])
	})

	t.Run("shift only", func(t *testing.T) {
		band := shift.Noite
		f := &DashboardFilter{Shift: &band}
		cond, args := f.clause(2)
		assert.Equal(t, " AND f.shift = $2", cond)
		require.Len(t, args, 1)
	})
}

func TestScoreOrNegative(t *testing.T) {
	assert.Equal(t, -1.0, scoreOrNegative(nil))
	assert.Equal(t, 4.2, scoreOrNegative(floatPtr(4.2)))
}

func TestRoundHelpers(t *testing.T) {
	assert.Equal(t, 33.3, round1(33.333))
	assert.Equal(t, 4.46, round2(4.456))
}
