package batch

import (
	"testing"

	"pamuk-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRangeFor(t *testing.T) {
	testCases := []struct {
		name     string
		category models.BatchCategory
		subZone  string
		wantDept int
		wantErr  error
	}{
		{name: "lint sub-zone A", category: models.BatchCategoryLint, subZone: "A", wantDept: 1},
		{name: "lint sub-zone B", category: models.BatchCategoryLint, subZone: "B", wantDept: 2},
		{name: "linter without sub-zone", category: models.BatchCategoryLinter, wantDept: 3},
		{name: "seed without sub-zone", category: models.BatchCategorySeed, wantDept: 3},
		{name: "lint requires sub-zone", category: models.BatchCategoryLint, wantErr: ErrSubZoneRequired},
		{name: "linter forbids sub-zone", category: models.BatchCategoryLinter, subZone: "A", wantErr: ErrSubZoneForbidden},
		{name: "seed forbids sub-zone", category: models.BatchCategorySeed, subZone: "B", wantErr: ErrSubZoneForbidden},
		{name: "unknown category", category: "pamut", wantErr: ErrUnknownCategory},
		{name: "unknown sub-zone", category: models.BatchCategoryLint, subZone: "C", wantErr: ErrUnknownSubZone},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			r, err := RangeFor(tc.category, tc.subZone)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.wantDept, r.Department)
		})
	}
}

func TestRangeForDisjointScopes(t *testing.T) {
	a, err := RangeFor(models.BatchCategoryLint, "A")
	require.NoError(t, err)
	b, err := RangeFor(models.BatchCategoryLint, "B")
	require.NoError(t, err)

	assert.Equal(t, 1, a.Floor)
	assert.Equal(t, 200, a.Ceiling)
	assert.Equal(t, 201, b.Floor)
	assert.Equal(t, 400, b.Ceiling)
	assert.NotEqual(t, a.Department, b.Department)

	// linter ve çiğit tek ortak sayaç kullanır
	linter, err := RangeFor(models.BatchCategoryLinter, "")
	require.NoError(t, err)
	seed, err := RangeFor(models.BatchCategorySeed, "")
	require.NoError(t, err)
	assert.Equal(t, linter, seed)
	assert.True(t, linter.Unbounded())
}

func TestNextInRange(t *testing.T) {
	bounded := NumberRange{Department: 1, Floor: 1, Ceiling: 200}
	shared := NumberRange{Department: 3, Floor: 401, Ceiling: 0}

	testCases := []struct {
		name        string
		r           NumberRange
		maxExisting int
		hasExisting bool
		want        int
		wantErr     error
	}{
		{name: "empty scope starts at floor", r: bounded, want: 1},
		{name: "increments past max", r: bounded, maxExisting: 7, hasExisting: true, want: 8},
		{name: "ceiling reachable", r: bounded, maxExisting: 199, hasExisting: true, want: 200},
		{name: "past ceiling exhausted", r: bounded, maxExisting: 200, hasExisting: true, wantErr: ErrRangeExhausted},
		{name: "unbounded never exhausts", r: shared, maxExisting: 99999, hasExisting: true, want: 100000},
		{name: "unbounded empty starts at floor", r: shared, want: 401},
		{name: "max below floor clamps to floor", r: NumberRange{Department: 2, Floor: 201, Ceiling: 400}, maxExisting: 5, hasExisting: true, want: 201},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := nextInRange(tc.r, tc.maxExisting, tc.hasExisting)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestRangeContains(t *testing.T) {
	r := NumberRange{Department: 1, Floor: 1, Ceiling: 200}
	assert.True(t, r.Contains(1))
	assert.True(t, r.Contains(200))
	assert.False(t, r.Contains(0))
	assert.False(t, r.Contains(201))

	shared := NumberRange{Department: 3, Floor: 401, Ceiling: 0}
	assert.True(t, shared.Contains(401))
	assert.True(t, shared.Contains(123456))
	assert.False(t, shared.Contains(400))
}
