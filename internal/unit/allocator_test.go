package unit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateWeights(t *testing.T) {
	testCases := []struct {
		name    string
		gross   float64
		tare    float64
		wantErr bool
	}{
		{name: "valid", gross: 100, tare: 10},
		{name: "zero weights", gross: 0, tare: 0},
		{name: "equal gross and tare", gross: 50, tare: 50},
		{name: "negative gross", gross: -1, tare: 0, wantErr: true},
		{name: "negative tare", gross: 10, tare: -1, wantErr: true},
		{name: "gross below tare", gross: 9, tare: 10, wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := validateWeights(tc.gross, tc.tare)
			if tc.wantErr {
				assert.ErrorIs(t, err, ErrInvalidWeights)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestProposeSequence(t *testing.T) {
	explicit := func(n int) *int { return &n }

	testCases := []struct {
		name        string
		explicit    *int
		maxExisting int
		capacity    int
		want        int
		wantErr     error
	}{
		{name: "first unit gets 1", maxExisting: 0, capacity: 220, want: 1},
		{name: "next after max", maxExisting: 3, capacity: 220, want: 4},
		{name: "last slot reachable", maxExisting: 219, capacity: 220, want: 220},
		{name: "full batch terminal", maxExisting: 220, capacity: 220, wantErr: ErrBatchFull},
		{name: "explicit in range", explicit: explicit(7), maxExisting: 3, capacity: 220, want: 7},
		{name: "explicit above capacity", explicit: explicit(221), maxExisting: 0, capacity: 220, wantErr: ErrBatchFull},
		{name: "explicit zero invalid", explicit: explicit(0), maxExisting: 0, capacity: 220, wantErr: ErrInvalidSequence},
		{name: "explicit negative invalid", explicit: explicit(-5), maxExisting: 0, capacity: 220, wantErr: ErrInvalidSequence},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := proposeSequence(tc.explicit, tc.maxExisting, tc.capacity)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

// Üç ardışık tartım senaryosu: sıra numaraları {1,2,3}, netler brüt-dara.
func TestSequentialProposalsAndNets(t *testing.T) {
	weighings := []struct {
		gross float64
		tare  float64
	}{
		{100, 10},
		{120, 15},
		{90, 5},
	}
	wantNets := []float64{90, 105, 85}

	maxExisting := 0
	for i, w := range weighings {
		require.NoError(t, validateWeights(w.gross, w.tare))
		seq, err := proposeSequence(nil, maxExisting, 220)
		require.NoError(t, err)
		assert.Equal(t, i+1, seq)
		assert.Equal(t, wantNets[i], w.gross-w.tare)
		maxExisting = seq
	}
}
