package calibration

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/Adithya-Monish-Kumar-K/wordle-solver/pkg/errors"
)

func TestBuild(t *testing.T) {
	curve, err := Build([]Observation{
		{Entropy: 0.05, MovesRemaining: 1},
		{Entropy: 0.15, MovesRemaining: 3},
		{Entropy: 1.0, MovesRemaining: 2},
		{Entropy: 1.1, MovesRemaining: 4},
		{Entropy: 0.5, MovesRemaining: 2},
	}, 0.2)
	require.NoError(t, err)

	want := []Bucket{
		{Centre: 0.1, AvgMoves: 2, Count: 2},
		{Centre: 0.5, AvgMoves: 2, Count: 1},
		{Centre: 1.1, AvgMoves: 3, Count: 2},
	}
	if diff := cmp.Diff(want, curve.Buckets(), cmpopts.EquateApprox(0, 1e-9)); diff != "" {
		t.Errorf("buckets mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 0.2, curve.Width())
}

func TestBuildRejectsBadInput(t *testing.T) {
	_, err := Build(nil, 0)
	assert.Error(t, err)
	_, err = Build(nil, math.Inf(1))
	assert.Error(t, err)
	_, err = Build([]Observation{{Entropy: math.NaN(), MovesRemaining: 1}}, 0.2)
	assert.Error(t, err)
}

func TestInterpolate(t *testing.T) {
	curve, err := Build([]Observation{
		{Entropy: 1.0, MovesRemaining: 1},
		{Entropy: 3.0, MovesRemaining: 3},
	}, 0.2)
	require.NoError(t, err)
	// Bucket centres are 1.1 and 3.1.

	tests := []struct {
		name    string
		entropy float64
		want    float64
	}{
		{"below domain is flat", -5, 1},
		{"first centre", 1.1, 1},
		{"midpoint", 2.1, 2},
		{"quarter", 1.6, 1.5},
		{"last centre", 3.1, 3},
		{"above domain is flat", 40, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := curve.Interpolate(tt.entropy)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestInterpolateSingleBucket(t *testing.T) {
	curve, err := Build([]Observation{{Entropy: 2, MovesRemaining: 4}}, 0.2)
	require.NoError(t, err)
	for _, h := range []float64{-1, 2.1, 10} {
		got, err := curve.Interpolate(h)
		require.NoError(t, err)
		assert.Equal(t, 4.0, got)
	}
}

func TestInterpolateEmpty(t *testing.T) {
	var nilCurve *Curve
	got, err := nilCurve.Interpolate(1)
	assert.ErrorIs(t, err, apperrors.ErrCurveUnavailable)
	assert.True(t, math.IsNaN(got))

	empty, err := Build(nil, 0.2)
	require.NoError(t, err)
	assert.True(t, empty.Empty())
	_, err = empty.Interpolate(1)
	assert.ErrorIs(t, err, apperrors.ErrCurveUnavailable)
	assert.Equal(t, "none", empty.Digest())
}

func TestDigestTracksContents(t *testing.T) {
	a, err := Build([]Observation{{Entropy: 1, MovesRemaining: 2}}, 0.2)
	require.NoError(t, err)
	b, err := Build([]Observation{{Entropy: 1, MovesRemaining: 2}}, 0.2)
	require.NoError(t, err)
	c, err := Build([]Observation{{Entropy: 1, MovesRemaining: 3}}, 0.2)
	require.NoError(t, err)

	assert.Equal(t, a.Digest(), b.Digest())
	assert.NotEqual(t, a.Digest(), c.Digest())
}

func TestReadRows(t *testing.T) {
	rows, err := ReadRows(strings.NewReader("secret_idx,entropy,moves_remaining\n7,3.5,2\n7,1,1\n"))
	require.NoError(t, err)
	want := []Row{
		{SecretIndex: 7, Entropy: 3.5, MovesRemaining: 2},
		{SecretIndex: 7, Entropy: 1, MovesRemaining: 1},
	}
	if diff := cmp.Diff(want, rows); diff != "" {
		t.Errorf("rows mismatch (-want +got):\n%s", diff)
	}
}

func TestReadObservationsFeedsBuild(t *testing.T) {
	obs, err := ReadObservations(strings.NewReader("secret_idx,entropy,moves_remaining\n0,2,2\n0,0,1\n1,2,3\n"))
	require.NoError(t, err)
	assert.Equal(t, []Observation{{Entropy: 2, MovesRemaining: 2}, {Entropy: 0, MovesRemaining: 1}, {Entropy: 2, MovesRemaining: 3}}, obs)

	curve, err := Build(obs, 0.5)
	require.NoError(t, err)
	got, err := curve.Interpolate(2.25)
	require.NoError(t, err)
	assert.InDelta(t, 2.5, got, 1e-12)
}

func TestReadRowsErrors(t *testing.T) {
	_, err := ReadRows(strings.NewReader("secret_idx,entropy,moves_remaining\n7,abc,2\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")

	_, err = ReadRows(strings.NewReader("secret_idx,entropy,moves_remaining\n7,1.0\n"))
	assert.Error(t, err)

	rows, err := ReadRows(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestRowRecordRoundTrip(t *testing.T) {
	row := Row{SecretIndex: 12, Entropy: math.Log2(1000), MovesRemaining: 3}
	got, err := parseRow(row.Record())
	require.NoError(t, err)
	assert.Equal(t, row, got)
}

func writeShard(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte("secret_idx,entropy,moves_remaining\n"+body), 0o644))
}

func TestLoadFromGlob(t *testing.T) {
	dir := t.TempDir()
	writeShard(t, filepath.Join(dir, "training_data.0.csv"), "0,1.0,2\n0,0,1\n")
	writeShard(t, filepath.Join(dir, "training_data.1.csv"), "1,1.05,4\n")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "training_data.dir.csv"), 0o755))

	files, err := ShardFiles(filepath.Join(dir, "training_data*.csv"))
	require.NoError(t, err)
	assert.Len(t, files, 2)

	curve, err := LoadFromGlob(filepath.Join(dir, "training_data*.csv"), 0.2)
	require.NoError(t, err)
	want := []Bucket{
		{Centre: 0.1, AvgMoves: 1, Count: 1},
		{Centre: 1.1, AvgMoves: 3, Count: 2},
	}
	if diff := cmp.Diff(want, curve.Buckets(), cmpopts.EquateApprox(0, 1e-9)); diff != "" {
		t.Errorf("buckets mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadFromGlobUnavailable(t *testing.T) {
	dir := t.TempDir()
	_, err := LoadFromGlob(filepath.Join(dir, "training_data*.csv"), 0.2)
	assert.ErrorIs(t, err, apperrors.ErrCurveUnavailable)

	writeShard(t, filepath.Join(dir, "training_data.0.csv"), "")
	_, err = LoadFromGlob(filepath.Join(dir, "training_data*.csv"), 0.2)
	assert.ErrorIs(t, err, apperrors.ErrCurveUnavailable)
}
