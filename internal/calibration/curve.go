// Package calibration builds the piecewise-linear curve that maps the
// information still needed (bits) to the expected number of further guesses,
// from rows logged by simulated play.
package calibration

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math"
	"sort"

	apperrors "github.com/Adithya-Monish-Kumar-K/wordle-solver/pkg/errors"
)

// Observation is one logged round: the entropy of the possibility set before
// the guess and the number of guesses that were still needed.
type Observation struct {
	Entropy        float64
	MovesRemaining float64
}

// Bucket is one point of the curve.
type Bucket struct {
	Centre   float64
	AvgMoves float64
	Count    int
}

// Curve is sorted ascending by Centre and not modified after Build.
type Curve struct {
	buckets []Bucket
	width   float64
}

// Build groups observations into buckets of the given width and averages the
// moves remaining in each. No observations yield an empty curve.
func Build(obs []Observation, width float64) (*Curve, error) {
	if width <= 0 || math.IsNaN(width) || math.IsInf(width, 0) {
		return nil, fmt.Errorf("bucket width must be positive and finite, got %v", width)
	}
	sums := make(map[int64]float64)
	counts := make(map[int64]int)
	for _, o := range obs {
		if math.IsNaN(o.Entropy) || math.IsInf(o.Entropy, 0) {
			return nil, fmt.Errorf("observation entropy %v is not finite", o.Entropy)
		}
		idx := int64(math.Floor(o.Entropy / width))
		sums[idx] += o.MovesRemaining
		counts[idx]++
	}

	buckets := make([]Bucket, 0, len(sums))
	for idx, sum := range sums {
		n := counts[idx]
		buckets = append(buckets, Bucket{
			Centre:   (float64(idx) + 0.5) * width,
			AvgMoves: sum / float64(n),
			Count:    n,
		})
	}
	sort.Slice(buckets, func(i, j int) bool {
		return buckets[i].Centre < buckets[j].Centre
	})
	return &Curve{buckets: buckets, width: width}, nil
}

// Interpolate returns the expected additional guesses for the given entropy.
// Outside the curve's domain the nearest bucket's value is returned; the curve
// is never extrapolated linearly.
func (c *Curve) Interpolate(entropy float64) (float64, error) {
	if c.Empty() {
		return math.NaN(), apperrors.ErrCurveUnavailable
	}
	b := c.buckets
	if len(b) == 1 {
		return b[0].AvgMoves, nil
	}
	if entropy <= b[0].Centre {
		return b[0].AvgMoves, nil
	}
	last := b[len(b)-1]
	if entropy >= last.Centre {
		return last.AvgMoves, nil
	}
	// First bucket whose centre is >= entropy; it exists and is not b[0].
	r := sort.Search(len(b), func(i int) bool { return b[i].Centre >= entropy })
	l := r - 1
	t := (entropy - b[l].Centre) / (b[r].Centre - b[l].Centre)
	return b[l].AvgMoves + t*(b[r].AvgMoves-b[l].AvgMoves), nil
}

// Empty reports whether the curve has no buckets. A nil curve is empty.
func (c *Curve) Empty() bool {
	return c == nil || len(c.buckets) == 0
}

// Buckets returns a copy of the curve's points.
func (c *Curve) Buckets() []Bucket {
	if c == nil {
		return nil
	}
	out := make([]Bucket, len(c.buckets))
	copy(out, c.buckets)
	return out
}

func (c *Curve) Width() float64 {
	if c == nil {
		return 0
	}
	return c.width
}

// Digest identifies the curve's contents. Empty curves share the digest
// "none".
func (c *Curve) Digest() string {
	if c.Empty() {
		return "none"
	}
	h := sha256.New()
	var buf [16]byte
	for _, b := range c.buckets {
		binary.LittleEndian.PutUint64(buf[:8], math.Float64bits(b.Centre))
		binary.LittleEndian.PutUint64(buf[8:], math.Float64bits(b.AvgMoves))
		h.Write(buf[:])
	}
	return hex.EncodeToString(h.Sum(nil)[:16])
}
