// Package wheel resolves the segmented betting wheel.
//
// Geometry: the pointer sits at PointerAngle (0 degrees, top) and the wheel
// turns clockwise by the spin angle. Segment i covers [i*seg, (i+1)*seg) in
// wheel coordinates, so Decode(Encode(i)) == i for every index.
package wheel

import (
	"errors"
	"math"

	"github.com/Digital-Creators-Team/casino-engine/ledger"
	"github.com/Digital-Creators-Team/casino-engine/rng"
	"github.com/samber/lo"
)

// PointerAngle is the fixed pointer position in degrees.
const PointerAngle = 0.0

// edgeMargin keeps encoded angles off segment borders, as a fraction of a segment.
const edgeMargin = 0.02

var (
	// ErrInvalidAngle means an angle maps to no segment.
	ErrInvalidAngle = errors.New("angle maps to no segment")
	// ErrUnknownSegment means a landed segment has no resolution.
	ErrUnknownSegment = errors.New("segment has no resolution")
)

// Layout is the session's shuffled wheel.
type Layout []Segment

// NewLayout shuffles a copy of base.
func NewLayout(src rng.Source, base []Segment) Layout {
	l := append(Layout(nil), base...)
	rng.Shuffle(src, l)
	return l
}

// Keys returns the key at each position.
func (l Layout) Keys() []ledger.Key {
	return lo.Map(l, func(s Segment, _ int) ledger.Key { return s.Key })
}

// SegmentAngle is the arc of one segment in degrees.
func SegmentAngle(n int) float64 { return 360 / float64(n) }

// PickIndex chooses the landing position. The house branch avoids backed
// segments, the player branch lands on one; each falls back to uniform.
func PickIndex(src rng.Source, layout Layout, bets ledger.BetMap, houseWins bool) int {
	backed := bets.Backed()
	var backedIdx, freeIdx []int
	for i, seg := range layout {
		if lo.Contains(backed, seg.Key) {
			backedIdx = append(backedIdx, i)
		} else {
			freeIdx = append(freeIdx, i)
		}
	}

	pool := backedIdx
	if houseWins {
		pool = freeIdx
	}
	if len(pool) == 0 {
		return src.IntN(len(layout))
	}
	return rng.Pick(src, pool)
}

// Encode derives a rotation angle that lands on index after spins full turns.
func Encode(src rng.Source, index, n, spins int) (float64, error) {
	if n <= 0 || index < 0 || index >= n || spins < 0 {
		return 0, ErrInvalidAngle
	}
	seg := SegmentAngle(n)
	u := seg*edgeMargin + src.Float64()*seg*(1-2*edgeMargin)
	return float64(spins)*360 + PointerAngle + float64(index)*seg + u, nil
}

// Decode maps an angle back to the segment under the pointer.
func Decode(angle float64, n int) (int, error) {
	if n <= 0 || math.IsNaN(angle) || math.IsInf(angle, 0) || angle < 0 {
		return 0, ErrInvalidAngle
	}
	a := math.Mod(angle-PointerAngle, 360)
	if a < 0 {
		a += 360
	}
	idx := int(math.Floor(a / SegmentAngle(n)))
	if idx < 0 || idx >= n {
		return 0, ErrInvalidAngle
	}
	return idx, nil
}

// TopSlot multiplies the payout when the wheel lands on Key.
type TopSlot struct {
	Key        ledger.Key `json:"key"`
	Multiplier int        `json:"multiplier"`
}

// ChooseTopSlot picks among backed keys, or all keys when nothing is backed.
func ChooseTopSlot(src rng.Source, bets ledger.BetMap, multipliers []int) TopSlot {
	keys := bets.Backed()
	if len(keys) == 0 {
		keys = ledger.Keys
	}
	return TopSlot{Key: rng.Pick(src, keys), Multiplier: rng.Pick(src, multipliers)}
}

// Factor is the TopSlot multiplier for a landed key.
func (t TopSlot) Factor(landed ledger.Key) int {
	if t.Multiplier > 0 && t.Key == landed {
		return t.Multiplier
	}
	return 1
}
