// Package slot resolves the 5x5 meme slot: biased grid generation and
// payline evaluation.
package slot

import (
	"sort"

	"github.com/Digital-Creators-Team/casino-engine/rng"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// Grid is the 5x5 reel window in row-major order.
type Grid [Cells]Symbol

// LineWin is one paying run on one payline.
type LineWin struct {
	Line   int             `json:"line"`
	Symbol string          `json:"symbol"`
	Length int             `json:"length"`
	Cells  []int           `json:"cells"`
	Payout decimal.Decimal `json:"payout"`
}

// Evaluation is the result of scanning a grid. It depends only on the grid and stake.
type Evaluation struct {
	Lines  []int           `json:"lines"`
	Wins   []LineWin       `json:"wins"`
	Cells  []int           `json:"cells"`
	Payout decimal.Decimal `json:"payout"`
}

// Resolver generates and evaluates grids against a Table.
type Resolver struct {
	table Table
}

// NewResolver validates t. The fallback grid must not pay under t.
func NewResolver(t Table) (*Resolver, error) {
	if err := t.validate(); err != nil {
		return nil, err
	}
	r := &Resolver{table: t}
	if r.hasRun(r.FallbackGrid()) {
		return nil, errBadTable
	}
	return r, nil
}

var defaultResolver = func() *Resolver {
	r, err := NewResolver(DefaultTable())
	if err != nil {
		panic(err)
	}
	return r
}()

// Evaluate scores g with the default table.
func Evaluate(g Grid, stake decimal.Decimal) Evaluation {
	return defaultResolver.Evaluate(g, stake)
}

// Table returns the resolver's paytable.
func (r *Resolver) Table() Table { return r.table }

// Evaluate finds the maximal runs on every payline and sums their pay.
func (r *Resolver) Evaluate(g Grid, stake decimal.Decimal) Evaluation {
	ev := Evaluation{Lines: []int{}, Wins: []LineWin{}, Cells: []int{}, Payout: decimal.Zero}
	cells := map[int]struct{}{}
	minRun := r.table.minRun()

	for li, line := range Paylines {
		for _, run := range runs(g, line) {
			if run.length < minRun {
				continue
			}
			sym := g[line[run.start]]
			mult := decimal.NewFromFloat(r.table.multiplier(run.length))
			if sym.Bonus {
				mult = mult.Mul(decimal.NewFromFloat(r.table.BonusFactor))
			}
			win := LineWin{
				Line:   li,
				Symbol: sym.Name,
				Length: run.length,
				Cells:  append([]int(nil), line[run.start:run.start+run.length]...),
				Payout: stake.Mul(mult),
			}
			for _, c := range win.Cells {
				cells[c] = struct{}{}
			}
			ev.Wins = append(ev.Wins, win)
			ev.Payout = ev.Payout.Add(win.Payout)
		}
	}

	ev.Lines = lo.Uniq(lo.Map(ev.Wins, func(w LineWin, _ int) int { return w.Line }))
	ev.Cells = lo.Keys(cells)
	sort.Ints(ev.Cells)
	return ev
}

type run struct{ start, length int }

// runs splits a payline into maximal runs of identical symbols.
func runs(g Grid, line [Cols]int) []run {
	var out []run
	start := 0
	for i := 1; i <= len(line); i++ {
		if i == len(line) || g[line[i]].Name != g[line[start]].Name {
			out = append(out, run{start: start, length: i - start})
			start = i
		}
	}
	return out
}

func (r *Resolver) hasRun(g Grid) bool {
	minRun := r.table.minRun()
	return lo.SomeBy(Paylines, func(line [Cols]int) bool {
		return lo.SomeBy(runs(g, line), func(rn run) bool { return rn.length >= minRun })
	})
}

// RandomGrid draws 25 independent uniform symbols.
func (r *Resolver) RandomGrid(src rng.Source) Grid {
	var g Grid
	for i := range g {
		g[i] = rng.Pick(src, r.table.Symbols)
	}
	return g
}

// FallbackGrid is the deterministic non-paying pattern cell(r,c) = symbols[(2r+c) mod n].
func (r *Resolver) FallbackGrid() Grid {
	var g Grid
	n := len(r.table.Symbols)
	for row := 0; row < Rows; row++ {
		for col := 0; col < Cols; col++ {
			g[row*Cols+col] = r.table.Symbols[(row*2+col)%n]
		}
	}
	return g
}

// Generate produces the grid for one spin.
//
// House branch: up to MaxHouseAttempts random grids are tried and the first
// without a paying run is kept, otherwise FallbackGrid. Player branch: a random
// grid with a run of weighted length written at the start of one payline.
func (r *Resolver) Generate(src rng.Source, houseWins bool) Grid {
	if houseWins {
		for attempt := 0; attempt < MaxHouseAttempts; attempt++ {
			if g := r.RandomGrid(src); !r.hasRun(g) {
				return g
			}
		}
		return r.FallbackGrid()
	}

	g := r.RandomGrid(src)
	line := rng.Pick(src, Paylines)
	sym := rng.Pick(src, r.table.Symbols)
	length := r.runLength(src)
	for i := 0; i < length; i++ {
		g[line[i]] = sym
	}
	return g
}

func (r *Resolver) runLength(src rng.Source) int {
	total := lo.SumBy(r.table.RunWeights, func(w RunWeight) float64 { return w.Weight })
	if total <= 0 {
		return r.table.RunWeights[0].Length
	}
	x := src.Float64() * total
	for _, w := range r.table.RunWeights {
		if x < w.Weight {
			return w.Length
		}
		x -= w.Weight
	}
	return r.table.RunWeights[len(r.table.RunWeights)-1].Length
}
