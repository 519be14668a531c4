package slot

import (
	"errors"
	"fmt"

	"github.com/samber/lo"
)

const (
	Rows  = 5
	Cols  = 5
	Cells = Rows * Cols

	// MaxHouseAttempts bounds grid regeneration on the house branch.
	MaxHouseAttempts = 20
)

// Symbol is one reel symbol. Bonus doubles a line's pay.
type Symbol struct {
	Name  string `json:"name" mapstructure:"name"`
	Image string `json:"image" mapstructure:"image"`
	Bonus bool   `json:"bonus,omitempty" mapstructure:"bonus"`
}

// Pay maps a run length to a stake multiplier.
type Pay struct {
	Length     int     `json:"length" mapstructure:"length"`
	Multiplier float64 `json:"multiplier" mapstructure:"multiplier"`
}

// RunWeight is the relative chance of engineering a run of Length.
type RunWeight struct {
	Length int     `json:"length" mapstructure:"length"`
	Weight float64 `json:"weight" mapstructure:"weight"`
}

// Table is the slot's tunable paytable, loadable from tables/slots.yaml.
type Table struct {
	Symbols     []Symbol    `json:"symbols" mapstructure:"symbols"`
	Pays        []Pay       `json:"pays" mapstructure:"pays"`
	RunWeights  []RunWeight `json:"run_weights" mapstructure:"run_weights"`
	BonusFactor float64     `json:"bonus_factor" mapstructure:"bonus_factor"`
}

// DefaultTable is the stock meme paytable.
func DefaultTable() Table {
	return Table{
		Symbols: []Symbol{
			{Name: "Doge", Image: "/doge.png"},
			{Name: "Pepe", Image: "/pepe.png"},
			{Name: "Wojak", Image: "/wojak.png"},
			{Name: "Shiba", Image: "/shiba.png"},
			{Name: "Moon", Image: "/moon.png"},
			{Name: "Bonk", Image: "/bonk.png"},
			{Name: "Floki", Image: "/floki.png"},
			{Name: "Rocket", Image: "/rocket.png", Bonus: true},
		},
		Pays: []Pay{
			{Length: 3, Multiplier: 0.5},
			{Length: 4, Multiplier: 3},
			{Length: 5, Multiplier: 10},
		},
		RunWeights: []RunWeight{
			{Length: 3, Weight: 0.90},
			{Length: 4, Weight: 0.09},
			{Length: 5, Weight: 0.01},
		},
		BonusFactor: 2,
	}
}

// Paylines are the 5 rows, 5 columns and 2 diagonals, as cell indices.
var Paylines = func() [][Cols]int {
	lines := make([][Cols]int, 0, Rows+Cols+2)
	for r := 0; r < Rows; r++ {
		var l [Cols]int
		for c := 0; c < Cols; c++ {
			l[c] = r*Cols + c
		}
		lines = append(lines, l)
	}
	for c := 0; c < Cols; c++ {
		var l [Cols]int
		for r := 0; r < Rows; r++ {
			l[r] = r*Cols + c
		}
		lines = append(lines, l)
	}
	var diag, anti [Cols]int
	for i := 0; i < Rows; i++ {
		diag[i] = i*Cols + i
		anti[i] = i*Cols + (Cols - 1 - i)
	}
	return append(lines, diag, anti)
}()

var errBadTable = errors.New("invalid slot table")

func (t Table) validate() error {
	if len(t.Symbols) < 4 {
		return fmt.Errorf("%w: need at least 4 symbols, got %d", errBadTable, len(t.Symbols))
	}
	if n := lo.CountBy(t.Symbols, func(s Symbol) bool { return s.Bonus }); n > 1 {
		return fmt.Errorf("%w: %d bonus symbols", errBadTable, n)
	}
	if len(lo.UniqBy(t.Symbols, func(s Symbol) string { return s.Name })) != len(t.Symbols) {
		return fmt.Errorf("%w: duplicate symbol names", errBadTable)
	}
	if len(t.Pays) == 0 || len(t.RunWeights) == 0 {
		return fmt.Errorf("%w: pays and run weights are required", errBadTable)
	}
	for _, w := range t.RunWeights {
		if w.Length < t.minRun() || w.Length > Cols || w.Weight < 0 {
			return fmt.Errorf("%w: run weight %+v", errBadTable, w)
		}
	}
	return nil
}

// minRun is the shortest paying run.
func (t Table) minRun() int {
	return lo.MinBy(t.Pays, func(a, b Pay) bool { return a.Length < b.Length }).Length
}

func (t Table) multiplier(length int) float64 {
	best := 0.0
	for _, p := range t.Pays {
		if p.Length == length {
			return p.Multiplier
		}
		if p.Length < length && p.Multiplier > best {
			best = p.Multiplier
		}
	}
	return best
}
