package wheel

import (
	"fmt"

	"github.com/Digital-Creators-Team/casino-engine/ledger"
)

// SegmentSpec declares how many segments of one key the wheel carries.
type SegmentSpec struct {
	Key       string `json:"key" mapstructure:"key"`
	Count     int    `json:"count" mapstructure:"count"`
	Color     string `json:"color" mapstructure:"color"`
	ColorName string `json:"color_name" mapstructure:"color_name"`
}

// CashHuntSpec configures the Cash Hunt board.
type CashHuntSpec struct {
	Candidates int `json:"candidates" mapstructure:"candidates"`
	Min        int `json:"min" mapstructure:"min"`
	Max        int `json:"max" mapstructure:"max"`
}

// Table is the wheel composition and bonus multipliers, loadable from tables/wheel.yaml.
type Table struct {
	Segments   []SegmentSpec `json:"segments" mapstructure:"segments"`
	TopSlot    []int         `json:"top_slot" mapstructure:"top_slot"`
	CoinFlip   []int         `json:"coin_flip" mapstructure:"coin_flip"`
	Pachinko   []int         `json:"pachinko" mapstructure:"pachinko"`
	CashHunt   CashHuntSpec  `json:"cash_hunt" mapstructure:"cash_hunt"`
	CrazyTime  []int         `json:"crazy_time" mapstructure:"crazy_time"`
	MinSpins   int           `json:"min_spins" mapstructure:"min_spins"`
	ExtraSpins int           `json:"extra_spins" mapstructure:"extra_spins"`
}

// DefaultTable is the 54-segment Crazy Time wheel.
func DefaultTable() Table {
	return Table{
		Segments: []SegmentSpec{
			{Key: "1", Count: 23, Color: "#FFD700", ColorName: "Yellow"},
			{Key: "2", Count: 15, Color: "#00FF00", ColorName: "Green"},
			{Key: "5", Count: 7, Color: "#FF4500", ColorName: "Orange"},
			{Key: "10", Count: 4, Color: "#1E90FF", ColorName: "Blue"},
			{Key: "Coin Flip", Count: 4, Color: "#FF69B4", ColorName: "Pink"},
			{Key: "Pachinko", Count: 2, Color: "#00CED1", ColorName: "Turquoise"},
			{Key: "Cash Hunt", Count: 2, Color: "#8A2BE2", ColorName: "Purple"},
			{Key: "Crazy Time", Count: 1, Color: "#FF0000", ColorName: "Red"},
		},
		TopSlot:    []int{2, 3, 5, 10},
		CoinFlip:   []int{2, 3, 5, 10},
		Pachinko:   []int{2, 3, 5, 10, 20},
		CashHunt:   CashHuntSpec{Candidates: 10, Min: 1, Max: 50},
		CrazyTime:  []int{10, 20, 50, 100, 200},
		MinSpins:   5,
		ExtraSpins: 3,
	}
}

// Segment is one position on the wheel.
type Segment struct {
	Key       ledger.Key `json:"key"`
	Color     string     `json:"color"`
	ColorName string     `json:"colorName"`
}

// Label is the text printed on the segment.
func (s Segment) Label() string { return s.Key.String() }

// Base expands the composition into the unshuffled multiset.
func (t Table) Base() ([]Segment, error) {
	var out []Segment
	for _, spec := range t.Segments {
		key, err := ledger.ParseKey(spec.Key)
		if err != nil {
			return nil, err
		}
		for i := 0; i < spec.Count; i++ {
			out = append(out, Segment{Key: key, Color: spec.Color, ColorName: spec.ColorName})
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("wheel table has no segments")
	}
	return out, nil
}

func (t Table) validate() error {
	for name, set := range map[string][]int{
		"top_slot": t.TopSlot, "coin_flip": t.CoinFlip, "pachinko": t.Pachinko, "crazy_time": t.CrazyTime,
	} {
		if len(set) == 0 {
			return fmt.Errorf("wheel table: %s multipliers are empty", name)
		}
	}
	if c := t.CashHunt; c.Candidates <= 0 || c.Min <= 0 || c.Max < c.Min {
		return fmt.Errorf("wheel table: invalid cash hunt %+v", c)
	}
	if t.MinSpins < 0 || t.ExtraSpins < 0 {
		return fmt.Errorf("wheel table: negative spins")
	}
	_, err := t.Base()
	return err
}
