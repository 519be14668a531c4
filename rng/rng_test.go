package rng

import (
	"math"
	"testing"
)

func TestDecideBounds(t *testing.T) {
	src := NewSeeded(1)
	for i := 0; i < 100; i++ {
		if Decide(src, 0) {
			t.Fatalf("p=0 must never favor the house")
		}
		if !Decide(src, 1) {
			t.Fatalf("p=1 must always favor the house")
		}
		if Decide(src, math.NaN()) {
			t.Fatalf("NaN must be treated as 0")
		}
	}
}

func TestDecideFrequency(t *testing.T) {
	const p = 0.7
	const n = 100000
	src := NewSeeded(42)
	hits := 0
	for i := 0; i < n; i++ {
		if Decide(src, p) {
			hits++
		}
	}
	freq := float64(hits) / n
	if diff := freq - p; diff > 0.01 || diff < -0.01 {
		t.Fatalf("freq=%f not close to p=%f", freq, p)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		p       float64
		wantErr bool
	}{
		{0, false},
		{0.5, false},
		{1, false},
		{-0.1, true},
		{1.1, true},
		{math.NaN(), true},
	}
	for _, tt := range tests {
		if err := Validate(tt.p); (err != nil) != tt.wantErr {
			t.Errorf("Validate(%v) error = %v, wantErr %v", tt.p, err, tt.wantErr)
		}
	}
}

func TestSeededIsReproducible(t *testing.T) {
	a, b := NewSeeded(7), NewSeeded(7)
	for i := 0; i < 50; i++ {
		if a.IntN(1000) != b.IntN(1000) {
			t.Fatalf("seeded sources diverged at draw %d", i)
		}
	}
}

func TestShuffleKeepsMultiset(t *testing.T) {
	items := []int{1, 1, 2, 3, 5, 8, 13}
	Shuffle(NewSeeded(3), items)
	counts := map[int]int{}
	for _, v := range items {
		counts[v]++
	}
	if counts[1] != 2 || counts[13] != 1 || len(items) != 7 {
		t.Errorf("shuffle changed the multiset: %v", items)
	}
}

func TestCryptoIntNRange(t *testing.T) {
	src := Default()
	for i := 0; i < 1000; i++ {
		if v := src.IntN(54); v < 0 || v >= 54 {
			t.Fatalf("IntN out of range: %d", v)
		}
		if f := src.Float64(); f < 0 || f >= 1 {
			t.Fatalf("Float64 out of range: %f", f)
		}
	}
}

func TestFixedCycles(t *testing.T) {
	f := &Fixed{Floats: []float64{0.1, 0.9}, Ints: []int{4, -1}}
	if f.Float64() != 0.1 || f.Float64() != 0.9 || f.Float64() != 0.1 {
		t.Errorf("Fixed floats did not cycle")
	}
	if f.IntN(3) != 1 {
		t.Errorf("expected 4 mod 3 = 1")
	}
	if f.IntN(3) != 2 {
		t.Errorf("expected -1 mod 3 = 2")
	}
}
