package seed

import (
	"testing"
	"time"
)

func TestGeneratorDeterministicForSeed(t *testing.T) {
	g1 := newGenerator(42, fixedNow, 3)
	g2 := newGenerator(42, fixedNow, 3)

	for i := 0; i < 20; i++ {
		if a, b := g1.seasonalDate(), g2.seasonalDate(); !a.Equal(b) {
			t.Fatalf("draw %d differs: %s vs %s", i, a, b)
		}
		if a, b := g1.personName(), g2.personName(); a != b {
			t.Fatalf("draw %d differs: %s vs %s", i, a, b)
		}
	}
}

func TestSeasonalDateStaysInWindow(t *testing.T) {
	g := newGenerator(1, fixedNow, 3)
	for i := 0; i < 500; i++ {
		date := g.seasonalDate()
		if date.Before(g.start) || date.After(g.end) {
			t.Fatalf("date %s outside [%s, %s]", date, g.start, g.end)
		}
	}
}

func TestSeasonalDateFavoursDecember(t *testing.T) {
	g := newGenerator(3, fixedNow, 3)
	months := map[time.Month]int{}
	for i := 0; i < 6000; i++ {
		months[g.seasonalDate().Month()]++
	}
	if months[time.December] <= months[time.January] {
		t.Fatalf("december = %d, january = %d", months[time.December], months[time.January])
	}
}

func TestWeightedSkipsZeroWeights(t *testing.T) {
	g := newGenerator(5, fixedNow, 1)
	for i := 0; i < 200; i++ {
		if got := g.weighted([]string{"a", "b", "c"}, []float64{0, 1, 0}); got != "b" {
			t.Fatalf("weighted() = %q", got)
		}
	}
}

func TestPriceAtFollowsHistory(t *testing.T) {
	jan := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	jun := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	book := bookInfo{
		price: 20,
		history: []pricePeriod{
			{from: jan, until: jun, price: 15},
			{from: jun, price: 20},
		},
	}
	if got := book.priceAt(jan.AddDate(0, 1, 0)); got != 15 {
		t.Fatalf("priceAt(feb) = %v", got)
	}
	if got := book.priceAt(jun.AddDate(0, 1, 0)); got != 20 {
		t.Fatalf("priceAt(jul) = %v", got)
	}
	if got := book.priceAt(jan.AddDate(-1, 0, 0)); got != 20 {
		t.Fatalf("priceAt before history = %v", got)
	}
}
