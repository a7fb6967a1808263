package seed

import (
	"fmt"
	"math"
	"math/rand"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

var (
	firstNames = []string{
		"James", "Mary", "Robert", "Patricia", "John", "Jennifer", "Michael", "Linda",
		"David", "Elizabeth", "William", "Barbara", "Richard", "Susan", "Joseph", "Jessica",
		"Thomas", "Sarah", "Carlos", "Karen", "Wei", "Aiko", "Priya", "Olga",
		"Kwame", "Amara", "Lucas", "Sofia", "Mateo", "Emma", "Noah", "Chloe",
	}
	lastNames = []string{
		"Smith", "Johnson", "Williams", "Brown", "Jones", "Garcia", "Miller", "Davis",
		"Rodriguez", "Martinez", "Hernandez", "Lopez", "Wilson", "Anderson", "Thomas", "Taylor",
		"Moore", "Jackson", "Martin", "Lee", "Nakamura", "Chen", "Patel", "Kowalski",
		"Mensah", "Okafor", "Schmidt", "Rossi", "Dubois", "Silva", "Novak", "Berg",
	}
	streets = []string{
		"Oak", "Maple", "Cedar", "Pine", "Elm", "Willow", "Birch", "Lake",
		"Hill", "River", "Park", "Sunset", "Forest", "Meadow", "Harbor", "Main",
	}
	cities = []string{
		"Springfield", "Riverton", "Fairview", "Greenville", "Madison", "Georgetown",
		"Franklin", "Clinton", "Salem", "Bristol", "Oxford", "Ashland", "Dover", "Milton",
	}
	companyPrefixes = []string{
		"North", "Blue", "Silver", "Summit", "Pioneer", "Atlas", "Evergreen", "Harbor",
		"Crescent", "Granite", "Liberty", "Meridian", "Beacon", "Keystone",
	}
	companySuffixes = []string{
		"Books", "Press", "Distribution", "Logistics", "Media", "Publishing", "Supply", "Trading",
	}
	titleOpeners = []string{
		"The", "A", "Beyond the", "Return of the", "Secrets of the", "Into the", "Last", "Under the",
	}
	titleAdjectives = []string{
		"Silent", "Hidden", "Broken", "Golden", "Forgotten", "Burning", "Endless", "Crimson",
		"Quiet", "Wild", "Distant", "Midnight", "Frozen", "Lost", "Secret", "Shining",
	}
	titleNouns = []string{
		"River", "Garden", "Kingdom", "Letter", "Voyage", "Orchard", "Harbor", "Empire",
		"Library", "Mountain", "Promise", "Shadow", "Lighthouse", "Compass", "Winter", "Machine",
	}
)

// generator wraps a seeded source so a given seed always produces the same corpus.
type generator struct {
	rnd   *rand.Rand
	start time.Time
	end   time.Time
}

func newGenerator(seed int64, now time.Time, years int) *generator {
	end := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return &generator{
		rnd:   rand.New(rand.NewSource(seed)),
		start: end.AddDate(-years, 0, 0),
		end:   end,
	}
}

func (g *generator) intBetween(lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + g.rnd.Intn(hi-lo+1)
}

func (g *generator) floatBetween(lo, hi float64) float64 {
	return lo + g.rnd.Float64()*(hi-lo)
}

func (g *generator) normal(mean, stddev float64) float64 {
	return mean + g.rnd.NormFloat64()*stddev
}

func (g *generator) chance(p float64) bool {
	return g.rnd.Float64() < p
}

func (g *generator) pick(values []string) string {
	return values[g.rnd.Intn(len(values))]
}

func (g *generator) pickID(ids []int64) int64 {
	return ids[g.rnd.Intn(len(ids))]
}

// weighted picks values[i] with probability weights[i] / sum(weights).
func (g *generator) weighted(values []string, weights []float64) string {
	total := 0.0
	for _, w := range weights {
		total += w
	}
	target := g.rnd.Float64() * total
	for i, w := range weights {
		target -= w
		if target < 0 {
			return values[i]
		}
	}
	return values[len(values)-1]
}

func (g *generator) dateBetween(from, to time.Time) time.Time {
	if !to.After(from) {
		return from
	}
	days := int(to.Sub(from).Hours() / 24)
	return from.AddDate(0, 0, g.rnd.Intn(days+1))
}

var monthWeights = map[time.Month]float64{
	time.November: 1.5,
	time.December: 1.8,
	time.January:  0.7,
	time.July:     1.2,
	time.August:   1.2,
}

// seasonalDate favours the holiday and back-to-school months.
func (g *generator) seasonalDate() time.Time {
	const maxWeight = 1.8
	for {
		date := g.dateBetween(g.start, g.end)
		weight, ok := monthWeights[date.Month()]
		if !ok {
			weight = 1.0
		}
		if g.rnd.Float64()*maxWeight <= weight {
			return date
		}
	}
}

func (g *generator) personName() string {
	return g.pick(firstNames) + " " + g.pick(lastNames)
}

func (g *generator) company() string {
	return g.pick(companyPrefixes) + " " + g.pick(companySuffixes)
}

func (g *generator) address() string {
	return fmt.Sprintf("%d %s St, %s", g.intBetween(1, 9999), g.pick(streets), g.pick(cities))
}

func (g *generator) phone() string {
	return fmt.Sprintf("+1-%03d-%03d-%04d", g.intBetween(201, 989), g.intBetween(200, 999), g.rnd.Intn(10000))
}

func (g *generator) email(name string, id int64) string {
	local := strings.ToLower(strings.ReplaceAll(name, " ", "."))
	return fmt.Sprintf("%s%d@example.com", local, id)
}

func (g *generator) bookTitle() string {
	return g.pick(titleOpeners) + " " + g.pick(titleAdjectives) + " " + g.pick(titleNouns)
}

func (g *generator) isbn() string {
	return fmt.Sprintf("978-%d-%04d-%04d-%d", g.rnd.Intn(10), g.rnd.Intn(10000), g.rnd.Intn(10000), g.rnd.Intn(10))
}

func round2(value float64) float64 {
	return math.Round(value*100) / 100
}

func clamp(value, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, value))
}

func formatDate(t time.Time) string {
	return t.Format(dateLayout)
}

// nullableDate maps the zero time to NULL.
func nullableDate(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return formatDate(t)
}
