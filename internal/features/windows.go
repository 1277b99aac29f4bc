package features

import (
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/stitts-dev/prop-projector/internal/models"
)

// statFn pulls one value from a game; false means the value is missing
type statFn func(g models.GameRecord) (float64, bool)

func pointsOf(g models.GameRecord) (float64, bool) {
	return models.StatPoints.Value(g)
}

func assistsOf(g models.GameRecord) (float64, bool) {
	return models.StatAssists.Value(g)
}

func reboundsOf(g models.GameRecord) (float64, bool) {
	return models.StatRebounds.Value(g)
}

func assistsPlusReboundsOf(g models.GameRecord) (float64, bool) {
	return models.StatReboundsAssists.Value(g)
}

func minutesOf(g models.GameRecord) (float64, bool) {
	return g.Minutes, true
}

// sortedByDate returns a date-ascending copy of the history
func sortedByDate(history []models.GameRecord) []models.GameRecord {
	out := make([]models.GameRecord, len(history))
	copy(out, history)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].GameDate.Before(out[j].GameDate)
	})
	return out
}

// gamesBefore returns the prefix of a date-sorted history strictly before cutoff
func gamesBefore(sorted []models.GameRecord, cutoff time.Time) []models.GameRecord {
	idx := sort.Search(len(sorted), func(i int) bool {
		return !sorted[i].GameDate.Before(cutoff)
	})
	return sorted[:idx]
}

// lastN returns the most recent n games of a date-sorted slice
func lastN(games []models.GameRecord, n int) []models.GameRecord {
	if len(games) <= n {
		return games
	}
	return games[len(games)-n:]
}

func collect(games []models.GameRecord, fn statFn) []float64 {
	values := make([]float64, 0, len(games))
	for _, g := range games {
		if v, ok := fn(g); ok {
			values = append(values, v)
		}
	}
	return values
}

// windowMean averages the reported values; 0 when nothing was reported
func windowMean(games []models.GameRecord, fn statFn) float64 {
	values := collect(games, fn)
	if len(values) == 0 {
		return 0
	}
	return stat.Mean(values, nil)
}

// windowPopStdDev is the population standard deviation of the reported values
func windowPopStdDev(games []models.GameRecord, fn statFn) float64 {
	values := collect(games, fn)
	if len(values) < 2 {
		return 0
	}
	return stat.PopStdDev(values, nil)
}

type shootingTotals struct {
	fga, fgm, tpa, tpm float64
	games              int
}

func sumShooting(games []models.GameRecord) shootingTotals {
	var t shootingTotals
	for _, g := range games {
		t.fga += float64(g.FieldGoalsAttempted)
		t.fgm += float64(g.FieldGoalsMade)
		t.tpa += float64(g.ThreePointersAttempted)
		t.tpm += float64(g.ThreePointersMade)
		t.games++
	}
	return t
}

func ratio(num, den float64) float64 {
	if den <= 0 {
		return 0
	}
	return num / den
}

func boolFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
