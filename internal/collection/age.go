package collection

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/tphakala/bonsai-go/internal/datastore/entities"
)

// DaysPerYear converts day counts into fractional years.
const DaysPerYear = 365.25

// TreeNumberPrefix starts every generated tree number.
const TreeNumberPrefix = "BON-"

// YearsBetween returns the whole days elapsed from start to now divided by
// DaysPerYear. A start after now gives a negative result.
func YearsBetween(start, now time.Time) float64 {
	days := math.Floor(now.Sub(start).Hours() / 24)
	return days / DaysPerYear
}

// TrainingAge returns the years since the tree was acquired.
func TrainingAge(tree *entities.Tree, now time.Time) float64 {
	return YearsBetween(tree.DateAcquired, now)
}

// TrueAge returns the years since the tree's estimated origin.
func TrueAge(tree *entities.Tree, now time.Time) float64 {
	return YearsBetween(tree.OriginDate, now)
}

// RoundYears rounds an age to one decimal for display.
func RoundYears(years float64) float64 {
	return math.Round(years*10) / 10
}

// NextTreeNumber formats the number following existingCount trees,
// e.g. 0 gives "BON-001".
func NextTreeNumber(existingCount int64) string {
	return fmt.Sprintf("%s%03d", TreeNumberPrefix, existingCount+1)
}

// TreeNumberSequence returns the numeric part of a "BON-###" number.
func TreeNumberSequence(number string) (int64, bool) {
	digits, ok := strings.CutPrefix(number, TreeNumberPrefix)
	if !ok {
		return 0, false
	}
	n, err := strconv.ParseInt(digits, 10, 64)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// nextFreeTreeNumber continues after the largest of the row count, the
// highest number ever issued and the highest assigned sequence, so numbers
// of deleted trees are not reused.
func nextFreeTreeNumber(count, issued int64, assigned []string) string {
	highest := max(count, issued)
	for _, number := range assigned {
		if n, ok := TreeNumberSequence(number); ok && n > highest {
			highest = n
		}
	}
	return NextTreeNumber(highest)
}

// startOfDay returns midnight of t's calendar day in t's location.
func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
