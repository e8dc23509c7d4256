package units

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"
)

var (
	// ErrNoCandidate is returned when no match survives entity filtering.
	ErrNoCandidate = errors.New("no valid measurement found")

	// ErrNotAllowed is returned when the winning unit is not on the global
	// allow-list.
	ErrNotAllowed = errors.New("unit not in allow-list")
)

// Measurement is a parsed value with its canonical unit.
type Measurement struct {
	Value float64
	Unit  string
}

// String renders the measurement as "<value> <unit>".
func (m Measurement) String() string {
	return FormatValue(m.Value) + " " + m.Unit
}

// FormatValue renders integral values without a decimal point and every
// other value with exactly two decimals: 5 -> "5", 5.25 -> "5.25",
// 5.5 -> "5.50".
func FormatValue(v float64) string {
	if v == math.Trunc(v) {
		return strconv.FormatFloat(v, 'f', 0, 64)
	}
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// SelectHighest picks the numerically largest match whose unit is valid for
// entity. Equal maxima resolve to the earliest match.
//
// Filtering happens twice: candidates must be valid for the entity, and the
// winner must also be on the allow-list.
func (c *Catalog) SelectHighest(entity string, matches []Match) (Measurement, error) {
	if !c.HasEntity(entity) {
		return Measurement{}, fmt.Errorf("%w: %q", ErrUnknownEntity, entity)
	}

	var (
		best  Measurement
		found bool
	)
	for _, m := range matches {
		value, err := strconv.ParseFloat(m.Number, 64)
		if err != nil || value < 0 || math.IsNaN(value) || math.IsInf(value, 0) {
			slog.Debug("Skipping malformed number", "number", m.Number, "unit", m.Unit)
			continue
		}
		unit := c.Canonicalize(m.Unit)
		if !c.IsValidFor(entity, unit) {
			continue
		}
		if !found || value > best.Value {
			best = Measurement{Value: value, Unit: unit}
			found = true
		}
	}

	if !found {
		return Measurement{}, ErrNoCandidate
	}
	if !c.IsAllowed(best.Unit) {
		return Measurement{}, fmt.Errorf("%w: %s", ErrNotAllowed, best.Unit)
	}
	return best, nil
}
