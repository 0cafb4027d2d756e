// Package battery reads the cell charge used by the battery indicator.
package battery

import "fmt"

// LowThreshold is the default charge percentage below which the battery is
// reported low.
const LowThreshold = 10.0

// Gauge reports the remaining cell charge as a percentage in [0, 100].
type Gauge interface {
	CellPercent() (float64, error)
}

// Reading is one sample of the battery state.
type Reading struct {
	Percent float64
	Low     bool
}

// NewReading classifies percent against threshold.
func NewReading(percent, threshold float64) Reading {
	return Reading{Percent: percent, Low: percent < threshold}
}

// Read samples g once.
func Read(g Gauge, threshold float64) (Reading, error) {
	p, err := g.CellPercent()
	if nil != err {
		return Reading{}, fmt.Errorf("battery: %w", err)
	}
	return NewReading(p, threshold), nil
}
