// Package font selects the largest bitmap font from a size-ordered ladder
// that lets a status string fit the display.
package font

import (
	"errors"
	"fmt"

	"tinygo.org/x/tinyfont"
)

var (
	ErrEmptyLadder  = errors.New("font ladder is empty")
	ErrLadderOrder  = errors.New("font ladder sizes must be strictly decreasing")
	ErrNoLoader     = errors.New("font candidate has no loader")
	ErrFontLoad     = errors.New("failed to load font")
	ErrRegionHeight = errors.New("time region height out of range")
)

// Loader produces a font on demand. Loaders are called once per attempt.
type Loader func() (tinyfont.Fonter, error)

// Candidate is one rung of the ladder.
type Candidate struct {
	Rank        int // 0 is the largest
	Name        string
	PixelHeight int
	Load        Loader
}

// Ladder is a non-empty list of candidates ordered from largest to smallest.
type Ladder []Candidate

// NewLadder validates the given candidates and assigns their ranks.
func NewLadder(cands ...Candidate) (Ladder, error) {
	if len(cands) == 0 {
		return nil, ErrEmptyLadder
	}
	ladder := make(Ladder, len(cands))
	for i, c := range cands {
		if c.Load == nil {
			return nil, fmt.Errorf("%w: %s", ErrNoLoader, c.Name)
		}
		if i > 0 && c.PixelHeight >= cands[i-1].PixelHeight {
			return nil, fmt.Errorf("%w: %s (%dpx) follows %s (%dpx)", ErrLadderOrder,
				c.Name, c.PixelHeight, cands[i-1].Name, cands[i-1].PixelHeight)
		}
		c.Rank = i
		ladder[i] = c
	}
	return ladder, nil
}

// Smallest returns the last candidate.
func (l Ladder) Smallest() Candidate { return l[len(l)-1] }
