package font

import (
	"fmt"
	"log/slog"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"tinygo.org/x/tinyfont"

	"github.com/ardnew/statusboard/layout"
)

// Fit is the outcome of resolving a string against the ladder.
type Fit struct {
	Candidate Candidate
	Font      tinyfont.Fonter
	Lines     []string
	Width     int
	Height    int
	// Fits is false when no candidate fit and the smallest was used anyway.
	Fits bool
}

// Config sizes the area a Resolver fits text into.
type Config struct {
	Width   int // px
	Height  int // px
	Spacing float64
	// CacheSize keeps up to this many loaded fonts. Zero loads every font
	// from its source on each attempt.
	CacheSize int
	Logger    *slog.Logger
}

// Resolver picks the largest ladder font in which a string fits the display
// area above the clock.
type Resolver struct {
	ladder Ladder
	config Config
	cache  *lru.Cache[string, tinyfont.Fonter]
	log    *slog.Logger
}

// NewResolver returns a Resolver over ladder for a display of the configured
// size.
func NewResolver(ladder Ladder, config Config) (*Resolver, error) {
	if len(ladder) == 0 {
		return nil, ErrEmptyLadder
	}
	if config.Spacing <= 0 {
		config.Spacing = layout.DefaultSpacing
	}
	r := &Resolver{ladder: ladder, config: config, log: config.Logger}
	if r.log == nil {
		r.log = slog.Default()
	}
	if config.CacheSize > 0 {
		cache, err := lru.New[string, tinyfont.Fonter](config.CacheSize)
		if nil != err {
			return nil, err
		}
		r.cache = cache
	}
	return r, nil
}

// Resolve trims text and tries each candidate from largest to smallest,
// returning the first whose wrapped block is strictly narrower than the
// display and strictly shorter than the display minus timeHeight. If none
// does, the smallest candidate is returned with Fits unset.
//
// Only a font that fails to load produces an error.
func (r *Resolver) Resolve(text string, timeHeight int) (Fit, error) {
	if timeHeight < 0 || timeHeight >= r.config.Height {
		return Fit{}, fmt.Errorf("%w: %d", ErrRegionHeight, timeHeight)
	}
	text = strings.TrimSpace(text)
	avail := r.config.Height - timeHeight

	var fit Fit
	for _, c := range r.ladder {
		f, err := r.load(c)
		if nil != err {
			return Fit{}, err
		}
		lines := []string{text}
		if strings.Contains(text, " ") {
			lines = layout.Wrap(text, r.config.Width, f)
		}
		w, h := layout.Measure(lines, f, r.config.Spacing)
		fit = Fit{Candidate: c, Font: f, Lines: lines, Width: w, Height: h}

		r.log.Debug("font:candidate",
			slog.String("font", c.Name),
			slog.Int("width", w), slog.Int("height", h),
			slog.Int("avail_width", r.config.Width), slog.Int("avail_height", avail))

		if w < r.config.Width && h < avail {
			fit.Fits = true
			return fit, nil
		}
	}
	r.log.Info("font:fallback", slog.String("font", fit.Candidate.Name))
	return fit, nil
}

func (r *Resolver) load(c Candidate) (tinyfont.Fonter, error) {
	if r.cache != nil {
		if f, ok := r.cache.Get(c.Name); ok {
			return f, nil
		}
	}
	f, err := c.Load()
	if nil != err {
		return nil, err
	}
	if r.cache != nil {
		r.cache.Add(c.Name, f)
	}
	return f, nil
}
