package font

import (
	"fmt"
	"io/fs"

	"github.com/zachomedia/go-bdf"
	"tinygo.org/x/tinyfont"
	"tinygo.org/x/tinyfont/freesans"
	"tinygo.org/x/tinyfont/proggy"
)

// Builtin returns a candidate for a font compiled into the binary. Its pixel
// height is the font's line advance.
func Builtin(name string, f tinyfont.Fonter) Candidate {
	return Candidate{
		Name:        name,
		PixelHeight: int(f.GetYAdvance()),
		Load:        func() (tinyfont.Fonter, error) { return f, nil },
	}
}

// BDF returns a candidate that parses the named BDF file from fsys each time
// it is loaded.
func BDF(fsys fs.FS, name string, pixelHeight int) Candidate {
	return Candidate{
		Name:        name,
		PixelHeight: pixelHeight,
		Load: func() (tinyfont.Fonter, error) {
			data, err := fs.ReadFile(fsys, name)
			if nil != err {
				return nil, fmt.Errorf("%w: %s: %v", ErrFontLoad, name, err)
			}
			parsed, err := bdf.Parse(data)
			if nil != err {
				return nil, fmt.Errorf("%w: %s: %v", ErrFontLoad, name, err)
			}
			return FromFace(parsed.NewFace()), nil
		},
	}
}

// DefaultLadder is built from the FreeSans bold faces shipped with tinyfont,
// ending with the proggy tiny font.
func DefaultLadder() (Ladder, error) {
	return NewLadder(
		Builtin("FreeSansBold24pt", &freesans.Bold24pt7b),
		Builtin("FreeSansBold18pt", &freesans.Bold18pt7b),
		Builtin("FreeSansBold12pt", &freesans.Bold12pt7b),
		Builtin("FreeSansBold9pt", &freesans.Bold9pt7b),
		Builtin("ProggyTinySZ8pt", &proggy.TinySZ8pt7b),
	)
}
