package commands

import (
	"strconv"
	"strings"

	wizerrors "github.com/jmylchreest/wizctl/internal/errors"
	"github.com/jmylchreest/wizctl/pkg/wiz"
)

// namedColors are the colour names accepted in place of channel values.
var namedColors = map[string]wiz.RGBCW{
	"white": wiz.White,
	"red":   {R: 255},
	"green": {G: 255},
	"blue":  {B: 255},
	"cool":  {C: 255},
	"warm":  {W: 255},
	"off":   {},
}

// ParseRGBCW parses a colour given as five channel values separated by
// commas or spaces, optionally wrapped in parentheses, or as a colour name.
func ParseRGBCW(s string) (wiz.RGBCW, error) {
	trimmed := strings.ToLower(strings.TrimSpace(s))
	if c, ok := namedColors[trimmed]; ok {
		return c, nil
	}

	trimmed = strings.TrimPrefix(trimmed, "(")
	trimmed = strings.TrimSuffix(trimmed, ")")
	fields := strings.FieldsFunc(trimmed, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t'
	})
	if len(fields) != 5 {
		return wiz.RGBCW{}, wizerrors.InvalidInputf("color %q must have 5 channels (r,g,b,c,w)", s)
	}

	var ch [5]uint8
	for i, f := range fields {
		v, err := strconv.ParseUint(f, 10, 8)
		if err != nil {
			return wiz.RGBCW{}, wizerrors.InvalidInputf("color channel %q must be 0-255", f)
		}
		ch[i] = uint8(v)
	}
	return wiz.RGBCW{R: ch[0], G: ch[1], B: ch[2], C: ch[3], W: ch[4]}, nil
}
