package zones

import (
	"fmt"
	"strconv"
	"strings"
)

// ZoneColor is the display palette derived from a zone's base color:
// a translucent background, a darkened text color, and the base color
// for borders.
type ZoneColor struct {
	Zone       int
	ZoneName   string
	Background string
	Text       string
	Border     string
}

const (
	backgroundAlpha = 0x26 // 15% of 255
	textDarken      = 0.8  // 20% darker
)

// ColorFor returns the palette for the zone that value falls into, or
// false when classification is impossible (missing reference, empty
// table, unparseable base color).
func ColorFor(value, ref float64, zones []Config) (ZoneColor, bool) {
	zone, ok := ZoneFor(value, ref, zones)
	if !ok {
		return ZoneColor{}, false
	}
	var cfg Config
	for _, z := range zones {
		if z.Zone == zone {
			cfg = z
			break
		}
	}
	r, g, b, err := parseHexColor(cfg.Color)
	if err != nil {
		return ZoneColor{}, false
	}
	return ZoneColor{
		Zone:       zone,
		ZoneName:   cfg.Name,
		Background: fmt.Sprintf("#%02x%02x%02x%02x", r, g, b, backgroundAlpha),
		Text:       fmt.Sprintf("#%02x%02x%02x", darken(r), darken(g), darken(b)),
		Border:     cfg.Color,
	}, true
}

func darken(c uint8) uint8 {
	return uint8(float64(c) * textDarken)
}

func parseHexColor(s string) (r, g, b uint8, err error) {
	s = strings.TrimPrefix(s, "#")
	if len(s) != 6 {
		return 0, 0, 0, fmt.Errorf("zones: color %q is not #RRGGBB", s)
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("zones: color %q: %w", s, err)
	}
	return uint8(v >> 16), uint8(v >> 8), uint8(v), nil
}
