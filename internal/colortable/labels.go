package colortable

import (
	"fmt"
	"image/color"
	"strings"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/ironsheep/blob-tools-mcp/internal/segment"
)

// Trained color labels. Undefined is segment.Undefined.
const (
	Undefined segment.Label = segment.Undefined
	Orange    segment.Label = iota
	Pink
	Blue
	Green
	White
	Yellow

	// NumLabels counts the named labels including Undefined.
	NumLabels = int(Yellow) + 1
)

type labelInfo struct {
	name    string
	display string
}

var labels = [NumLabels]labelInfo{
	Undefined: {"undefined", "#000000"},
	Orange:    {"orange", "#FF9B00"},
	Pink:      {"pink", "#FF69B4"},
	Blue:      {"blue", "#0000FF"},
	Green:     {"green", "#008000"},
	White:     {"white", "#FFFFFF"},
	Yellow:    {"yellow", "#FFFF00"},
}

// displayColors caches the parsed display colors of the named labels.
var displayColors = func() [NumLabels]color.RGBA {
	var out [NumLabels]color.RGBA
	for i, l := range labels {
		c, err := colorful.Hex(l.display)
		if err != nil {
			panic(fmt.Sprintf("bad display color %q: %v", l.display, err))
		}
		r, g, b := c.RGB255()
		out[i] = color.RGBA{R: r, G: g, B: b, A: 255}
	}
	return out
}()

// LabelName returns the name of a label, or "label-N" for labels without a
// name.
func LabelName(l segment.Label) string {
	if int(l) < NumLabels {
		return labels[l].name
	}
	return fmt.Sprintf("label-%d", l)
}

// ParseLabel resolves a label name (case-insensitive) such as "orange".
func ParseLabel(name string) (segment.Label, error) {
	for i, l := range labels {
		if strings.EqualFold(name, l.name) {
			return segment.Label(i), nil
		}
	}
	return Undefined, fmt.Errorf("unknown color label %q", name)
}

// LabelNames lists the trained label names in label order, without
// "undefined".
func LabelNames() []string {
	names := make([]string, 0, NumLabels-1)
	for _, l := range labels[1:] {
		names = append(names, l.name)
	}
	return names
}

// DisplayColor returns the color used to draw a label. Labels without a name
// are drawn in mid gray.
func DisplayColor(l segment.Label) color.RGBA {
	if int(l) < NumLabels {
		return displayColors[l]
	}
	return color.RGBA{R: 128, G: 128, B: 128, A: 255}
}

// DisplayHex returns the display color as "#RRGGBB".
func DisplayHex(l segment.Label) string {
	c := DisplayColor(l)
	return fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B)
}
