package interaction

import "github.com/dd0wney/cluso-grc-explorer/pkg/visibility"

// Flag is a cosmetic overlay tag applied on top of visibility
type Flag uint8

const (
	Dimmed Flag = 1 << iota
	Highlighted
	Neighbor
	Selected
)

// Has reports whether every bit of f is set
func (fl Flag) Has(f Flag) bool { return fl&f == f }

// Classes returns the renderer class names for the set flags
func (fl Flag) Classes() []string {
	var classes []string
	if fl.Has(Dimmed) {
		classes = append(classes, "dimmed")
	}
	if fl.Has(Highlighted) {
		classes = append(classes, "highlighted")
	}
	if fl.Has(Neighbor) {
		classes = append(classes, "neighbor")
	}
	if fl.Has(Selected) {
		classes = append(classes, "selected")
	}
	return classes
}

// Paint is the final appearance of an element
type Paint uint8

// Paints in precedence order, strongest first
const (
	PaintHidden Paint = iota
	PaintFaded
	PaintDimmed
	PaintSelected
	PaintHighlighted
	PaintNeighbor
	PaintDefault
)

var paintNames = [...]string{"hidden", "faded", "dimmed", "selected", "highlighted", "neighbor", "default"}

func (p Paint) String() string {
	if int(p) < len(paintNames) {
		return paintNames[p]
	}
	return "unknown"
}

// ResolvePaint folds a visibility status and overlay flags into one paint.
// Hidden always wins, then the recessive states, then the emphasis tags.
func ResolvePaint(status visibility.Status, flags Flag) Paint {
	switch {
	case status == visibility.Hidden:
		return PaintHidden
	case status == visibility.Faded:
		return PaintFaded
	case flags.Has(Dimmed):
		return PaintDimmed
	case flags.Has(Selected):
		return PaintSelected
	case flags.Has(Highlighted):
		return PaintHighlighted
	case flags.Has(Neighbor):
		return PaintNeighbor
	default:
		return PaintDefault
	}
}

// NodeOpacity is the opacity a node is drawn with
func (p Paint) NodeOpacity() float64 {
	switch p {
	case PaintHidden:
		return 0
	case PaintFaded:
		return 0.08
	case PaintDimmed:
		return 0.12
	default:
		return 1
	}
}

// EdgeOpacity is the opacity an edge is drawn with
func (p Paint) EdgeOpacity() float64 {
	switch p {
	case PaintHidden:
		return 0
	case PaintFaded:
		return 0.02
	case PaintDimmed:
		return 0.03
	case PaintSelected:
		return 1
	default:
		return 0.5
	}
}
