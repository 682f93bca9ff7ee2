package filter

import (
	"errors"
	"fmt"
)

// Layout names a layout algorithm run by the rendering engine
type Layout string

const (
	LayoutCose         Layout = "cose"
	LayoutBreadthfirst Layout = "breadthfirst"
	LayoutConcentric   Layout = "concentric"
	LayoutCircle       Layout = "circle"
)

// Layouts lists the supported layouts in menu order
var Layouts = []Layout{LayoutCose, LayoutBreadthfirst, LayoutConcentric, LayoutCircle}

// ErrUnknownLayout is returned for layout names outside Layouts
var ErrUnknownLayout = errors.New("unknown layout")

// ParseLayout validates a layout name
func ParseLayout(name string) (Layout, error) {
	for _, l := range Layouts {
		if string(l) == name {
			return l, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownLayout, name)
}

// Options returns the renderer options for the layout. Every layout animates
// for 500ms and sizes nodes including their labels; cose is computed without
// animation.
func (l Layout) Options() map[string]any {
	opts := map[string]any{
		"name":                        string(l),
		"animate":                     true,
		"animationDuration":           500,
		"nodeDimensionsIncludeLabels": true,
	}
	switch l {
	case LayoutCose:
		opts["animate"] = false
		opts["nodeRepulsion"] = 20000
		opts["idealEdgeLength"] = 100
		opts["gravity"] = 0.3
		opts["numIter"] = 500
	case LayoutBreadthfirst:
		opts["directed"] = true
		opts["spacingFactor"] = 0.8
	case LayoutConcentric:
		opts["levelWidth"] = 4
	}
	return opts
}
