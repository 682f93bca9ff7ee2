package interaction

// ViewportAction is a camera move requested from the rendering engine
type ViewportAction string

const (
	ViewportCenter ViewportAction = "center"
	ViewportFit    ViewportAction = "fit"
)

const (
	// CenterZoom is the zoom level used when centering on a single node
	CenterZoom = 2.5
	// MatchPadding surrounds a fitted set of search matches
	MatchPadding = 60
	// ResetPadding surrounds the whole graph after a reset
	ResetPadding = 40
	// AnimationMillis is the duration of viewport animations
	AnimationMillis = 300
)

// ViewportRequest asks the renderer to center on or fit a set of elements.
// An empty IDs slice with ViewportFit means the whole graph.
type ViewportRequest struct {
	Action     ViewportAction `json:"action"`
	IDs        []string       `json:"ids,omitempty"`
	Zoom       float64        `json:"zoom,omitempty"`
	Padding    int            `json:"padding,omitempty"`
	DurationMS int            `json:"duration_ms,omitempty"`
}

// CenterOn centers and zooms on one element
func CenterOn(id string) *ViewportRequest {
	return &ViewportRequest{Action: ViewportCenter, IDs: []string{id}, Zoom: CenterZoom, DurationMS: AnimationMillis}
}

// FitTo fits the given elements with padding
func FitTo(ids []string, padding int) *ViewportRequest {
	return &ViewportRequest{Action: ViewportFit, IDs: ids, Padding: padding, DurationMS: AnimationMillis}
}

// FitAll fits the whole graph
func FitAll() *ViewportRequest {
	return &ViewportRequest{Action: ViewportFit, Padding: ResetPadding}
}
