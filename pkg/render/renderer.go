package render

import (
	"sync"

	"github.com/dd0wney/cluso-grc-explorer/pkg/interaction"
)

// Renderer is the rendering engine collaborator. Implementations must not
// block; the session calls them while holding its lock.
type Renderer interface {
	Render(f Frame)
	Viewport(req interaction.ViewportRequest)
	RunLayout(req LayoutRequest)
}

// Nop discards every directive
type Nop struct{}

func (Nop) Render(Frame)                         {}
func (Nop) Viewport(interaction.ViewportRequest) {}
func (Nop) RunLayout(LayoutRequest)              {}

// Recorder keeps the directives it receives. Safe for concurrent use.
type Recorder struct {
	mu        sync.Mutex
	frames    []Frame
	viewports []interaction.ViewportRequest
	layouts   []LayoutRequest
}

func (r *Recorder) Render(f Frame) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frames = append(r.frames, f)
}

func (r *Recorder) Viewport(req interaction.ViewportRequest) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.viewports = append(r.viewports, req)
}

func (r *Recorder) RunLayout(req LayoutRequest) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.layouts = append(r.layouts, req)
}

// Last returns the most recent frame
func (r *Recorder) Last() (Frame, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.frames) == 0 {
		return Frame{}, false
	}
	return r.frames[len(r.frames)-1], true
}

// Frames returns how many frames were rendered
func (r *Recorder) Frames() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.frames)
}

// Viewports returns every viewport request in order
func (r *Recorder) Viewports() []interaction.ViewportRequest {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]interaction.ViewportRequest(nil), r.viewports...)
}

// Layouts returns every layout request in order
func (r *Recorder) Layouts() []LayoutRequest {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]LayoutRequest(nil), r.layouts...)
}

// Fanout forwards every directive to several renderers
type Fanout []Renderer

func (f Fanout) Render(frame Frame) {
	for _, r := range f {
		r.Render(frame)
	}
}

func (f Fanout) Viewport(req interaction.ViewportRequest) {
	for _, r := range f {
		r.Viewport(req)
	}
}

func (f Fanout) RunLayout(req LayoutRequest) {
	for _, r := range f {
		r.RunLayout(req)
	}
}
