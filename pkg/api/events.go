package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/dd0wney/cluso-grc-explorer/pkg/interaction"
	"github.com/dd0wney/cluso-grc-explorer/pkg/logging"
	"github.com/dd0wney/cluso-grc-explorer/pkg/metrics"
	"github.com/dd0wney/cluso-grc-explorer/pkg/pubsub"
	"github.com/dd0wney/cluso-grc-explorer/pkg/render"
)

// Event kinds on a session stream
const (
	EventFrame     = "frame"
	EventViewport  = "viewport"
	EventLayout    = "layout"
	EventSelection = "selection"
	EventGraph     = "graph"
	EventExpired   = "expired"
)

// keepAlive is the interval of SSE comment lines on idle streams
var keepAlive = 15 * time.Second

func topicFor(sessionID string) string {
	return "session/" + sessionID
}

// BusRenderer publishes render directives to the session topic of a bus.
// Publishing never blocks, so it is safe under the session lock.
type BusRenderer struct {
	bus     *pubsub.Bus
	topic   string
	metrics *metrics.Registry
}

// NewBusRenderer returns the renderer of session id
func NewBusRenderer(bus *pubsub.Bus, id string, m *metrics.Registry) *BusRenderer {
	return &BusRenderer{bus: bus, topic: topicFor(id), metrics: m}
}

func (r *BusRenderer) publish(kind string, data any) {
	r.bus.Publish(r.topic, kind, data)
	if r.metrics != nil {
		r.metrics.SessionEventsTotal.WithLabelValues(kind).Inc()
		r.metrics.BusDroppedMessages.Set(float64(r.bus.Dropped()))
	}
}

func (r *BusRenderer) Render(f render.Frame)                     { r.publish(EventFrame, f) }
func (r *BusRenderer) Viewport(req interaction.ViewportRequest) { r.publish(EventViewport, req) }
func (r *BusRenderer) RunLayout(req render.LayoutRequest)        { r.publish(EventLayout, req) }

// Selected publishes a selection change
func (r *BusRenderer) Selected(sel interaction.Selection) { r.publish(EventSelection, sel) }

func writeSSE(w http.ResponseWriter, rc *http.ResponseController, kind string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", kind, payload); err != nil {
		return err
	}
	return rc.Flush()
}

// handleEvents streams a session's render directives as server-sent events.
// The current frame is sent first.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.Get(r.PathValue("id"))
	if err != nil {
		s.respondErr(w, r, err, "events")
		return
	}

	sub, err := s.bus.Subscribe(r.Context(), topicFor(sess.ID()))
	if err != nil {
		s.respondError(w, http.StatusServiceUnavailable, "event stream unavailable")
		return
	}
	defer sub.Unsubscribe()

	rc := http.NewResponseController(w)
	_ = rc.SetWriteDeadline(time.Time{})

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	s.metrics.EventStreamsActive.Inc()
	defer s.metrics.EventStreamsActive.Dec()

	if err := writeSSE(w, rc, EventFrame, sess.Frame()); err != nil {
		return
	}

	ticker := time.NewTicker(keepAlive)
	defer ticker.Stop()
	for {
		select {
		case <-r.Context().Done():
			return
		case msg, ok := <-sub.Channel():
			if !ok {
				return
			}
			if err := writeSSE(w, rc, msg.Kind, msg.Data); err != nil {
				s.logger.Debug("event stream closed", logging.SessionID(sess.ID()), logging.Error(err))
				return
			}
			if msg.Kind == EventExpired {
				return
			}
		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": keep-alive\n\n"); err != nil {
				return
			}
			if err := rc.Flush(); err != nil {
				return
			}
		}
	}
}
