package chat

import (
	"context"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dd0wney/cluso-grc-explorer/pkg/graph"
	"github.com/dd0wney/cluso-grc-explorer/pkg/graph/graphtest"
	"github.com/dd0wney/cluso-grc-explorer/pkg/metrics"
)

type fakeProvider struct {
	chunks []string
	err    error

	system    string
	messages  []Message
	maxTokens int
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) Stream(_ context.Context, system string, messages []Message, maxTokens int, onDelta func(string) error) error {
	f.system = system
	f.messages = messages
	f.maxTokens = maxTokens
	for _, c := range f.chunks {
		if err := onDelta(c); err != nil {
			return err
		}
	}
	return f.err
}

func testGraph() *graph.Graph {
	return graphtest.New().
		LabeledNode("NIST-800-53", graph.KindFramework, "NIST 800-53").
		LabeledNode("NIST-AC", graph.KindControlFamily, "Access Control").
		LabeledNode("NIST-AC-2", graph.KindControl, "Account Management").
		LabeledNode("SOC2-CC6.1", graph.KindControl, "Logical Access").
		Edge("NIST-800-53", "NIST-AC", graph.PredicateContains).
		Edge("NIST-AC", "NIST-AC-2", graph.PredicateContains).
		Edge("NIST-AC-2", "SOC2-CC6.1", graph.PredicateMapsTo).
		Build()
}

func userAsks(q string) Request {
	return Request{Messages: []Message{{Role: RoleUser, Content: q}}}
}

func TestRequestValidate(t *testing.T) {
	assert.ErrorIs(t, Request{}.Validate(), ErrNoMessages)
	assert.ErrorIs(t, userAsks("   ").Validate(), ErrNoMessages)
	assert.NoError(t, userAsks("which controls map to SOC2?").Validate())
}

func TestSystemPrompt(t *testing.T) {
	g := testGraph()
	prompt := SystemPrompt(g, nil)

	assert.True(t, strings.HasPrefix(prompt, "You are the GRC Knowledge Graph assistant."))
	assert.Contains(t, prompt, "## Graph Schema")
	assert.Contains(t, prompt, `"Framework"`)
	assert.Contains(t, prompt, `Predicates: ["CONTAINS","MAPS_TO"]`)
	assert.Contains(t, prompt, "## Graph Data (4 nodes, 3 edges)")
	assert.Contains(t, prompt, `{"id":"NIST-AC-2","type":"Control","label":"Account Management"}`)
	assert.Contains(t, prompt, `{"s":"NIST-AC-2","o":"SOC2-CC6.1","p":"MAPS_TO","plane":"MAPPING"}`)
	assert.True(t, strings.HasSuffix(prompt, "Use bullet lists and tables when helpful."))
}

func TestSystemPromptUsesSchema(t *testing.T) {
	schema := &graph.Payload{
		Predicates: map[string]any{"SUPERSEDES": map[string]any{}, "CONTAINS": map[string]any{}},
		Planes:     map[string]any{"MAPPING": map[string]any{"description": "cross-framework"}},
	}
	prompt := SystemPrompt(testGraph(), schema)

	assert.Contains(t, prompt, `Predicates: ["CONTAINS","SUPERSEDES"]`)
	assert.Contains(t, prompt, `Planes: {"MAPPING":"cross-framework"}`)
}

func TestWithSelection(t *testing.T) {
	assert.Equal(t, "base", WithSelection("base", ""))
	got := WithSelection("base", "NIST-AC-2")
	assert.Equal(t, "base\n\n## Currently Selected Node\nThe user has selected node **NIST-AC-2** in the graph viewer. Use this context when relevant.", got)
}

func TestNodeRefs(t *testing.T) {
	g := testGraph()
	text := "NIST-AC-2 maps to SOC2-CC6.1. See also NIST-AC-2 and ISO-A.9 or AC-99."

	assert.Equal(t, []string{"NIST-AC-2", "SOC2-CC6.1"}, NodeRefs(text, g))
	assert.Empty(t, NodeRefs("no identifiers here", g))

	linked := LinkNodeRefs("see NIST-AC-2 and ISO-A.9", g, func(id string) string { return "[" + id + "]" })
	assert.Equal(t, "see [NIST-AC-2] and ISO-A.9", linked)
}

func TestEventWriterAndReader(t *testing.T) {
	rec := httptest.NewRecorder()
	w := NewEventWriter(rec)
	require.NoError(t, w.Delta("Hello"))
	require.NoError(t, w.Delta(" world"))
	require.NoError(t, w.Done())

	assert.True(t, rec.Flushed)
	assert.True(t, strings.HasPrefix(rec.Body.String(), `data: {"type":"delta","text":"Hello"}`+"\n\n"))

	var events []Event
	err := ReadEvents(strings.NewReader(rec.Body.String()), func(ev Event) error {
		events = append(events, ev)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []Event{{Type: EventDelta, Text: "Hello"}, {Type: EventDelta, Text: " world"}, {Type: EventDone}}, events)
}

func TestReadEventsStopsAtError(t *testing.T) {
	input := "data: {\"type\":\"error\",\"text\":\"boom\"}\n\ndata: {\"type\":\"delta\",\"text\":\"late\"}\n\n"
	var events []Event
	require.NoError(t, ReadEvents(strings.NewReader(input), func(ev Event) error {
		events = append(events, ev)
		return nil
	}))
	assert.Equal(t, []Event{{Type: EventError, Text: "boom"}}, events)

	assert.Error(t, ReadEvents(strings.NewReader("data: {oops\n\n"), func(Event) error { return nil }))
}

func TestServiceStream(t *testing.T) {
	p := &fakeProvider{chunks: []string{"NIST-AC-2 ", "is a control."}}
	m := metrics.NewRegistry()
	s := NewService(p, 0, nil, m)
	s.SetGraph(testGraph(), nil)

	req := userAsks("what is NIST-AC-2?")
	req.SelectedNode = "NIST-AC-2"

	rec := httptest.NewRecorder()
	require.NoError(t, s.Stream(context.Background(), req, NewEventWriter(rec)))

	assert.Equal(t, DefaultMaxTokens, p.maxTokens)
	assert.Equal(t, req.Messages, p.messages)
	assert.Contains(t, p.system, "## Graph Data (4 nodes, 3 edges)")
	assert.Contains(t, p.system, "**NIST-AC-2**")
	body := rec.Body.String()
	assert.Contains(t, body, `"text":"is a control."`)
	assert.True(t, strings.HasSuffix(body, `data: {"type":"done"}`+"\n\n"))
	assert.Equal(t, "fake", s.ProviderName())
}

func TestServiceErrors(t *testing.T) {
	s := NewService(nil, 100, nil, nil)
	s.SetGraph(testGraph(), nil)
	rec := httptest.NewRecorder()

	assert.ErrorIs(t, s.Stream(context.Background(), Request{}, NewEventWriter(rec)), ErrNoMessages)
	assert.ErrorIs(t, s.Stream(context.Background(), userAsks("hi"), NewEventWriter(rec)), ErrNoProvider)
	assert.Zero(t, rec.Body.Len())
	assert.False(t, s.Available())
	assert.Equal(t, "none", s.ProviderName())

	boom := errors.New("upstream overloaded")
	failing := NewService(&fakeProvider{chunks: []string{"partial"}, err: boom}, 100, nil, nil)
	failing.SetGraph(testGraph(), nil)
	err := failing.Stream(context.Background(), userAsks("hi"), NewEventWriter(rec))
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, rec.Body.String(), `{"type":"error","text":"upstream overloaded"}`)
}

func TestServiceAsk(t *testing.T) {
	s := NewService(&fakeProvider{chunks: []string{"a", "b", "c"}}, 10, nil, nil)
	s.SetGraph(testGraph(), nil)

	got, err := s.Ask(context.Background(), userAsks("spell it"))
	require.NoError(t, err)
	assert.Equal(t, "abc", got)
}

func TestNewProvider(t *testing.T) {
	p, err := NewProvider(context.Background(), "none", "", "")
	require.NoError(t, err)
	assert.Nil(t, p)

	_, err = NewProvider(context.Background(), "openai", "k", "")
	assert.Error(t, err)
}
