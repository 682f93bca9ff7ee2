package main

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/dd0wney/cluso-grc-explorer/pkg/chat"
	"github.com/dd0wney/cluso-grc-explorer/pkg/filter"
	"github.com/dd0wney/cluso-grc-explorer/pkg/interaction"
	"github.com/dd0wney/cluso-grc-explorer/pkg/render"
	"github.com/dd0wney/cluso-grc-explorer/pkg/session"
)

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF00FF")).
			MarginLeft(2).
			MarginTop(1)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#00FFFF")).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#00FFFF")).
			Padding(0, 1)

	activeTabStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(lipgloss.Color("#FF00FF")).
			Padding(0, 2)

	inactiveTabStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#666666")).
				Padding(0, 2)

	contentStyle = lipgloss.NewStyle().
			MarginLeft(2).
			MarginTop(1)

	countsStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888")).
			MarginLeft(2)

	cursorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF00FF"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF0000")).
			Bold(true)

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#00FF00")).
			Bold(true)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888")).
			MarginTop(1).
			MarginLeft(2)
)

type view int

const (
	graphView view = iota
	filtersView
	detailView
	chatView
	viewCount
)

var viewNames = []string{"Graph", "Filters", "Detail", "Chat"}

// tuiOrigin tags navigations started from the terminal UI
const tuiOrigin = "tui"

type keyMap struct {
	Tab      key.Binding
	ShiftTab key.Binding
	Enter    key.Binding
	Toggle   key.Binding
	Search   key.Binding
	Cancel   key.Binding
	Reset    key.Binding
	Orphans  key.Binding
	Labels   key.Binding
	Layout   key.Binding
	Quit     key.Binding
	Up       key.Binding
	Down     key.Binding
}

var keys = keyMap{
	Tab:      key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next view")),
	ShiftTab: key.NewBinding(key.WithKeys("shift+tab"), key.WithHelp("shift+tab", "prev view")),
	Enter:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "select")),
	Toggle:   key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "toggle")),
	Search:   key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),
	Cancel:   key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "clear")),
	Reset:    key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reset filters")),
	Orphans:  key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "orphans")),
	Labels:   key.NewBinding(key.WithKeys("l"), key.WithHelp("l", "labels")),
	Layout:   key.NewBinding(key.WithKeys("L"), key.WithHelp("L", "layout")),
	Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	Up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
	Down:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Tab, k.Enter, k.Search, k.Cancel, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Tab, k.ShiftTab, k.Enter, k.Toggle},
		{k.Search, k.Cancel, k.Reset, k.Orphans, k.Labels, k.Layout},
		{k.Up, k.Down, k.Quit},
	}
}

// terminal is the session renderer. The model reads frames from the session
// itself and only needs the camera moves.
type terminal struct {
	mu       sync.Mutex
	viewport *interaction.ViewportRequest
}

func (t *terminal) Render(render.Frame) {}

func (t *terminal) Viewport(req interaction.ViewportRequest) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.viewport = &req
}

func (t *terminal) RunLayout(render.LayoutRequest) {}

// takeViewport returns and clears the last camera move
func (t *terminal) takeViewport() *interaction.ViewportRequest {
	t.mu.Lock()
	defer t.mu.Unlock()
	v := t.viewport
	t.viewport = nil
	return v
}

// filterEntry is one line of the Filters view
type filterEntry struct {
	section string
	label   string
	active  bool
	toggle  func() filter.Change
}

type answerMsg struct {
	question string
	text     string
	err      error
}

type model struct {
	sess      *session.Session
	term      *terminal
	assistant *chat.Service
	markdown  *glamour.TermRenderer

	currentView view
	nodeTable   table.Model
	searchInput textinput.Model
	chatInput   textinput.Model
	spinner     spinner.Model
	help        help.Model
	keys        keyMap
	width       int
	height      int
	cursor      int
	message     string
	messageErr  bool

	history []chat.Message
	answer  string
	refs    []string
	asking  bool
}

func initialModel(sess *session.Session, term *terminal, assistant *chat.Service) model {
	search := textinput.New()
	search.Placeholder = "search labels and ids"
	search.CharLimit = 256
	search.Width = 50

	ask := textinput.New()
	ask.Placeholder = "ask about the graph"
	ask.CharLimit = 1000
	ask.Width = 70

	t := table.New(
		table.WithColumns([]table.Column{
			{Title: "ID", Width: 22},
			{Title: "Kind", Width: 14},
			{Title: "Label", Width: 40},
			{Title: "Paint", Width: 10},
		}),
		table.WithFocused(true),
		table.WithHeight(15),
	)
	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("#00FFFF")).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("#FFFFFF")).
		Background(lipgloss.Color("#FF00FF")).
		Bold(false)
	t.SetStyles(s)

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	md, _ := glamour.NewTermRenderer(
		glamour.WithStandardStyle("dark"),
		glamour.WithWordWrap(90),
	)

	m := model{
		sess:        sess,
		term:        term,
		assistant:   assistant,
		markdown:    md,
		currentView: graphView,
		nodeTable:   t,
		searchInput: search,
		chatInput:   ask,
		spinner:     sp,
		help:        help.New(),
		keys:        keys,
	}
	m.refreshTable()
	return m
}

func (m model) Init() tea.Cmd {
	return textinput.Blink
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		if h := msg.Height - 14; h > 5 {
			m.nodeTable.SetHeight(h)
		}
		return m, nil

	case spinner.TickMsg:
		if !m.asking {
			return m, nil
		}
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case answerMsg:
		m.asking = false
		if msg.err != nil {
			m.setError("assistant: %v", msg.err)
			return m, nil
		}
		m.history = append(m.history,
			chat.Message{Role: chat.RoleUser, Content: msg.question},
			chat.Message{Role: chat.RoleAssistant, Content: msg.text})
		m.answer = msg.text
		m.refs = chat.NodeRefs(msg.text, m.sess.Graph())
		m.setInfo("answer received, %d node references", len(m.refs))
		return m, nil

	case tea.KeyMsg:
		if m.searchInput.Focused() {
			switch msg.Type {
			case tea.KeyEnter:
				m.searchInput.Blur()
				m.runSearch(m.searchInput.Value())
				return m, nil
			case tea.KeyEsc:
				m.searchInput.Blur()
				return m, nil
			}
			m.searchInput, cmd = m.searchInput.Update(msg)
			return m, cmd
		}
		if m.chatInput.Focused() {
			switch msg.Type {
			case tea.KeyEnter:
				m.chatInput.Blur()
				return m, m.ask(m.chatInput.Value())
			case tea.KeyEsc:
				m.chatInput.Blur()
				return m, nil
			}
			m.chatInput, cmd = m.chatInput.Update(msg)
			return m, cmd
		}
		return m.handleKey(msg)
	}
	return m, nil
}

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Tab):
		m.currentView = (m.currentView + 1) % viewCount
		return m, nil

	case key.Matches(msg, m.keys.ShiftTab):
		m.currentView = (m.currentView + viewCount - 1) % viewCount
		return m, nil

	case key.Matches(msg, m.keys.Search):
		m.currentView = graphView
		m.searchInput.SetValue("")
		m.searchInput.Focus()
		return m, textinput.Blink

	case key.Matches(msg, m.keys.Cancel):
		m.effect(m.sess.Cancel())
		m.searchInput.SetValue("")
		return m, nil

	case key.Matches(msg, m.keys.Reset):
		m.changed(m.sess.ResetFilters())
		return m, nil

	case key.Matches(msg, m.keys.Orphans):
		m.changed(m.sess.SetShowOrphans(!m.sess.Filters().ShowOrphans))
		return m, nil

	case key.Matches(msg, m.keys.Labels):
		m.changed(m.sess.SetShowLabels(!m.sess.Filters().ShowLabels))
		return m, nil

	case key.Matches(msg, m.keys.Layout):
		m.cycleLayout()
		return m, nil
	}

	switch m.currentView {
	case graphView:
		if key.Matches(msg, m.keys.Enter) {
			if row := m.nodeTable.SelectedRow(); row != nil {
				m.effect(m.sess.TapNode(row[0]))
			}
			return m, nil
		}
		var cmd tea.Cmd
		m.nodeTable, cmd = m.nodeTable.Update(msg)
		return m, cmd

	case filtersView:
		entries := m.filterEntries()
		switch {
		case key.Matches(msg, m.keys.Up):
			if m.cursor > 0 {
				m.cursor--
			}
		case key.Matches(msg, m.keys.Down):
			if m.cursor < len(entries)-1 {
				m.cursor++
			}
		case key.Matches(msg, m.keys.Toggle), key.Matches(msg, m.keys.Enter):
			if m.cursor < len(entries) {
				m.changed(entries[m.cursor].toggle())
			}
		}
		return m, nil

	case chatView:
		if key.Matches(msg, m.keys.Enter) {
			m.chatInput.Focus()
			return m, textinput.Blink
		}
		// 1-9 jump to a node the assistant mentioned
		if s := msg.String(); len(s) == 1 && s[0] >= '1' && s[0] <= '9' {
			if i := int(s[0] - '1'); i < len(m.refs) {
				m.navigate(m.refs[i])
			}
		}
		return m, nil
	}
	return m, nil
}

func (m *model) runSearch(q string) {
	m.effect(m.sess.Search(q))
	if query, matches := m.sess.Query(); query != "" {
		m.setInfo("%d nodes match %q", len(matches), query)
	}
}

func (m *model) ask(q string) tea.Cmd {
	m.chatInput.SetValue("")
	if strings.TrimSpace(q) == "" {
		return nil
	}
	if m.assistant == nil || !m.assistant.Available() {
		m.setError("no chat provider configured")
		return nil
	}
	selected, _ := m.sess.SelectedNodeID()
	messages := append(append([]chat.Message(nil), m.history...), chat.Message{Role: chat.RoleUser, Content: q})
	assistant := m.assistant
	m.asking = true
	return tea.Batch(m.spinner.Tick, func() tea.Msg {
		text, err := assistant.Ask(context.Background(), chat.Request{Messages: messages, SelectedNode: selected})
		return answerMsg{question: q, text: text, err: err}
	})
}

func (m *model) navigate(id string) {
	if !m.sess.NavigateFrom(tuiOrigin, id) {
		m.setError("%s is not in the graph", id)
		return
	}
	m.currentView = detailView
	m.afterChange()
	m.setInfo("navigated to %s", id)
}

// effect reports an interaction result
func (m *model) effect(e interaction.Effect) {
	m.afterChange()
	if !e.Changed {
		return
	}
	switch {
	case e.Selection.Kind == interaction.SelectionNode:
		m.setInfo("selected %s", e.Selection.ID)
	case e.Selection.Kind == interaction.SelectionEdge:
		m.setInfo("selected edge %s", e.Selection.ID)
	default:
		m.setInfo("cleared")
	}
}

// changed reports a filter change
func (m *model) changed(c filter.Change) {
	m.afterChange()
	if !c.Any() {
		return
	}
	nodes, edges := m.sess.Counts()
	m.setInfo("%d nodes, %d edges visible", nodes, edges)
}

func (m *model) afterChange() {
	m.refreshTable()
	if v := m.term.takeViewport(); v != nil && len(v.IDs) == 1 {
		m.focusRow(v.IDs[0])
	}
}

// refreshTable lists the shown nodes of the latest frame
func (m *model) refreshTable() {
	frame := m.sess.Frame()
	rows := make([]table.Row, 0, frame.VisibleNodes)
	for _, n := range frame.Nodes {
		if !n.Shown {
			continue
		}
		rows = append(rows, table.Row{n.ID, n.Kind, n.Label, n.Paint})
	}
	m.nodeTable.SetRows(rows)
	if m.nodeTable.Cursor() >= len(rows) {
		m.nodeTable.SetCursor(max(len(rows)-1, 0))
	}
}

func (m *model) focusRow(id string) {
	for i, row := range m.nodeTable.Rows() {
		if row[0] == id {
			m.nodeTable.SetCursor(i)
			return
		}
	}
}

func (m *model) cycleLayout() {
	sb := m.sess.Sidebar()
	for i, l := range sb.Layouts {
		if l == sb.Layout {
			next := sb.Layouts[(i+1)%len(sb.Layouts)]
			if c, err := m.sess.SetLayout(string(next)); err == nil {
				m.changed(c)
				m.setInfo("layout %s", next)
			}
			return
		}
	}
}

func (m model) filterEntries() []filterEntry {
	sb := m.sess.Sidebar()
	var entries []filterEntry
	for _, fw := range sb.Frameworks {
		id, focused := fw.ID, fw.Focused
		entries = append(entries, filterEntry{
			section: "Focus",
			label:   fw.Label,
			active:  focused,
			toggle: func() filter.Change {
				if focused {
					return m.sess.SetFocusedFramework("")
				}
				return m.sess.SetFocusedFramework(id)
			},
		})
	}
	for _, p := range sb.Predicates {
		pred := p.Predicate
		entries = append(entries, filterEntry{
			section: "Relationships",
			label:   fmt.Sprintf("%s (%d)", p.Predicate, p.Count),
			active:  p.Active,
			toggle:  func() filter.Change { return m.sess.TogglePredicate(pred) },
		})
	}
	for _, k := range sb.Kinds {
		if k.Count == 0 {
			continue
		}
		kind := k.Kind
		entries = append(entries, filterEntry{
			section: "Node types",
			label:   fmt.Sprintf("%s (%d)", k.Kind, k.Count),
			active:  k.Active,
			toggle:  func() filter.Change { return m.sess.ToggleKind(kind) },
		})
	}
	return entries
}

func (m *model) setInfo(format string, args ...any) {
	m.message = fmt.Sprintf(format, args...)
	m.messageErr = false
}

func (m *model) setError(format string, args ...any) {
	m.message = fmt.Sprintf(format, args...)
	m.messageErr = true
}

func (m model) View() string {
	if m.width == 0 {
		return "Initializing..."
	}

	var s strings.Builder
	s.WriteString(titleStyle.Render("GRC Knowledge Graph Explorer"))
	s.WriteString("\n\n")
	s.WriteString(m.renderTabs())
	s.WriteString("\n")
	s.WriteString(m.renderCounts())
	s.WriteString("\n")

	switch m.currentView {
	case graphView:
		s.WriteString(m.renderGraph())
	case filtersView:
		s.WriteString(m.renderFilters())
	case detailView:
		s.WriteString(m.renderDetail())
	case chatView:
		s.WriteString(m.renderChat())
	}

	if m.message != "" {
		s.WriteString("\n\n")
		if m.messageErr {
			s.WriteString(errorStyle.Render("✗ " + m.message))
		} else {
			s.WriteString(successStyle.Render("✓ " + m.message))
		}
	}

	s.WriteString("\n")
	s.WriteString(helpStyle.Render(m.help.ShortHelpView(m.keys.ShortHelp())))
	return s.String()
}

func (m model) renderTabs() string {
	tabs := make([]string, 0, len(viewNames))
	for i, name := range viewNames {
		if view(i) == m.currentView {
			tabs = append(tabs, activeTabStyle.Render(name))
		} else {
			tabs = append(tabs, inactiveTabStyle.Render(name))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

func (m model) renderCounts() string {
	frame := m.sess.Frame()
	line := fmt.Sprintf("%d / %d nodes · %d / %d edges · layout %s",
		frame.VisibleNodes, frame.TotalNodes, frame.VisibleEdges, frame.TotalEdges, frame.Layout)
	if frame.Focus != "" {
		line += " · focus " + frame.Focus
	}
	if frame.Query != "" {
		line += fmt.Sprintf(" · search %q", frame.Query)
	}
	return countsStyle.Render(line)
}

func (m model) renderGraph() string {
	var s strings.Builder
	if m.searchInput.Focused() {
		s.WriteString(m.searchInput.View())
		s.WriteString("\n\n")
	}
	s.WriteString(m.nodeTable.View())
	return contentStyle.Render(s.String())
}

func (m model) renderFilters() string {
	var s strings.Builder
	section := ""
	for i, e := range m.filterEntries() {
		if e.section != section {
			section = e.section
			if i > 0 {
				s.WriteString("\n")
			}
			s.WriteString(headerStyle.Render(section))
			s.WriteString("\n")
		}
		box := "[ ]"
		if e.active {
			box = "[x]"
		}
		line := fmt.Sprintf("%s %s", box, e.label)
		if i == m.cursor {
			line = cursorStyle.Render("> " + line)
		} else {
			line = "  " + line
		}
		s.WriteString(line)
		s.WriteString("\n")
	}
	return contentStyle.Render(s.String())
}

func (m model) renderDetail() string {
	detail, err := m.sess.Detail()
	if err != nil {
		detail = session.Detail{}
	}
	return contentStyle.Render(m.renderMarkdown(detailMarkdown(detail)))
}

func (m model) renderChat() string {
	var s strings.Builder
	s.WriteString(headerStyle.Render("Assistant"))
	s.WriteString("\n\n")
	if m.assistant == nil || !m.assistant.Available() {
		s.WriteString(helpStyle.Render("No chat provider configured. Set ANTHROPIC_API_KEY or GEMINI_API_KEY."))
		return contentStyle.Render(s.String())
	}
	if id, ok := m.sess.SelectedNodeID(); ok {
		s.WriteString(countsStyle.Render("asking about " + id))
		s.WriteString("\n")
	}
	s.WriteString(m.chatInput.View())
	s.WriteString("\n\n")

	switch {
	case m.asking:
		s.WriteString(m.spinner.View() + " thinking...")
	case m.answer != "":
		linked := chat.LinkNodeRefs(m.answer, m.sess.Graph(), func(id string) string { return "`" + id + "`" })
		s.WriteString(m.renderMarkdown(linked))
		for i, ref := range m.refs {
			if i == 9 {
				break
			}
			s.WriteString(fmt.Sprintf("  [%d] %s\n", i+1, ref))
		}
	}
	return contentStyle.Render(s.String())
}

func (m model) renderMarkdown(md string) string {
	if m.markdown == nil {
		return md
	}
	out, err := m.markdown.Render(md)
	if err != nil {
		return md
	}
	return out
}
