package main

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dd0wney/cluso-grc-explorer/pkg/chat"
	"github.com/dd0wney/cluso-grc-explorer/pkg/graph/graphtest"
	"github.com/dd0wney/cluso-grc-explorer/pkg/interaction"
	"github.com/dd0wney/cluso-grc-explorer/pkg/session"
)

func newTestModel(t *testing.T) model {
	t.Helper()
	term := &terminal{}
	sess := session.New(graphtest.Scenario(), term, session.Options{})
	return initialModel(sess, term, chat.NewService(nil, 0, nil, nil))
}

func press(t *testing.T, m model, msgs ...tea.KeyMsg) model {
	t.Helper()
	for _, msg := range msgs {
		next, _ := m.Update(msg)
		var ok bool
		m, ok = next.(model)
		require.True(t, ok)
	}
	return m
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

var enter = tea.KeyMsg{Type: tea.KeyEnter}

func TestTableListsVisibleNodes(t *testing.T) {
	m := newTestModel(t)
	rows := m.nodeTable.Rows()
	require.Len(t, rows, 4)
	assert.Equal(t, "F1", rows[0][0])
}

func TestEnterSelectsNode(t *testing.T) {
	m := press(t, newTestModel(t), enter)

	assert.Equal(t, interaction.Selection{Kind: interaction.SelectionNode, ID: "F1"}, m.sess.Selection())
	assert.Equal(t, "selected F1", m.message)

	m = press(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.True(t, m.sess.Selection().Empty())
}

func TestSearchInput(t *testing.T) {
	m := press(t, newTestModel(t), runes("/"))
	require.True(t, m.searchInput.Focused())

	m = press(t, m, runes("c"), runes("1"), enter)
	assert.False(t, m.searchInput.Focused())

	query, matches := m.sess.Query()
	assert.Equal(t, "c1", query)
	assert.Equal(t, []string{"C1"}, matches)
	assert.Contains(t, m.message, "1 nodes match")
}

func TestFiltersViewFocusesFramework(t *testing.T) {
	m := press(t, newTestModel(t), tea.KeyMsg{Type: tea.KeyTab})
	require.Equal(t, filtersView, m.currentView)

	m = press(t, m, runes(" "))
	assert.Equal(t, "F1", m.sess.Filters().FocusedFramework)

	m = press(t, m, runes(" "))
	assert.Empty(t, m.sess.Filters().FocusedFramework)
}

func TestOrphansAndResetKeys(t *testing.T) {
	m := press(t, newTestModel(t), runes("o"))
	assert.True(t, m.sess.Filters().ShowOrphans)

	m = press(t, m, runes("r"))
	assert.False(t, m.sess.Filters().ShowOrphans)
}

func TestAskWithoutProvider(t *testing.T) {
	m := newTestModel(t)
	m.currentView = chatView
	m = press(t, m, enter)
	require.True(t, m.chatInput.Focused())

	m = press(t, m, runes("what maps to C2?"), enter)
	assert.True(t, m.messageErr)
	assert.False(t, m.asking)
}

func TestDetailMarkdown(t *testing.T) {
	m := newTestModel(t)
	m.sess.TapNode("C1")

	d, err := m.sess.Detail()
	require.NoError(t, err)
	md := detailMarkdown(d)
	assert.Contains(t, md, "# C1")
	assert.Contains(t, md, "## CONTAINS")
	assert.Contains(t, md, "`CF1`")
	assert.Contains(t, md, "## MAPS_TO")

	assert.Contains(t, detailMarkdown(session.Detail{}), "Nothing selected")
}
