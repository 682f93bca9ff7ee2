package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dd0wney/cluso-grc-explorer/pkg/interaction"
	"github.com/dd0wney/cluso-grc-explorer/pkg/metrics"
	"github.com/dd0wney/cluso-grc-explorer/pkg/render"
)

func TestStoreCreateGetDelete(t *testing.T) {
	m := metrics.NewRegistry()
	st := NewStore(twoFrameworks(), StoreOptions{Max: 4, Metrics: m})

	var renderedFor string
	rec := &render.Recorder{}
	s, err := st.Create(func(id string) render.Renderer {
		renderedFor = id
		return rec
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, s.ID(), renderedFor)
	assert.Equal(t, 1, rec.Frames())

	got, err := st.Get(s.ID())
	require.NoError(t, err)
	assert.Same(t, s, got)
	assert.Equal(t, 1, st.Len())

	var evicted []string
	st.OnEvict(func(id string) { evicted = append(evicted, id) })
	require.NoError(t, st.Delete(s.ID()))
	assert.ErrorIs(t, st.Delete(s.ID()), ErrNotFound)
	_, err = st.Get(s.ID())
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, []string{s.ID()}, evicted)
}

func TestStoreCap(t *testing.T) {
	st := NewStore(twoFrameworks(), StoreOptions{Max: 2})

	_, err := st.Create(nil, nil)
	require.NoError(t, err)
	_, err = st.Create(nil, nil)
	require.NoError(t, err)
	_, err = st.Create(nil, nil)
	assert.ErrorIs(t, err, ErrStoreFull)
}

func TestStoreCapHoldsUnderConcurrentCreates(t *testing.T) {
	st := NewStore(twoFrameworks(), StoreOptions{Max: 2})
	slowRenderer := func(string) render.Renderer {
		time.Sleep(5 * time.Millisecond)
		return &render.Recorder{}
	}

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		created int
		refused int
	)
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := st.Create(slowRenderer, nil)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				assert.ErrorIs(t, err, ErrStoreFull)
				refused++
				return
			}
			created++
		}()
	}
	wg.Wait()

	assert.Equal(t, 2, created)
	assert.Equal(t, 62, refused)
	assert.Equal(t, 2, st.Len())
}

func TestStoreCapReclaimsIdleSessions(t *testing.T) {
	st := NewStore(twoFrameworks(), StoreOptions{Max: 1, IdleTTL: time.Minute})
	first, err := st.Create(nil, nil)
	require.NoError(t, err)

	st.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	second, err := st.Create(nil, nil)
	require.NoError(t, err)

	_, err = st.Get(first.ID())
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, []string{second.ID()}, st.IDs())
}

func TestStoreSweep(t *testing.T) {
	st := NewStore(twoFrameworks(), StoreOptions{IdleTTL: time.Minute})
	idle, err := st.Create(nil, nil)
	require.NoError(t, err)
	assert.Empty(t, st.Sweep())

	st.now = func() time.Time { return time.Now().Add(90 * time.Second) }
	assert.Equal(t, []string{idle.ID()}, st.Sweep())
	assert.Zero(t, st.Len())
}

func TestStoreSweepDisabled(t *testing.T) {
	st := NewStore(twoFrameworks(), StoreOptions{})
	_, err := st.Create(nil, nil)
	require.NoError(t, err)
	st.now = func() time.Time { return time.Now().Add(24 * time.Hour) }
	assert.Empty(t, st.Sweep())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.NoError(t, st.Run(ctx))
}

func TestStoreSetGraphAffectsNewSessionsOnly(t *testing.T) {
	st := NewStore(twoFrameworks(), StoreOptions{})
	old, err := st.Create(nil, nil)
	require.NoError(t, err)

	next := twoFrameworks()
	st.SetGraph(next)
	fresh, err := st.Create(nil, nil)
	require.NoError(t, err)

	assert.NotSame(t, next, old.Graph())
	assert.Same(t, next, fresh.Graph())
	assert.Same(t, next, st.Graph())
}

func TestStoreSelectionCallbackCarriesID(t *testing.T) {
	st := NewStore(twoFrameworks(), StoreOptions{})

	var mu sync.Mutex
	var gotID string
	var gotSel interaction.Selection
	s, err := st.Create(nil, func(id string, sel interaction.Selection) {
		mu.Lock()
		defer mu.Unlock()
		gotID, gotSel = id, sel
	})
	require.NoError(t, err)

	s.TapNode("C1")
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, s.ID(), gotID)
	assert.Equal(t, interaction.Selection{Kind: interaction.SelectionNode, ID: "C1"}, gotSel)
}
