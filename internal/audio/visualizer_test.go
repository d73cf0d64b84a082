package audio

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAnalyser struct {
	mu           sync.Mutex
	level        byte
	disconnected bool
	onDisconnect func()
}

func (a *fakeAnalyser) BinCount() int { return FFTSize / 2 }

func (a *fakeAnalyser) FrequencyData(dst []byte) {
	for i := range dst {
		dst[i] = a.level
	}
}

func (a *fakeAnalyser) Disconnect() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.disconnected {
		return ErrDisconnected
	}
	a.disconnected = true
	if a.onDisconnect != nil {
		a.onDisconnect()
	}
	return nil
}

type fakeMic struct {
	mu     sync.Mutex
	live   int
	closed bool
}

func (m *fakeMic) NewAnalyser(int) (Analyser, error) {
	m.mu.Lock()
	m.live++
	m.mu.Unlock()
	return &fakeAnalyser{level: 10, onDisconnect: func() {
		m.mu.Lock()
		m.live--
		m.mu.Unlock()
	}}, nil
}

func (m *fakeMic) Close() error {
	m.closed = true
	return nil
}

type fakeGraph struct {
	suspended bool
	closed    int
	resumed   int
	analyser  *fakeAnalyser
}

func (g *fakeGraph) NewAnalyser(int) (Analyser, error) {
	g.analyser = &fakeAnalyser{level: 200}
	return g.analyser, nil
}
func (g *fakeGraph) Suspended() bool { return g.suspended }
func (g *fakeGraph) Resume() error   { g.resumed++; g.suspended = false; return nil }
func (g *fakeGraph) Close() error    { g.closed++; return nil }

type fakeMedia struct {
	graphs []*fakeGraph
	hooks  map[int]func()
	seq    int
}

func (m *fakeMedia) OpenGraph() (Graph, error) {
	g := &fakeGraph{suspended: true}
	m.graphs = append(m.graphs, g)
	return g, nil
}

func (m *fakeMedia) OnPlay(fn func()) func() {
	if m.hooks == nil {
		m.hooks = make(map[int]func())
	}
	m.seq++
	id := m.seq
	m.hooks[id] = fn
	return func() { delete(m.hooks, id) }
}

func (m *fakeMedia) play() {
	for _, fn := range m.hooks {
		fn()
	}
}

func TestVisualizerStateMachine(t *testing.T) {
	t.Run("idle yields flat frames", func(t *testing.T) {
		v := NewVisualizer(nil)
		assert.Equal(t, StateIdle, v.State())
		assert.True(t, v.Sample().Flat())
	})

	t.Run("media wins over mic", func(t *testing.T) {
		v := NewVisualizer(nil)
		mic := &fakeMic{}
		media := &fakeMedia{}

		require.NoError(t, v.Update(Borrow[MicTap](mic), nil))
		assert.Equal(t, StateMicAttached, v.State())
		assert.Equal(t, 1, mic.live)

		require.NoError(t, v.Update(Borrow[MicTap](mic), media))
		assert.Equal(t, StateMediaAttached, v.State())
		assert.Equal(t, 0, mic.live)

		frame := v.Sample()
		require.Len(t, frame.Bins, FFTSize/2)
		assert.Equal(t, byte(200), frame.Bins[0])
	})

	t.Run("removing media falls back to mic", func(t *testing.T) {
		v := NewVisualizer(nil)
		mic := &fakeMic{}
		media := &fakeMedia{}
		borrowed := Borrow[MicTap](mic)

		require.NoError(t, v.Update(borrowed, media))
		require.NoError(t, v.Update(borrowed, nil))
		assert.Equal(t, StateMicAttached, v.State())
		assert.Equal(t, 1, media.graphs[0].closed)
	})

	t.Run("same source is a no-op", func(t *testing.T) {
		v := NewVisualizer(nil)
		media := &fakeMedia{}
		require.NoError(t, v.Update(nil, media))
		require.NoError(t, v.Update(nil, media))
		assert.Len(t, media.graphs, 1)
	})
}

func TestVisualizerTeardown(t *testing.T) {
	t.Run("mic is never closed", func(t *testing.T) {
		v := NewVisualizer(nil)
		mic := &fakeMic{}
		require.NoError(t, v.Update(Borrow[MicTap](mic), nil))
		require.NoError(t, v.Update(nil, nil))
		v.Close()
		assert.False(t, mic.closed)
		assert.Equal(t, 0, mic.live)
	})

	t.Run("repeated attach and detach leaves at most one analyser", func(t *testing.T) {
		v := NewVisualizer(nil)
		mic := &fakeMic{}
		for i := 0; i < 10; i++ {
			require.NoError(t, v.Update(Borrow[MicTap](mic), nil))
			assert.LessOrEqual(t, mic.live, 1)
			require.NoError(t, v.Update(nil, nil))
			assert.Equal(t, 0, mic.live)
		}
	})

	t.Run("media graph closed exactly once", func(t *testing.T) {
		v := NewVisualizer(nil)
		media := &fakeMedia{}
		require.NoError(t, v.Update(nil, media))
		v.Close()
		v.Close()
		assert.Equal(t, 1, media.graphs[0].closed)
		assert.True(t, media.graphs[0].analyser.disconnected)
	})

	t.Run("suspended graph resumes on play", func(t *testing.T) {
		v := NewVisualizer(nil)
		media := &fakeMedia{}
		require.NoError(t, v.Update(nil, media))
		media.play()
		assert.Equal(t, 1, media.graphs[0].resumed)
	})

	t.Run("stale play hook is ignored", func(t *testing.T) {
		v := NewVisualizer(nil)
		media := &fakeMedia{}
		require.NoError(t, v.Update(nil, media))
		require.NoError(t, v.Update(nil, nil))
		media.play()
		assert.Equal(t, 0, media.graphs[0].resumed)
	})

	t.Run("swapping sources does not pile up hooks", func(t *testing.T) {
		v := NewVisualizer(nil)
		media := &fakeMedia{}
		other := &fakeMedia{}
		for i := 0; i < 5; i++ {
			require.NoError(t, v.Update(nil, media))
			require.NoError(t, v.Update(nil, other))
		}
		assert.Empty(t, media.hooks)
		assert.Len(t, other.hooks, 1)

		v.Close()
		assert.Empty(t, other.hooks)
	})
}
