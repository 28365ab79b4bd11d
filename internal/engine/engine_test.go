package engine

import (
	"sync"
	"testing"
	"time"

	"github.com/schollz/snapgrid/internal/clock"
	"github.com/schollz/snapgrid/internal/registry"
	"github.com/schollz/snapgrid/internal/store"
	"github.com/schollz/snapgrid/internal/wire"
	"github.com/stretchr/testify/assert"
)

type harness struct {
	mu       sync.Mutex
	messages []wire.Message
	completes []store.Snapshot
	updates  []Interpolation
}

func (h *harness) onMessage(m wire.Message) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.messages = append(h.messages, m)
}

func (h *harness) onComplete(s store.Snapshot) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.completes = append(h.completes, s)
}

func (h *harness) onUpdate(i Interpolation) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.updates = append(h.updates, i)
}

func (h *harness) messageCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.messages)
}

func (h *harness) completeCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.completes)
}

func (h *harness) lastComplete() store.Snapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.completes[len(h.completes)-1]
}

func (h *harness) lastMessages(n int) []wire.Message {
	h.mu.Lock()
	defer h.mu.Unlock()
	if n > len(h.messages) {
		n = len(h.messages)
	}
	return append([]wire.Message{}, h.messages[len(h.messages)-n:]...)
}

func newHarness(t *testing.T) (*Engine, *store.Store, *clock.Clock, *harness) {
	reg := registry.New()
	st := store.New(reg)
	clk := clock.New(120, 4)
	eng := New(clk, st, reg)
	h := &harness{}
	eng.OnMessage(h.onMessage)
	eng.OnComplete(h.onComplete)
	eng.OnInterpolationUpdate(h.onUpdate)
	return eng, st, clk, h
}

func TestDropEmitsExactlyOneMessagePerEnabledParameter(t *testing.T) {
	eng, st, clk, h := newHarness(t)
	clk.SetSource(clock.SourceExternal)
	clk.IngestExternalStart()

	id := st.CreateEmpty(0, 0, "drop-test")
	st.SetParameter(id, "track_1_volume", 100, true)

	eng.ExecuteDrop(id, Settings{CycleLengthBars: 1})

	// advance 96 ticks (one bar); the drop itself fires on the engine's
	// wall-clock deadline, TimeUntilBar(1) = 2000ms at 120bpm
	for i := 0; i < 96; i++ {
		clk.IngestExternalTick()
	}

	assert.Eventually(t, func() bool { return h.completeCount() == 1 }, 3*time.Second, 5*time.Millisecond)
	assert.Equal(t, 100, st.GetCurrent("track_1_volume"))
	assert.Equal(t, 1, h.messageCount())
	assert.Equal(t, wire.CC{Channel: 1, CC: 7, Value: 100}, h.lastMessages(1)[0])
}

func TestJumpNoQuantizationMonotonicFade(t *testing.T) {
	eng, st, _, h := newHarness(t)
	st.SetCurrent("track_3_pan", 64)

	id := st.CreateEmpty(0, 0, "jump-test")
	st.SetParameter(id, "track_3_pan", 0, true)

	eng.ExecuteJump(id, Settings{FadeMS: 150, Quantization: clock.QuantNone})

	assert.Eventually(t, func() bool { return h.completeCount() == 1 }, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, 0, st.GetCurrent("track_3_pan"))

	h.mu.Lock()
	defer h.mu.Unlock()
	last := -1
	for _, m := range h.messages {
		cc, ok := m.(wire.CC)
		if !ok || cc.CC != 10 {
			continue
		}
		if last != -1 && cc.Value > last {
			t.Fatalf("pan value increased mid-fade: %d -> %d", last, cc.Value)
		}
		last = cc.Value
	}
	assert.Equal(t, 0, last)
}

func TestCancelDuringJumpStopsEmissionsAndSuppressesComplete(t *testing.T) {
	eng, st, _, h := newHarness(t)
	st.SetCurrent("track_3_pan", 64)

	id := st.CreateEmpty(0, 0, "jump-cancel")
	st.SetParameter(id, "track_3_pan", 0, true)

	eng.ExecuteJump(id, Settings{FadeMS: 400, Quantization: clock.QuantNone})
	time.Sleep(80 * time.Millisecond)

	eng.Cancel()
	countAtCancel := h.messageCount()
	valueAtCancel := st.GetCurrent("track_3_pan")

	time.Sleep(200 * time.Millisecond)

	assert.False(t, eng.IsActive())
	assert.Equal(t, countAtCancel, h.messageCount(), "no further emissions after cancel")
	assert.Equal(t, 0, h.completeCount(), "completion must not fire after cancel")
	assert.NotEqual(t, 64, valueAtCancel)
	assert.NotEqual(t, 0, valueAtCancel)
}

func TestQuantizedJumpSchedulesAndCompletes(t *testing.T) {
	eng, st, clk, h := newHarness(t)
	clk.SetSource(clock.SourceExternal)
	clk.IngestExternalStart()
	for i := 0; i < 48; i++ { // bar=0, beat=2
		clk.IngestExternalTick()
	}

	id := st.CreateEmpty(0, 0, "quantized-jump")
	st.SetParameter(id, "tempo", 100, true)

	eng.ExecuteJump(id, Settings{FadeMS: 50, Quantization: clock.QuantBar})

	sched, ok := eng.Scheduled()
	assert.True(t, ok)
	assert.Equal(t, ModeJump, sched.Mode)

	for i := 0; i < 48; i++ { // finish the bar
		clk.IngestExternalTick()
	}

	assert.Eventually(t, func() bool { return h.completeCount() == 1 }, 2*time.Second, 5*time.Millisecond)
}

func TestCancelIdempotent(t *testing.T) {
	eng, st, _, _ := newHarness(t)
	id := st.CreateEmpty(0, 0, "x")
	st.SetParameter(id, "tempo", 100, true)

	eng.ExecuteJump(id, Settings{FadeMS: 200, Quantization: clock.QuantNone})
	eng.Cancel()
	eng.Cancel() // second call must be a harmless no-op
	assert.False(t, eng.IsActive())
}

func TestUnknownSnapshotIsNoOp(t *testing.T) {
	eng, _, _, h := newHarness(t)
	eng.ExecuteJump("does-not-exist", Settings{FadeMS: 100})
	eng.ExecuteDrop("does-not-exist", Settings{CycleLengthBars: 1})
	time.Sleep(20 * time.Millisecond)
	assert.False(t, eng.IsActive())
	assert.Equal(t, 0, h.messageCount())
}

func TestRetriggerOverridesPreviousDrop(t *testing.T) {
	eng, st, clk, h := newHarness(t)
	clk.SetSource(clock.SourceExternal)
	clk.IngestExternalStart()

	idA := st.CreateEmpty(0, 0, "A")
	st.SetParameter(idA, "track_1_volume", 10, true)
	idB := st.CreateEmpty(0, 1, "B")
	st.SetParameter(idB, "track_1_volume", 20, true)

	eng.ExecuteDrop(idA, Settings{CycleLengthBars: 4})
	for i := 0; i < 96*2; i++ { // advance to bar 2
		clk.IngestExternalTick()
	}
	eng.ExecuteDrop(idB, Settings{CycleLengthBars: 4})

	for i := 0; i < 96*2; i++ { // advance to bar 4
		clk.IngestExternalTick()
	}

	// B was scheduled at bar 2 for bar 4: a 4000ms wall-clock deadline
	assert.Eventually(t, func() bool { return h.completeCount() == 1 }, 6*time.Second, 5*time.Millisecond)
	assert.Equal(t, 1, h.completeCount())
	assert.Equal(t, idB, h.lastComplete().ID)
	assert.Equal(t, 20, st.GetCurrent("track_1_volume"))
}

func TestEasingBoundaries(t *testing.T) {
	assert.Equal(t, 0.0, easeOutCubic(0))
	assert.Equal(t, 1.0, easeOutCubic(1))

	prev := -1.0
	for p := 0.0; p <= 1.0; p += 0.05 {
		v := easeOutCubic(p)
		assert.GreaterOrEqual(t, v, prev)
		prev = v
	}
}
