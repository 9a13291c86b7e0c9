package tui

import (
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jmylchreest/backdrop/internal/background"
	"github.com/jmylchreest/backdrop/internal/debounce"
	"github.com/jmylchreest/backdrop/internal/signal"
)

type wakeMsg struct{}

type frameMsg struct {
	id background.FrameID
}

type timerMsg struct {
	id uint64
}

// loop runs renderer callbacks on the BubbleTea update goroutine. Frames
// and timers become tea.Tick commands collected by flush; callbacks from
// other goroutines are queued and drained on a wakeMsg.
type loop struct {
	mu       sync.Mutex
	send     func(tea.Msg)
	interval time.Duration

	queue  []func()
	waking bool

	nextFrame background.FrameID
	frames    map[background.FrameID]func()
	nextTimer uint64
	timers    map[uint64]func()
	cmds      []tea.Cmd
}

func newLoop(interval time.Duration) *loop {
	return &loop{
		interval: interval,
		frames:   make(map[background.FrameID]func()),
		timers:   make(map[uint64]func()),
	}
}

// attach sets the function used to wake the program.
func (l *loop) attach(send func(tea.Msg)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.send = send
}

// post queues fn to run on the update goroutine. The wake is sent from a
// new goroutine because post may be called from inside Update.
func (l *loop) post(fn func()) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.queue = append(l.queue, fn)
	if l.waking || l.send == nil {
		return
	}
	l.waking = true
	send := l.send
	go send(wakeMsg{})
}

func (l *loop) drain() {
	l.mu.Lock()
	q := l.queue
	l.queue = nil
	l.waking = false
	l.mu.Unlock()

	for _, fn := range q {
		if fn != nil {
			fn()
		}
	}
}

// RequestFrame implements background.FrameScheduler.
func (l *loop) RequestFrame(fn func()) background.FrameID {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.nextFrame++
	id := l.nextFrame
	l.frames[id] = fn
	l.cmds = append(l.cmds, tea.Tick(l.interval, func(time.Time) tea.Msg {
		return frameMsg{id: id}
	}))
	return id
}

// CancelFrame implements background.FrameScheduler.
func (l *loop) CancelFrame(id background.FrameID) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.frames, id)
}

// AfterFunc implements debounce.Clock.
func (l *loop) AfterFunc(d time.Duration, f func()) debounce.Timer {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.nextTimer++
	id := l.nextTimer
	l.timers[id] = f
	l.cmds = append(l.cmds, tea.Tick(d, func(time.Time) tea.Msg {
		return timerMsg{id: id}
	}))
	return loopTimer{l: l, id: id}
}

type loopTimer struct {
	l  *loop
	id uint64
}

func (t loopTimer) Stop() bool {
	t.l.mu.Lock()
	defer t.l.mu.Unlock()

	_, ok := t.l.timers[t.id]
	delete(t.l.timers, t.id)
	return ok
}

// handle runs the callback a loop message refers to. It reports whether
// msg belonged to the loop.
func (l *loop) handle(msg tea.Msg) bool {
	var fn func()

	switch msg := msg.(type) {
	case wakeMsg:
		l.drain()
		return true
	case frameMsg:
		l.mu.Lock()
		fn = l.frames[msg.id]
		delete(l.frames, msg.id)
		l.mu.Unlock()
	case timerMsg:
		l.mu.Lock()
		fn = l.timers[msg.id]
		delete(l.timers, msg.id)
		l.mu.Unlock()
	default:
		return false
	}

	if fn != nil {
		fn()
	}
	return true
}

// flush returns the commands scheduled since the last flush.
func (l *loop) flush() tea.Cmd {
	l.mu.Lock()
	cmds := l.cmds
	l.cmds = nil
	l.mu.Unlock()

	if len(cmds) == 0 {
		return nil
	}
	return tea.Batch(cmds...)
}

// pendingFrames reports how many frames are waiting to run.
func (l *loop) pendingFrames() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.frames)
}

// loopSignal delivers a signal's change callbacks on the update goroutine.
type loopSignal struct {
	base signal.Signal
	loop *loop
}

func (s loopSignal) Current() (bool, error) {
	return s.base.Current()
}

func (s loopSignal) Subscribe(fn func(bool)) (func(), error) {
	return s.base.Subscribe(func(v bool) {
		s.loop.post(func() { fn(v) })
	})
}
