// Package statuspanel implements the optional live terminal dashboard
// (A7): a scrolling system-log pane plus a one-line status header,
// redrawn via gdamore/tcell/v2. Adapted from ansi_console.go's fixed-size
// ring-buffer panes and refreshLoop goroutine, replacing raw ANSI escape
// sequences with tcell's screen model since the pack's other terminal UI
// dependency (rivo/tview) pulls in a larger transitive surface this
// simpler dashboard doesn't need.
package statuspanel

import (
	"fmt"
	"sync"
	"time"

	humanize "github.com/dustin/go-humanize"
	"github.com/gdamore/tcell/v2"
)

// eventQueueSize bounds the channel Push sends to; when the queue is full
// Push drops the new event rather than blocking the session's dispatch loop.
const eventQueueSize = 64

// Event is one line appended to the panel's scrolling log.
type Event struct {
	Time time.Time
	Text string
}

// ringPane is a fixed-capacity circular buffer of rendered lines, adapted
// from ansi_console.go's ringPane.
type ringPane struct {
	lines []string
	idx   int
	count int
}

func newRingPane(capacity int) ringPane {
	if capacity < 1 {
		capacity = 1
	}
	return ringPane{lines: make([]string, capacity)}
}

func (p *ringPane) append(line string) {
	p.lines[p.idx] = line
	p.idx = (p.idx + 1) % len(p.lines)
	if p.count < len(p.lines) {
		p.count++
	}
}

// ordered returns the pane's lines oldest-first.
func (p *ringPane) ordered() []string {
	out := make([]string, 0, p.count)
	start := (p.idx - p.count + len(p.lines)) % len(p.lines)
	for i := 0; i < p.count; i++ {
		out = append(out, p.lines[(start+i)%len(p.lines)])
	}
	return out
}

// Panel is the live status dashboard. It owns a tcell.Screen and redraws
// on a timer plus on demand; it is safe to Push from any goroutine.
type Panel struct {
	mu        sync.Mutex
	screen    tcell.Screen
	status    string
	lastEvent time.Time
	log       ringPane
	events   chan Event
	quit     chan struct{}
	stopOnce sync.Once
	refresh  time.Duration
}

// New constructs a Panel with the given scrollback depth and redraw
// interval. It does not open the screen until Start is called.
func New(scrollback int, refresh time.Duration) *Panel {
	if refresh <= 0 {
		refresh = 500 * time.Millisecond
	}
	return &Panel{
		log:     newRingPane(scrollback),
		events:  make(chan Event, eventQueueSize),
		quit:    make(chan struct{}),
		refresh: refresh,
	}
}

// Start opens the terminal screen and begins the redraw loop. Returns an
// error if no terminal is available (e.g. running headless).
func (p *Panel) Start() error {
	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("statuspanel: new screen: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("statuspanel: init screen: %w", err)
	}
	p.mu.Lock()
	p.screen = screen
	p.mu.Unlock()

	go p.drainEvents()
	go p.refreshLoop()
	go p.pollInput()
	return nil
}

// Stop tears down the screen and redraw loop. Idempotent.
func (p *Panel) Stop() {
	p.stopOnce.Do(func() {
		close(p.quit)
		p.mu.Lock()
		if p.screen != nil {
			p.screen.Fini()
		}
		p.mu.Unlock()
	})
}

// SetStatus updates the single-line header (e.g. connection state, last
// beacon time). Safe for concurrent use.
func (p *Panel) SetStatus(text string) {
	p.mu.Lock()
	p.status = text
	p.mu.Unlock()
}

// Notify appends a timestamped line to the scrolling log. It implements
// session.StatusSink alongside SetStatus, letting the session supervisor
// report lifecycle events (connect, connect failure, session end) without
// importing this package's concrete Event type.
func (p *Panel) Notify(text string) {
	p.Push(Event{Time: time.Now(), Text: text})
}

// Push appends an event to the scrolling log. Non-blocking: if the queue
// is full, the event is dropped rather than stalling the caller — the
// dashboard is a diagnostic aid, never a backpressure source for the
// dispatch pipeline.
func (p *Panel) Push(e Event) {
	select {
	case p.events <- e:
	default:
	}
}

func (p *Panel) drainEvents() {
	for {
		select {
		case e := <-p.events:
			p.mu.Lock()
			p.log.append(fmt.Sprintf("%s  %s", e.Time.Format("15:04:05"), e.Text))
			p.lastEvent = e.Time
			p.mu.Unlock()
		case <-p.quit:
			return
		}
	}
}

func (p *Panel) refreshLoop() {
	ticker := time.NewTicker(p.refresh)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			p.draw()
		case <-p.quit:
			return
		}
	}
}

// pollInput watches for a quit keystroke (q or Ctrl-C) or a resize event.
func (p *Panel) pollInput() {
	for {
		p.mu.Lock()
		screen := p.screen
		p.mu.Unlock()
		if screen == nil {
			return
		}
		ev := screen.PollEvent()
		if ev == nil {
			return
		}
		switch ev := ev.(type) {
		case *tcell.EventKey:
			if ev.Key() == tcell.KeyCtrlC || ev.Rune() == 'q' {
				p.Stop()
				return
			}
		case *tcell.EventResize:
			p.draw()
		}
	}
}

func (p *Panel) draw() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.screen == nil {
		return
	}
	p.screen.Clear()

	width, height := p.screen.Size()
	headerStyle := tcell.StyleDefault.Bold(true)
	header := p.status
	if !p.lastEvent.IsZero() {
		header = fmt.Sprintf("%s (last activity %s)", header, humanize.Time(p.lastEvent))
	}
	drawLine(p.screen, 0, 0, width, header, headerStyle)

	lines := p.log.ordered()
	row := 2
	for _, line := range lines {
		if row >= height {
			break
		}
		drawLine(p.screen, 0, row, width, line, tcell.StyleDefault)
		row++
	}
	p.screen.Show()
}

func drawLine(screen tcell.Screen, x, y, width int, text string, style tcell.Style) {
	col := x
	for _, r := range text {
		if col >= width {
			break
		}
		screen.SetContent(col, y, r, nil, style)
		col++
	}
}
