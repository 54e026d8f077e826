package output

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
)

const (
	// StallTime is how long the byte count may stand still before the meter reports a stall.
	StallTime = 5 * time.Second

	meterInterval = time.Second
	unitPrefixes  = " KMGTP"
)

// Counter is the read side of a transfer's shared state.
type Counter interface {
	Delivered() int64
	Size() int64
	Chunked() bool
}

// Meter redraws a single status line for one transfer once per second. The drawing goroutine
// only reads the counter; all bookkeeping it keeps is its own.
type Meter struct {
	name    string
	counter Counter
	out     io.Writer
	width   func() int
	now     func() time.Time

	start      time.Time
	lastUpdate time.Time
	lastSize   int64

	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

func NewMeter(name string, counter Counter, out io.Writer, width func() int) *Meter {
	return &Meter{
		name:    name,
		counter: counter,
		out:     out,
		width:   width,
		now:     time.Now,
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
}

// Start draws the first line and begins the periodic redraw.
func (m *Meter) Start() {
	m.start = m.now()
	m.lastUpdate = m.start
	m.lastSize = 0
	m.draw()
	go func() {
		defer close(m.done)
		ticker := time.NewTicker(meterInterval)
		defer ticker.Stop()
		for {
			select {
			case <-m.stop:
				return
			case <-ticker.C:
				m.draw()
			}
		}
	}()
}

// Stop ends the periodic redraw and draws the final line. It is safe to call more than once.
func (m *Meter) Stop() {
	m.stopOnce.Do(func() {
		close(m.stop)
		<-m.done
		m.draw()
	})
}

func (m *Meter) draw() {
	fmt.Fprint(m.out, "\r"+m.line(m.now()))
}

// line renders the status for the instant now and folds stalled time into the start mark, so
// a long pause does not drag the rate down once bytes flow again.
func (m *Meter) line(now time.Time) string {
	delivered := m.counter.Delivered()
	size := m.counter.Size()

	wait := now.Sub(m.lastUpdate)
	if delivered > m.lastSize {
		m.lastUpdate = now
		m.lastSize = delivered
		if wait >= StallTime {
			m.start = m.start.Add(wait)
		}
		wait = 0
	}
	return RenderLine(Frame{
		Name:      m.name,
		Delivered: delivered,
		Size:      size,
		Chunked:   m.counter.Chunked(),
		Width:     m.width(),
		Elapsed:   now.Sub(m.start),
		Idle:      wait,
	})
}

// Frame is everything one meter line depends on.
type Frame struct {
	Name      string
	Delivered int64
	Size      int64
	Chunked   bool
	Width     int
	Elapsed   time.Duration
	Idle      time.Duration
}

// RenderLine formats a meter line: name, percentage, bar, abbreviated byte count, ETA.
func RenderLine(f Frame) string {
	var b strings.Builder

	ratio := 100
	if f.Size > 0 && !f.Chunked {
		ratio = int(100 * float64(f.Delivered) / float64(f.Size))
		ratio = min(max(ratio, 0), 100)
	}
	fmt.Fprintf(&b, "%-20.20s %3d%% ", f.Name, ratio)

	if barLength := f.Width - 51; barLength > 0 {
		stars := barLength * ratio / 100
		b.WriteString("|" + strings.Repeat("*", stars) + strings.Repeat(" ", barLength-stars) + "|")
	}

	abbrev, unit := f.Delivered, 0
	for abbrev >= 100000 && unit < len(unitPrefixes)-1 {
		unit++
		abbrev >>= 10
	}
	suffix := byte(' ')
	if unitPrefixes[unit] != ' ' {
		suffix = 'B'
	}
	fmt.Fprintf(&b, " %5d %c%c ", abbrev, unitPrefixes[unit], suffix)

	switch {
	case f.Delivered <= 0 || f.Elapsed <= 0 || f.Size < 0 || f.Chunked || f.Delivered > f.Size:
		b.WriteString("   --:-- ETA")
	case f.Idle >= StallTime:
		b.WriteString(" - stalled -")
	default:
		elapsed := f.Elapsed.Seconds()
		remaining := int(float64(f.Size)/(float64(f.Delivered)/elapsed) - elapsed)
		remaining = max(remaining, 0)
		if hours := remaining / 3600; hours > 0 {
			fmt.Fprintf(&b, "%2d:", hours)
		} else {
			b.WriteString("   ")
		}
		rest := remaining % 3600
		fmt.Fprintf(&b, "%02d:%02d ETA", rest/60, rest%60)
	}
	return b.String()
}
