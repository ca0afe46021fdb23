package progress

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

const (
	barWidth       = 40
	renderInterval = 500 * time.Millisecond
)

// Bar is a terminal progress bar for catalog syncs
type Bar struct {
	out       io.Writer
	total     int
	current   int
	mu        sync.Mutex
	startTime time.Time
	lastPrint time.Time
	done      bool
}

// New creates a progress bar printing to stdout
func New(total int) *Bar {
	return NewWithWriter(os.Stdout, total)
}

// NewWithWriter creates a progress bar printing to w
func NewWithWriter(w io.Writer, total int) *Bar {
	now := time.Now()
	return &Bar{
		out:       w,
		total:     total,
		startTime: now,
		lastPrint: now,
	}
}

// Increment advances the bar by one song
func (b *Bar) Increment() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.current < b.total {
		b.current++
	}

	now := time.Now()
	if now.Sub(b.lastPrint) > renderInterval || b.current >= b.total {
		b.render()
		b.lastPrint = now
	}
}

// Finish prints the final state and ends the line. A bar interrupted before
// reaching its total keeps its real count.
func (b *Bar) Finish() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.done {
		return
	}
	b.render()
	fmt.Fprintln(b.out)
	b.done = true
}

func (b *Bar) render() {
	if b.done || b.total <= 0 {
		return
	}

	elapsed := time.Since(b.startTime)

	var eta time.Duration
	if b.current > 0 {
		eta = elapsed / time.Duration(b.current) * time.Duration(b.total-b.current)
	}

	filled := barWidth * b.current / b.total
	bar := strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled)

	fmt.Fprintf(b.out, "\r[%s] %d/%d songs (%.1f%%) - Elapsed: %s - ETA: %s   ",
		bar,
		b.current,
		b.total,
		float64(b.current)/float64(b.total)*100,
		formatDuration(elapsed),
		formatDuration(eta),
	)
}

func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
	}
	return fmt.Sprintf("%dh%dm", int(d.Hours()), int(d.Minutes())%60)
}
