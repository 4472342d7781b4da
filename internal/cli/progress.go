package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
	"golang.org/x/term"
)

// ProgressTracker draws one line per table on a terminal and implements
// loader.Progress.
type ProgressTracker struct {
	mu       sync.Mutex
	w        io.Writer
	enabled  bool
	bars     []*barState
	rendered int
	stopCh   chan struct{}
	doneCh   chan struct{}
	started  bool
	stopped  bool
}

type barState struct {
	table     string
	label     string
	current   int64
	total     int64
	startTime time.Time
	done      bool
	doneMsg   string
}

// NewProgressTracker creates a new progress tracker writing to w.
func NewProgressTracker(enabled bool, w io.Writer) *ProgressTracker {
	return &ProgressTracker{
		w:       w,
		enabled: enabled,
		bars:    make([]*barState, 0),
		stopCh:  make(chan struct{}),
		doneCh:  make(chan struct{}),
	}
}

// startRenderLoop starts the render loop if not already started.
// Callers hold pt.mu.
func (pt *ProgressTracker) startRenderLoop() {
	if pt.started || pt.stopped {
		return
	}
	pt.started = true
	go pt.renderLoop()
}

// renderLoop continuously redraws all progress bars.
func (pt *ProgressTracker) renderLoop() {
	defer close(pt.doneCh)

	// Hide cursor
	fmt.Fprint(pt.w, "\033[?25l")

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-pt.stopCh:
			fmt.Fprint(pt.w, "\033[?25h") // Show cursor
			return
		case <-ticker.C:
			pt.mu.Lock()
			pt.render()
			pt.mu.Unlock()
		}
	}
}

// render draws all progress bars. Callers hold pt.mu.
func (pt *ProgressTracker) render() {
	if len(pt.bars) == 0 {
		return
	}

	// Move cursor up to overwrite previous render
	if pt.rendered > 0 {
		fmt.Fprintf(pt.w, "\033[%dA", pt.rendered)
	}

	for _, bar := range pt.bars {
		fmt.Fprint(pt.w, "\r\033[K") // Clear line
		if bar.done {
			fmt.Fprint(pt.w, bar.doneMsg)
		} else {
			pt.drawBar(bar)
		}
		fmt.Fprintln(pt.w)
	}
	pt.rendered = len(pt.bars)
}

// drawBar draws a single progress bar.
func (pt *ProgressTracker) drawBar(bar *barState) {
	const width = 30

	elapsed := time.Since(bar.startTime)
	var rate float64
	if elapsed.Seconds() > 0 {
		rate = float64(bar.current) / elapsed.Seconds()
	}

	labelColor := color.New(color.FgCyan)
	barColor := color.New(color.FgYellow)

	labelColor.Fprintf(pt.w, "%s ", bar.label)

	if bar.total > 0 {
		percent := float64(bar.current) / float64(bar.total) * 100
		filled := int(float64(width) * percent / 100)
		if filled > width {
			filled = width
		}
		empty := width - filled

		fmt.Fprint(pt.w, "[")
		barColor.Fprint(pt.w, strings.Repeat("█", filled))
		fmt.Fprint(pt.w, strings.Repeat("░", empty))
		fmt.Fprint(pt.w, "] ")
		fmt.Fprintf(pt.w, "%5.1f%% %s/%s %s/s",
			percent,
			fmtNum(bar.current),
			fmtNum(bar.total),
			fmtNum(int64(rate)))
	} else {
		spinner := []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}
		idx := int(time.Now().UnixMilli()/100) % len(spinner)
		fmt.Fprintf(pt.w, "%s %s rows (%s/s)",
			spinner[idx],
			fmtNum(bar.current),
			fmtNum(int64(rate)))
	}
}

// Stop stops the render loop and prints final state. It is safe to call
// more than once.
func (pt *ProgressTracker) Stop() {
	pt.mu.Lock()
	if !pt.enabled || !pt.started || pt.stopped {
		pt.stopped = true
		pt.mu.Unlock()
		return
	}
	pt.stopped = true
	pt.render()
	pt.mu.Unlock()

	close(pt.stopCh)
	<-pt.doneCh
}

func (pt *ProgressTracker) findBar(table string) *barState {
	for _, bar := range pt.bars {
		if bar.table == table {
			return bar
		}
	}
	return nil
}

// StartTable starts tracking the load of a table.
func (pt *ProgressTracker) StartTable(tier int, table string, totalRows int64) {
	if !pt.enabled {
		return
	}

	pt.mu.Lock()
	defer pt.mu.Unlock()

	pt.startRenderLoop()

	pt.bars = append(pt.bars, &barState{
		table:     table,
		label:     fmt.Sprintf("[%d] %s", tier, table),
		total:     totalRows,
		startTime: time.Now(),
	})
}

// UpdateTable updates the rows written for a table.
func (pt *ProgressTracker) UpdateTable(table string, rowsWritten int64) {
	if !pt.enabled {
		return
	}

	pt.mu.Lock()
	defer pt.mu.Unlock()

	if bar := pt.findBar(table); bar != nil {
		bar.current = rowsWritten
	}
}

// FinishTable marks a table as loaded.
func (pt *ProgressTracker) FinishTable(table string, rows int64, duration time.Duration) {
	if !pt.enabled {
		return
	}

	pt.mu.Lock()
	defer pt.mu.Unlock()

	if bar := pt.findBar(table); bar != nil {
		bar.current = rows
		bar.done = true
		bar.doneMsg = color.GreenString("✓ Loaded %s rows into '%s' in %v",
			fmtNum(rows), table, duration.Round(time.Millisecond))
	}
}

// FailTable marks a table as failed, adding a line for it if it was never
// started.
func (pt *ProgressTracker) FailTable(table string, err error) {
	if !pt.enabled {
		return
	}

	pt.mu.Lock()
	defer pt.mu.Unlock()

	pt.startRenderLoop()

	bar := pt.findBar(table)
	if bar == nil {
		bar = &barState{table: table}
		pt.bars = append(pt.bars, bar)
	}
	bar.done = true
	bar.doneMsg = color.YellowString("✗ %s failed: %v", table, err)
}

// Helper functions

func fmtNum(n int64) string {
	if n >= 1000000 {
		return fmt.Sprintf("%.1fM", float64(n)/1000000)
	}
	if n >= 1000 {
		return fmt.Sprintf("%.1fK", float64(n)/1000)
	}
	return fmt.Sprintf("%d", n)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
