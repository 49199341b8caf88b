package output

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
)

// ProgressBar renders scan progress on a single terminal line. The total
// may grow while a crawl discovers new units.
type ProgressBar struct {
	total        int
	current      int
	width        int
	refresh      time.Duration
	startTime    time.Time
	mu           sync.Mutex
	done         chan struct{}
	writer       io.Writer
	isActive     bool
	renderPaused bool
	spinner      int
	spinnerChars []string
	prefix       string
	suffix       string
	isTerminal   bool
}

func NewProgressBar(w io.Writer, width int, terminal bool) *ProgressBar {
	return &ProgressBar{
		width:        width,
		refresh:      150 * time.Millisecond,
		startTime:    time.Now(),
		done:         make(chan struct{}),
		writer:       w,
		spinnerChars: []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"},
		isTerminal:   terminal,
	}
}

// Start begins auto-refresh. Outside a terminal nothing is drawn.
func (pb *ProgressBar) Start() {
	pb.mu.Lock()
	if pb.isActive {
		pb.mu.Unlock()
		return
	}
	pb.startTime = time.Now()
	pb.isActive = true
	pb.mu.Unlock()

	if !pb.isTerminal {
		return
	}

	go func() {
		ticker := time.NewTicker(pb.refresh)
		defer ticker.Stop()
		for {
			select {
			case <-pb.done:
				return
			case <-ticker.C:
				pb.render()
			}
		}
	}()
}

func (pb *ProgressBar) Stop() {
	pb.mu.Lock()
	defer pb.mu.Unlock()

	if !pb.isActive {
		return
	}
	pb.isActive = false
	if pb.isTerminal {
		fmt.Fprint(pb.writer, "\033[2K\r")
	}
	close(pb.done)
}

func (pb *ProgressBar) Update(current, total int) {
	pb.mu.Lock()
	pb.current = current
	pb.total = total
	pb.mu.Unlock()
}

func (pb *ProgressBar) SetPrefix(prefix string) {
	pb.mu.Lock()
	pb.prefix = prefix
	pb.mu.Unlock()
}

func (pb *ProgressBar) SetSuffix(suffix string) {
	pb.mu.Lock()
	pb.suffix = suffix
	pb.mu.Unlock()
}

// PauseRender clears the bar so a log line can be printed in its place.
func (pb *ProgressBar) PauseRender() {
	pb.mu.Lock()
	defer pb.mu.Unlock()

	pb.renderPaused = true
	if pb.isActive && pb.isTerminal {
		fmt.Fprint(pb.writer, "\033[2K\r")
	}
}

func (pb *ProgressBar) ResumeRender() {
	pb.mu.Lock()
	pb.renderPaused = false
	pb.mu.Unlock()
	pb.render()
}

func (pb *ProgressBar) render() {
	pb.mu.Lock()
	defer pb.mu.Unlock()

	if !pb.isActive || !pb.isTerminal || pb.renderPaused {
		return
	}
	pb.spinner = (pb.spinner + 1) % len(pb.spinnerChars)
	fmt.Fprint(pb.writer, "\033[2K\r"+pb.statusLocked(time.Since(pb.startTime)))
}

func (pb *ProgressBar) statusLocked(elapsed time.Duration) string {
	percent := 0.0
	completed := 0
	if pb.total > 0 {
		percent = float64(pb.current) / float64(pb.total) * 100
		completed = pb.width * pb.current / pb.total
	}
	if completed > pb.width {
		completed = pb.width
	}

	etaStr := "N/A"
	if pb.current > 0 && pb.current < pb.total {
		eta := time.Duration(float64(elapsed) * float64(pb.total-pb.current) / float64(pb.current))
		etaStr = formatDuration(eta)
	}

	bar := strings.Repeat("█", completed) + strings.Repeat("░", pb.width-completed)
	return fmt.Sprintf("%s%s [%s] %d/%d (%0.2f%%) | %s ETA: %s %s",
		pb.prefix,
		pb.spinnerChars[pb.spinner],
		bar,
		pb.current, pb.total,
		percent,
		formatDuration(elapsed),
		etaStr,
		pb.suffix,
	)
}

// formatDuration formats a duration to a human-readable string
func formatDuration(d time.Duration) string {
	if d.Minutes() < 1 {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	if d.Hours() < 1 {
		return fmt.Sprintf("%dm%02ds", int(d.Minutes()), int(d.Seconds())%60)
	}
	return fmt.Sprintf("%dh%02dm%02ds", int(d.Hours()), int(d.Minutes())%60, int(d.Seconds())%60)
}
