package worker

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Progress reports finished jobs on a single status line and keeps the
// per-job timings for the final summary.
type Progress struct {
	output  io.Writer
	now     func() time.Time
	started time.Time
	unit    string
	last    string
	slowest Result
	busy    time.Duration
	total   int
	done    int
	failed  int
	mu      sync.Mutex
	enabled bool
}

// NewProgress creates a tracker for total jobs counted in unit
// (e.g. "images"; "jobs" when empty). Nothing is printed unless enabled.
func NewProgress(total int, unit string, enabled bool) *Progress {
	if unit == "" {
		unit = "jobs"
	}
	return &Progress{
		output:  os.Stderr,
		now:     time.Now,
		started: time.Now(),
		unit:    unit,
		total:   total,
		enabled: enabled,
	}
}

// Observe records one finished job.
func (p *Progress) Observe(r Result, completed, total int) {
	p.mu.Lock()
	p.done = completed
	p.total = total
	p.busy += r.Elapsed
	p.last = filepath.Base(r.Job.Input)
	if r.Err != nil {
		p.failed++
	} else if r.Elapsed > p.slowest.Elapsed {
		p.slowest = r
	}
	line := p.statusLocked()
	p.mu.Unlock()

	if p.enabled {
		fmt.Fprintf(p.output, "\r%-78s", line)
	}
}

// Callback returns a ProgressFunc suitable for Config.OnProgress.
func (p *Progress) Callback() ProgressFunc {
	return p.Observe
}

// Done ends the status line.
func (p *Progress) Done() {
	if !p.enabled {
		return
	}
	p.mu.Lock()
	line := p.statusLocked()
	p.mu.Unlock()
	fmt.Fprintf(p.output, "\r%-78s\n", line)
}

// Summary describes the finished run: successes, failures, wall time and
// the per-job timings.
func (p *Progress) Summary() string {
	p.mu.Lock()
	defer p.mu.Unlock()

	wall := p.now().Sub(p.started)
	s := fmt.Sprintf("Warped %d/%d %s", p.done-p.failed, p.total, p.unit)
	if p.failed > 0 {
		s += fmt.Sprintf(" (%d failed)", p.failed)
	}
	s += " in " + roundDuration(wall)
	if p.done > 0 {
		s += fmt.Sprintf(", %s per job", roundDuration(p.busy/time.Duration(p.done)))
	}
	if p.slowest.Elapsed > 0 {
		s += fmt.Sprintf(", slowest %s (%s)", filepath.Base(p.slowest.Job.Input), roundDuration(p.slowest.Elapsed))
	}
	return s
}

// statusLocked formats the live line. Callers hold p.mu.
func (p *Progress) statusLocked() string {
	percent := 100
	if p.total > 0 {
		percent = p.done * 100 / p.total
	}

	line := fmt.Sprintf("%3d%% %d/%d %s", percent, p.done, p.total, p.unit)
	if p.failed > 0 {
		line += fmt.Sprintf(", %d failed", p.failed)
	}
	if p.done > 0 && p.done < p.total {
		// Wall time per finished job already reflects the worker count.
		perJob := p.now().Sub(p.started) / time.Duration(p.done)
		line += ", ~" + roundDuration(perJob*time.Duration(p.total-p.done)) + " left"
	}
	if p.last != "" {
		line += ", last " + p.last
	}
	return line
}

// roundDuration keeps two significant units: 840ms, 3.2s, 4m05s, 1h12m.
func roundDuration(d time.Duration) string {
	switch {
	case d < time.Second:
		return d.Round(time.Millisecond).String()
	case d < time.Minute:
		return d.Round(100 * time.Millisecond).String()
	case d < time.Hour:
		d = d.Round(time.Second)
		return fmt.Sprintf("%dm%02ds", int(d.Minutes()), int(d.Seconds())%60)
	default:
		d = d.Round(time.Minute)
		return fmt.Sprintf("%dh%02dm", int(d.Hours()), int(d.Minutes())%60)
	}
}
