package worker

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"
)

// fixedClock returns a Progress whose clock reads start+elapsed.
func fixedClock(p *Progress, elapsed time.Duration) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	p.started = start
	p.now = func() time.Time { return start.Add(elapsed) }
}

func result(input string, elapsed time.Duration, err error) Result {
	return Result{Job: Job{Input: input}, Elapsed: elapsed, Err: err}
}

func TestProgress_Observe(t *testing.T) {
	p := NewProgress(4, "images", false)

	p.Observe(result("dir/a.png", 100*time.Millisecond, nil), 1, 4)
	p.Observe(result("dir/b.png", 300*time.Millisecond, nil), 2, 4)
	p.Observe(result("dir/c.png", 900*time.Millisecond, errors.New("decode")), 3, 4)

	if p.done != 3 {
		t.Errorf("Expected done=3, got %d", p.done)
	}
	if p.failed != 1 {
		t.Errorf("Expected failed=1, got %d", p.failed)
	}
	if p.busy != 1300*time.Millisecond {
		t.Errorf("Expected busy=1.3s, got %v", p.busy)
	}
	if p.slowest.Job.Input != "dir/b.png" {
		t.Errorf("Expected slowest successful job dir/b.png, got %q", p.slowest.Job.Input)
	}
	if p.last != "c.png" {
		t.Errorf("Expected last=c.png, got %q", p.last)
	}
}

func TestProgress_StatusLine(t *testing.T) {
	var buf bytes.Buffer

	p := NewProgress(10, "images", true)
	p.output = &buf
	fixedClock(p, 10*time.Second)

	for i := 1; i <= 5; i++ {
		var err error
		if i == 2 {
			err = errors.New("boom")
		}
		p.Observe(result("in.png", time.Second, err), i, 10)
	}

	output := buf.String()
	lines := strings.Split(output, "\r")
	latest := lines[len(lines)-1]

	for _, want := range []string{" 50% 5/10 images", ", 1 failed", ", ~10s left", ", last in.png"} {
		if !strings.Contains(latest, want) {
			t.Errorf("Expected %q in status line, got: %q", want, latest)
		}
	}
}

func TestProgress_Done(t *testing.T) {
	var buf bytes.Buffer

	p := NewProgress(3, "images", true)
	p.output = &buf
	fixedClock(p, 3*time.Second)

	p.Observe(result("a.png", time.Second, nil), 3, 3)
	buf.Reset()

	p.Done()

	output := buf.String()
	if !strings.Contains(output, "100% 3/3 images") {
		t.Errorf("Expected '100%% 3/3 images' in output, got: %q", output)
	}
	if strings.Contains(output, "left") {
		t.Errorf("Expected no remaining-time estimate once finished, got: %q", output)
	}
	if !strings.HasSuffix(output, "\n") {
		t.Error("Expected output to end with newline")
	}
}

func TestProgress_Summary(t *testing.T) {
	p := NewProgress(4, "", false)
	fixedClock(p, 2*time.Second)

	p.Observe(result("x/a.png", 200*time.Millisecond, nil), 1, 4)
	p.Observe(result("x/b.png", 600*time.Millisecond, nil), 2, 4)
	p.Observe(result("x/c.png", 0, errors.New("missing")), 3, 4)
	p.Observe(result("x/d.png", 400*time.Millisecond, nil), 4, 4)

	summary := p.Summary()
	want := "Warped 3/4 jobs (1 failed) in 2s, 300ms per job, slowest b.png (600ms)"
	if summary != want {
		t.Errorf("Summary() = %q, want %q", summary, want)
	}
}

func TestProgress_SummaryWithoutJobs(t *testing.T) {
	p := NewProgress(0, "images", false)
	fixedClock(p, 0)

	if got, want := p.Summary(), "Warped 0/0 images in 0s"; got != want {
		t.Errorf("Summary() = %q, want %q", got, want)
	}
}

func TestProgress_Disabled(t *testing.T) {
	var buf bytes.Buffer

	p := NewProgress(10, "images", false)
	p.output = &buf

	p.Observe(result("a.png", time.Millisecond, nil), 1, 10)
	p.Done()

	if buf.Len() != 0 {
		t.Errorf("Expected no output when disabled, got: %s", buf.String())
	}
}

func TestProgress_Callback(t *testing.T) {
	p := NewProgress(10, "images", false)

	callback := p.Callback()
	callback(result("a.png", time.Millisecond, errors.New("x")), 5, 10)

	if p.done != 5 {
		t.Errorf("Expected done=5, got %d", p.done)
	}
	if p.failed != 1 {
		t.Errorf("Expected failed=1, got %d", p.failed)
	}
}

func TestRoundDuration(t *testing.T) {
	tests := []struct {
		expected string
		duration time.Duration
	}{
		{duration: 0, expected: "0s"},
		{duration: 840400 * time.Microsecond, expected: "840ms"},
		{duration: 3240 * time.Millisecond, expected: "3.2s"},
		{duration: 30 * time.Second, expected: "30s"},
		{duration: 4*time.Minute + 5*time.Second, expected: "4m05s"},
		{duration: 65 * time.Minute, expected: "1h05m"},
		{duration: 2*time.Hour + 30*time.Minute, expected: "2h30m"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			got := roundDuration(tt.duration)
			if got != tt.expected {
				t.Errorf("roundDuration(%v) = %s, want %s", tt.duration, got, tt.expected)
			}
		})
	}
}
