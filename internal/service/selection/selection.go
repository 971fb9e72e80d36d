// Package selection shapes popup text selections before they are relayed
// to mpv.
package selection

import (
	"regexp"
	"strings"
	"sync"
	"time"
)

var newline = regexp.MustCompile(`\r?\n`)

// Format trims the selected text and turns line breaks into <br>.
func Format(text string) string {
	return newline.ReplaceAllString(strings.TrimSpace(text), "<br>")
}

// Debouncer delivers only the last value pushed within a quiet period.
type Debouncer struct {
	mu    sync.Mutex
	delay time.Duration
	timer *time.Timer
	gen   uint64
	fn    func(string)
}

// NewDebouncer creates a Debouncer calling fn after delay without pushes.
func NewDebouncer(delay time.Duration, fn func(string)) *Debouncer {
	return &Debouncer{delay: delay, fn: fn}
}

// Push schedules text for delivery, replacing any pending value.
func (d *Debouncer) Push(text string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}
	d.gen++
	gen := d.gen
	d.timer = time.AfterFunc(d.delay, func() {
		d.mu.Lock()
		current := gen == d.gen
		d.mu.Unlock()
		if current {
			d.fn(text)
		}
	})
}

// Stop drops any pending value.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}
	d.gen++
}
