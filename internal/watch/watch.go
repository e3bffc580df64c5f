// Package watch tracks where the user is inside the host web application
// and decides when the summary needs to be mounted, refreshed, or torn
// down. The navigation signal is a state file holding the host URL the
// browser currently shows; the host is a single-page app, so URL changes
// arrive without any reliable event, and the watcher pairs filesystem
// notifications with a polling fallback.
package watch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// loanIDPattern matches the 6-digit loan identifier in a host URL.
var loanIDPattern = regexp.MustCompile(`/(\d{6})(?:[/?#]|$)`)

// ExtractLoanID pulls the loan identifier out of a host URL. The second
// return is false for URLs outside the loan-detail space.
func ExtractLoanID(rawURL string) (string, bool) {
	m := loanIDPattern.FindStringSubmatch(strings.TrimSpace(rawURL))
	if m == nil {
		return "", false
	}
	return m[1], true
}

// Gate is the re-entrancy guard for navigation handling: bursts of events
// within the window collapse into one handling pass, and a pass already in
// flight swallows new attempts.
type Gate struct {
	window time.Duration

	mu   sync.Mutex
	busy bool
	last time.Time
}

// NewGate returns a gate with the given collapse window.
func NewGate(window time.Duration) *Gate {
	return &Gate{window: window}
}

// Enter attempts to start a handling pass. It returns false when a pass is
// in flight or one finished within the window.
func (g *Gate) Enter() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	now := time.Now()
	if g.busy || now.Sub(g.last) < g.window {
		return false
	}
	g.busy = true
	g.last = now
	return true
}

// Leave ends the current pass.
func (g *Gate) Leave() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.busy = false
	g.last = time.Now()
}

// State is the controller's position in the mount lifecycle.
type State int

const (
	Idle State = iota
	Mounting
	Mounted
	Refreshing
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Mounting:
		return "mounting"
	case Mounted:
		return "mounted"
	case Refreshing:
		return "refreshing"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Controller reacts to navigation by mounting, refreshing and unmounting
// the summary view. Mount runs a full aggregation cycle for the loan;
// Unmount clears whatever Mount rendered. Both run synchronously on the
// caller's goroutine.
type Controller struct {
	Mount   func(ctx context.Context, loanID string)
	Unmount func()

	gate    *Gate
	mu      sync.Mutex
	state   State
	current string
	pending string
	armed   bool
}

// NewController returns a controller with a ~1s navigation collapse window.
func NewController(mount func(ctx context.Context, loanID string), unmount func()) *Controller {
	return &Controller{
		Mount:   mount,
		Unmount: unmount,
		gate:    NewGate(time.Second),
	}
}

// State returns the current lifecycle state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Current returns the loan ID the controller considers mounted. Renderers
// use it to discard stale aggregation results that finish after the user
// has navigated away.
func (c *Controller) Current() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// HandleURL processes one navigation event. Events arriving while the gate
// is closed are not lost: the latest one is parked and replayed once the
// window reopens, so a rapid A-then-B navigation settles on B.
func (c *Controller) HandleURL(ctx context.Context, rawURL string) {
	loanID, onLoan := ExtractLoanID(rawURL)

	if !onLoan {
		c.mu.Lock()
		wasMounted := c.state != Idle
		c.state = Idle
		c.current = ""
		c.pending = ""
		c.mu.Unlock()
		if wasMounted && c.Unmount != nil {
			c.Unmount()
		}
		return
	}

	c.mu.Lock()
	sameLoan := loanID == c.current && c.state != Idle
	if sameLoan {
		// the newest event supersedes anything parked
		c.pending = ""
	}
	c.mu.Unlock()
	if sameLoan {
		return
	}

	if !c.gate.Enter() {
		c.park(ctx, rawURL)
		return
	}
	defer c.gate.Leave()

	c.mu.Lock()
	c.pending = ""
	remount := c.state != Idle
	c.state = Mounting
	c.current = loanID
	c.mu.Unlock()

	if remount && c.Unmount != nil {
		c.Unmount()
	}
	if c.Mount != nil {
		c.Mount(ctx, loanID)
	}

	c.mu.Lock()
	c.state = Mounted
	c.mu.Unlock()
}

// park remembers a gated navigation and arms a one-shot replay for when the
// gate window has passed. Only the most recent gated URL survives.
func (c *Controller) park(ctx context.Context, rawURL string) {
	c.mu.Lock()
	c.pending = rawURL
	armed := c.armed
	c.armed = true
	window := c.gate.window
	c.mu.Unlock()
	if armed {
		return
	}

	time.AfterFunc(window+10*time.Millisecond, func() {
		c.mu.Lock()
		url := c.pending
		c.pending = ""
		c.armed = false
		c.mu.Unlock()
		if url != "" {
			c.HandleURL(ctx, url)
		}
	})
}

// Refresh re-runs the aggregation cycle for the mounted loan.
func (c *Controller) Refresh(ctx context.Context) {
	c.mu.Lock()
	if c.state != Mounted {
		c.mu.Unlock()
		return
	}
	c.state = Refreshing
	loanID := c.current
	c.mu.Unlock()

	if c.Mount != nil {
		c.Mount(ctx, loanID)
	}

	c.mu.Lock()
	c.state = Mounted
	c.mu.Unlock()
}

// Follow emits the contents of the state file whenever they change, pairing
// fsnotify events with an interval poll: atomic writes (rename-over) do not
// always produce a watchable event on the file itself. The channel closes
// when ctx is done.
func Follow(ctx context.Context, path string, interval time.Duration) (<-chan string, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	// Watch the directory; the file itself may be replaced wholesale.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(path), err)
	}

	if interval <= 0 {
		interval = time.Second
	}

	out := make(chan string, 1)
	go func() {
		defer close(out)
		defer watcher.Close()

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		var last string
		emit := func() {
			data, err := os.ReadFile(path)
			if err != nil {
				return
			}
			content := strings.TrimSpace(string(data))
			if content == "" || content == last {
				return
			}
			last = content
			select {
			case out <- content:
			case <-ctx.Done():
			}
		}

		emit()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Base(ev.Name) == filepath.Base(path) {
					emit()
				}
			case <-watcher.Errors:
				// Poll fallback still covers us.
			case <-ticker.C:
				emit()
			}
		}
	}()
	return out, nil
}

// WaitFor polls probe at the given interval until it reports true, the
// timeout lapses, or ctx is done. It replaces ad hoc nested timers for
// "has it appeared yet" checks.
func WaitFor(ctx context.Context, interval, timeout time.Duration, probe func() (bool, error)) error {
	if interval <= 0 {
		interval = time.Second
	}
	deadline := time.Now().Add(timeout)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		ok, err := probe()
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("timed out after %s", timeout)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
