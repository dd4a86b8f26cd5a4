package playback

import (
	"context"
	"sync"
	"time"

	"github.com/vanderheijden86/aidglobe/pkg/debug"
)

// DefaultInterval is the wall-clock time per year.
const DefaultInterval = 600 * time.Millisecond

// Player drives a State from a wall-clock ticker. At most one ticker runs at
// a time; Start while running replaces it.
type Player struct {
	mu       sync.Mutex
	state    State
	interval time.Duration
	onTick   func(State)

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// PlayerOption configures a Player.
type PlayerOption func(*Player)

// WithInterval sets the time per year.
func WithInterval(d time.Duration) PlayerOption {
	return func(p *Player) {
		if d > 0 {
			p.interval = d
		}
	}
}

// WithOnTick sets the callback invoked after each advance, outside the lock.
func WithOnTick(fn func(State)) PlayerOption {
	return func(p *Player) { p.onTick = fn }
}

// NewPlayer wraps initial.
func NewPlayer(initial State, opts ...PlayerOption) *Player {
	p := &Player{state: initial.Stop(), interval: DefaultInterval}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// State returns a snapshot.
func (p *Player) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Start begins playback under ctx, replacing any running ticker.
func (p *Player) Start(ctx context.Context) {
	p.mu.Lock()
	if p.cancel != nil {
		p.cancel()
	}
	p.state = p.state.Start()
	gen := p.state.Generation
	runCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.wg.Add(1)
	p.mu.Unlock()

	debug.Log("playback: start gen=%d year=%d", gen, p.State().Year)
	go p.run(runCtx, gen)
}

// Stop halts playback. Safe to call at any time, any number of times.
func (p *Player) Stop() {
	p.mu.Lock()
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
	p.state = p.state.Stop()
	p.mu.Unlock()
}

// ScrubTo moves the current year without changing play state.
func (p *Player) ScrubTo(year int) State {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.state = p.state.ScrubTo(year)
	return p.state
}

// Wait blocks until every ticker goroutine has exited.
func (p *Player) Wait() {
	p.wg.Wait()
}

func (p *Player) run(ctx context.Context, gen uint64) {
	defer p.wg.Done()
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.mu.Lock()
			next, ok := p.state.Tick(gen)
			if !ok {
				p.mu.Unlock()
				return
			}
			p.state = next
			cb := p.onTick
			p.mu.Unlock()

			if cb != nil {
				cb(next)
			}
			if !next.Playing {
				debug.Log("playback: halted at %d", next.Year)
				return
			}
		}
	}
}
