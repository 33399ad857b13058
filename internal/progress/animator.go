// Package progress runs the cosmetic progress indication shown while a
// compression request is in flight. The value it reports is not derived from
// the request and never affects its outcome.
package progress

import (
	"math/rand"
	"sync"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
)

const (
	DefaultInterval = 120 * time.Millisecond
	// DefaultMaxStep is the largest increment of a single tick.
	DefaultMaxStep = 0.08
	// Ceiling is the highest value shown while the request is outstanding.
	Ceiling = 0.89
)

// Token identifies one run of the animator. The zero Token is never live.
type Token uint64

// Frame is a single displayed value.
type Frame struct {
	Token   Token
	Seq     uint64
	Percent float64
	// Finished is set on the frame that jumps to 100%.
	Finished bool
	// Stopped is set on the last frame of a run, finished or cancelled.
	Stopped bool
}

// Listener receives frames in issuance order. It is called with the
// animator's lock held and must not block or call back into the animator.
type Listener func(Frame)

type Option func(*Animator)

func WithInterval(d time.Duration) Option {
	return func(a *Animator) {
		if d > 0 {
			a.interval = d
		}
	}
}

func WithMaxStep(step float64) Option {
	return func(a *Animator) {
		if step > 0 {
			a.maxStep = step
		}
	}
}

func WithRand(r *rand.Rand) Option {
	return func(a *Animator) {
		if r != nil {
			a.rnd = r
		}
	}
}

func WithListener(l Listener) Option {
	return func(a *Animator) {
		a.listener = l
	}
}

func WithLogger(logger log.Logger) Option {
	return func(a *Animator) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// Animator advances a displayed percentage by random increments on a fixed
// interval. At most one run is live at a time.
type Animator struct {
	mu       sync.Mutex
	interval time.Duration
	maxStep  float64
	rnd      *rand.Rand
	listener Listener
	logger   log.Logger

	percent float64
	live    Token
	last    Token
	seq     uint64
	stop    chan struct{}
}

func NewAnimator(opts ...Option) *Animator {
	a := &Animator{
		interval: DefaultInterval,
		maxStep:  DefaultMaxStep,
		rnd:      rand.New(rand.NewSource(time.Now().UnixNano())),
		logger:   log.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Start resets the display to 0% and begins ticking. A run that is still
// live is cancelled first.
func (a *Animator) Start() Token {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.live != 0 {
		level.Warn(a.logger).Log("msg", "progress started while previous run is live", "token", a.live)
		a.emitLocked(false, true)
		a.stopLocked()
	}

	a.last++
	a.live = a.last
	a.percent = 0
	a.stop = make(chan struct{})
	a.emitLocked(false, false)

	go a.run(a.live, a.stop)

	return a.live
}

// Finish jumps the display to 100% and stops ticking. It reports false if
// token is not the live run.
func (a *Animator) Finish(token Token) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	if token == 0 || token != a.live {
		return false
	}
	a.percent = 1
	a.emitLocked(true, true)
	a.stopLocked()
	return true
}

// Cancel stops ticking and leaves the display where it is.
func (a *Animator) Cancel(token Token) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	if token == 0 || token != a.live {
		return false
	}
	a.emitLocked(false, true)
	a.stopLocked()
	return true
}

// Percent returns the displayed value in [0, 1].
func (a *Animator) Percent() float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.percent
}

// Live reports whether a run is in progress.
func (a *Animator) Live() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.live != 0
}

func (a *Animator) run(token Token, stop <-chan struct{}) {
	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if !a.tick(token) {
				return
			}
		}
	}
}

func (a *Animator) tick(token Token) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	// stop may race with the ticker; the token check under the lock decides
	if a.live != token {
		return false
	}

	a.percent += a.rnd.Float64() * a.maxStep
	if a.percent > Ceiling {
		a.percent = Ceiling
	}
	a.emitLocked(false, false)
	return true
}

func (a *Animator) stopLocked() {
	if a.stop != nil {
		close(a.stop)
		a.stop = nil
	}
	a.live = 0
}

func (a *Animator) emitLocked(finished, stopped bool) {
	a.seq++
	if a.listener == nil {
		return
	}
	a.listener(Frame{
		Token:    a.live,
		Seq:      a.seq,
		Percent:  a.percent,
		Finished: finished,
		Stopped:  stopped,
	})
}
