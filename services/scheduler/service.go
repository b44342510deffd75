package scheduler

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/sourcegraph/conc/pool"

	"marquee/services/dashboard"
	"marquee/services/schedule"
)

const (
	defaultCheckInterval = time.Minute
	defaultMaxAge        = 6 * time.Hour
	defaultTimeout       = time.Minute
	maxParallel          = 2
)

// AppSource lists the users whose state is currently loaded.
type AppSource interface {
	Apps() []*dashboard.App
}

// Options tunes the background refresher. Zero values pick defaults.
type Options struct {
	// MaxAge is how old a loaded schedule may get before it is rebuilt.
	MaxAge         time.Duration
	CheckInterval  time.Duration
	RefreshTimeout time.Duration
	Now            func() time.Time
}

// SweepResult summarizes one pass over the loaded schedules.
type SweepResult struct {
	At        time.Time `json:"at"`
	Checked   int       `json:"checked"`
	Refreshed int       `json:"refreshed"`
	Failed    int       `json:"failed"`
}

// Service rebuilds loaded schedules that have gone stale, so a dashboard left
// open across days picks up new seasons and air dates. Schedules that were
// never built stay lazy.
type Service struct {
	apps AppSource
	opts Options

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	lastMu sync.Mutex
	last   SweepResult

	// per-user guard so a slow refresh is never started twice
	activeMu sync.Mutex
	active   map[string]bool
}

func NewService(apps AppSource, opts Options) *Service {
	if opts.MaxAge <= 0 {
		opts.MaxAge = defaultMaxAge
	}
	if opts.CheckInterval <= 0 {
		opts.CheckInterval = defaultCheckInterval
	}
	if opts.RefreshTimeout <= 0 {
		opts.RefreshTimeout = defaultTimeout
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Service{apps: apps, opts: opts, active: make(map[string]bool)}
}

// Start begins the background loop.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return nil
	}
	ctx, s.cancel = context.WithCancel(ctx)
	s.running = true

	s.wg.Add(1)
	go s.loop(ctx)

	log.Printf("[scheduler] started (max age %s, check every %s)", s.opts.MaxAge, s.opts.CheckInterval)
	return nil
}

// Stop cancels in-flight refreshes and waits for the loop to exit, or for
// ctx to expire.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return nil
	}
	s.cancel()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		log.Println("[scheduler] stopped")
	case <-ctx.Done():
		log.Println("[scheduler] stopped (timeout)")
	}
	s.running = false
	return nil
}

func (s *Service) loop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.opts.CheckInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

// Sweep refreshes every due schedule and blocks until they finish.
func (s *Service) Sweep(ctx context.Context) SweepResult {
	now := s.opts.Now()
	apps := s.apps.Apps()
	result := SweepResult{At: now, Checked: len(apps)}

	var mu sync.Mutex
	p := pool.New().WithMaxGoroutines(maxParallel)
	for _, app := range apps {
		if !s.due(app.Schedule().Status(), now) || !s.claim(app.UserID()) {
			continue
		}
		p.Go(func() {
			defer s.release(app.UserID())
			rctx, cancel := context.WithTimeout(ctx, s.opts.RefreshTimeout)
			defer cancel()
			err := app.RefreshSchedule(rctx)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				log.Printf("[scheduler] refresh for %s failed: %v", app.UserID(), err)
				result.Failed++
				return
			}
			result.Refreshed++
		})
	}
	p.Wait()

	if result.Refreshed > 0 || result.Failed > 0 {
		log.Printf("[scheduler] sweep: %d loaded, %d refreshed, %d failed", result.Checked, result.Refreshed, result.Failed)
	}
	s.lastMu.Lock()
	s.last = result
	s.lastMu.Unlock()
	return result
}

// LastSweep returns the result of the most recent sweep.
func (s *Service) LastSweep() SweepResult {
	s.lastMu.Lock()
	defer s.lastMu.Unlock()
	return s.last
}

func (s *Service) due(st schedule.Status, now time.Time) bool {
	if st.LastRefreshAt.IsZero() || st.State == schedule.StateRefreshing {
		return false
	}
	return now.Sub(st.LastRefreshAt) >= s.opts.MaxAge
}

func (s *Service) claim(userID string) bool {
	s.activeMu.Lock()
	defer s.activeMu.Unlock()
	if s.active[userID] {
		return false
	}
	s.active[userID] = true
	return true
}

func (s *Service) release(userID string) {
	s.activeMu.Lock()
	delete(s.active, userID)
	s.activeMu.Unlock()
}
