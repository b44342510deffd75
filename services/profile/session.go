package profile

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"marquee/internal/metrics"
	"marquee/models"
)

const defaultWriteTimeout = 10 * time.Second

// Backend is the part of Store a Session writes through.
type Backend interface {
	Get(ctx context.Context, userID string) (models.ProfileSnapshot, bool, error)
	Put(ctx context.Context, userID string, p models.UserProfile, tag WriteTag) (int64, error)
}

type pendingWrite struct {
	profile models.UserProfile
	tag     WriteTag
}

// Session is the single writer for one signed-in user. Writes are tagged with
// the session id and a local version so the session can recognize its own
// echoes on the snapshot stream.
type Session struct {
	userID       string
	id           string
	store        Backend
	writeTimeout time.Duration

	mu             sync.Mutex
	localVersion   int64
	appliedVersion int64
	loaded         bool
	pending        *pendingWrite
	writing        bool

	wg sync.WaitGroup
}

// NewSession starts a writer session for userID.
func NewSession(userID string, store Backend) *Session {
	return &Session{
		userID:       userID,
		id:           uuid.NewString(),
		store:        store,
		writeTimeout: defaultWriteTimeout,
	}
}

// ID returns the writer id stamped on this session's writes.
func (s *Session) ID() string { return s.id }

// UserID returns the user the session writes for.
func (s *Session) UserID() string { return s.userID }

// Loaded reports whether the first load has completed.
func (s *Session) Loaded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loaded
}

// Load reads the user's document, writing the defaults when none exists. The
// bool is true only for the call that moved the session to loaded.
func (s *Session) Load(ctx context.Context) (models.UserProfile, bool, error) {
	snap, found, err := s.store.Get(ctx, s.userID)
	if err != nil {
		return models.UserProfile{}, false, err
	}

	p := snap.Profile
	if !found {
		p = models.DefaultUserProfile()
		tag := s.nextTag()
		version, err := s.store.Put(ctx, s.userID, p, tag)
		if err != nil {
			return models.UserProfile{}, false, err
		}
		log.Printf("[profile] created default profile for user=%s", s.userID)
		snap.Version = version
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if snap.Version > s.appliedVersion {
		s.appliedVersion = snap.Version
	}
	first := !s.loaded
	s.loaded = true
	return p.Normalize(), first, nil
}

// Accept reports whether snap must be applied. Echoes of this session's own
// writes and snapshots not newer than the last applied version are rejected.
func (s *Session) Accept(snap models.ProfileSnapshot) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if snap.WriterID == s.id && snap.LocalVersion <= s.localVersion {
		if snap.Version > s.appliedVersion {
			s.appliedVersion = snap.Version
		}
		return false
	}
	if snap.Version <= s.appliedVersion {
		return false
	}
	s.appliedVersion = snap.Version
	return true
}

// Save writes p without waiting. Failures are logged and dropped. Writes are
// applied in order and a burst of saves collapses into the latest document.
func (s *Session) Save(p models.UserProfile) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.localVersion++
	s.pending = &pendingWrite{
		profile: p.Clone(),
		tag:     WriteTag{WriterID: s.id, LocalVersion: s.localVersion},
	}
	if s.writing {
		return
	}
	s.writing = true
	s.wg.Add(1)
	go s.flush()
}

// Wait blocks until every accepted Save has been attempted.
func (s *Session) Wait() {
	s.wg.Wait()
}

func (s *Session) flush() {
	defer s.wg.Done()
	for {
		s.mu.Lock()
		w := s.pending
		s.pending = nil
		if w == nil {
			s.writing = false
			s.mu.Unlock()
			return
		}
		s.mu.Unlock()

		ctx, cancel := context.WithTimeout(context.Background(), s.writeTimeout)
		version, err := s.store.Put(ctx, s.userID, w.profile, w.tag)
		cancel()
		if err != nil {
			metrics.ProfileWriteFailures.Inc()
			log.Printf("[profile] write failed user=%s local=%d: %v", s.userID, w.tag.LocalVersion, err)
			continue
		}

		s.mu.Lock()
		if version > s.appliedVersion {
			s.appliedVersion = version
		}
		s.mu.Unlock()
	}
}

func (s *Session) nextTag() WriteTag {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.localVersion++
	return WriteTag{WriterID: s.id, LocalVersion: s.localVersion}
}
