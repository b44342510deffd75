package profile

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"

	"marquee/models"
)

//go:embed migrations/*.sql
var migrations embed.FS

var (
	ErrUserIDRequired = errors.New("user id is required")
	ErrPathRequired   = errors.New("database path not provided")
)

// subscriberBuffer is how many snapshots a slow subscriber may lag behind
// before older ones are dropped in favor of the newest.
const subscriberBuffer = 8

// WriteTag identifies which session produced a write.
type WriteTag struct {
	WriterID     string
	LocalVersion int64
}

// Store keeps one JSON document per user in sqlite. Every Put replaces the whole
// document, bumps its version and pushes the new snapshot to subscribers.
type Store struct {
	db *sql.DB

	writeMu sync.Mutex

	subsMu  sync.Mutex
	subs    map[string]map[int]chan models.ProfileSnapshot
	nextSub int
	closed  bool
}

// Open opens (creating if needed) the profile database at path and applies migrations.
func Open(path string) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, ErrPathRequired
	}
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create profile db dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("open profile db: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{
		db:   db,
		subs: make(map[string]map[int]chan models.ProfileSnapshot),
	}, nil
}

func migrate(db *sql.DB) error {
	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("goose dialect: %w", err)
	}
	if err := goose.Up(db, "migrations"); err != nil {
		return fmt.Errorf("migrate profile db: %w", err)
	}
	return nil
}

// Close closes the database and ends every subscription.
func (s *Store) Close() error {
	s.subsMu.Lock()
	if !s.closed {
		s.closed = true
		for _, byID := range s.subs {
			for _, ch := range byID {
				close(ch)
			}
		}
		s.subs = nil
	}
	s.subsMu.Unlock()
	return s.db.Close()
}

// Get returns the user's current document. The bool is false when none exists.
func (s *Store) Get(ctx context.Context, userID string) (models.ProfileSnapshot, bool, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return models.ProfileSnapshot{}, false, ErrUserIDRequired
	}

	var (
		doc  string
		snap = models.ProfileSnapshot{UserID: userID}
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT document, version, writer_id, local_version FROM profiles WHERE user_id = ?`,
		userID,
	).Scan(&doc, &snap.Version, &snap.WriterID, &snap.LocalVersion)
	if errors.Is(err, sql.ErrNoRows) {
		return models.ProfileSnapshot{}, false, nil
	}
	if err != nil {
		return models.ProfileSnapshot{}, false, fmt.Errorf("read profile %s: %w", userID, err)
	}

	var p models.UserProfile
	if err := json.Unmarshal([]byte(doc), &p); err != nil {
		return models.ProfileSnapshot{}, false, fmt.Errorf("decode profile %s: %w", userID, err)
	}
	snap.Profile = p.Normalize()
	return snap, true, nil
}

// Put replaces the user's document and returns its new version.
func (s *Store) Put(ctx context.Context, userID string, p models.UserProfile, tag WriteTag) (int64, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return 0, ErrUserIDRequired
	}
	p = p.Normalize()
	doc, err := json.Marshal(p)
	if err != nil {
		return 0, fmt.Errorf("encode profile %s: %w", userID, err)
	}

	// Held through publish so subscribers see versions in order.
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	var version int64
	err = s.db.QueryRowContext(ctx, `
		INSERT INTO profiles (user_id, document, version, writer_id, local_version, updated_at)
		VALUES (?, ?, 1, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			document = excluded.document,
			version = profiles.version + 1,
			writer_id = excluded.writer_id,
			local_version = excluded.local_version,
			updated_at = excluded.updated_at
		RETURNING version`,
		userID, string(doc), tag.WriterID, tag.LocalVersion, time.Now().UTC(),
	).Scan(&version)
	if err != nil {
		return 0, fmt.Errorf("write profile %s: %w", userID, err)
	}

	s.publish(models.ProfileSnapshot{
		UserID:       userID,
		Profile:      p.Clone(),
		Version:      version,
		WriterID:     tag.WriterID,
		LocalVersion: tag.LocalVersion,
	})
	return version, nil
}

// Delete removes the user's document.
func (s *Store) Delete(ctx context.Context, userID string) error {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return ErrUserIDRequired
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if _, err := s.db.ExecContext(ctx, `DELETE FROM profiles WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("delete profile %s: %w", userID, err)
	}
	return nil
}

// Subscribe streams every snapshot written for userID from now on. The returned
// cancel func must be called to release the subscription.
func (s *Store) Subscribe(userID string) (<-chan models.ProfileSnapshot, func()) {
	ch := make(chan models.ProfileSnapshot, subscriberBuffer)

	s.subsMu.Lock()
	defer s.subsMu.Unlock()
	if s.closed {
		close(ch)
		return ch, func() {}
	}
	id := s.nextSub
	s.nextSub++
	if s.subs[userID] == nil {
		s.subs[userID] = make(map[int]chan models.ProfileSnapshot)
	}
	s.subs[userID][id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.subsMu.Lock()
			defer s.subsMu.Unlock()
			if byID, ok := s.subs[userID]; ok {
				if c, ok := byID[id]; ok {
					delete(byID, id)
					close(c)
				}
				if len(byID) == 0 {
					delete(s.subs, userID)
				}
			}
		})
	}
}

func (s *Store) publish(snap models.ProfileSnapshot) {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()
	for _, ch := range s.subs[snap.UserID] {
		select {
		case ch <- snap:
		default:
			// Full: drop the oldest so the newest snapshot is never lost.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- snap:
			default:
			}
		}
	}
}
