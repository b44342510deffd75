// Package favorites owns a user's in-memory favorites, subscriptions and
// profile settings. Every mutation is handed to a Persister without waiting.
package favorites

import (
	"errors"
	"sort"
	"strings"
	"sync"

	"github.com/mozillazg/go-unidecode"

	"marquee/models"
)

var ErrFavoriteNotFound = errors.New("favorite not found")

// Persister receives the full profile after every mutation. Save is called
// with the registry locked and must return without waiting on I/O.
type Persister interface {
	Save(p models.UserProfile)
}

// Registry is the mutex-guarded working copy of a user's profile.
type Registry struct {
	mu      sync.RWMutex
	profile models.UserProfile
	persist Persister
}

// NewRegistry creates a registry holding the default profile. persist may be nil.
func NewRegistry(persist Persister) *Registry {
	return &Registry{
		profile: models.DefaultUserProfile(),
		persist: persist,
	}
}

// Replace installs a profile read from the store. Nothing is written back.
func (r *Registry) Replace(p models.UserProfile) {
	r.mu.Lock()
	r.profile = p.Normalize().Clone()
	r.mu.Unlock()
}

// Overwrite replaces the whole profile and persists it.
func (r *Registry) Overwrite(p models.UserProfile) {
	p = p.Normalize().Clone()
	_ = r.mutate(func(cur *models.UserProfile) error {
		*cur = p
		return nil
	})
}

// mutate applies fn and hands the result to the persister, both under the
// lock, so saves reach the persister in mutation order. Save must not block.
func (r *Registry) mutate(fn func(p *models.UserProfile) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := fn(&r.profile); err != nil {
		return err
	}
	if r.persist != nil {
		r.persist.Save(r.profile.Clone())
	}
	return nil
}

// ToggleFavorite removes the item when it is already a favorite and adds it
// otherwise. It reports whether the item was added.
func (r *Registry) ToggleFavorite(item models.CatalogItem) bool {
	entry := models.FavoriteFromCatalog(item)
	var added bool
	_ = r.mutate(func(p *models.UserProfile) error {
		for i, f := range p.Favorites {
			if f.ID == entry.ID {
				p.Favorites = append(p.Favorites[:i:i], p.Favorites[i+1:]...)
				return nil
			}
		}
		p.Favorites = append(p.Favorites, entry)
		added = true
		return nil
	})
	return added
}

// ToggleSubscription flips membership of a streaming provider.
func (r *Registry) ToggleSubscription(serviceID int) {
	_ = r.mutate(func(p *models.UserProfile) error {
		p.Subscriptions = p.Subscriptions.Toggle(serviceID)
		return nil
	})
}

// SetManualTime stores the free-form air time for a favorite. An empty text
// clears it.
func (r *Registry) SetManualTime(entryID int64, text string) error {
	return r.mutate(func(p *models.UserProfile) error {
		for i := range p.Favorites {
			if p.Favorites[i].ID != entryID {
				continue
			}
			favs := make([]models.FavoriteEntry, len(p.Favorites))
			copy(favs, p.Favorites)
			favs[i].ManualTime = models.StringPtrOrNil(strings.TrimSpace(text))
			p.Favorites = favs
			return nil
		}
		return ErrFavoriteNotFound
	})
}

// RemoveKind drops every favorite of kind and returns how many were removed.
func (r *Registry) RemoveKind(kind models.MediaKind) int {
	return r.removeWhere(func(f models.FavoriteEntry) bool { return f.Kind == kind })
}

// RemoveIDs drops the favorites whose ids are listed.
func (r *Registry) RemoveIDs(ids []int64) int {
	drop := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		drop[id] = struct{}{}
	}
	return r.removeWhere(func(f models.FavoriteEntry) bool {
		_, ok := drop[f.ID]
		return ok
	})
}

func (r *Registry) removeWhere(match func(models.FavoriteEntry) bool) int {
	removed := 0
	_ = r.mutate(func(p *models.UserProfile) error {
		kept := make([]models.FavoriteEntry, 0, len(p.Favorites))
		for _, f := range p.Favorites {
			if match(f) {
				removed++
				continue
			}
			kept = append(kept, f)
		}
		p.Favorites = kept
		return nil
	})
	return removed
}

func (r *Registry) SetUserName(name string) {
	_ = r.mutate(func(p *models.UserProfile) error {
		p.UserName = models.StringPtrOrNil(strings.TrimSpace(name))
		return nil
	})
}

func (r *Registry) SetTheme(theme string) error {
	t, err := models.ParseTheme(theme)
	if err != nil {
		return err
	}
	return r.mutate(func(p *models.UserProfile) error {
		p.Theme = t
		return nil
	})
}

func (r *Registry) SetScheduleFilter(filter string) error {
	f, err := models.ParseScheduleFilter(filter)
	if err != nil {
		return err
	}
	return r.mutate(func(p *models.UserProfile) error {
		p.DashboardScheduleFilter = f
		return nil
	})
}

// Profile returns a copy of the whole document.
func (r *Registry) Profile() models.UserProfile {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.profile.Clone()
}

// Favorites returns the favorites in insertion order.
func (r *Registry) Favorites() []models.FavoriteEntry {
	return r.filter(func(models.FavoriteEntry) bool { return true })
}

func (r *Registry) Shows() []models.FavoriteEntry {
	return r.filter(models.FavoriteEntry.IsShow)
}

func (r *Registry) Movies() []models.FavoriteEntry {
	return r.filter(models.FavoriteEntry.IsMovie)
}

func (r *Registry) Subscriptions() models.SubscriptionSet {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append(models.SubscriptionSet{}, r.profile.Subscriptions...)
}

func (r *Registry) IsSubscribed(serviceID int) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.profile.Subscriptions.Contains(serviceID)
}

// IsFavorite reports whether id is a favorite of either kind.
func (r *Registry) IsFavorite(id int64) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, f := range r.profile.Favorites {
		if f.ID == id {
			return true
		}
	}
	return false
}

// Sorted returns the favorites of kind ordered by title, ignoring accents and case.
func (r *Registry) Sorted(kind models.MediaKind) []models.FavoriteEntry {
	out := r.filter(func(f models.FavoriteEntry) bool { return f.Kind == kind })
	sort.SliceStable(out, func(i, j int) bool {
		return sortKey(out[i].Name) < sortKey(out[j].Name)
	})
	return out
}

func sortKey(title string) string {
	key := strings.ToLower(unidecode.Unidecode(strings.TrimSpace(title)))
	for _, article := range []string{"the ", "a ", "an "} {
		if rest, ok := strings.CutPrefix(key, article); ok && rest != "" {
			return rest
		}
	}
	return key
}

func (r *Registry) filter(keep func(models.FavoriteEntry) bool) []models.FavoriteEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]models.FavoriteEntry, 0, len(r.profile.Favorites))
	for _, f := range r.profile.Favorites {
		if keep(f) {
			out = append(out, f)
		}
	}
	return out
}
