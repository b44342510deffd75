package schedule

import (
	"fmt"
	"sort"
	"time"

	"marquee/models"
	"marquee/utils"
)

// Group orders episodes by air date then manual time and merges episodes of
// the same show on the same date into one item. manual maps show id to its
// manual air time; order breaks remaining ties by favorite position.
func Group(episodes []models.ScheduledEpisode, manual map[int64]*string, order map[int64]int) []models.ScheduleItem {
	sorted := make([]models.ScheduledEpisode, len(episodes))
	copy(sorted, episodes)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.AirDate != b.AirDate {
			return a.AirDate < b.AirDate
		}
		ma, mb := ParseManualTime(manual[a.ShowID]), ParseManualTime(manual[b.ShowID])
		if ma != mb {
			return ma < mb
		}
		return rank(order, a.ShowID) < rank(order, b.ShowID)
	})

	items := make([]models.ScheduleItem, 0, len(sorted))
	index := make(map[string]int)
	for _, ep := range sorted {
		key := fmt.Sprintf("%d|%s", ep.ShowID, ep.AirDate)
		ref := models.EpisodeRef{SeasonNumber: ep.SeasonNumber, EpisodeNumber: ep.EpisodeNumber, EpisodeName: ep.EpisodeName}
		if i, ok := index[key]; ok {
			items[i].Episodes = append(items[i].Episodes, ref)
			continue
		}
		index[key] = len(items)
		items = append(items, models.ScheduleItem{
			ShowID:         ep.ShowID,
			ShowName:       ep.ShowName,
			PosterPath:     ep.PosterPath,
			PosterURL:      utils.ImageURLPtr(ep.PosterPath, utils.ImageSizeCard),
			AirDate:        ep.AirDate,
			ManualTime:     manual[ep.ShowID],
			SortMinute:     ParseManualTime(manual[ep.ShowID]),
			DisplayNetwork: ep.DisplayNetwork,
			Episodes:       []models.EpisodeRef{ref},
		})
	}
	for i := range items {
		items[i].Label = label(items[i].Episodes)
	}
	return items
}

func rank(order map[int64]int, id int64) int {
	if r, ok := order[id]; ok {
		return r
	}
	return len(order)
}

func label(eps []models.EpisodeRef) string {
	if len(eps) > 1 {
		return fmt.Sprintf("%d episodes", len(eps))
	}
	ep := eps[0]
	code := fmt.Sprintf("S%d E%d", ep.SeasonNumber, ep.EpisodeNumber)
	if ep.EpisodeName == "" {
		return code
	}
	return code + " - " + ep.EpisodeName
}

func (e *Engine) items() []models.ScheduleItem {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return Group(e.episodes, e.manual, e.order)
}

// Agenda returns every grouped item, flagging those before today as past.
func (e *Engine) Agenda(now time.Time) []models.ScheduleItem {
	today := now.Format(dateLayout)
	items := e.items()
	for i := range items {
		items[i].Past = items[i].AirDate < today
	}
	return items
}

// Upcoming returns the dashboard digest for filter. Past items are never included.
func (e *Engine) Upcoming(filter models.ScheduleFilter, now time.Time) []models.ScheduleItem {
	from, to := Window(filter, now)
	out := []models.ScheduleItem{}
	for _, it := range e.items() {
		if it.AirDate >= from && it.AirDate <= to {
			out = append(out, it)
		}
	}
	return out
}

// Window returns the inclusive date range of a digest filter. Unknown
// filters behave like today.
func Window(filter models.ScheduleFilter, now time.Time) (string, string) {
	start := midnight(now)
	end := start
	switch filter {
	case models.FilterWeek:
		end = start.AddDate(0, 0, 6)
	case models.FilterMonth:
		end = start.AddDate(0, 1, 0)
	}
	return start.Format(dateLayout), end.Format(dateLayout)
}

// Calendar lists, for every day of the month, the distinct shows airing that day.
func (e *Engine) Calendar(year int, month time.Month) models.CalendarMonth {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	days := first.AddDate(0, 1, -1).Day()

	e.mu.RLock()
	byDate := make(map[string][]string)
	seen := make(map[string]map[string]struct{})
	for _, ep := range e.episodes {
		if seen[ep.AirDate] == nil {
			seen[ep.AirDate] = make(map[string]struct{})
		}
		if _, dup := seen[ep.AirDate][ep.ShowName]; dup {
			continue
		}
		seen[ep.AirDate][ep.ShowName] = struct{}{}
		byDate[ep.AirDate] = append(byDate[ep.AirDate], ep.ShowName)
	}
	e.mu.RUnlock()

	cal := models.CalendarMonth{Year: first.Year(), Month: int(first.Month()), Days: make([]models.CalendarDay, 0, days)}
	for d := 1; d <= days; d++ {
		date := time.Date(year, month, d, 0, 0, 0, 0, time.UTC).Format(dateLayout)
		shows := byDate[date]
		if shows == nil {
			shows = []string{}
		}
		sort.Strings(shows)
		cal.Days = append(cal.Days, models.CalendarDay{Date: date, Day: d, Shows: shows})
	}
	return cal
}

// Spotlight collects favorited movies releasing and favorited shows airing
// their next episodes within the spotlight window around today.
func (e *Engine) Spotlight(movies []models.FavoriteEntry, now time.Time) models.Spotlight {
	today := midnight(now)
	from := today.AddDate(0, 0, -e.spotlightDays).Format(dateLayout)
	to := today.AddDate(0, 0, e.spotlightDays).Format(dateLayout)
	todayStr := today.Format(dateLayout)

	var candidates []models.SpotlightItem
	for _, m := range movies {
		if !m.IsMovie() || m.Date == nil || !validDate(*m.Date) {
			continue
		}
		candidates = append(candidates, models.SpotlightItem{
			Kind:       models.MediaKindMovie,
			ID:         m.ID,
			Title:      m.Name,
			PosterPath: m.PosterPath,
			PosterURL:  utils.ImageURLPtr(m.PosterPath, utils.ImageSizeCard),
			Date:       *m.Date,
		})
	}

	// Next group per show: first on or after today, else the latest past one.
	next := make(map[int64]models.ScheduleItem)
	var showOrder []int64
	for _, it := range e.items() {
		cur, ok := next[it.ShowID]
		if !ok {
			showOrder = append(showOrder, it.ShowID)
			next[it.ShowID] = it
			continue
		}
		if cur.AirDate < todayStr {
			next[it.ShowID] = it
		}
	}
	for _, id := range showOrder {
		it := next[id]
		candidates = append(candidates, models.SpotlightItem{
			Kind:       models.MediaKindTV,
			ID:         it.ShowID,
			Title:      it.ShowName,
			PosterPath: it.PosterPath,
			PosterURL:  it.PosterURL,
			Date:       it.AirDate,
			Label:      it.Label,
		})
	}

	items := []models.SpotlightItem{}
	for _, c := range candidates {
		if c.Date >= from && c.Date <= to {
			items = append(items, c)
		}
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].Date < items[j].Date })

	return models.Spotlight{Items: items, FocusIndex: focusIndex(items, todayStr)}
}

func focusIndex(items []models.SpotlightItem, today string) int {
	if len(items) == 0 {
		return -1
	}
	for i, it := range items {
		if it.Date >= today {
			return i
		}
	}
	return len(items) - 1
}

func midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
