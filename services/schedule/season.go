package schedule

import (
	"strings"

	"marquee/models"
)

// SelectSeason picks the one season tracked for a show: the season with the
// earliest air date after today, else the highest regular season. Specials
// are only used when they are all the show has.
func SelectSeason(seasons []models.SeasonSummary, today string) (models.SeasonSummary, bool) {
	if len(seasons) == 0 {
		return models.SeasonSummary{}, false
	}

	var (
		next    models.SeasonSummary
		hasNext bool
	)
	for _, s := range seasons {
		air := strings.TrimSpace(s.AirDate)
		if !validDate(air) || air <= today {
			continue
		}
		if !hasNext || air < next.AirDate {
			next = s
			next.AirDate = air
			hasNext = true
		}
	}
	if hasNext {
		return next, true
	}

	latest := seasons[0]
	for _, s := range seasons[1:] {
		if s.SeasonNumber > latest.SeasonNumber {
			latest = s
		}
	}
	return latest, true
}

// DisplayNetwork prefers a flatrate provider in region the user subscribes
// to, then the show's first network.
func DisplayNetwork(details models.ShowDetails, region string, subs models.SubscriptionSet) *models.NetworkRef {
	if offers, ok := details.WatchProviders.Results[region]; ok {
		for _, p := range offers.Flatrate {
			if subs.Contains(p.ProviderID) {
				return &models.NetworkRef{Name: p.ProviderName, LogoPath: models.StringPtrOrNil(p.LogoPath)}
			}
		}
	}
	if len(details.Networks) > 0 {
		n := details.Networks[0]
		return &models.NetworkRef{Name: n.Name, LogoPath: models.StringPtrOrNil(n.LogoPath)}
	}
	return nil
}
