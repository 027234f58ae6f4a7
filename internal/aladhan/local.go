package aladhan

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/masjidboard/internal/prayer"
)

// DaySource is the single-day half of Client.
type DaySource interface {
	FetchDay(ctx context.Context, date time.Time, q Query) (prayer.Baseline, error)
}

// FetchLocalDay returns the baseline for the day it is at the query's
// location at instant now, together with now in that location's zone.
// A nil loc means the caller has no zone of its own: the provider's zone
// from the response is used instead, and the day is refetched when the
// provider's local date differs from the UTC date first asked for. When
// neither zone is usable the clock stays on UTC.
func FetchLocalDay(ctx context.Context, src DaySource, now time.Time, loc *time.Location, q Query) (prayer.Baseline, time.Time, error) {
	if loc != nil {
		local := now.In(loc)
		b, err := src.FetchDay(ctx, local, q)
		return b, local, err
	}

	guess := now.UTC()
	b, err := src.FetchDay(ctx, guess, q)
	if err != nil {
		return prayer.Baseline{}, guess, err
	}
	zone, ok := b.Location()
	if !ok {
		if b.Timezone != "" {
			log.Debug().Str("timezone", b.Timezone).Msg("[aladhan] unknown provider timezone, using UTC")
		}
		return b, guess, nil
	}

	local := now.In(zone)
	if sameDay(local, guess) {
		return b, local, nil
	}
	b, err = src.FetchDay(ctx, local, q)
	return b, local, err
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
