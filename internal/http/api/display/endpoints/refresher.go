package endpoints

import (
	"context"

	"github.com/Nixie-Tech-LLC/masjidboard/internal/display"
	"github.com/Nixie-Tech-LLC/masjidboard/internal/redis"
)

// Refresher drops a display's cached ETag and restarts its running cycle.
type Refresher struct {
	Kiosk *display.Kiosk
}

func (r Refresher) Invalidate(ctx context.Context, code string) {
	redis.InvalidateDisplay(ctx, code)
	if r.Kiosk == nil {
		return
	}
	// the rebuild outlives the admin request that triggered it
	go r.Kiosk.Invalidate(context.WithoutCancel(ctx), code)
}
