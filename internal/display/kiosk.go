package display

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/masjidboard/internal/errs"
)

// Event types sent to publishers.
const (
	EventSlide  = "slide"
	EventReload = "reload"
	EventPaused = "paused"
)

// Event is what a kiosk tells connected screens.
type Event struct {
	Type   string    `json:"type"`
	Code   string    `json:"code"`
	Index  int       `json:"index"`
	Slide  *Slide    `json:"slide,omitempty"`
	Paused bool      `json:"paused"`
	At     time.Time `json:"at"`
}

// Publisher fans kiosk events out to screens (MQTT, websockets).
type Publisher interface {
	Publish(code string, ev Event) error
}

type SessionBuilder interface {
	Build(ctx context.Context, code string, now time.Time) (BuildResult, error)
}

// Control actions.
const (
	ActionNext   = "next"
	ActionPrev   = "prev"
	ActionPause  = "pause"
	ActionResume = "resume"
)

var ErrUnknownAction = errors.New("unknown control action")

type run struct {
	session *Session
	cycle   *Cycle
	cancel  context.CancelFunc
	done    chan struct{}
}

// DefaultDayCheck is how often a running cycle compares its timetable date
// with the masjid's local date.
const DefaultDayCheck = time.Minute

// Kiosk keeps one running cycle per masjid code.
type Kiosk struct {
	mu         sync.Mutex
	builder    SessionBuilder
	publishers []Publisher
	interval   time.Duration
	dayCheck   time.Duration
	runs       map[string]*run

	now func() time.Time
}

func NewKiosk(builder SessionBuilder, interval time.Duration, publishers ...Publisher) *Kiosk {
	return &Kiosk{
		builder:    builder,
		publishers: publishers,
		interval:   interval,
		dayCheck:   DefaultDayCheck,
		runs:       make(map[string]*run),
		now:        time.Now,
	}
}

// AddPublisher registers another fan-out target. Call before Start.
func (k *Kiosk) AddPublisher(p Publisher) {
	k.mu.Lock()
	k.publishers = append(k.publishers, p)
	k.mu.Unlock()
}

// Start returns the running session for code, building and starting a cycle
// if none runs yet. A setup-needed result never starts a cycle.
func (k *Kiosk) Start(ctx context.Context, code string) (BuildResult, error) {
	k.mu.Lock()
	if r, ok := k.runs[code]; ok {
		k.mu.Unlock()
		return BuildResult{Session: r.session}, nil
	}
	k.mu.Unlock()

	res, err := k.builder.Build(ctx, code, k.now())
	if err != nil || res.Session == nil {
		return res, err
	}

	k.mu.Lock()
	defer k.mu.Unlock()
	if r, ok := k.runs[code]; ok {
		return BuildResult{Session: r.session}, nil
	}

	runCtx, cancel := context.WithCancel(context.Background())
	r := &run{
		session: res.Session,
		cycle:   NewCycle(res.Session.Slides, k.interval),
		cancel:  cancel,
		done:    make(chan struct{}),
	}
	k.runs[code] = r

	go func() {
		defer close(r.done)
		r.cycle.Run(runCtx, func(idx int, s Slide) {
			k.publish(code, Event{Type: EventSlide, Code: code, Index: idx, Slide: &s, Paused: r.cycle.Paused()})
		})
	}()
	go k.watchDay(runCtx, code, r.session)

	log.Info().Str("code", code).Int("slides", r.cycle.Len()).Msg("[kiosk] cycle started")
	return res, nil
}

// Cycle exposes the running cycle for code.
func (k *Kiosk) Cycle(code string) (*Cycle, bool) {
	k.mu.Lock()
	defer k.mu.Unlock()
	r, ok := k.runs[code]
	if !ok {
		return nil, false
	}
	return r.cycle, true
}

// Session returns the session the running cycle for code was built from.
// Its slide list is the one event indices refer to.
func (k *Kiosk) Session(code string) (*Session, bool) {
	k.mu.Lock()
	defer k.mu.Unlock()
	r, ok := k.runs[code]
	if !ok {
		return nil, false
	}
	return r.session, true
}

// Control applies a manual action to the running cycle.
func (k *Kiosk) Control(code, action string) (Event, error) {
	c, ok := k.Cycle(code)
	if !ok {
		return Event{}, fmt.Errorf("kiosk %q: %w", code, errs.ErrNotFound)
	}

	ev := Event{Type: EventSlide, Code: code, At: k.now()}
	var s Slide
	switch action {
	case ActionNext:
		ev.Index, s = c.Next()
	case ActionPrev:
		ev.Index, s = c.Prev()
	case ActionPause:
		c.Pause()
		ev.Type = EventPaused
		ev.Index, s, _ = c.Current()
	case ActionResume:
		c.Resume()
		ev.Type = EventPaused
		ev.Index, s, _ = c.Current()
	default:
		return Event{}, fmt.Errorf("%w: %q", ErrUnknownAction, action)
	}
	ev.Slide, ev.Paused = &s, c.Paused()

	if ev.Type == EventPaused {
		k.publish(code, ev)
	}
	return ev, nil
}

// watchDay rebuilds the cycle once the masjid's local date moves past the
// session's timetable, so screens left connected overnight get the new day.
func (k *Kiosk) watchDay(ctx context.Context, code string, s *Session) {
	if k.dayCheck <= 0 {
		return
	}
	ticker := time.NewTicker(k.dayCheck)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !s.Stale(k.now()) {
				continue
			}
			log.Info().Str("code", code).Str("date", s.Timetable.Date).Msg("[kiosk] local date changed, rebuilding")
			k.Invalidate(context.Background(), code)
			return
		}
	}
}

// Stop tears down the cycle for code and waits for it to exit.
func (k *Kiosk) Stop(code string) bool {
	k.mu.Lock()
	r, ok := k.runs[code]
	delete(k.runs, code)
	k.mu.Unlock()
	if !ok {
		return false
	}
	r.cancel()
	<-r.done
	log.Info().Str("code", code).Msg("[kiosk] cycle stopped")
	return true
}

// Invalidate drops the running cycle after a settings or content change,
// tells screens to reload, and rebuilds if a cycle was running.
func (k *Kiosk) Invalidate(ctx context.Context, code string) {
	if !k.Stop(code) {
		return
	}
	k.publish(code, Event{Type: EventReload, Code: code, At: k.now()})

	if _, err := k.Start(ctx, code); err != nil && !errs.IsCancelled(err) {
		log.Error().Err(err).Str("code", code).Msg("[kiosk] rebuild after invalidate failed")
	}
}

// Shutdown stops every cycle.
func (k *Kiosk) Shutdown() {
	k.mu.Lock()
	codes := make([]string, 0, len(k.runs))
	for code := range k.runs {
		codes = append(codes, code)
	}
	k.mu.Unlock()
	for _, code := range codes {
		k.Stop(code)
	}
}

func (k *Kiosk) publish(code string, ev Event) {
	if ev.At.IsZero() {
		ev.At = k.now()
	}
	k.mu.Lock()
	pubs := append([]Publisher(nil), k.publishers...)
	k.mu.Unlock()
	for _, p := range pubs {
		if err := p.Publish(code, ev); err != nil {
			log.Warn().Err(err).Str("code", code).Str("event", ev.Type).Msg("[kiosk] publish failed")
		}
	}
}
