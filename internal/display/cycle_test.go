package display

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nixie-Tech-LLC/masjidboard/internal/model"
)

func sampleSlides(n int) []Slide {
	slides := []Slide{{Kind: SlidePrayerTiming}}
	for i := 1; i < n; i++ {
		slides = append(slides, Slide{Kind: SlideContent, Module: ModulePosts})
	}
	return slides
}

type recorder struct {
	mu      sync.Mutex
	indices []int
}

func (r *recorder) onChange(idx int, _ Slide) {
	r.mu.Lock()
	r.indices = append(r.indices, idx)
	r.mu.Unlock()
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.indices)
}

func (r *recorder) last() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.indices) == 0 {
		return -1
	}
	return r.indices[len(r.indices)-1]
}

// numberedSlides carries the slide's own index in its item ID.
func numberedSlides(n int) []Slide {
	slides := make([]Slide, n)
	for i := range slides {
		slides[i] = Slide{Kind: SlideContent, Module: ModulePosts, Item: &model.Content{ID: i}}
	}
	return slides
}

func TestCycle_Circular(t *testing.T) {
	for _, n := range []int{1, 2, 5} {
		c := NewCycle(sampleSlides(n), time.Second)
		start, _, _ := c.Current()
		var idx int
		for i := 0; i < n; i++ {
			idx, _ = c.Next()
		}
		assert.Equal(t, start, idx, "n=%d", n)
	}
}

func TestCycle_PrevWraps(t *testing.T) {
	c := NewCycle(numberedSlides(4), time.Second)
	idx, s := c.Prev()
	assert.Equal(t, 3, idx)
	assert.Equal(t, 3, s.Item.ID)
	idx, _ = c.Next()
	assert.Equal(t, 0, idx)
}

func TestCycle_Empty(t *testing.T) {
	c := NewCycle(nil, time.Second)
	_, _, ok := c.Current()
	assert.False(t, ok)
	idx, s := c.Next()
	assert.Zero(t, idx)
	assert.Equal(t, Slide{}, s)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		c.Run(ctx, nil)
		close(done)
	}()
	c.Pause()
	cancel()
	<-done
}

func TestCycle_RunAdvancesAndWraps(t *testing.T) {
	c := NewCycle(sampleSlides(3), 10*time.Millisecond)
	rec := &recorder{}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go c.Run(ctx, rec.onChange)

	assert.Eventually(t, func() bool { return rec.count() >= 4 }, time.Second, 5*time.Millisecond)

	rec.mu.Lock()
	first := append([]int(nil), rec.indices[:4]...)
	rec.mu.Unlock()
	assert.Equal(t, []int{1, 2, 0, 1}, first)
}

func TestCycle_SlideDurationOverride(t *testing.T) {
	slides := sampleSlides(2)
	slides[0].Seconds = 3600
	c := NewCycle(slides, 5*time.Millisecond)
	rec := &recorder{}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go c.Run(ctx, rec.onChange)

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 0, rec.count(), "first slide holds for its own duration")
}

func TestCycle_ManualMoveResetsTimerAndNotifies(t *testing.T) {
	c := NewCycle(sampleSlides(3), time.Hour)
	rec := &recorder{}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go c.Run(ctx, rec.onChange)

	c.Next()
	assert.Eventually(t, func() bool { return rec.last() == 1 }, time.Second, 5*time.Millisecond)
	c.Prev()
	c.Prev()
	assert.Eventually(t, func() bool { return rec.last() == 2 }, time.Second, 5*time.Millisecond)
}

func TestCycle_PauseSuspendsAutoAdvance(t *testing.T) {
	c := NewCycle(sampleSlides(3), 10*time.Millisecond)
	rec := &recorder{}
	c.Pause()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go c.Run(ctx, rec.onChange)

	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, 0, rec.count())
	assert.True(t, c.Paused())

	c.Resume()
	assert.Eventually(t, func() bool { return rec.count() > 0 }, time.Second, 5*time.Millisecond)
}

func TestCycle_CancelStopsTransitions(t *testing.T) {
	c := NewCycle(sampleSlides(3), 5*time.Millisecond)
	rec := &recorder{}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		c.Run(ctx, rec.onChange)
		close(done)
	}()

	assert.Eventually(t, func() bool { return rec.count() > 0 }, time.Second, time.Millisecond)
	cancel()
	<-done

	require.True(t, c.Stopped())
	seen := rec.count()
	idx, _, _ := c.Current()
	moved, _ := c.Next()
	time.Sleep(20 * time.Millisecond)

	assert.Equal(t, seen, rec.count())
	assert.Equal(t, idx, moved)
}

func TestCycle_ReportedIndexMatchesSlide(t *testing.T) {
	c := NewCycle(numberedSlides(4), time.Millisecond)
	var (
		mu         sync.Mutex
		seen       int
		mismatched []int
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go c.Run(ctx, func(idx int, s Slide) {
		mu.Lock()
		defer mu.Unlock()
		seen++
		if s.Item == nil || s.Item.ID != idx {
			mismatched = append(mismatched, idx)
		}
	})

	for i := 0; i < 500; i++ {
		idx, s := c.Next()
		require.Equal(t, idx, s.Item.ID)
	}
	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return seen >= 50
	}, time.Second, time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Empty(t, mismatched, "timed and manual moves interleaved")
}
