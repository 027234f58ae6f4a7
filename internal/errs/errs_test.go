package errs

import (
	"context"
	"database/sql"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.True(t, IsCancelled(ctx.Err()))
	assert.True(t, IsCancelled(fmt.Errorf("fetch timings: %w", context.Canceled)))
	assert.False(t, IsCancelled(context.DeadlineExceeded))
	assert.False(t, IsCancelled(nil))
}

func TestIsNotFound(t *testing.T) {
	assert.True(t, IsNotFound(sql.ErrNoRows))
	assert.True(t, IsNotFound(fmt.Errorf("masjid %q: %w", "abc", ErrNotFound)))
	assert.False(t, IsNotFound(ErrForbidden))
}
