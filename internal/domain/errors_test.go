package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	err := Errorf(KindRateLimited, "server rate limit exceeded")
	assert.Equal(t, KindRateLimited, KindOf(err))

	wrapped := fmt.Errorf("fetch page at offset 100: %w", err)
	assert.Equal(t, KindRateLimited, KindOf(wrapped))

	assert.Equal(t, KindUnknown, KindOf(errors.New("plain")))
	assert.Equal(t, KindUnknown, KindOf(nil))
}

func TestKindOf_OutermostWins(t *testing.T) {
	inner := Errorf(KindTransient, "connection reset")
	outer := Errorf(KindDiscovery, "resolve schema: %w", inner)

	assert.Equal(t, KindDiscovery, KindOf(outer))
	assert.True(t, errors.Is(outer, inner))
}

func TestSyncError_Error(t *testing.T) {
	err := Errorf(KindConfig, "missing required configuration field %q", "source.table_id")
	assert.Equal(t, `config: missing required configuration field "source.table_id"`, err.Error())
}
