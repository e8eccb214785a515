package dispatch

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartSchedulerRejectsBadSpec(t *testing.T) {
	_, err := StartScheduler(context.Background(), Job{Name: "broken", Spec: "every tuesday", Run: func(context.Context) error { return nil }})
	assert.Error(t, err)

	c, err := StartScheduler(context.Background(), Job{Name: "ok", Spec: "@every 1h", Run: func(context.Context) error { return nil }})
	require.NoError(t, err)
	assert.Len(t, c.Entries(), 1)
	c.Stop()
}
