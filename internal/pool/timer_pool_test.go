package pool

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSleep_Elapses(t *testing.T) {
	start := time.Now()
	require.NoError(t, Sleep(context.Background(), 20*time.Millisecond))
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
}

func TestSleep_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	err := Sleep(ctx, time.Second)
	require.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(start), 500*time.Millisecond)
}

func TestSleep_ZeroDuration(t *testing.T) {
	require.NoError(t, Sleep(context.Background(), 0))
}

func TestTimerReuse(t *testing.T) {
	t1 := GetTimer(time.Millisecond)
	<-t1.C
	PutTimer(t1)

	t2 := GetTimer(10 * time.Millisecond)
	defer PutTimer(t2)

	select {
	case <-t2.C:
	case <-time.After(time.Second):
		t.Fatal("reused timer did not fire")
	}
}
