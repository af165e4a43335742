package rest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestPacerSpacesAcquires(t *testing.T) {
	// 3000 requests/minute = one slot every 20ms.
	const interval = 20 * time.Millisecond
	pacer := NewPacer(3000)
	ctx := context.Background()

	const acquires = 4
	var stamps []time.Time
	for i := 0; i < acquires; i++ {
		require.NoError(t, pacer.Acquire(ctx))
		stamps = append(stamps, time.Now())
	}

	// Total elapsed covers (acquires-1) full intervals.
	elapsed := stamps[len(stamps)-1].Sub(stamps[0])
	require.GreaterOrEqual(t, elapsed, (acquires-1)*interval)

	// And no two consecutive acquires return closer than one interval.
	// Allow a small tolerance for timer granularity.
	const tolerance = 2 * time.Millisecond
	for i := 1; i < len(stamps); i++ {
		require.GreaterOrEqual(t, stamps[i].Sub(stamps[i-1]), interval-tolerance)
	}
}

func TestPacerFirstAcquireIsImmediate(t *testing.T) {
	pacer := NewPacer(1) // one request per minute

	start := time.Now()
	require.NoError(t, pacer.Acquire(context.Background()))
	require.Less(t, time.Since(start), time.Second)
}

func TestPacerHonorsCancellation(t *testing.T) {
	pacer := NewPacer(1)
	ctx := context.Background()
	require.NoError(t, pacer.Acquire(ctx))

	// The next slot is a minute away; a short deadline must abort the wait.
	ctx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := pacer.Acquire(ctx)
	require.Error(t, err)
	require.Less(t, time.Since(start), 5*time.Second)
}

func TestPacerDefaultsOnInvalidRate(t *testing.T) {
	pacer := NewPacer(0)
	require.NoError(t, pacer.Acquire(context.Background()))
}
