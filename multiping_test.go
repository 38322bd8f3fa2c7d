package multiping

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMultiPingConfiguration(t *testing.T) {
	tests := []struct {
		name    string
		timeout time.Duration
		retry   int
		err     error
	}{
		{name: "zero timeout", timeout: 0, err: ErrInvalidTimeout},
		{name: "timeout too small", timeout: 50 * time.Millisecond, err: ErrInvalidTimeout},
		{name: "retry timeout too small", timeout: 100 * time.Millisecond, retry: 10, err: ErrRetryTimeoutTooSmall},
		{name: "retry timeout too small with 2 retries", timeout: 299 * time.Millisecond, retry: 2, err: ErrRetryTimeoutTooSmall},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conn := newLoopback()
			_, _, err := MultiPing([]string{hostA}, tt.timeout, tt.retry, WithTransport(conn))
			assert.ErrorIs(t, err, tt.err)
			assert.Zero(t, conn.sentCount())
		})
	}
}

func TestMultiPingRetryExhaustion(t *testing.T) {
	conn := newLoopback()
	start := time.Now()
	rs, pending, err := MultiPing([]string{hostB}, 300*time.Millisecond, 2, WithTransport(conn))
	require.NoError(t, err)
	assert.Empty(t, rs)
	assert.Equal(t, []string{hostB}, pending)
	assert.Equal(t, 3, conn.sentCount())
	assert.InDelta(t, 300*time.Millisecond, time.Since(start), float64(100*time.Millisecond))

	// each attempt waits its share of the timeout before the next resend
	times := append(conn.sendTimes(), time.Now())
	require.Len(t, times, 4)
	for i := 1; i < len(times); i++ {
		assert.InDelta(t, 100*time.Millisecond, times[i].Sub(times[i-1]), float64(30*time.Millisecond), "attempt %d", i)
	}
}

func TestMultiPingNegativeRetry(t *testing.T) {
	conn := newLoopback()
	_, pending, err := MultiPing([]string{hostB}, 100*time.Millisecond, -3, WithTransport(conn))
	require.NoError(t, err)
	assert.Equal(t, []string{hostB}, pending)
	assert.Equal(t, 1, conn.sentCount())
}

func TestMultiPingStopsWhenAllAnswered(t *testing.T) {
	conn := newLoopback(hostA, hostC)
	rs, pending, err := MultiPing([]string{hostA, hostC}, time.Second, 4, WithTransport(conn))
	require.NoError(t, err)
	assert.Len(t, rs, 2)
	assert.Empty(t, pending)
	assert.Equal(t, 2, conn.sentCount())
}

func TestMultiPingPartial(t *testing.T) {
	conn := newLoopback(hostA, hostC)
	rs, pending, err := MultiPing([]string{hostA, hostB, hostC}, 300*time.Millisecond, 2, WithTransport(conn))
	require.NoError(t, err)
	assert.Len(t, rs, 2)
	assert.Contains(t, rs, hostA)
	assert.Contains(t, rs, hostC)
	assert.Equal(t, []string{hostB}, pending)
	assert.Equal(t, []string{hostA, hostB, hostC, hostB, hostB}, conn.sentTo())
}

func TestMultiPingLookupErrors(t *testing.T) {
	r := hosts{"a.example": hostA}
	_, _, err := MultiPing([]string{"a.example", "nope.example"}, time.Second, 0, WithTransport(newLoopback()), WithResolver(r))
	var lerr *LookupError
	assert.ErrorAs(t, err, &lerr)

	conn := newLoopback(hostA)
	rs, pending, err := MultiPing([]string{"a.example", "nope.example"}, time.Second, 2,
		WithTransport(conn), WithResolver(r), WithIgnoreLookupErrors(true))
	require.NoError(t, err)
	assert.Contains(t, rs, hostA)
	assert.Equal(t, []string{"nope.example"}, pending)
	assert.Equal(t, 1, conn.sentCount())

	conn = newLoopback()
	rs, pending, err = MultiPing([]string{"nope.example"}, time.Second, 2,
		WithTransport(conn), WithResolver(r), WithIgnoreLookupErrors(true))
	require.NoError(t, err)
	assert.Empty(t, rs)
	assert.Equal(t, []string{"nope.example"}, pending)
	assert.Zero(t, conn.sentCount())
}
