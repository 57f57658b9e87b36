package dispatch

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/warroomhq/warroom/internal/domain"
)

func newTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	return redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

func TestRedisReporterPublishesProgress(t *testing.T) {
	client := newTestRedis(t)
	rep := NewRedisReporter(client, "run-1")

	rep.Report(2, 5, domain.NewRecipient("jane@x.com", ""))

	p, err := GetProgress(context.Background(), client, "run-1")
	require.NoError(t, err)
	require.Equal(t, 2, p.Completed)
	require.Equal(t, 5, p.Total)
	require.Equal(t, "jane@x.com", p.CurrentAddress)
	require.InDelta(t, 40.0, p.Percent, 0.01)
}

func TestRedisReporterOverwrites(t *testing.T) {
	client := newTestRedis(t)
	rep := NewRedisReporter(client, "run-2")

	rep.Report(1, 3, domain.NewRecipient("a@x.com", ""))
	rep.Report(3, 3, domain.NewRecipient("c@x.com", ""))

	p, err := GetProgress(context.Background(), client, "run-2")
	require.NoError(t, err)
	require.Equal(t, 3, p.Completed)
	require.Equal(t, "c@x.com", p.CurrentAddress)
}

func TestGetProgressMissingRun(t *testing.T) {
	client := newTestRedis(t)
	_, err := GetProgress(context.Background(), client, "nope")
	require.Error(t, err)
}

func TestDispatchWithRedisReporter(t *testing.T) {
	client := newTestRedis(t)
	tr := &fakeTransport{}

	rep := NewRedisReporter(client, "run-3")
	d := New(tr, Options{OnProgress: rep.Report})

	_, err := d.Dispatch(context.Background(), recipients("a@x.com", "b@x.com"), testTemplate)
	require.NoError(t, err)

	p, err := GetProgress(context.Background(), client, "run-3")
	require.NoError(t, err)
	require.Equal(t, 2, p.Completed)
	require.Equal(t, 2, p.Total)
}
