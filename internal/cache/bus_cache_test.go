package cache

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/smarttransit/bus-booking-backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisBusCache(t *testing.T) {
	ctx := context.Background()
	ttl := time.Minute
	keys := []string{"cache:bus:bus-1", "cache:bus:bus-1:gen"}

	t.Run("miss returns nil and the current generation", func(t *testing.T) {
		client, mock := redismock.NewClientMock()
		c := NewRedisBusCache(client, ttl)

		mock.ExpectMGet(keys...).SetVal([]interface{}{nil, "4"})

		bus, gen, err := c.GetBus(ctx, "bus-1")
		require.NoError(t, err)
		assert.Nil(t, bus)
		assert.Equal(t, int64(4), gen)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("first miss starts at generation zero", func(t *testing.T) {
		client, mock := redismock.NewClientMock()
		c := NewRedisBusCache(client, ttl)

		mock.ExpectMGet(keys...).SetVal([]interface{}{nil, nil})

		bus, gen, err := c.GetBus(ctx, "bus-1")
		require.NoError(t, err)
		assert.Nil(t, bus)
		assert.Zero(t, gen)
	})

	t.Run("set is guarded by the generation", func(t *testing.T) {
		client, mock := redismock.NewClientMock()
		c := NewRedisBusCache(client, ttl)

		bus := &models.Bus{ID: "bus-1", BusNumber: "KA-01", TotalSeats: 40, SeatsAvailable: 37}
		payload, err := json.Marshal(bus)
		require.NoError(t, err)

		mock.ExpectEvalSha(setIfCurrent.Hash(), keys, "2", string(payload), ttl.Milliseconds()).SetVal(int64(1))
		mock.ExpectMGet(keys...).SetVal([]interface{}{string(payload), "2"})

		require.NoError(t, c.SetBus(ctx, bus, 2))
		got, gen, err := c.GetBus(ctx, "bus-1")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, 37, got.SeatsAvailable)
		assert.Equal(t, "KA-01", got.BusNumber)
		assert.Equal(t, int64(2), gen)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("write after an invalidation is discarded", func(t *testing.T) {
		client, mock := redismock.NewClientMock()
		c := NewRedisBusCache(client, ttl)

		stale := &models.Bus{ID: "bus-1", TotalSeats: 40, SeatsAvailable: 40}
		payload, err := json.Marshal(stale)
		require.NoError(t, err)

		mock.ExpectTxPipeline()
		mock.ExpectIncr(keys[1]).SetVal(1)
		mock.ExpectDel(keys[0]).SetVal(0)
		mock.ExpectTxPipelineExec()
		mock.ExpectEvalSha(setIfCurrent.Hash(), keys, "0", string(payload), ttl.Milliseconds()).SetVal(int64(0))
		mock.ExpectMGet(keys...).SetVal([]interface{}{nil, "1"})

		require.NoError(t, c.InvalidateBus(ctx, "bus-1"))
		require.NoError(t, c.SetBus(ctx, stale, 0))

		got, gen, err := c.GetBus(ctx, "bus-1")
		require.NoError(t, err)
		assert.Nil(t, got)
		assert.Equal(t, int64(1), gen)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("ping", func(t *testing.T) {
		client, mock := redismock.NewClientMock()
		c := NewRedisBusCache(client, ttl)

		mock.ExpectPing().SetVal("PONG")
		assert.NoError(t, c.Ping(ctx))

		mock.ExpectPing().SetErr(errors.New("connection refused"))
		assert.Error(t, c.Ping(ctx))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("redis errors are returned", func(t *testing.T) {
		client, mock := redismock.NewClientMock()
		c := NewRedisBusCache(client, ttl)

		mock.ExpectMGet(keys...).SetErr(errors.New("connection refused"))

		_, _, err := c.GetBus(ctx, "bus-1")
		assert.Error(t, err)
	})
}
