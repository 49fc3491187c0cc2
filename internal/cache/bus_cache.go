package cache

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/smarttransit/bus-booking-backend/internal/config"
	"github.com/smarttransit/bus-booking-backend/internal/models"
)

// setIfCurrent stores KEYS[1] only while the generation in KEYS[2] still
// matches the one the reader saw before going to the database.
var setIfCurrent = redis.NewScript(`
local gen = redis.call('GET', KEYS[2])
if (gen or '0') ~= ARGV[1] then
	return 0
end
redis.call('SET', KEYS[1], ARGV[2], 'PX', ARGV[3])
return 1
`)

// RedisBusCache keeps expanded bus records for the public detail endpoint.
// Every seat mutation bumps a per-bus generation, and a read-through write
// is discarded when the generation moved while the reader was at the
// database.
type RedisBusCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisClient opens a client from configuration
func NewRedisClient(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB})
}

// NewRedisBusCache wraps an existing client
func NewRedisBusCache(client *redis.Client, ttl time.Duration) *RedisBusCache {
	return &RedisBusCache{client: client, ttl: ttl}
}

// GetBus returns the cached bus. On a miss it returns nil and the generation
// to hand back to SetBus.
func (c *RedisBusCache) GetBus(ctx context.Context, busID string) (*models.Bus, int64, error) {
	vals, err := c.client.MGet(ctx, busKey(busID), generationKey(busID)).Result()
	if err != nil {
		return nil, 0, err
	}

	gen, err := parseGeneration(vals[1])
	if err != nil {
		return nil, 0, err
	}

	payload, ok := vals[0].(string)
	if !ok {
		return nil, gen, nil
	}

	var bus models.Bus
	if err := json.Unmarshal([]byte(payload), &bus); err != nil {
		return nil, gen, err
	}
	return &bus, gen, nil
}

// SetBus stores bus for the configured TTL unless it was invalidated after
// generation was read. A discarded write is not an error.
func (c *RedisBusCache) SetBus(ctx context.Context, bus *models.Bus, generation int64) error {
	payload, err := json.Marshal(bus)
	if err != nil {
		return err
	}

	return setIfCurrent.Run(ctx, c.client,
		[]string{busKey(bus.ID), generationKey(bus.ID)},
		strconv.FormatInt(generation, 10), string(payload), c.ttl.Milliseconds(),
	).Err()
}

// InvalidateBus bumps the generation and drops the cached entry for busID
func (c *RedisBusCache) InvalidateBus(ctx context.Context, busID string) error {
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, generationKey(busID))
		pipe.Del(ctx, busKey(busID))
		return nil
	})
	return err
}

// Ping checks connectivity for the health endpoint
func (c *RedisBusCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close releases the underlying client
func (c *RedisBusCache) Close() error {
	return c.client.Close()
}

func parseGeneration(v interface{}) (int64, error) {
	s, ok := v.(string)
	if !ok {
		return 0, nil
	}
	return strconv.ParseInt(s, 10, 64)
}

func busKey(busID string) string {
	return "cache:bus:" + busID
}

func generationKey(busID string) string {
	return "cache:bus:" + busID + ":gen"
}
