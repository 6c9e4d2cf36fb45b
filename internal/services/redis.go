package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/chachabrian/hall-booking/internal/booking"
)

// EventsChannel is the pub/sub channel booking events are published on.
const EventsChannel = "hall-booking:events"

const settingsKey = "hall-booking:settings"

// InitRedis connects to redisURL and pings it.
func InitRedis(ctx context.Context, redisURL string) (*redis.Client, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}

// RedisPublisher publishes booking events as JSON on EventsChannel so that
// notification workers outside this service can pick them up.
type RedisPublisher struct {
	client *redis.Client
}

func NewRedisPublisher(client *redis.Client) *RedisPublisher {
	return &RedisPublisher{client: client}
}

func (p *RedisPublisher) Publish(ctx context.Context, ev booking.Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	if err := p.client.Publish(ctx, EventsChannel, data).Err(); err != nil {
		return fmt.Errorf("publish %s: %w", ev.Type, err)
	}
	return nil
}

// CachedSettings keeps the resolved settings snapshot in Redis for ttl so
// that every availability request does not hit the settings table.
type CachedSettings struct {
	next   booking.SettingsProvider
	client *redis.Client
	ttl    time.Duration
}

func NewCachedSettings(next booking.SettingsProvider, client *redis.Client, ttl time.Duration) *CachedSettings {
	return &CachedSettings{next: next, client: client, ttl: ttl}
}

func (c *CachedSettings) Settings(ctx context.Context) (booking.Settings, error) {
	if c.client == nil || c.ttl <= 0 {
		return c.next.Settings(ctx)
	}

	if raw, err := c.client.Get(ctx, settingsKey).Bytes(); err == nil {
		var st booking.Settings
		if json.Unmarshal(raw, &st) == nil {
			return st, nil
		}
	}

	st, err := c.next.Settings(ctx)
	if err != nil {
		return booking.Settings{}, err
	}
	if data, err := json.Marshal(st); err == nil {
		// A cache write failure only costs a database read next time.
		_ = c.client.Set(ctx, settingsKey, data, c.ttl).Err()
	}
	return st, nil
}

// Invalidate drops the cached snapshot.
func (c *CachedSettings) Invalidate(ctx context.Context) error {
	if c.client == nil {
		return nil
	}
	return c.client.Del(ctx, settingsKey).Err()
}
