// Package redis mirrors the latest document into Redis and carries the change
// signal over Redis pub/sub so several server processes stay in step.
package redis

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/go-redis/redis/v8"
	"github.com/lucap2714-svg/fisiostudio/internal/repository"
)

var (
	_ repository.Mirror      = (*Mirror)(nil)
	_ repository.Broadcaster = (*Broadcaster)(nil)
)

// NewClient creates a Redis client and verifies the connection.
func NewClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if _, err := rdb.Ping(ctx).Result(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis %s: %w", addr, err)
	}
	return rdb, nil
}

// Mirror writes each payload to a plain string key.
type Mirror struct {
	client *redis.Client
}

func NewMirror(client *redis.Client) *Mirror {
	return &Mirror{client: client}
}

func (m *Mirror) Save(ctx context.Context, key string, payload []byte) error {
	return m.client.Set(ctx, key, payload, 0).Err()
}

// Broadcaster publishes repository.UpdatedMessage on a channel.
type Broadcaster struct {
	client  *redis.Client
	channel string
}

func NewBroadcaster(client *redis.Client, channel string) *Broadcaster {
	return &Broadcaster{client: client, channel: channel}
}

func (b *Broadcaster) Publish(ctx context.Context) error {
	return b.client.Publish(ctx, b.channel, repository.UpdatedMessage).Err()
}

// Listen subscribes to the channel and calls fn for each update message.
func (b *Broadcaster) Listen(ctx context.Context, fn func()) (func(), error) {
	sub := b.client.Subscribe(ctx, b.channel)
	// Receive blocks until the subscription is confirmed.
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, fmt.Errorf("subscribe %s: %w", b.channel, err)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for msg := range sub.Channel() {
			if msg.Payload != repository.UpdatedMessage {
				log.Printf("WARN: ignoring unexpected message on %s: %q", b.channel, msg.Payload)
				continue
			}
			fn()
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			_ = sub.Close()
			<-done
		})
	}, nil
}
