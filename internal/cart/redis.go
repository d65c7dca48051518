package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/go-redis/redis/v8"

	"localserve/internal/models"
)

// RedisStore keeps each cart under "cart:<owner>" and publishes changes on
// "cart-events:<owner>".
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func (s *RedisStore) key(owner string) string {
	return "cart:" + owner
}

func (s *RedisStore) channel(owner string) string {
	return "cart-events:" + owner
}

func (s *RedisStore) Load(ctx context.Context, owner string) ([]models.CartItem, error) {
	data, err := s.client.Get(ctx, s.key(owner)).Bytes()
	if errors.Is(err, redis.Nil) {
		return []models.CartItem{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read cart: %w", err)
	}

	items := []models.CartItem{}
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("failed to decode cart: %w", err)
	}
	return items, nil
}

func (s *RedisStore) Save(ctx context.Context, owner string, items []models.CartItem) error {
	if items == nil {
		items = []models.CartItem{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("failed to encode cart: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, s.key(owner), data, s.ttl)
	pipe.Publish(ctx, s.channel(owner), data)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save cart: %w", err)
	}
	return nil
}

func (s *RedisStore) Clear(ctx context.Context, owner string) error {
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, s.key(owner))
	pipe.Publish(ctx, s.channel(owner), "[]")
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	return nil
}

func (s *RedisStore) Subscribe(ctx context.Context, owner string) (<-chan []models.CartItem, error) {
	sub := s.client.Subscribe(ctx, s.channel(owner))
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, fmt.Errorf("failed to subscribe to cart events: %w", err)
	}

	out := make(chan []models.CartItem, 1)
	go func() {
		defer close(out)
		defer sub.Close()

		messages := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-messages:
				if !ok {
					return
				}
				var items []models.CartItem
				if err := json.Unmarshal([]byte(msg.Payload), &items); err != nil {
					log.Println("[CART] [WARN] dropping undecodable cart event:", err)
					continue
				}
				select {
				case out <- items:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}
