package repository

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/clinicshop/storefront/internal/domain"
	"github.com/redis/go-redis/v9"
)

const DefaultCartTTL = 30 * 24 * time.Hour

func NewRedisRepository(client *redis.Client, ttl time.Duration) *RedisRepository {
	if ttl <= 0 {
		ttl = DefaultCartTTL
	}
	return &RedisRepository{
		client:  client,
		baseTTL: ttl,
	}
}

type RedisRepository struct {
	client  *redis.Client
	baseTTL time.Duration
}

func (r *RedisRepository) GetCart(ctx context.Context, cartID string) (*domain.Cart, error) {
	key := cartKey(cartID)

	data, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCartNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	return decodeCart(cartID, data)
}

func (r *RedisRepository) SaveCart(ctx context.Context, cart *domain.Cart) error {
	data, err := encodeCart(cart)
	if err != nil {
		return err
	}

	jitter := time.Duration(rand.Intn(60)) * time.Minute
	ttl := r.baseTTL + jitter
	if err := r.client.Set(ctx, cartKey(cart.ID), data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (r *RedisRepository) DeleteCart(ctx context.Context, cartID string) error {
	if err := r.client.Del(ctx, cartKey(cartID)).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

func (r *RedisRepository) Close() error {
	return r.client.Close()
}

func cartKey(cartID string) string {
	return fmt.Sprintf("cart:%s", cartID)
}
