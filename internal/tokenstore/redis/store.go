// Package redis stores session records in Redis, one JSON value per session
// with a sliding TTL.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/lucifer-699/EduCourseFrontend/internal/domain"
	"github.com/lucifer-699/EduCourseFrontend/internal/tokenstore"
	"github.com/lucifer-699/EduCourseFrontend/pkg/database"
)

const keyPrefix = "lms:session:"

// Store implements tokenstore.Store using Redis.
type Store struct {
	client *redis.Client
	ttl    time.Duration
}

// New creates a Redis-backed store. Each read or write resets the key's TTL.
func New(client *redis.Client, ttl time.Duration) *Store {
	return &Store{client: client, ttl: ttl}
}

// Load returns the record for sid and slides its expiry.
func (s *Store) Load(ctx context.Context, sid string) (rec *domain.Record, err error) {
	ctx, end := database.TraceOp(ctx, "redis", "GETEX")
	defer func() { end(ignoreMiss(err)) }()

	data, err := s.client.GetEx(ctx, keyPrefix+sid, s.ttl).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, tokenstore.ErrNotFound
		}
		return nil, fmt.Errorf("redis get session: %w", err)
	}

	rec = &domain.Record{}
	if err := json.Unmarshal(data, rec); err != nil {
		return nil, fmt.Errorf("unmarshal session record: %w", err)
	}
	return rec, nil
}

// Save writes rec under sid with the configured TTL.
func (s *Store) Save(ctx context.Context, sid string, rec *domain.Record) (err error) {
	ctx, end := database.TraceOp(ctx, "redis", "SET")
	defer func() { end(err) }()

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal session record: %w", err)
	}
	if err := s.client.Set(ctx, keyPrefix+sid, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set session: %w", err)
	}
	return nil
}

// Delete removes sid. Deleting a missing key succeeds.
func (s *Store) Delete(ctx context.Context, sid string) (err error) {
	ctx, end := database.TraceOp(ctx, "redis", "DEL")
	defer func() { end(err) }()

	if err := s.client.Del(ctx, keyPrefix+sid).Err(); err != nil {
		return fmt.Errorf("redis del session: %w", err)
	}
	return nil
}

// Ping checks the Redis connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func ignoreMiss(err error) error {
	if errors.Is(err, tokenstore.ErrNotFound) {
		return nil
	}
	return err
}
