// Package cache provides an optional read-through cache for document lookups.
// The registry stays the source of truth; the cache only bounds read latency
// for hot documents and is invalidated on every mutation.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"tradelane/internal/document/models"
	"tradelane/pkg/domain"
)

const documentKeyPrefix = "doc:"

// Redis caches documents as JSON blobs with a TTL.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedis(client *redis.Client, ttl time.Duration) *Redis {
	return &Redis{client: client, ttl: ttl}
}

// Get returns the cached document, or (nil, false, nil) on a miss.
func (c *Redis) Get(ctx context.Context, id domain.DocumentID) (*models.Document, bool, error) {
	raw, err := c.client.Get(ctx, documentKeyPrefix+id.String()).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cache get: %w", err)
	}
	var doc models.Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		// A corrupt entry is treated as a miss; the next Set repairs it.
		return nil, false, nil
	}
	return &doc, true, nil
}

// Set stores a document with the configured TTL.
func (c *Redis) Set(ctx context.Context, doc *models.Document) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("cache marshal: %w", err)
	}
	if err := c.client.Set(ctx, documentKeyPrefix+doc.ID.String(), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache set: %w", err)
	}
	return nil
}

// Invalidate drops a document from the cache after a mutation.
func (c *Redis) Invalidate(ctx context.Context, id domain.DocumentID) error {
	if err := c.client.Del(ctx, documentKeyPrefix+id.String()).Err(); err != nil {
		return fmt.Errorf("cache invalidate: %w", err)
	}
	return nil
}
