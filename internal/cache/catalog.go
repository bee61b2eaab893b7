package cache

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"go.uber.org/zap"

	"competencymap/internal/domain"
	"competencymap/internal/repository"
)

// Catalog caches competency lookups in a KVStore. A competency deleted by
// the host keeps resolving until its entry expires.
type Catalog struct {
	next   repository.CompetencyCatalog
	kv     KVStore
	ttl    time.Duration
	prefix string
	logger *zap.Logger
}

var _ repository.CompetencyCatalog = (*Catalog)(nil)

// NewCatalog wraps next with a read-through cache
func NewCatalog(next repository.CompetencyCatalog, kv KVStore, ttl time.Duration, prefix string, logger *zap.Logger) *Catalog {
	return &Catalog{
		next:   next,
		kv:     kv,
		ttl:    ttl,
		prefix: prefix,
		logger: logger,
	}
}

func (c *Catalog) competencyKey(id int64) string {
	return c.prefix + "competency:" + strconv.FormatInt(id, 10)
}

func (c *Catalog) listKey() string {
	return c.prefix + "competencies:all"
}

// GetCompetency returns the cached competency or loads it from the catalog.
// Missing competencies are not cached so a newly created one shows up
// immediately.
func (c *Catalog) GetCompetency(ctx context.Context, id int64) (*domain.Competency, error) {
	key := c.competencyKey(id)

	var cached domain.Competency
	if c.load(ctx, key, &cached) {
		return &cached, nil
	}

	competency, err := c.next.GetCompetency(ctx, id)
	if err != nil || competency == nil {
		return competency, err
	}

	c.store(ctx, key, competency)
	return competency, nil
}

// ListCompetencies returns the cached listing or loads it from the catalog
func (c *Catalog) ListCompetencies(ctx context.Context) ([]domain.Competency, error) {
	key := c.listKey()

	var cached []domain.Competency
	if c.load(ctx, key, &cached) {
		return cached, nil
	}

	competencies, err := c.next.ListCompetencies(ctx)
	if err != nil {
		return nil, err
	}

	c.store(ctx, key, competencies)
	return competencies, nil
}

func (c *Catalog) load(ctx context.Context, key string, target any) bool {
	raw, err := c.kv.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, ErrCacheMiss) {
			c.logger.Warn("Failed to read cache", zap.String("key", key), zap.Error(err))
		}
		return false
	}

	if err := json.Unmarshal([]byte(raw), target); err != nil {
		c.logger.Warn("Discarding undecodable cache entry", zap.String("key", key), zap.Error(err))
		return false
	}

	c.logger.Debug("Cache hit", zap.String("key", key))
	return true
}

func (c *Catalog) store(ctx context.Context, key string, value any) {
	data, err := json.Marshal(value)
	if err != nil {
		c.logger.Warn("Failed to marshal cache entry", zap.String("key", key), zap.Error(err))
		return
	}

	if err := c.kv.Set(ctx, key, string(data), c.ttl); err != nil {
		c.logger.Warn("Failed to write cache", zap.String("key", key), zap.Error(err))
	}
}
