package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"

	"learning-portal/internal/domain/model"
	"learning-portal/internal/domain/ports/repository"
	"learning-portal/internal/infra/metrics"
	red "learning-portal/internal/infra/redis"
)

var (
	_ repository.SubjectRepository = (*subjectRepoCacheDecorator)(nil)
	_ repository.SubjectCache      = (*subjectRepoCacheDecorator)(nil)
)

const defaultSubjectTTL = 5 * time.Minute

type subjectRepoCacheDecorator struct {
	inner repository.SubjectRepository
	cache red.RedisClient
	ttl   time.Duration
	log   *zerolog.Logger
}

func NewSubjectRepoCacheDecorator(inner repository.SubjectRepository, cache red.RedisClient, ttl time.Duration, logger *zerolog.Logger) *subjectRepoCacheDecorator {
	if ttl <= 0 {
		ttl = defaultSubjectTTL
	}
	return &subjectRepoCacheDecorator{inner: inner, cache: cache, ttl: ttl, log: logger}
}

func subjectKey(id string) string { return fmt.Sprintf("subject:id:%s", id) }

func (d *subjectRepoCacheDecorator) FindSubject(ctx context.Context, tx repository.Tx, id string) (*model.Subject, error) {
	key := subjectKey(id)
	val, err := d.cache.Get(ctx, key)
	if err == nil {
		var s model.Subject
		if json.Unmarshal([]byte(val), &s) == nil && !s.IsZero() {
			metrics.IncCacheRequest("subject", "hit")
			return &s, nil
		}
	} else if !errors.Is(err, redis.Nil) {
		d.log.Warn().Err(err).Str("key", key).Msg("subject cache read failed")
	}

	metrics.IncCacheRequest("subject", "miss")
	s, err := d.inner.FindSubject(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if b, err := json.Marshal(s); err == nil {
		if err := d.cache.Set(ctx, key, b, d.ttl); err != nil {
			d.log.Warn().Err(err).Str("key", key).Msg("subject cache write failed")
		}
	}
	return s, nil
}

func (d *subjectRepoCacheDecorator) EnsureUser(ctx context.Context, tx repository.Tx, id, email string) error {
	_ = d.cache.Del(ctx, subjectKey(id))
	return d.inner.EnsureUser(ctx, tx, id, email)
}

// Invalidate drops the cached subject so the next lookup sees its new tier.
func (d *subjectRepoCacheDecorator) Invalidate(ctx context.Context, id string) error {
	return d.cache.Del(ctx, subjectKey(id))
}
