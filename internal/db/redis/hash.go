package redis

import (
	"context"

	"github.com/kailas-cloud/ragdex/internal/db"
)

// HSet writes hash fields at the given key (upsert semantics).
func (s *Store) HSet(ctx context.Context, key string, fields map[string]string) error {
	b := s.b().Hset().Key(key).FieldValue()
	for k, v := range fields {
		b = b.FieldValue(k, v)
	}
	if err := s.do(ctx, b.Build()).Error(); err != nil {
		return &db.Error{Op: db.OpHSet, Err: err}
	}
	return nil
}

// HGetAll reads all fields of a hash. Missing keys return db.ErrKeyNotFound.
func (s *Store) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	cmd := s.b().Hgetall().Key(key).Build()
	fields, err := s.do(ctx, cmd).AsStrMap()
	if err != nil {
		return nil, &db.Error{Op: db.OpHGetAll, Err: err}
	}
	if len(fields) == 0 {
		return nil, db.ErrKeyNotFound
	}
	return fields, nil
}

// HIncrBy atomically increments a numeric hash field.
func (s *Store) HIncrBy(ctx context.Context, key, field string, by int64) error {
	cmd := s.b().Hincrby().Key(key).Field(field).Increment(by).Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		return &db.Error{Op: db.OpHIncrBy, Err: err}
	}
	return nil
}
