package redis

import (
	"context"

	"github.com/kailas-cloud/ragdex/internal/db"
)

// XAdd appends an entry to a stream with an auto-generated ID.
func (s *Store) XAdd(ctx context.Context, stream string, fields map[string]string) error {
	b := s.b().Xadd().Key(stream).Id("*").FieldValue()
	for k, v := range fields {
		b = b.FieldValue(k, v)
	}
	if err := s.do(ctx, b.Build()).Error(); err != nil {
		return &db.Error{Op: db.OpXAdd, Err: err}
	}
	return nil
}
