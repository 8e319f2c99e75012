package kvstore

import (
	"context"
	"errors"
)

// ErrNil is returned by Get when the key does not exist.
var ErrNil = errors.New("kvstore: nil result")

// Store is the command surface this service needs from the hosted store.
// One command per call; the store guarantees per-command atomicity only.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	SAdd(ctx context.Context, key, member string) error
	SRem(ctx context.Context, key, member string) error
	SIsMember(ctx context.Context, key, member string) (bool, error)
	SMembers(ctx context.Context, key string) ([]string, error)
	ZAdd(ctx context.Context, key string, score int64, member string) error
	ZRange(ctx context.Context, key string, start, stop int64) ([]string, error)
}
