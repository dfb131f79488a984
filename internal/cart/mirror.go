package cart

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-redis/redis/v8"
)

// Mirror replicates cart lines to a remote per-user collection, one
// record per line keyed by product ID. The local cart is authoritative:
// a failed mirror write leaves the remote copy stale until the next
// successful write. This asymmetry is a known consistency gap.
type Mirror interface {
	Upsert(ctx context.Context, userID string, line Line) error
	Remove(ctx context.Context, userID string, productID string) error
	Clear(ctx context.Context, userID string) error
	Load(ctx context.Context, userID string) ([]Line, error)
}

// RedisMirror stores each user's cart in a redis hash, one field per
// product ID holding the serialized line.
type RedisMirror struct {
	client *redis.Client
}

// NewRedisMirror creates a Mirror backed by the given redis client.
func NewRedisMirror(client *redis.Client) *RedisMirror {
	return &RedisMirror{client: client}
}

func (m *RedisMirror) Upsert(ctx context.Context, userID string, line Line) error {
	payload, err := json.Marshal(line)
	if err != nil {
		return fmt.Errorf("failed to serialize cart line: %w", err)
	}
	if err := m.client.HSet(ctx, cartKey(userID), line.ProductID, payload).Err(); err != nil {
		return fmt.Errorf("failed to mirror cart line: %w", err)
	}
	return nil
}

func (m *RedisMirror) Remove(ctx context.Context, userID string, productID string) error {
	if err := m.client.HDel(ctx, cartKey(userID), productID).Err(); err != nil {
		return fmt.Errorf("failed to remove mirrored cart line: %w", err)
	}
	return nil
}

func (m *RedisMirror) Clear(ctx context.Context, userID string) error {
	if err := m.client.Del(ctx, cartKey(userID)).Err(); err != nil {
		return fmt.Errorf("failed to clear mirrored cart: %w", err)
	}
	return nil
}

// Load reads all mirrored lines for a user. Entries that fail to
// deserialize are skipped: the mirror is best effort, never a reason
// to fail the session.
func (m *RedisMirror) Load(ctx context.Context, userID string) ([]Line, error) {
	fields, err := m.client.HGetAll(ctx, cartKey(userID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load mirrored cart: %w", err)
	}
	lines := make([]Line, 0, len(fields))
	for _, raw := range fields {
		var line Line
		if err := json.Unmarshal([]byte(raw), &line); err != nil {
			continue
		}
		lines = append(lines, line)
	}
	return lines, nil
}

func cartKey(userID string) string {
	return "cart:" + userID
}
