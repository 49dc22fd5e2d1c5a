// Package redisstore keeps curated items, cursors and reels as Redis
// documents.
package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"ContentCurator/internal/domain"
	"ContentCurator/internal/ports"
)

const (
	itemPrefix   = "raw_ideas:"
	cursorPrefix = "source_cursors:"
	reelPrefix   = "reel_ideas:"

	scanBatch = 200
	// maxWatchRetries bounds optimistic-lock retries in update.
	maxWatchRetries = 5
)

// advanceScript moves last_processed_us forward only and bumps the counter.
var advanceScript = redis.NewScript(`
	local current = redis.call("HGET", KEYS[1], "last_processed_us")
	if ARGV[1] ~= "" then
		if not current or tonumber(ARGV[1]) > tonumber(current) then
			redis.call("HSET", KEYS[1], "last_processed_us", ARGV[1])
		end
	end
	redis.call("HINCRBY", KEYS[1], "total_items_processed", ARGV[2])
	redis.call("HSETNX", KEYS[1], "source_id", ARGV[4])
	redis.call("HSETNX", KEYS[1], "created_at_us", ARGV[3])
	redis.call("HSET", KEYS[1], "updated_at_us", ARGV[3])
	return 1
`)

// Store implements ports.Store on Redis.
type Store struct {
	client redis.UniversalClient
	now    func() time.Time
}

var _ ports.Store = (*Store)(nil)

// New wraps an existing client.
func New(client redis.UniversalClient) *Store {
	return &Store{client: client, now: time.Now}
}

// Open connects and pings the server.
func Open(ctx context.Context, addr, password string, db int) (*Store, error) {
	client := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis %s: %w", addr, err)
	}
	return New(client), nil
}

// Close releases the client.
func (s *Store) Close() error {
	if s == nil || s.client == nil {
		return nil
	}
	return s.client.Close()
}

// Exists reports whether an item document is stored under id.
func (s *Store) Exists(ctx context.Context, id string) (bool, error) {
	n, err := s.client.Exists(ctx, itemPrefix+id).Result()
	if err != nil {
		return false, fmt.Errorf("check item %s: %w", id, err)
	}
	return n > 0, nil
}

// CreateBatch writes each item with SET NX in one pipeline.
func (s *Store) CreateBatch(ctx context.Context, items []domain.ContentItem) ([]string, error) {
	if len(items) == 0 {
		return nil, nil
	}

	payloads := make([][]byte, len(items))
	for i, item := range items {
		raw, err := json.Marshal(item)
		if err != nil {
			return nil, fmt.Errorf("encode item %s: %w", item.ID, err)
		}
		payloads[i] = raw
	}

	cmds := make([]*redis.BoolCmd, len(items))
	_, err := s.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, item := range items {
			cmds[i] = pipe.SetNX(ctx, itemPrefix+item.ID, payloads[i], 0)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("write items: %w", err)
	}

	var created []string
	for i, cmd := range cmds {
		if cmd.Val() {
			created = append(created, items[i].ID)
		}
	}
	return created, nil
}

// ListAwaitingReels scans item documents for approved items without reels.
func (s *Store) ListAwaitingReels(ctx context.Context, limit int) ([]domain.ContentItem, error) {
	var matched []domain.ContentItem

	err := s.scan(ctx, itemPrefix+"*", func(keys []string) error {
		values, err := s.client.MGet(ctx, keys...).Result()
		if err != nil {
			return fmt.Errorf("load items: %w", err)
		}
		for i, v := range values {
			raw, ok := v.(string)
			if !ok {
				continue
			}
			var item domain.ContentItem
			if err := json.Unmarshal([]byte(raw), &item); err != nil {
				return fmt.Errorf("decode %s: %w", keys[i], err)
			}
			if item.HumanApproved && !item.ReelGenerated {
				matched = append(matched, item)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.Before(matched[j].CreatedAt)
		}
		return matched[i].ID < matched[j].ID
	})
	if limit > 0 && len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

// MarkReelGenerated flips reel_generated under an optimistic lock.
func (s *Store) MarkReelGenerated(ctx context.Context, id string, at time.Time) error {
	return s.update(ctx, id, func(item *domain.ContentItem) {
		ts := at.UTC()
		item.ReelGenerated = true
		item.ReelGeneratedAt = &ts
	})
}

// Approve sets human_approved for id.
func (s *Store) Approve(ctx context.Context, id string) error {
	return s.update(ctx, id, func(item *domain.ContentItem) {
		item.HumanApproved = true
	})
}

// Item loads one stored document.
func (s *Store) Item(ctx context.Context, id string) (domain.ContentItem, error) {
	var item domain.ContentItem
	raw, err := s.client.Get(ctx, itemPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return item, fmt.Errorf("item %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return item, fmt.Errorf("load item %s: %w", id, err)
	}
	if err := json.Unmarshal(raw, &item); err != nil {
		return item, fmt.Errorf("decode item %s: %w", id, err)
	}
	return item, nil
}

func (s *Store) update(ctx context.Context, id string, mutate func(*domain.ContentItem)) error {
	key := itemPrefix + id

	txf := func(tx *redis.Tx) error {
		raw, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return fmt.Errorf("item %s: %w", id, domain.ErrNotFound)
		}
		if err != nil {
			return err
		}

		var item domain.ContentItem
		if err := json.Unmarshal(raw, &item); err != nil {
			return fmt.Errorf("decode item %s: %w", id, err)
		}
		mutate(&item)
		updated, err := json.Marshal(item)
		if err != nil {
			return fmt.Errorf("encode item %s: %w", id, err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, updated, 0)
			return nil
		})
		return err
	}

	for attempt := 0; attempt < maxWatchRetries; attempt++ {
		err := s.client.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return fmt.Errorf("update item %s: %w", id, err)
		}
		return nil
	}
	return fmt.Errorf("update item %s: too much contention", id)
}

// Get returns the cursor for key, creating an empty one if absent.
func (s *Store) Get(ctx context.Context, key, sourceID string) (domain.SourceCursor, error) {
	hashKey := cursorPrefix + key
	nowUS := strconv.FormatInt(s.now().UTC().UnixMicro(), 10)

	_, err := s.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSetNX(ctx, hashKey, "source_id", sourceID)
		pipe.HSetNX(ctx, hashKey, "total_items_processed", 0)
		pipe.HSetNX(ctx, hashKey, "created_at_us", nowUS)
		pipe.HSetNX(ctx, hashKey, "updated_at_us", nowUS)
		return nil
	})
	if err != nil {
		return domain.SourceCursor{}, fmt.Errorf("create cursor %s: %w", key, err)
	}

	fields, err := s.client.HGetAll(ctx, hashKey).Result()
	if err != nil {
		return domain.SourceCursor{}, fmt.Errorf("read cursor %s: %w", key, err)
	}
	return cursorFromHash(key, fields)
}

// Advance runs the monotonic max/increment script.
func (s *Store) Advance(ctx context.Context, key string, lastProcessed *time.Time, delta int) error {
	latest := ""
	if lastProcessed != nil {
		latest = strconv.FormatInt(lastProcessed.UTC().UnixMicro(), 10)
	}
	nowUS := strconv.FormatInt(s.now().UTC().UnixMicro(), 10)

	if err := advanceScript.Run(ctx, s.client, []string{cursorPrefix + key}, latest, delta, nowUS, key).Err(); err != nil {
		return fmt.Errorf("advance cursor %s: %w", key, err)
	}
	return nil
}

// Reels returns the reel repository on the same client.
func (s *Store) Reels() ports.ReelRepository {
	return reelRepository{store: s}
}

// Stats counts item documents and cursor hashes.
func (s *Store) Stats(ctx context.Context) (domain.StoreStats, error) {
	var stats domain.StoreStats

	err := s.scan(ctx, itemPrefix+"*", func(keys []string) error {
		stats.ContentItems += int64(len(keys))
		return nil
	})
	if err != nil {
		return stats, err
	}

	err = s.scan(ctx, cursorPrefix+"*", func(keys []string) error {
		stats.Sources += int64(len(keys))
		cmds := make([]*redis.StringCmd, len(keys))
		_, err := s.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
			for i, k := range keys {
				cmds[i] = pipe.HGet(ctx, k, "total_items_processed")
			}
			return nil
		})
		if err != nil && !errors.Is(err, redis.Nil) {
			return fmt.Errorf("read cursor totals: %w", err)
		}
		for _, cmd := range cmds {
			if n, err := cmd.Int64(); err == nil {
				stats.ItemsProcessed += n
			}
		}
		return nil
	})
	return stats, err
}

func (s *Store) scan(ctx context.Context, pattern string, fn func(keys []string) error) error {
	var cursor uint64
	for {
		keys, next, err := s.client.Scan(ctx, cursor, pattern, scanBatch).Result()
		if err != nil {
			return fmt.Errorf("scan %s: %w", pattern, err)
		}
		if len(keys) > 0 {
			if err := fn(keys); err != nil {
				return err
			}
		}
		if next == 0 {
			return nil
		}
		cursor = next
	}
}

func cursorFromHash(key string, fields map[string]string) (domain.SourceCursor, error) {
	cursor := domain.SourceCursor{Key: key, SourceID: fields["source_id"]}

	if raw := strings.TrimSpace(fields["total_items_processed"]); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return cursor, fmt.Errorf("parse cursor %s total: %w", key, err)
		}
		cursor.TotalItemsProcessed = n
	}
	if ts, ok := microsField(fields, "last_processed_us"); ok {
		cursor.LastProcessed = &ts
	}
	if ts, ok := microsField(fields, "created_at_us"); ok {
		cursor.CreatedAt = ts
	}
	if ts, ok := microsField(fields, "updated_at_us"); ok {
		cursor.UpdatedAt = ts
	}
	return cursor, nil
}

func microsField(fields map[string]string, name string) (time.Time, bool) {
	raw, ok := fields[name]
	if !ok || raw == "" {
		return time.Time{}, false
	}
	us, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return time.Time{}, false
	}
	return time.UnixMicro(us).UTC(), true
}

type reelRepository struct {
	store *Store
}

var _ ports.ReelRepository = reelRepository{}

// CreateBatch writes all reels in one MULTI/EXEC block.
func (r reelRepository) CreateBatch(ctx context.Context, reels []domain.ReelIdea) error {
	if len(reels) == 0 {
		return nil
	}

	payloads := make([][]byte, len(reels))
	for i, reel := range reels {
		raw, err := json.Marshal(reel)
		if err != nil {
			return fmt.Errorf("encode reel %s: %w", reel.ID, err)
		}
		payloads[i] = raw
	}

	_, err := r.store.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, reel := range reels {
			pipe.Set(ctx, reelPrefix+reel.ID, payloads[i], 0)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("write reels: %w", err)
	}
	return nil
}

// ReelsFor loads the reels derived from one item.
func (s *Store) ReelsFor(ctx context.Context, parentID string) ([]domain.ReelIdea, error) {
	var reels []domain.ReelIdea
	err := s.scan(ctx, reelPrefix+"*", func(keys []string) error {
		values, err := s.client.MGet(ctx, keys...).Result()
		if err != nil {
			return fmt.Errorf("load reels: %w", err)
		}
		for _, v := range values {
			raw, ok := v.(string)
			if !ok {
				continue
			}
			var reel domain.ReelIdea
			if err := json.Unmarshal([]byte(raw), &reel); err != nil {
				return fmt.Errorf("decode reel: %w", err)
			}
			if reel.RawIdeaDocID == parentID {
				reels = append(reels, reel)
			}
		}
		return nil
	})
	sort.Slice(reels, func(i, j int) bool { return reels[i].ID < reels[j].ID })
	return reels, err
}
