package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mcoot/crcon-linkbot/internal/model"
	"github.com/mcoot/crcon-linkbot/internal/storage"
)

// Storage is a Redis-backed implementation of the storage interface
type Storage struct {
	client *redis.Client
	cfg    Config
	keys   keyspace
}

// New creates a new Redis storage instance
func New(cfg Config) (*Storage, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns
	if cfg.DialTimeout > 0 {
		opts.DialTimeout = cfg.DialTimeout
	}

	client := redis.NewClient(opts)

	// Fail at startup rather than on the first command
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return NewWithClient(client, cfg), nil
}

// NewWithClient creates a Redis storage with an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config) *Storage {
	prefix := cfg.KeyPrefix
	if prefix == "" {
		prefix = DefaultConfig().KeyPrefix
	}
	return &Storage{
		client: client,
		cfg:    cfg,
		keys:   keyspace(prefix),
	}
}

// Close closes the Redis connection
func (s *Storage) Close() error {
	return s.client.Close()
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Link operations

func (s *Storage) SaveLink(ctx context.Context, link *model.LinkRecord) error {
	data, err := json.Marshal(link)
	if err != nil {
		return err
	}

	old, err := s.GetLink(ctx, link.DiscordID)
	if err != nil && !errors.Is(err, model.ErrLinkNotFound) {
		return err
	}

	// Use pipeline for save + index update
	pipe := s.client.Pipeline()
	if old != nil && old.StableID != link.StableID {
		pipe.Del(ctx, s.keys.stableIndex(old.StableID))
	}
	pipe.Set(ctx, s.keys.link(link.DiscordID), data, 0)
	pipe.Set(ctx, s.keys.stableIndex(link.StableID), link.DiscordID, 0)
	pipe.SAdd(ctx, s.keys.links(), link.DiscordID)
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Storage) GetLink(ctx context.Context, discordID string) (*model.LinkRecord, error) {
	return getJSON[model.LinkRecord](ctx, s.client, s.keys.link(discordID), model.ErrLinkNotFound)
}

func (s *Storage) GetLinkByStableID(ctx context.Context, stableID string) (*model.LinkRecord, error) {
	// Look up discord ID from stable id index
	discordID, err := s.client.Get(ctx, s.keys.stableIndex(stableID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrLinkNotFound
		}
		return nil, err
	}

	return s.GetLink(ctx, discordID)
}

func (s *Storage) DeleteLink(ctx context.Context, discordID string) error {
	link, err := s.GetLink(ctx, discordID)
	if errors.Is(err, model.ErrLinkNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	pipe := s.client.Pipeline()
	pipe.Del(ctx, s.keys.link(discordID))
	pipe.Del(ctx, s.keys.stableIndex(link.StableID))
	pipe.SRem(ctx, s.keys.links(), discordID)
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Storage) ListLinks(ctx context.Context) ([]*model.LinkRecord, error) {
	links, err := listJSON[model.LinkRecord](ctx, s.client, s.keys.links(), s.keys.link)
	if err != nil {
		return nil, err
	}
	sort.Slice(links, func(i, j int) bool { return links[i].DiscordID < links[j].DiscordID })
	return links, nil
}

// Contest operations

func (s *Storage) SaveContest(ctx context.Context, contest *model.Contest) error {
	data, err := json.Marshal(contest)
	if err != nil {
		return err
	}

	// Finished contests expire; active ones are kept until they end
	var ttl time.Duration
	if !contest.IsActive() {
		ttl = s.cfg.EndedContestTTL
	}

	pipe := s.client.Pipeline()
	pipe.Set(ctx, s.keys.contest(string(contest.ID)), data, ttl)
	pipe.SAdd(ctx, s.keys.contests(), string(contest.ID))
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Storage) GetContest(ctx context.Context, id model.ContestID) (*model.Contest, error) {
	return getJSON[model.Contest](ctx, s.client, s.keys.contest(string(id)), model.ErrContestNotFound)
}

func (s *Storage) ListContests(ctx context.Context) ([]*model.Contest, error) {
	contests, err := listJSON[model.Contest](ctx, s.client, s.keys.contests(), s.keys.contest)
	if err != nil {
		return nil, err
	}
	sort.Slice(contests, func(i, j int) bool { return contests[i].StartedAt.Before(contests[j].StartedAt) })
	return contests, nil
}

// Leaderboard channel operations

func (s *Storage) SaveLeaderboardChannel(ctx context.Context, ch *model.LeaderboardChannel) error {
	data, err := json.Marshal(ch)
	if err != nil {
		return err
	}

	pipe := s.client.Pipeline()
	pipe.Set(ctx, s.keys.leaderboard(ch.ChannelID), data, 0)
	pipe.SAdd(ctx, s.keys.leaderboards(), ch.ChannelID)
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Storage) GetLeaderboardChannel(ctx context.Context, channelID string) (*model.LeaderboardChannel, error) {
	return getJSON[model.LeaderboardChannel](ctx, s.client, s.keys.leaderboard(channelID), model.ErrLeaderboardNotFound)
}

func (s *Storage) DeleteLeaderboardChannel(ctx context.Context, channelID string) error {
	pipe := s.client.Pipeline()
	pipe.Del(ctx, s.keys.leaderboard(channelID))
	pipe.SRem(ctx, s.keys.leaderboards(), channelID)
	_, err := pipe.Exec(ctx)
	return err
}

func (s *Storage) ListLeaderboardChannels(ctx context.Context) ([]*model.LeaderboardChannel, error) {
	channels, err := listJSON[model.LeaderboardChannel](ctx, s.client, s.keys.leaderboards(), s.keys.leaderboard)
	if err != nil {
		return nil, err
	}
	sort.Slice(channels, func(i, j int) bool { return channels[i].ChannelID < channels[j].ChannelID })
	return channels, nil
}

func getJSON[T any](ctx context.Context, client *redis.Client, key string, notFound error) (*T, error) {
	data, err := client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, notFound
		}
		return nil, err
	}

	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

// listJSON loads every member of an index set. Members whose value has
// expired are skipped.
func listJSON[T any](ctx context.Context, client *redis.Client, setKey string, keyFn func(string) string) ([]*T, error) {
	ids, err := client.SMembers(ctx, setKey).Result()
	if err != nil {
		return nil, err
	}

	if len(ids) == 0 {
		return []*T{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = keyFn(id)
	}

	// Fetch all values in one round trip using MGET
	values, err := client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	out := make([]*T, 0, len(values))
	for _, val := range values {
		str, ok := val.(string)
		if !ok {
			continue
		}
		var v T
		if err := json.Unmarshal([]byte(str), &v); err != nil {
			continue // Skip invalid data
		}
		out = append(out, &v)
	}
	return out, nil
}
