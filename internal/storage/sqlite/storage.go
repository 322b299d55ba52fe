package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/mcoot/crcon-linkbot/internal/model"
	"github.com/mcoot/crcon-linkbot/internal/storage"
)

//go:embed schema.sql
var schema string

const timeFormat = time.RFC3339Nano

// Storage is a SQLite-backed implementation of the storage interface.
// Records are stored as JSON alongside the columns used for lookups.
type Storage struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path and applies the schema
func Open(path string) (*Storage, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	dsn := "file:" + filepath.Clean(path) +
		"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// A single writer avoids SQLITE_BUSY between pooled connections
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &Storage{db: db}, nil
}

// Close closes the underlying database
func (s *Storage) Close() error {
	return s.db.Close()
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Link operations

func (s *Storage) SaveLink(ctx context.Context, link *model.LinkRecord) error {
	data, err := json.Marshal(link)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
INSERT INTO links (discord_id, stable_id, data) VALUES (?, ?, ?)
ON CONFLICT (discord_id) DO UPDATE SET stable_id = excluded.stable_id, data = excluded.data`,
		link.DiscordID, link.StableID, string(data))
	return err
}

func (s *Storage) GetLink(ctx context.Context, discordID string) (*model.LinkRecord, error) {
	row := s.db.QueryRowContext(ctx, `SELECT data FROM links WHERE discord_id = ?`, discordID)
	return scanJSON[model.LinkRecord](row, model.ErrLinkNotFound)
}

func (s *Storage) GetLinkByStableID(ctx context.Context, stableID string) (*model.LinkRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT data FROM links WHERE stable_id = ? ORDER BY discord_id LIMIT 1`, stableID)
	return scanJSON[model.LinkRecord](row, model.ErrLinkNotFound)
}

func (s *Storage) DeleteLink(ctx context.Context, discordID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM links WHERE discord_id = ?`, discordID)
	return err
}

func (s *Storage) ListLinks(ctx context.Context) ([]*model.LinkRecord, error) {
	return queryJSON[model.LinkRecord](ctx, s.db, `SELECT data FROM links ORDER BY discord_id`)
}

// Contest operations

func (s *Storage) SaveContest(ctx context.Context, contest *model.Contest) error {
	data, err := json.Marshal(contest)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
INSERT INTO contests (id, state, started_at, data) VALUES (?, ?, ?, ?)
ON CONFLICT (id) DO UPDATE SET state = excluded.state, started_at = excluded.started_at, data = excluded.data`,
		string(contest.ID), string(contest.State), contest.StartedAt.UTC().Format(timeFormat), string(data))
	return err
}

func (s *Storage) GetContest(ctx context.Context, id model.ContestID) (*model.Contest, error) {
	row := s.db.QueryRowContext(ctx, `SELECT data FROM contests WHERE id = ?`, string(id))
	return scanJSON[model.Contest](row, model.ErrContestNotFound)
}

func (s *Storage) ListContests(ctx context.Context) ([]*model.Contest, error) {
	return queryJSON[model.Contest](ctx, s.db, `SELECT data FROM contests ORDER BY started_at, id`)
}

// Leaderboard channel operations

func (s *Storage) SaveLeaderboardChannel(ctx context.Context, ch *model.LeaderboardChannel) error {
	data, err := json.Marshal(ch)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
INSERT INTO leaderboard_channels (channel_id, guild_id, data) VALUES (?, ?, ?)
ON CONFLICT (channel_id) DO UPDATE SET guild_id = excluded.guild_id, data = excluded.data`,
		ch.ChannelID, ch.GuildID, string(data))
	return err
}

func (s *Storage) GetLeaderboardChannel(ctx context.Context, channelID string) (*model.LeaderboardChannel, error) {
	row := s.db.QueryRowContext(ctx, `SELECT data FROM leaderboard_channels WHERE channel_id = ?`, channelID)
	return scanJSON[model.LeaderboardChannel](row, model.ErrLeaderboardNotFound)
}

func (s *Storage) DeleteLeaderboardChannel(ctx context.Context, channelID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM leaderboard_channels WHERE channel_id = ?`, channelID)
	return err
}

func (s *Storage) ListLeaderboardChannels(ctx context.Context) ([]*model.LeaderboardChannel, error) {
	return queryJSON[model.LeaderboardChannel](ctx, s.db, `SELECT data FROM leaderboard_channels ORDER BY channel_id`)
}

func scanJSON[T any](row *sql.Row, notFound error) (*T, error) {
	var data string
	if err := row.Scan(&data); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFound
		}
		return nil, err
	}

	var v T
	if err := json.Unmarshal([]byte(data), &v); err != nil {
		return nil, err
	}
	return &v, nil
}

func queryJSON[T any](ctx context.Context, db *sql.DB, query string, args ...any) ([]*T, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	out := []*T{}
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		var v T
		if err := json.Unmarshal([]byte(data), &v); err != nil {
			return nil, err
		}
		out = append(out, &v)
	}
	return out, rows.Err()
}
