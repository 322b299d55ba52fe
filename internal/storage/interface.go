package storage

import (
	"context"

	"github.com/mcoot/crcon-linkbot/internal/model"
)

// Storage defines the interface for data persistence. Implementations
// return copies; callers own the values they get back.
type Storage interface {
	// Link operations
	SaveLink(ctx context.Context, link *model.LinkRecord) error
	GetLink(ctx context.Context, discordID string) (*model.LinkRecord, error)
	GetLinkByStableID(ctx context.Context, stableID string) (*model.LinkRecord, error)
	DeleteLink(ctx context.Context, discordID string) error
	ListLinks(ctx context.Context) ([]*model.LinkRecord, error)

	// Contest operations
	SaveContest(ctx context.Context, contest *model.Contest) error
	GetContest(ctx context.Context, id model.ContestID) (*model.Contest, error)
	ListContests(ctx context.Context) ([]*model.Contest, error)

	// Leaderboard channel operations
	SaveLeaderboardChannel(ctx context.Context, ch *model.LeaderboardChannel) error
	GetLeaderboardChannel(ctx context.Context, channelID string) (*model.LeaderboardChannel, error)
	DeleteLeaderboardChannel(ctx context.Context, channelID string) error
	ListLeaderboardChannels(ctx context.Context) ([]*model.LeaderboardChannel, error)

	Close() error
}
