package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/mcoot/crcon-linkbot/internal/model"
	"github.com/mcoot/crcon-linkbot/internal/storage"
)

// Storage is an in-memory implementation of the storage interface
type Storage struct {
	mu sync.RWMutex

	links         map[string]*model.LinkRecord
	stableIDIndex map[string]string
	contests      map[model.ContestID]*model.Contest
	leaderboards  map[string]*model.LeaderboardChannel
}

// New creates a new in-memory storage instance
func New() *Storage {
	return &Storage{
		links:         make(map[string]*model.LinkRecord),
		stableIDIndex: make(map[string]string),
		contests:      make(map[model.ContestID]*model.Contest),
		leaderboards:  make(map[string]*model.LeaderboardChannel),
	}
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Close is a no-op
func (s *Storage) Close() error {
	return nil
}

// Link operations

func (s *Storage) SaveLink(ctx context.Context, link *model.LinkRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if old, ok := s.links[link.DiscordID]; ok && old.StableID != link.StableID {
		delete(s.stableIDIndex, old.StableID)
	}
	s.links[link.DiscordID] = copyLink(link)
	s.stableIDIndex[link.StableID] = link.DiscordID
	return nil
}

func (s *Storage) GetLink(ctx context.Context, discordID string) (*model.LinkRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	link, ok := s.links[discordID]
	if !ok {
		return nil, model.ErrLinkNotFound
	}
	return copyLink(link), nil
}

func (s *Storage) GetLinkByStableID(ctx context.Context, stableID string) (*model.LinkRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	discordID, ok := s.stableIDIndex[stableID]
	if !ok {
		return nil, model.ErrLinkNotFound
	}
	return copyLink(s.links[discordID]), nil
}

func (s *Storage) DeleteLink(ctx context.Context, discordID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if link, ok := s.links[discordID]; ok {
		delete(s.stableIDIndex, link.StableID)
		delete(s.links, discordID)
	}
	return nil
}

func (s *Storage) ListLinks(ctx context.Context) ([]*model.LinkRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*model.LinkRecord, 0, len(s.links))
	for _, link := range s.links {
		out = append(out, copyLink(link))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DiscordID < out[j].DiscordID })
	return out, nil
}

// Contest operations

func (s *Storage) SaveContest(ctx context.Context, contest *model.Contest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.contests[contest.ID] = copyContest(contest)
	return nil
}

func (s *Storage) GetContest(ctx context.Context, id model.ContestID) (*model.Contest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	contest, ok := s.contests[id]
	if !ok {
		return nil, model.ErrContestNotFound
	}
	return copyContest(contest), nil
}

func (s *Storage) ListContests(ctx context.Context) ([]*model.Contest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*model.Contest, 0, len(s.contests))
	for _, contest := range s.contests {
		out = append(out, copyContest(contest))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.Before(out[j].StartedAt) })
	return out, nil
}

// Leaderboard channel operations

func (s *Storage) SaveLeaderboardChannel(ctx context.Context, ch *model.LeaderboardChannel) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *ch
	s.leaderboards[ch.ChannelID] = &c
	return nil
}

func (s *Storage) GetLeaderboardChannel(ctx context.Context, channelID string) (*model.LeaderboardChannel, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ch, ok := s.leaderboards[channelID]
	if !ok {
		return nil, model.ErrLeaderboardNotFound
	}
	c := *ch
	return &c, nil
}

func (s *Storage) DeleteLeaderboardChannel(ctx context.Context, channelID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.leaderboards, channelID)
	return nil
}

func (s *Storage) ListLeaderboardChannels(ctx context.Context) ([]*model.LeaderboardChannel, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*model.LeaderboardChannel, 0, len(s.leaderboards))
	for _, ch := range s.leaderboards {
		c := *ch
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ChannelID < out[j].ChannelID })
	return out, nil
}

func copyLink(l *model.LinkRecord) *model.LinkRecord {
	c := *l
	if l.NotifiedExpiry != nil {
		t := *l.NotifiedExpiry
		c.NotifiedExpiry = &t
	}
	return &c
}

func copyContest(c *model.Contest) *model.Contest {
	out := *c
	out.Entries = append([]model.ContestEntry(nil), c.Entries...)
	out.Winners = append([]model.ContestEntry(nil), c.Winners...)
	if c.EndedAt != nil {
		t := *c.EndedAt
		out.EndedAt = &t
	}
	return &out
}
