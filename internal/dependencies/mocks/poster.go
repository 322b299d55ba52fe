package mocks

import (
	"context"
	"fmt"
	"sync"

	"github.com/mcoot/crcon-linkbot/internal/model"
)

// ExpiryNotice records one VIP expiry notification
type ExpiryNotice struct {
	DiscordID string
	Expired   bool
	Status    model.VipStatus
}

// MockPoster records everything the services try to post to chat.
// Set Err to make every call fail.
type MockPoster struct {
	mu sync.Mutex

	Notices      []ExpiryNotice
	Results      []*model.Contest
	Leaderboards []*model.Leaderboard

	Err    error
	nextID int
}

// NewMockPoster creates a new MockPoster
func NewMockPoster() *MockPoster {
	return &MockPoster{}
}

// NotifyVipExpiring records a warning
func (p *MockPoster) NotifyVipExpiring(ctx context.Context, link *model.LinkRecord, status model.VipStatus) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Err != nil {
		return p.Err
	}
	p.Notices = append(p.Notices, ExpiryNotice{DiscordID: link.DiscordID, Status: status})
	return nil
}

// NotifyVipExpired records an expiry notice
func (p *MockPoster) NotifyVipExpired(ctx context.Context, link *model.LinkRecord) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Err != nil {
		return p.Err
	}
	p.Notices = append(p.Notices, ExpiryNotice{DiscordID: link.DiscordID, Expired: true})
	return nil
}

// PublishContestResult records the finished contest
func (p *MockPoster) PublishContestResult(ctx context.Context, contest *model.Contest) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Err != nil {
		return p.Err
	}
	p.Results = append(p.Results, contest)
	return nil
}

// PublishLeaderboard records the board and returns the channel's message
// id, allocating a new one the first time
func (p *MockPoster) PublishLeaderboard(ctx context.Context, ch *model.LeaderboardChannel, board *model.Leaderboard) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Err != nil {
		return "", p.Err
	}
	p.Leaderboards = append(p.Leaderboards, board)
	if ch.MessageID != "" {
		return ch.MessageID, nil
	}
	p.nextID++
	return fmt.Sprintf("message-%d", p.nextID), nil
}

// NoticeCount returns how many expiry notices were recorded
func (p *MockPoster) NoticeCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.Notices)
}
