package link

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/mcoot/crcon-linkbot/internal/dependencies/clock"
	"github.com/mcoot/crcon-linkbot/internal/model"
	"github.com/mcoot/crcon-linkbot/internal/storage"
)

// Resolver maps a player name to a player record
type Resolver interface {
	Resolve(ctx context.Context, name string) (*model.PlayerRecord, error)
}

// VipChecker evaluates a player's VIP state
type VipChecker interface {
	GetStatus(ctx context.Context, stableID string) model.VipStatus
}

// Status is a link together with the player's current VIP state
type Status struct {
	Link *model.LinkRecord
	Vip  model.VipStatus
}

// Service manages Discord user to player links
type Service struct {
	storage  storage.Storage
	resolver Resolver
	vip      VipChecker
	clock    clock.Clock
	logger   *slog.Logger

	// serialises the check-then-save in Link
	mu sync.Mutex
}

// New creates a link service
func New(storage storage.Storage, resolver Resolver, vip VipChecker, clock clock.Clock, logger *slog.Logger) *Service {
	return &Service{
		storage:  storage,
		resolver: resolver,
		vip:      vip,
		clock:    clock,
		logger:   logger.With(slog.String("component", "link-service")),
	}
}

// Link resolves playerName and ties it to the Discord user. Linking again
// replaces the user's previous link.
func (s *Service) Link(ctx context.Context, discordID, playerName string) (*model.LinkRecord, error) {
	player, err := s.resolver.Resolve(ctx, playerName)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	owner, err := s.storage.GetLinkByStableID(ctx, player.StableID)
	if err != nil && !errors.Is(err, model.ErrLinkNotFound) {
		return nil, err
	}
	if owner != nil && owner.DiscordID != discordID {
		return nil, model.ErrPlayerLinkedElsewhere
	}

	now := s.clock.Now()
	record := &model.LinkRecord{
		DiscordID:  discordID,
		PlayerName: player.Name,
		StableID:   player.StableID,
		Platform:   player.Platform,
		LinkedAt:   now,
		UpdatedAt:  now,
	}
	// Same player again: keep the original link date and scan state
	if owner != nil {
		record.LinkedAt = owner.LinkedAt
		record.WasVip = owner.WasVip
		record.NotifiedExpiry = owner.NotifiedExpiry
	}

	if err := s.storage.SaveLink(ctx, record); err != nil {
		return nil, err
	}

	s.logger.Info("player linked",
		slog.String("discord_id", discordID),
		slog.String("stable_id", record.StableID),
		slog.String("player_name", record.PlayerName),
	)
	return record, nil
}

// Unlink removes the Discord user's link
func (s *Service) Unlink(ctx context.Context, discordID string) (*model.LinkRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, err := s.Get(ctx, discordID)
	if err != nil {
		return nil, err
	}
	if err := s.storage.DeleteLink(ctx, discordID); err != nil {
		return nil, err
	}

	s.logger.Info("player unlinked",
		slog.String("discord_id", discordID),
		slog.String("stable_id", record.StableID),
	)
	return record, nil
}

// Get returns the Discord user's link, or model.ErrNotLinked
func (s *Service) Get(ctx context.Context, discordID string) (*model.LinkRecord, error) {
	record, err := s.storage.GetLink(ctx, discordID)
	if errors.Is(err, model.ErrLinkNotFound) {
		return nil, model.ErrNotLinked
	}
	return record, err
}

// List returns every link ordered by Discord id
func (s *Service) List(ctx context.Context) ([]*model.LinkRecord, error) {
	return s.storage.ListLinks(ctx)
}

// Status returns the user's link and the linked player's VIP state
func (s *Service) Status(ctx context.Context, discordID string) (*Status, error) {
	record, err := s.Get(ctx, discordID)
	if err != nil {
		return nil, err
	}
	return &Status{
		Link: record,
		Vip:  s.vip.GetStatus(ctx, record.StableID),
	}, nil
}
