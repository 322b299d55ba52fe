package expiry

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mcoot/crcon-linkbot/internal/dependencies/clock"
	"github.com/mcoot/crcon-linkbot/internal/model"
	"github.com/mcoot/crcon-linkbot/internal/services/vip"
	"github.com/mcoot/crcon-linkbot/internal/storage"
)

// DefaultWarnDays is how close to expiry a user is first warned
const DefaultWarnDays = 3

// EntitlementSource provides the raw VIP list
type EntitlementSource interface {
	Entitlements(ctx context.Context) ([]model.VipEntitlement, error)
}

// Notifier delivers expiry notices to linked users
type Notifier interface {
	NotifyVipExpiring(ctx context.Context, link *model.LinkRecord, status model.VipStatus) error
	NotifyVipExpired(ctx context.Context, link *model.LinkRecord) error
}

// ScanResult summarises one scan
type ScanResult struct {
	Checked int
	Warned  int
	Lapsed  int
	Failed  int
}

// Service periodically compares linked players against the VIP list
type Service struct {
	storage  storage.Storage
	source   EntitlementSource
	notifier Notifier
	clock    clock.Clock
	warnDays int
	logger   *slog.Logger
}

// New creates an expiry scanner. warnDays <= 0 uses DefaultWarnDays.
func New(
	storage storage.Storage,
	source EntitlementSource,
	notifier Notifier,
	clock clock.Clock,
	warnDays int,
	logger *slog.Logger,
) *Service {
	if warnDays <= 0 {
		warnDays = DefaultWarnDays
	}
	return &Service{
		storage:  storage,
		source:   source,
		notifier: notifier,
		clock:    clock,
		warnDays: warnDays,
		logger:   logger.With(slog.String("component", "expiry-scan")),
	}
}

// Scan checks every link once. If the VIP list cannot be fetched the scan
// aborts before touching any record.
func (s *Service) Scan(ctx context.Context) (ScanResult, error) {
	var result ScanResult

	ents, err := s.source.Entitlements(ctx)
	if err != nil {
		return result, fmt.Errorf("fetch vip list: %w", err)
	}

	links, err := s.storage.ListLinks(ctx)
	if err != nil {
		return result, fmt.Errorf("list links: %w", err)
	}

	now := s.clock.Now()
	for _, link := range links {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		result.Checked++

		status := vip.StatusAt(ents, link.StableID, now)
		changed := false

		if s.shouldWarn(link, status) {
			if err := s.notifier.NotifyVipExpiring(ctx, link, status); err != nil {
				s.logger.Warn("expiry warning failed",
					slog.String("discord_id", link.DiscordID),
					slog.Any("error", err),
				)
				result.Failed++
			} else {
				expires := *status.ExpiresAt
				link.NotifiedExpiry = &expires
				changed = true
				result.Warned++
			}
		}

		switch {
		case link.WasVip && !status.IsVip:
			if err := s.notifier.NotifyVipExpired(ctx, link); err != nil {
				s.logger.Warn("expiry notice failed",
					slog.String("discord_id", link.DiscordID),
					slog.Any("error", err),
				)
				result.Failed++
			} else {
				link.WasVip = false
				changed = true
				result.Lapsed++
			}
		case !link.WasVip && status.IsVip:
			link.WasVip = true
			changed = true
		}

		if changed {
			link.UpdatedAt = now
			if err := s.storage.SaveLink(ctx, link); err != nil {
				return result, fmt.Errorf("save link %s: %w", link.DiscordID, err)
			}
		}
	}

	s.logger.Info("vip expiry scan complete",
		slog.Int("checked", result.Checked),
		slog.Int("warned", result.Warned),
		slog.Int("lapsed", result.Lapsed),
		slog.Int("failed", result.Failed),
	)
	return result, nil
}

// shouldWarn reports whether a time-limited VIP is inside the warning window
// and the user has not been warned about this particular expiry yet
func (s *Service) shouldWarn(link *model.LinkRecord, status model.VipStatus) bool {
	if !status.IsVip || status.Permanent || status.DaysRemaining == nil || status.ExpiresAt == nil {
		return false
	}
	if *status.DaysRemaining > s.warnDays {
		return false
	}
	return link.NotifiedExpiry == nil || !link.NotifiedExpiry.Equal(*status.ExpiresAt)
}
