package vip

import (
	"context"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/mcoot/crcon-linkbot/internal/console"
	"github.com/mcoot/crcon-linkbot/internal/dependencies/clock"
	"github.com/mcoot/crcon-linkbot/internal/model"
)

const day = 24 * time.Hour

var (
	expirationFields  = []string{"expiration", "expires_at", "vip_expiration", "expiration_date"}
	descriptionFields = []string{"description", "comment", "name"}

	// layouts without a zone are read as UTC
	expirationLayouts = []string{
		time.RFC3339Nano,
		"2006-01-02T15:04:05.999999999",
		"2006-01-02 15:04:05.999999999",
		"2006-01-02",
	}
)

// Console is the subset of the request executor the evaluator needs
type Console interface {
	Get(ctx context.Context, path string, query url.Values) (gjson.Result, error)
}

// Service evaluates VIP entitlements from the console's VIP list.
// The list is fetched on every query; nothing is cached.
type Service struct {
	console Console
	clock   clock.Clock
	logger  *slog.Logger
}

// New creates a VIP service
func New(c Console, clk clock.Clock, logger *slog.Logger) *Service {
	return &Service{
		console: c,
		clock:   clk,
		logger:  logger.With(slog.String("component", "vip-service")),
	}
}

// Entitlements fetches and parses the full VIP list
func (s *Service) Entitlements(ctx context.Context) ([]model.VipEntitlement, error) {
	result, err := s.console.Get(ctx, console.PathGetVipIDs, nil)
	if err != nil {
		return nil, err
	}

	records := console.Records(result)
	entitlements := make([]model.VipEntitlement, 0, len(records))
	for _, rec := range records {
		id := rec.ID()
		if id == "" {
			continue
		}
		ent := model.VipEntitlement{
			StableID: id,
			Name:     rec.Name(),
		}
		if rec.Value.IsObject() {
			ent.Description = console.FirstString(rec.Value, descriptionFields...)
			ent.ExpiresAt, ent.Invalid = parseExpiration(firstPresent(rec.Value, expirationFields))
			if ent.Invalid {
				s.logger.Warn("unparseable vip expiration",
					slog.String("stable_id", id),
					slog.String("raw", firstPresent(rec.Value, expirationFields).Raw),
				)
			}
		}
		entitlements = append(entitlements, ent)
	}
	return entitlements, nil
}

// GetStatus returns the VIP status of a player now. It never fails: any
// error fetching or reading the list yields a non-VIP status.
func (s *Service) GetStatus(ctx context.Context, stableID string) model.VipStatus {
	entitlements, err := s.Entitlements(ctx)
	if err != nil {
		s.logger.Warn("vip lookup failed, reporting not vip",
			slog.String("stable_id", stableID),
			slog.Any("error", err),
		)
		return model.VipStatus{}
	}
	return StatusAt(entitlements, stableID, s.clock.Now())
}

// StatusAt evaluates a player's VIP status against an already fetched list
func StatusAt(entitlements []model.VipEntitlement, stableID string, now time.Time) model.VipStatus {
	ent := find(entitlements, strings.TrimSpace(stableID))
	if ent == nil || ent.Invalid {
		return model.VipStatus{}
	}

	if ent.ExpiresAt == nil {
		return model.VipStatus{IsVip: true, Permanent: true, Description: ent.Description}
	}

	expires := *ent.ExpiresAt
	days := DaysRemaining(expires, now)
	if days <= 0 {
		return model.VipStatus{ExpiresAt: &expires, Description: ent.Description}
	}
	return model.VipStatus{
		IsVip:         true,
		ExpiresAt:     &expires,
		DaysRemaining: &days,
		Description:   ent.Description,
	}
}

// DaysRemaining is the number of started days until expiry, rounded up.
// An expiry at or before now yields zero or less.
func DaysRemaining(expires, now time.Time) int {
	d := expires.Sub(now)
	days := int(d / day)
	if d%day > 0 {
		days++
	}
	return days
}

func find(entitlements []model.VipEntitlement, stableID string) *model.VipEntitlement {
	if stableID == "" {
		return nil
	}
	for i := range entitlements {
		if entitlements[i].StableID == stableID {
			return &entitlements[i]
		}
	}
	// hex ids are sometimes reported with different casing
	for i := range entitlements {
		if strings.EqualFold(entitlements[i].StableID, stableID) {
			return &entitlements[i]
		}
	}
	return nil
}

func firstPresent(r gjson.Result, fields []string) gjson.Result {
	for _, f := range fields {
		if v := r.Get(f); v.Exists() {
			return v
		}
	}
	return gjson.Result{}
}

// parseExpiration returns nil for a permanent grant. invalid is set when a
// value is present but cannot be read as a time.
func parseExpiration(v gjson.Result) (expires *time.Time, invalid bool) {
	switch v.Type {
	case gjson.Null:
		return nil, false
	case gjson.Number:
		n := v.Int()
		var t time.Time
		if n > 1e12 {
			t = time.UnixMilli(n).UTC()
		} else {
			t = time.Unix(n, 0).UTC()
		}
		return &t, false
	case gjson.String:
		raw := strings.TrimSpace(v.Str)
		if raw == "" || strings.EqualFold(raw, "none") || strings.EqualFold(raw, "null") {
			return nil, false
		}
		for _, layout := range expirationLayouts {
			if t, err := time.Parse(layout, raw); err == nil {
				return &t, false
			}
		}
		return nil, true
	default:
		return nil, true
	}
}
