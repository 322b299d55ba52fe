package model

import "time"

// VipEntitlement is one entry of the console's VIP list
type VipEntitlement struct {
	StableID    string
	Name        string
	Description string
	ExpiresAt   *time.Time // nil means permanent
	Invalid     bool       // expiration present but unparseable
}

// VipStatus is the evaluated VIP state for one player at a point in time.
// A zero VipStatus means "not VIP".
type VipStatus struct {
	IsVip         bool
	Permanent     bool
	ExpiresAt     *time.Time
	DaysRemaining *int
	Description   string
}
