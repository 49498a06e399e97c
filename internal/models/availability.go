package models

import (
	"strings"
	"time"
)

type AvailabilityStatus string

const (
	AvailabilityFree        AvailabilityStatus = "free"
	AvailabilityPartial     AvailabilityStatus = "partial"
	AvailabilityBusy        AvailabilityStatus = "busy"
	AvailabilityUnavailable AvailabilityStatus = "unavailable"
)

func (s AvailabilityStatus) Valid() bool {
	switch s {
	case AvailabilityFree, AvailabilityPartial, AvailabilityBusy, AvailabilityUnavailable:
		return true
	}
	return false
}

// ProfileAvailability is the cached availability snapshot of one resource.
type ProfileAvailability struct {
	ResID          int64              `json:"res_id"`
	Status         AvailabilityStatus `json:"status"`
	AllocationPct  int                `json:"allocation_pct"`
	CurrentProject string             `json:"current_project,omitempty"`
	AvailableFrom  *time.Time         `json:"available_from,omitempty"`
	AvailableTo    *time.Time         `json:"available_to,omitempty"`
	ManagerName    string             `json:"manager_name,omitempty"`
	UpdatedAt      time.Time          `json:"updated_at"`
}

type AvailabilityMode string

const (
	ModeAny           AvailabilityMode = "any"
	ModeOnlyFree      AvailabilityMode = "only_free"
	ModeFreeOrPartial AvailabilityMode = "free_or_partial"
	ModeUnavailable   AvailabilityMode = "unavailable"
)

// ParseAvailabilityMode accepts the canonical mode names and the Italian
// labels used by the staffing front end. Empty input means ModeAny.
func ParseAvailabilityMode(raw string) (AvailabilityMode, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "any":
		return ModeAny, true
	case "only_free", "totale":
		return ModeOnlyFree, true
	case "free_or_partial", "parziale":
		return ModeFreeOrPartial, true
	case "unavailable", "nessuna disponibilità", "nessuna disponibilita", "nessuna_disponibilita":
		return ModeUnavailable, true
	}
	return "", false
}

// Statuses returns the statuses a mode admits; nil for ModeAny.
func (m AvailabilityMode) Statuses() []AvailabilityStatus {
	switch m {
	case ModeOnlyFree:
		return []AvailabilityStatus{AvailabilityFree}
	case ModeFreeOrPartial:
		return []AvailabilityStatus{AvailabilityFree, AvailabilityPartial}
	case ModeUnavailable:
		return []AvailabilityStatus{AvailabilityUnavailable}
	}
	return nil
}

// Admits reports whether a record with status s passes the mode.
func (m AvailabilityMode) Admits(s AvailabilityStatus) bool {
	allowed := m.Statuses()
	if allowed == nil {
		return true
	}
	for _, a := range allowed {
		if a == s {
			return true
		}
	}
	return false
}
