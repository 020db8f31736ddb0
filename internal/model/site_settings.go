package model

import "time"

// SiteSettings is the singleton configuration row (forced primary key 1)
// holding facility-wide reservation bounds.  It is loaded explicitly and
// passed into the resolver rather than read through any global.
//
// Fields:
//  OpeningTime    – earliest reservable time of day.
//  ClosingTime    – latest reservable time of day (inclusive).
//  EditCutoffDays – self-service edits close this many days before the
//                   reservation date.
//  UpdatedAt      – last update timestamp.
type SiteSettings struct {
	OpeningTime    Clock     // site_settings.opening_time
	ClosingTime    Clock     // site_settings.closing_time
	EditCutoffDays int       // site_settings.edit_cutoff_days
	UpdatedAt      time.Time // site_settings.updated_at
}

// DefaultSiteSettings mirrors the seed values used when the settings row
// has not been created yet: open 12:00–22:00, edits until 3 days before.
func DefaultSiteSettings() SiteSettings {
	return SiteSettings{OpeningTime: 12 * 60, ClosingTime: 22 * 60, EditCutoffDays: 3}
}

// WithinOpeningHours reports whether t is inside the reservable window.
// Both bounds are inclusive, matching how the closing time is displayed.
func (s SiteSettings) WithinOpeningHours(t Clock) bool {
	return t >= s.OpeningTime && t <= s.ClosingTime
}
