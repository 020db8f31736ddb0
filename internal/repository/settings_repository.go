package repository

import (
	"context"
	"database/sql"

	"github.com/anderle/table-reservation/internal/model"
)

// SettingsRepo reads and writes the singleton site_settings row (forced
// primary key 1).  Get falls back to compiled-in defaults when the row
// has not been seeded, so the resolver always receives a complete
// configuration object.
type SettingsRepo struct{ DB *sql.DB }

func NewSettingsRepo(db *sql.DB) *SettingsRepo { return &SettingsRepo{DB: db} }

// Get loads the settings row, or defaults when it does not exist yet.
func (r *SettingsRepo) Get(ctx context.Context) (model.SiteSettings, error) {
	var (
		s                model.SiteSettings
		opening, closing string
	)
	err := r.DB.QueryRowContext(ctx,
		`SELECT opening_time, closing_time, edit_cutoff_days, updated_at FROM site_settings WHERE id = 1`).
		Scan(&opening, &closing, &s.EditCutoffDays, &s.UpdatedAt)
	if err == sql.ErrNoRows {
		return model.DefaultSiteSettings(), nil
	}
	if err != nil {
		return model.SiteSettings{}, err
	}
	if s.OpeningTime, err = model.ParseClock(opening); err != nil {
		return model.SiteSettings{}, err
	}
	if s.ClosingTime, err = model.ParseClock(closing); err != nil {
		return model.SiteSettings{}, err
	}
	return s, nil
}

// Update writes the singleton row, creating it with id 1 when missing.
func (r *SettingsRepo) Update(ctx context.Context, s model.SiteSettings) error {
	_, err := r.DB.ExecContext(ctx,
		`INSERT INTO site_settings (id, opening_time, closing_time, edit_cutoff_days)
		 VALUES (1, ?, ?, ?)
		 ON DUPLICATE KEY UPDATE opening_time = VALUES(opening_time),
								 closing_time = VALUES(closing_time),
								 edit_cutoff_days = VALUES(edit_cutoff_days)`,
		s.OpeningTime.SQL(), s.ClosingTime.SQL(), s.EditCutoffDays)
	return err
}
