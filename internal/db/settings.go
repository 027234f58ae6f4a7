package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/masjidboard/internal/model"
	"github.com/Nixie-Tech-LLC/masjidboard/internal/prayer"
)

type settingsRow struct {
	MasjidID               int       `db:"masjid_id"`
	CalculationMethod      *int      `db:"calculation_method"`
	JuristicSchool         *int      `db:"juristic_school"`
	PrayerAdjustments      []byte    `db:"prayer_adjustments"`
	Modules                []byte    `db:"modules"`
	Theme                  string    `db:"theme"`
	HijriCalculationMethod string    `db:"hijri_calculation_method"`
	HijriOffset            int       `db:"hijri_offset"`
	UpdatedAt              time.Time `db:"updated_at"`
}

func (r settingsRow) toModel() (model.Settings, error) {
	s := model.Settings{
		MasjidID:               r.MasjidID,
		CalculationMethod:      r.CalculationMethod,
		JuristicSchool:         r.JuristicSchool,
		PrayerAdjustments:      prayer.Adjustments{},
		Theme:                  r.Theme,
		HijriCalculationMethod: r.HijriCalculationMethod,
		HijriOffset:            r.HijriOffset,
		UpdatedAt:              r.UpdatedAt,
	}
	if len(r.PrayerAdjustments) > 0 {
		if err := json.Unmarshal(r.PrayerAdjustments, &s.PrayerAdjustments); err != nil {
			return model.Settings{}, fmt.Errorf("decode prayer_adjustments: %w", err)
		}
	}
	if len(r.Modules) > 0 {
		if err := json.Unmarshal(r.Modules, &s.Modules); err != nil {
			return model.Settings{}, fmt.Errorf("decode modules: %w", err)
		}
	}
	return s, nil
}

const settingsColumns = `masjid_id, calculation_method, juristic_school, prayer_adjustments, modules,
	theme, hijri_calculation_method, hijri_offset, updated_at`

// GetSettings returns nil, nil when the masjid never saved settings.
func (s *pgStore) GetSettings(ctx context.Context, masjidID int) (*model.Settings, error) {
	var row settingsRow
	q := `SELECT ` + settingsColumns + ` FROM masjid_settings WHERE masjid_id = $1;`
	if err := s.db.GetContext(ctx, &row, q, masjidID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		log.Error().Err(err).Int("masjid_id", masjidID).Msg("[db] GetSettings: failed to select settings")
		return nil, err
	}
	out, err := row.toModel()
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// SaveSettings writes a full snapshot, replacing whatever was stored.
func (s *pgStore) SaveSettings(ctx context.Context, in model.Settings) (model.Settings, error) {
	adjustments, err := json.Marshal(in.PrayerAdjustments)
	if err != nil {
		return model.Settings{}, fmt.Errorf("encode prayer_adjustments: %w", err)
	}
	var modules []byte
	if in.Modules != nil {
		if modules, err = json.Marshal(in.Modules); err != nil {
			return model.Settings{}, fmt.Errorf("encode modules: %w", err)
		}
	}

	q := `
	INSERT INTO masjid_settings
	(masjid_id, calculation_method, juristic_school, prayer_adjustments, modules,
	 theme, hijri_calculation_method, hijri_offset, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now())
	ON CONFLICT (masjid_id) DO UPDATE SET
	calculation_method       = EXCLUDED.calculation_method,
	juristic_school          = EXCLUDED.juristic_school,
	prayer_adjustments       = EXCLUDED.prayer_adjustments,
	modules                  = EXCLUDED.modules,
	theme                    = EXCLUDED.theme,
	hijri_calculation_method = EXCLUDED.hijri_calculation_method,
	hijri_offset             = EXCLUDED.hijri_offset,
	updated_at               = now()
	RETURNING ` + settingsColumns + `;`

	var row settingsRow
	if err := s.db.GetContext(ctx, &row, q,
		in.MasjidID,
		in.CalculationMethod,
		in.JuristicSchool,
		adjustments,
		modules,
		in.Theme,
		in.HijriCalculationMethod,
		in.HijriOffset,
	); err != nil {
		log.Error().Err(err).Int("masjid_id", in.MasjidID).Msg("[db] SaveSettings: upsert failed")
		return model.Settings{}, err
	}
	return row.toModel()
}
