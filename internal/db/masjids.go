package db

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/masjidboard/internal/model"
)

const masjidColumns = `id, name, code, latitude, longitude, timezone, logo_url, created_by, created_at, updated_at`

// @ MASJID
func (s *pgStore) CreateMasjid(ctx context.Context, ownerID int, name, code string) (model.Masjid, error) {
	var m model.Masjid
	q := `
	INSERT INTO masjids (name, code, created_by, created_at, updated_at)
	VALUES ($1, $2, $3, now(), now())
	RETURNING ` + masjidColumns + `;`
	if err := s.db.GetContext(ctx, &m, q, name, code, ownerID); err != nil {
		log.Error().Err(err).Int("owner_id", ownerID).Str("code", code).Msg("[db] CreateMasjid: failed to insert masjid")
		return model.Masjid{}, conflict(err, fmt.Sprintf("code %q", code))
	}
	return m, nil
}

func (s *pgStore) GetMasjidByOwner(ctx context.Context, ownerID int) (model.Masjid, error) {
	var m model.Masjid
	q := `SELECT ` + masjidColumns + ` FROM masjids WHERE created_by = $1;`
	if err := s.db.GetContext(ctx, &m, q, ownerID); err != nil {
		return model.Masjid{}, notFound(err, fmt.Sprintf("masjid for user %d", ownerID))
	}
	return m, nil
}

func (s *pgStore) GetMasjidByCode(ctx context.Context, code string) (model.Masjid, error) {
	var m model.Masjid
	q := `SELECT ` + masjidColumns + ` FROM masjids WHERE lower(code) = lower($1);`
	if err := s.db.GetContext(ctx, &m, q, code); err != nil {
		return model.Masjid{}, notFound(err, fmt.Sprintf("masjid %q", code))
	}
	return m, nil
}

// UpdateMasjid replaces the editable profile fields.
func (s *pgStore) UpdateMasjid(ctx context.Context, m model.Masjid) (model.Masjid, error) {
	var out model.Masjid
	q := `
	UPDATE masjids
	SET
	name       = $2,
	code       = $3,
	latitude   = $4,
	longitude  = $5,
	timezone   = $6,
	updated_at = now()
	WHERE id = $1
	RETURNING ` + masjidColumns + `;`
	if err := s.db.GetContext(ctx, &out, q, m.ID, m.Name, m.Code, m.Latitude, m.Longitude, m.Timezone); err != nil {
		if c := conflict(err, fmt.Sprintf("code %q", m.Code)); c != err {
			return model.Masjid{}, c
		}
		return model.Masjid{}, notFound(err, fmt.Sprintf("masjid %d", m.ID))
	}
	return out, nil
}

func (s *pgStore) SetMasjidLogo(ctx context.Context, masjidID int, url string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE masjids SET logo_url = $2, updated_at = now() WHERE id = $1;`, masjidID, url)
	if err != nil {
		log.Error().Err(err).Int("masjid_id", masjidID).Msg("[db] SetMasjidLogo: exec failed")
		return err
	}
	return expectOneRow(res, fmt.Sprintf("masjid %d", masjidID))
}
