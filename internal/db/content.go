package db

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/masjidboard/internal/model"
)

const contentColumns = `id, masjid_id, kind, title, body, image_url, reference, location, starts_at, ends_at,
	duration, display_order, visible, archived_at, created_by, created_at, updated_at`

// @ CONTENT
func (s *pgStore) CreateContent(ctx context.Context, c model.Content) (model.Content, error) {
	var out model.Content
	q := `
	INSERT INTO content_items
	(masjid_id, kind, title, body, image_url, reference, location, starts_at, ends_at,
	 duration, display_order, visible, created_by, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, now(), now())
	RETURNING ` + contentColumns + `;`

	if err := s.db.GetContext(ctx, &out, q,
		c.MasjidID, c.Kind, c.Title, c.Body, c.ImageURL, c.Reference, c.Location,
		c.StartsAt, c.EndsAt, c.Duration, c.DisplayOrder, c.Visible, c.CreatedBy,
	); err != nil {
		log.Error().Err(err).Int("masjid_id", c.MasjidID).Str("kind", c.Kind).Msg("[db] CreateContent: insert failed")
		return model.Content{}, err
	}
	return out, nil
}

func (s *pgStore) GetContent(ctx context.Context, masjidID, id int) (model.Content, error) {
	var c model.Content
	q := `SELECT ` + contentColumns + ` FROM content_items WHERE id = $1 AND masjid_id = $2;`
	if err := s.db.GetContext(ctx, &c, q, id, masjidID); err != nil {
		return model.Content{}, notFound(err, fmt.Sprintf("content %d", id))
	}
	return c, nil
}

// ListContent returns a masjid's items of one kind, newest first. Display
// ordering is applied by the caller.
func (s *pgStore) ListContent(ctx context.Context, masjidID int, kind string, includeArchived bool) ([]model.Content, error) {
	q := `SELECT ` + contentColumns + `
	FROM content_items
	WHERE masjid_id = $1 AND kind = $2 AND ($3 OR archived_at IS NULL)
	ORDER BY created_at DESC, id DESC;`

	out := []model.Content{}
	if err := s.db.SelectContext(ctx, &out, q, masjidID, kind, includeArchived); err != nil {
		log.Error().Err(err).Int("masjid_id", masjidID).Str("kind", kind).Msg("[db] ListContent: select failed")
		return nil, err
	}
	return out, nil
}

// ListVisibleContent returns what a public display may show.
func (s *pgStore) ListVisibleContent(ctx context.Context, masjidID int, kind string) ([]model.Content, error) {
	q := `SELECT ` + contentColumns + `
	FROM content_items
	WHERE masjid_id = $1 AND kind = $2 AND archived_at IS NULL AND visible
	ORDER BY id;`

	out := []model.Content{}
	if err := s.db.SelectContext(ctx, &out, q, masjidID, kind); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *pgStore) UpdateContent(ctx context.Context, c model.Content) (model.Content, error) {
	var out model.Content
	q := `
	UPDATE content_items
	SET
	title         = $3,
	body          = $4,
	image_url     = $5,
	reference     = $6,
	location      = $7,
	starts_at     = $8,
	ends_at       = $9,
	duration      = $10,
	display_order = $11,
	visible       = $12,
	updated_at    = now()
	WHERE id = $1 AND masjid_id = $2 AND archived_at IS NULL
	RETURNING ` + contentColumns + `;`

	if err := s.db.GetContext(ctx, &out, q,
		c.ID, c.MasjidID, c.Title, c.Body, c.ImageURL, c.Reference, c.Location,
		c.StartsAt, c.EndsAt, c.Duration, c.DisplayOrder, c.Visible,
	); err != nil {
		return model.Content{}, notFound(err, fmt.Sprintf("content %d", c.ID))
	}
	return out, nil
}

// ArchiveContent soft-deletes an item.
func (s *pgStore) ArchiveContent(ctx context.Context, masjidID, id int) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE content_items
		SET archived_at = now(), updated_at = now()
		WHERE id = $1 AND masjid_id = $2 AND archived_at IS NULL;`, id, masjidID)
	if err != nil {
		log.Error().Err(err).Int("content_id", id).Msg("[db] ArchiveContent: exec failed")
		return err
	}
	return expectOneRow(res, fmt.Sprintf("content %d", id))
}

func (s *pgStore) SetContentVisibility(ctx context.Context, masjidID, id int, visible bool) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE content_items
		SET visible = $3, updated_at = now()
		WHERE id = $1 AND masjid_id = $2 AND archived_at IS NULL;`, id, masjidID, visible)
	if err != nil {
		log.Error().Err(err).Int("content_id", id).Msg("[db] SetContentVisibility: exec failed")
		return err
	}
	return expectOneRow(res, fmt.Sprintf("content %d", id))
}

// ReorderContent assigns display_order 1..n following ids. Every id must be
// a live item of the given kind; otherwise nothing changes.
func (s *pgStore) ReorderContent(ctx context.Context, masjidID int, kind string, ids []int) (err error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				log.Warn().Err(rbErr).Msg("[db] ReorderContent: rollback failed")
			}
			return
		}
		err = tx.Commit()
	}()

	for idx, id := range ids {
		res, execErr := tx.ExecContext(ctx, `
			UPDATE content_items
			   SET display_order = $1, updated_at = now()
			 WHERE id = $2
			   AND masjid_id = $3
			   AND kind = $4
			   AND archived_at IS NULL;`, idx+1, id, masjidID, kind)
		if execErr != nil {
			return execErr
		}
		if err = expectOneRow(res, fmt.Sprintf("content %d", id)); err != nil {
			return err
		}
	}
	return nil
}
