package db

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/masjidboard/internal/model"
)

const userColumns = `id, email, hashed_password, name, created_at, updated_at`

// @ USERS
func (s *pgStore) CreateUser(ctx context.Context, email, hashedPassword string, name *string) (int, error) {
	var id int
	err := s.db.GetContext(ctx, &id, `
	INSERT INTO users (email, hashed_password, name, created_at, updated_at)
	VALUES ($1, $2, $3, now(), now())
	RETURNING id;`, email, hashedPassword, name)
	if err != nil {
		log.Error().Err(err).Str("email", email).Msg("[db] CreateUser: insert failed")
		return 0, conflict(err, fmt.Sprintf("email %q", email))
	}
	return id, nil
}

func (s *pgStore) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	var u model.User
	q := `SELECT ` + userColumns + ` FROM users WHERE lower(email) = lower($1);`
	if err := s.db.GetContext(ctx, &u, q, email); err != nil {
		return nil, notFound(err, fmt.Sprintf("user %q", email))
	}
	return &u, nil
}

func (s *pgStore) GetUserByID(ctx context.Context, id int) (*model.User, error) {
	var u model.User
	q := `SELECT ` + userColumns + ` FROM users WHERE id = $1;`
	if err := s.db.GetContext(ctx, &u, q, id); err != nil {
		return nil, notFound(err, fmt.Sprintf("user %d", id))
	}
	return &u, nil
}

// UpdateUserProfile rewrites email and display name.
func (s *pgStore) UpdateUserProfile(ctx context.Context, id int, email string, name *string) error {
	res, err := s.db.ExecContext(ctx, `
	UPDATE users
	   SET email = $2, name = $3, updated_at = now()
	 WHERE id = $1;`, id, email, name)
	if err != nil {
		log.Error().Err(err).Int("user_id", id).Msg("[db] UpdateUserProfile: exec failed")
		return conflict(err, fmt.Sprintf("email %q", email))
	}
	return expectOneRow(res, fmt.Sprintf("user %d", id))
}
