// exposes a Store interface that is passed to API calls w/ param requirements
package db

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/Nixie-Tech-LLC/masjidboard/internal/model"
)

type Store interface {
	// user functions
	CreateUser(ctx context.Context, email, hashedPassword string, name *string) (int, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	GetUserByID(ctx context.Context, id int) (*model.User, error)
	UpdateUserProfile(ctx context.Context, id int, email string, name *string) error

	// masjid profile functions
	CreateMasjid(ctx context.Context, ownerID int, name, code string) (model.Masjid, error)
	GetMasjidByOwner(ctx context.Context, ownerID int) (model.Masjid, error)
	GetMasjidByCode(ctx context.Context, code string) (model.Masjid, error)
	UpdateMasjid(ctx context.Context, m model.Masjid) (model.Masjid, error)
	SetMasjidLogo(ctx context.Context, masjidID int, url string) error

	// settings functions
	GetSettings(ctx context.Context, masjidID int) (*model.Settings, error)
	SaveSettings(ctx context.Context, s model.Settings) (model.Settings, error)

	// content functions
	CreateContent(ctx context.Context, c model.Content) (model.Content, error)
	GetContent(ctx context.Context, masjidID, id int) (model.Content, error)
	ListContent(ctx context.Context, masjidID int, kind string, includeArchived bool) ([]model.Content, error)
	ListVisibleContent(ctx context.Context, masjidID int, kind string) ([]model.Content, error)
	UpdateContent(ctx context.Context, c model.Content) (model.Content, error)
	ArchiveContent(ctx context.Context, masjidID, id int) error
	SetContentVisibility(ctx context.Context, masjidID, id int, visible bool) error
	ReorderContent(ctx context.Context, masjidID int, kind string, ids []int) error
}

type pgStore struct {
	db *sqlx.DB
}

// compile-time check that pgStore implements Store
var _ Store = (*pgStore)(nil)

// NewStore wraps conn, or the package-level DB when conn is nil.
func NewStore(conn *sqlx.DB) Store {
	if conn == nil {
		conn = DB
	}
	return &pgStore{db: conn}
}
