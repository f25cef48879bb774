package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/KaramelBytes/sheetviz-cli/internal/analysis"
)

var (
	// ErrNotFound is returned when a user or upload does not exist or belongs to someone else.
	ErrNotFound = errors.New("not found")
	// ErrUserExists is returned when registering a taken username.
	ErrUserExists = errors.New("user already exists")
)

// User is a registered account.
type User struct {
	ID           string    `json:"id" db:"id"`
	Username     string    `json:"username" db:"username"`
	PasswordHash string    `json:"passwordHash" db:"password_hash"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
}

// Upload is a parsed spreadsheet owned by a user. Listings leave Data nil.
type Upload struct {
	ID         string            `json:"_id"`
	FileName   string            `json:"fileName"`
	UserID     string            `json:"userId"`
	UploadDate time.Time         `json:"uploadDate"`
	Data       analysis.RawTable `json:"data,omitempty"`
}

// Store persists users and their uploads.
type Store interface {
	CreateUser(ctx context.Context, u *User) error
	UserByUsername(ctx context.Context, username string) (*User, error)
	// DeleteUser removes the user together with every upload they own.
	DeleteUser(ctx context.Context, id string) error

	SaveUpload(ctx context.Context, up *Upload) error
	ListUploads(ctx context.Context, userID string) ([]Upload, error)
	GetUpload(ctx context.Context, id, userID string) (*Upload, error)
	DeleteUpload(ctx context.Context, id, userID string) error

	Close() error
}

// Open returns the store selected by driver: "file" keeps JSON documents under
// dir, "postgres" connects to dsn and creates the schema when missing.
func Open(ctx context.Context, driver, dir, dsn string) (Store, error) {
	switch driver {
	case "", "file":
		return NewFileStore(dir)
	case "postgres":
		return OpenPostgres(ctx, dsn)
	default:
		return nil, fmt.Errorf("unknown store driver %q (want file or postgres)", driver)
	}
}
