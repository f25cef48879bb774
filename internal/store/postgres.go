package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/KaramelBytes/sheetviz-cli/internal/analysis"
)

// Postgres stores users and uploads in PostgreSQL; table data lives in a JSONB column.
type Postgres struct {
	db *sqlx.DB
}

// OpenPostgres connects to dsn and runs Migrate.
func OpenPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	if dsn == "" {
		return nil, errors.New("database_url is required for the postgres store")
	}
	db, err := sqlx.ConnectContext(ctx, "postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	p := NewPostgres(db)
	if err := p.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return p, nil
}

// NewPostgres wraps an existing connection.
func NewPostgres(db *sqlx.DB) *Postgres {
	return &Postgres{db: db}
}

// Migrate creates the users and uploads tables when missing.
func (p *Postgres) Migrate(ctx context.Context) error {
	if _, err := p.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS users (
			id UUID PRIMARY KEY,
			username VARCHAR(100) UNIQUE NOT NULL,
			password_hash TEXT NOT NULL,
			created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		)
	`); err != nil {
		return fmt.Errorf("create users table: %w", err)
	}
	if _, err := p.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS uploads (
			id UUID PRIMARY KEY,
			user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			file_name TEXT NOT NULL,
			data JSONB NOT NULL,
			upload_date TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		)
	`); err != nil {
		return fmt.Errorf("create uploads table: %w", err)
	}
	if _, err := p.db.ExecContext(ctx, `CREATE INDEX IF NOT EXISTS idx_uploads_user_id ON uploads(user_id)`); err != nil {
		return fmt.Errorf("create uploads index: %w", err)
	}
	return nil
}

type uploadRow struct {
	ID         string    `db:"id"`
	UserID     string    `db:"user_id"`
	FileName   string    `db:"file_name"`
	Data       []byte    `db:"data"`
	UploadDate time.Time `db:"upload_date"`
}

func (r uploadRow) toUpload() (*Upload, error) {
	up := &Upload{ID: r.ID, UserID: r.UserID, FileName: r.FileName, UploadDate: r.UploadDate}
	if len(r.Data) > 0 {
		var t analysis.RawTable
		if err := json.Unmarshal(r.Data, &t); err != nil {
			return nil, fmt.Errorf("decode upload data: %w", err)
		}
		up.Data = t
	}
	return up, nil
}

func (p *Postgres) CreateUser(ctx context.Context, u *User) error {
	u.ID = uuid.NewString()
	u.CreatedAt = time.Now().UTC()
	_, err := p.db.NamedExecContext(ctx, `
		INSERT INTO users (id, username, password_hash, created_at)
		VALUES (:id, :username, :password_hash, :created_at)
	`, u)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" { // unique_violation
			return ErrUserExists
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (p *Postgres) UserByUsername(ctx context.Context, username string) (*User, error) {
	var u User
	err := p.db.GetContext(ctx, &u, `
		SELECT id, username, password_hash, created_at
		FROM users
		WHERE username = $1
	`, username)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select user: %w", err)
	}
	return &u, nil
}

// DeleteUser relies on ON DELETE CASCADE to drop the user's uploads.
func (p *Postgres) DeleteUser(ctx context.Context, id string) error {
	if !validID(id) {
		return ErrNotFound
	}
	res, err := p.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return requireAffected(res)
}

func (p *Postgres) SaveUpload(ctx context.Context, up *Upload) error {
	data, err := json.Marshal(up.Data)
	if err != nil {
		return fmt.Errorf("encode upload data: %w", err)
	}
	up.ID = uuid.NewString()
	up.UploadDate = time.Now().UTC()
	row := uploadRow{ID: up.ID, UserID: up.UserID, FileName: up.FileName, Data: data, UploadDate: up.UploadDate}
	if _, err := p.db.NamedExecContext(ctx, `
		INSERT INTO uploads (id, user_id, file_name, data, upload_date)
		VALUES (:id, :user_id, :file_name, :data, :upload_date)
	`, row); err != nil {
		return fmt.Errorf("insert upload: %w", err)
	}
	return nil
}

func (p *Postgres) ListUploads(ctx context.Context, userID string) ([]Upload, error) {
	if !validID(userID) {
		return []Upload{}, nil
	}
	var rows []uploadRow
	if err := p.db.SelectContext(ctx, &rows, `
		SELECT id, user_id, file_name, upload_date
		FROM uploads
		WHERE user_id = $1
		ORDER BY upload_date ASC
	`, userID); err != nil {
		return nil, fmt.Errorf("select uploads: %w", err)
	}
	out := make([]Upload, 0, len(rows))
	for _, r := range rows {
		out = append(out, Upload{ID: r.ID, UserID: r.UserID, FileName: r.FileName, UploadDate: r.UploadDate})
	}
	return out, nil
}

func (p *Postgres) GetUpload(ctx context.Context, id, userID string) (*Upload, error) {
	if !validID(id) || !validID(userID) {
		return nil, ErrNotFound
	}
	var r uploadRow
	err := p.db.GetContext(ctx, &r, `
		SELECT id, user_id, file_name, data, upload_date
		FROM uploads
		WHERE id = $1 AND user_id = $2
	`, id, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select upload: %w", err)
	}
	return r.toUpload()
}

func (p *Postgres) DeleteUpload(ctx context.Context, id, userID string) error {
	if !validID(id) || !validID(userID) {
		return ErrNotFound
	}
	res, err := p.db.ExecContext(ctx, `DELETE FROM uploads WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("delete upload: %w", err)
	}
	return requireAffected(res)
}

func (p *Postgres) Close() error { return p.db.Close() }

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
