package store

import (
	"context"
	"database/sql/driver"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/sheetviz-cli/internal/analysis"
)

func sampleTable() analysis.RawTable {
	return analysis.RawTable{
		{analysis.Text("Region"), analysis.Text("Sales")},
		{analysis.Text("North"), analysis.Number(10)},
		{analysis.Text("South"), analysis.Empty()},
	}
}

// exerciseStore runs the behaviour every Store implementation must share.
func exerciseStore(t *testing.T, s Store) {
	ctx := context.Background()
	suffix := uuid.NewString()[:8]

	alice := &User{Username: "alice1!" + suffix, PasswordHash: "hash"}
	require.NoError(t, s.CreateUser(ctx, alice))
	require.NotEmpty(t, alice.ID)
	assert.ErrorIs(t, s.CreateUser(ctx, &User{Username: alice.Username, PasswordHash: "x"}), ErrUserExists)

	got, err := s.UserByUsername(ctx, alice.Username)
	require.NoError(t, err)
	assert.Equal(t, alice.ID, got.ID)
	assert.Equal(t, "hash", got.PasswordHash)
	_, err = s.UserByUsername(ctx, "nobody"+suffix)
	assert.ErrorIs(t, err, ErrNotFound)

	bob := &User{Username: "bob2@" + suffix, PasswordHash: "hash"}
	require.NoError(t, s.CreateUser(ctx, bob))

	first := &Upload{FileName: "a.xlsx", UserID: alice.ID, Data: sampleTable()}
	require.NoError(t, s.SaveUpload(ctx, first))
	second := &Upload{FileName: "b.csv", UserID: alice.ID, Data: sampleTable()}
	require.NoError(t, s.SaveUpload(ctx, second))
	require.NoError(t, s.SaveUpload(ctx, &Upload{FileName: "c.csv", UserID: bob.ID, Data: sampleTable()}))

	list, err := s.ListUploads(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "a.xlsx", list[0].FileName)
	assert.Nil(t, list[0].Data, "listings carry metadata only")

	up, err := s.GetUpload(ctx, first.ID, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, sampleTable(), up.Data)

	_, err = s.GetUpload(ctx, first.ID, bob.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.GetUpload(ctx, "../../etc/passwd", alice.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, s.DeleteUpload(ctx, first.ID, bob.ID), ErrNotFound)
	require.NoError(t, s.DeleteUpload(ctx, first.ID, alice.ID))
	_, err = s.GetUpload(ctx, first.ID, alice.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.DeleteUser(ctx, alice.ID))
	_, err = s.GetUpload(ctx, second.ID, alice.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.UserByUsername(ctx, alice.Username)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, s.DeleteUser(ctx, alice.ID), ErrNotFound)

	left, err := s.ListUploads(ctx, bob.ID)
	require.NoError(t, err)
	assert.Len(t, left, 1)
}

func TestFileStore(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	defer s.Close()
	exerciseStore(t, s)
}

func TestFileStoreListingSkipsTables(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileStore(dir)
	require.NoError(t, err)
	ctx := context.Background()

	up := &Upload{FileName: "big.csv", UserID: uuid.NewString(), Data: sampleTable()}
	require.NoError(t, s.SaveUpload(ctx, up))
	data := filepath.Join(dir, "uploads", up.ID+".json")
	meta := filepath.Join(dir, "uploads", up.ID+".meta.json")
	require.FileExists(t, meta)

	// A table that no longer decodes must not break listings.
	require.NoError(t, os.WriteFile(data, []byte("{not json"), 0o644))
	list, err := s.ListUploads(ctx, up.UserID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "big.csv", list[0].FileName)
	assert.True(t, up.UploadDate.Equal(list[0].UploadDate))
	_, err = s.GetUpload(ctx, up.ID, up.UserID)
	assert.Error(t, err)

	require.NoError(t, s.removeUpload(up.ID))
	assert.NoFileExists(t, meta)
	assert.NoFileExists(t, data)
	list, err = s.ListUploads(ctx, up.UserID)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestPostgresRowHelpers(t *testing.T) {
	raw, err := json.Marshal(sampleTable())
	require.NoError(t, err)
	up, err := uploadRow{ID: "id", UserID: "u", FileName: "a.csv", Data: raw}.toUpload()
	require.NoError(t, err)
	assert.Equal(t, sampleTable(), up.Data)

	up, err = uploadRow{ID: "id"}.toUpload()
	require.NoError(t, err)
	assert.Nil(t, up.Data)
	_, err = uploadRow{Data: []byte("{")}.toUpload()
	assert.Error(t, err)

	assert.NoError(t, requireAffected(driver.RowsAffected(1)))
	assert.ErrorIs(t, requireAffected(driver.RowsAffected(0)), ErrNotFound)
}

func TestOpenSelectsDriver(t *testing.T) {
	s, err := Open(context.Background(), "file", t.TempDir(), "")
	require.NoError(t, err)
	assert.IsType(t, &FileStore{}, s)

	_, err = Open(context.Background(), "mongo", t.TempDir(), "")
	assert.Error(t, err)
	_, err = Open(context.Background(), "postgres", "", "")
	assert.Error(t, err)
}

func TestPostgresStore(t *testing.T) {
	dsn := os.Getenv("SHEETVIZ_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("SHEETVIZ_TEST_DATABASE_URL not set")
	}
	s, err := OpenPostgres(context.Background(), dsn)
	require.NoError(t, err)
	defer s.Close()
	exerciseStore(t, s)
}
