package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/KaramelBytes/sheetviz-cli/internal/utils"
)

// FileStore keeps one JSON document per user and per upload on disk.
type FileStore struct {
	mu  sync.RWMutex
	dir string
}

// NewFileStore creates the users/ and uploads/ directories under dir.
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		return nil, errors.New("store directory not set")
	}
	for _, sub := range []string{"users", "uploads"} {
		if err := utils.EnsureDir(filepath.Join(dir, sub)); err != nil {
			return nil, fmt.Errorf("ensure dir: %w", err)
		}
	}
	return &FileStore{dir: dir}, nil
}

// Dir returns the root directory.
func (s *FileStore) Dir() string { return s.dir }

func (s *FileStore) userPath(id string) string {
	return filepath.Join(s.dir, "users", id+".json")
}

func (s *FileStore) uploadPath(id string) string {
	return filepath.Join(s.dir, "uploads", id+".json")
}

const metaSuffix = ".meta.json"

// metaPath is the listing document of an upload: everything but the table.
func (s *FileStore) metaPath(id string) string {
	return filepath.Join(s.dir, "uploads", id+metaSuffix)
}

type uploadMeta struct {
	ID         string    `json:"_id"`
	FileName   string    `json:"fileName"`
	UserID     string    `json:"userId"`
	UploadDate time.Time `json:"uploadDate"`
}

func (s *FileStore) removeUpload(id string) error {
	if err := os.Remove(s.metaPath(id)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove upload: %w", err)
	}
	if err := os.Remove(s.uploadPath(id)); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ErrNotFound
		}
		return fmt.Errorf("remove upload: %w", err)
	}
	return nil
}

func writeJSON(path string, v any) error {
	data, err := utils.PrettyJSON(v)
	if err != nil {
		return err
	}
	return utils.SafeWriteFile(path, data)
}

func readJSON(path string, v any) error {
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ErrNotFound
		}
		return fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	if err := json.Unmarshal(b, v); err != nil {
		return fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	return nil
}

// validID rejects ids that could escape the store directory.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// listDir returns the files of sub whose names end in suffix.
func (s *FileStore) listDir(sub, suffix string) ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(s.dir, sub))
	if err != nil {
		return nil, fmt.Errorf("read %s dir: %w", sub, err)
	}
	var paths []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), suffix) {
			continue
		}
		paths = append(paths, filepath.Join(s.dir, sub, e.Name()))
	}
	return paths, nil
}

func (s *FileStore) findUser(username string) (*User, error) {
	paths, err := s.listDir("users", ".json")
	if err != nil {
		return nil, err
	}
	for _, p := range paths {
		var u User
		if err := readJSON(p, &u); err != nil {
			return nil, err
		}
		if u.Username == username {
			return &u, nil
		}
	}
	return nil, ErrNotFound
}

func (s *FileStore) CreateUser(_ context.Context, u *User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.findUser(u.Username); err == nil {
		return ErrUserExists
	} else if !errors.Is(err, ErrNotFound) {
		return err
	}
	u.ID = uuid.NewString()
	u.CreatedAt = time.Now().UTC()
	return writeJSON(s.userPath(u.ID), u)
}

func (s *FileStore) UserByUsername(_ context.Context, username string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.findUser(username)
}

func (s *FileStore) DeleteUser(ctx context.Context, id string) error {
	if !validID(id) {
		return ErrNotFound
	}
	uploads, err := s.ListUploads(ctx, id)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, up := range uploads {
		if err := s.removeUpload(up.ID); err != nil && !errors.Is(err, ErrNotFound) {
			return err
		}
	}
	if err := os.Remove(s.userPath(id)); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ErrNotFound
		}
		return fmt.Errorf("remove user: %w", err)
	}
	return nil
}

func (s *FileStore) SaveUpload(_ context.Context, up *Upload) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	up.ID = uuid.NewString()
	up.UploadDate = time.Now().UTC()
	if err := writeJSON(s.uploadPath(up.ID), up); err != nil {
		return err
	}
	// Written last so a listed upload always has its table on disk.
	return writeJSON(s.metaPath(up.ID), uploadMeta{
		ID:         up.ID,
		FileName:   up.FileName,
		UserID:     up.UserID,
		UploadDate: up.UploadDate,
	})
}

// ListUploads returns the caller's uploads without table data, oldest first.
// Only the metadata documents are read.
func (s *FileStore) ListUploads(_ context.Context, userID string) ([]Upload, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	paths, err := s.listDir("uploads", metaSuffix)
	if err != nil {
		return nil, err
	}
	out := []Upload{}
	for _, p := range paths {
		var m uploadMeta
		if err := readJSON(p, &m); err != nil {
			return nil, err
		}
		if m.UserID != userID {
			continue
		}
		out = append(out, Upload{ID: m.ID, FileName: m.FileName, UserID: m.UserID, UploadDate: m.UploadDate})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].UploadDate.Before(out[j].UploadDate) })
	return out, nil
}

func (s *FileStore) GetUpload(_ context.Context, id, userID string) (*Upload, error) {
	if !validID(id) {
		return nil, ErrNotFound
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var up Upload
	if err := readJSON(s.uploadPath(id), &up); err != nil {
		return nil, err
	}
	if up.UserID != userID {
		return nil, ErrNotFound
	}
	return &up, nil
}

func (s *FileStore) DeleteUpload(ctx context.Context, id, userID string) error {
	if _, err := s.GetUpload(ctx, id, userID); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.removeUpload(id)
}

func (s *FileStore) Close() error { return nil }
