package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/KaramelBytes/sheetviz-cli/internal/auth"
	"github.com/KaramelBytes/sheetviz-cli/internal/parser"
	"github.com/KaramelBytes/sheetviz-cli/internal/store"
)

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse is returned by POST /api/login. UserID carries the username,
// which clients display as the account name.
type LoginResponse struct {
	Token  string `json:"token"`
	UserID string `json:"userId"`
}

// UploadResponse is returned by POST /api/uploads.
type UploadResponse struct {
	Message string       `json:"message"`
	Upload  store.Upload `json:"upload"`
}

func decodeCredentials(w http.ResponseWriter, r *http.Request) (credentials, bool) {
	var c credentials
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&c); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid JSON")
		return c, false
	}
	return c, true
}

// Register creates an account after checking the username and password rules.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	c, ok := decodeCredentials(w, r)
	if !ok {
		return
	}
	if err := auth.ValidateRegistration(c.Username, c.Password); err != nil {
		writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}
	hash, err := auth.HashPassword(c.Password)
	if err != nil {
		h.log.Error("hash password", "err", err)
		writeMessage(w, http.StatusInternalServerError, "Registration failed")
		return
	}
	err = h.store.CreateUser(r.Context(), &store.User{Username: c.Username, PasswordHash: hash})
	switch {
	case errors.Is(err, store.ErrUserExists):
		writeMessage(w, http.StatusBadRequest, "User already exists")
	case err != nil:
		h.log.Error("create user", "err", err)
		writeMessage(w, http.StatusInternalServerError, "Registration failed")
	default:
		h.log.Info("user registered", "username", c.Username)
		writeMessage(w, http.StatusCreated, "User registered successfully")
	}
}

// Login exchanges credentials for a signed token.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	c, ok := decodeCredentials(w, r)
	if !ok {
		return
	}
	u, err := h.store.UserByUsername(r.Context(), c.Username)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		h.log.Error("lookup user", "err", err)
		writeMessage(w, http.StatusInternalServerError, "Login failed")
		return
	}
	if u == nil || auth.CheckPassword(u.PasswordHash, c.Password) != nil {
		writeMessage(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}
	tok, err := h.issuer.Issue(u.ID)
	if err != nil {
		h.log.Error("issue token", "err", err)
		writeMessage(w, http.StatusInternalServerError, "Login failed")
		return
	}
	writeJSON(w, http.StatusOK, LoginResponse{Token: tok, UserID: u.Username})
}

// CreateUpload parses the first sheet of the multipart "file" field and stores it.
func (h *Handler) CreateUpload(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserID(r.Context())
	limit := h.maxUpload.Load()
	r.Body = http.MaxBytesReader(w, r.Body, limit+(1<<20))
	if err := r.ParseMultipartForm(limit); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeMessage(w, http.StatusRequestEntityTooLarge, "File too large")
			return
		}
		writeMessage(w, http.StatusBadRequest, "No file uploaded")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "No file uploaded")
		return
	}
	defer file.Close()
	if header.Size > limit {
		writeMessage(w, http.StatusRequestEntityTooLarge, "File too large")
		return
	}
	content, err := io.ReadAll(file)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "No file uploaded")
		return
	}
	table, err := parser.Parse(header.Filename, content)
	if errors.Is(err, parser.ErrUnsupported) {
		writeMessage(w, http.StatusBadRequest, "Unsupported file type")
		return
	}
	if err != nil {
		h.log.Warn("parse upload", "file", header.Filename, "err", err)
		writeMessage(w, http.StatusInternalServerError, "Upload failed")
		return
	}
	up := store.Upload{FileName: header.Filename, UserID: userID, Data: table}
	if err := h.store.SaveUpload(r.Context(), &up); err != nil {
		h.log.Error("save upload", "err", err)
		writeMessage(w, http.StatusInternalServerError, "Upload failed")
		return
	}
	h.log.Info("upload saved", "id", up.ID, "file", up.FileName, "rows", len(up.Data))
	writeJSON(w, http.StatusCreated, UploadResponse{Message: "Upload saved", Upload: up})
}

// ListUploads returns upload metadata for the caller.
func (h *Handler) ListUploads(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserID(r.Context())
	uploads, err := h.store.ListUploads(r.Context(), userID)
	if err != nil {
		h.log.Error("list uploads", "err", err)
		writeMessage(w, http.StatusInternalServerError, "Error fetching uploads")
		return
	}
	writeJSON(w, http.StatusOK, uploads)
}

// GetUpload returns one upload including its table data.
func (h *Handler) GetUpload(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserID(r.Context())
	up, err := h.store.GetUpload(r.Context(), chi.URLParam(r, "id"), userID)
	if errors.Is(err, store.ErrNotFound) {
		writeMessage(w, http.StatusNotFound, "Upload not found")
		return
	}
	if err != nil {
		h.log.Error("get upload", "err", err)
		writeMessage(w, http.StatusInternalServerError, "Error fetching upload")
		return
	}
	writeJSON(w, http.StatusOK, up)
}

// DeleteUpload removes one of the caller's uploads.
func (h *Handler) DeleteUpload(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserID(r.Context())
	err := h.store.DeleteUpload(r.Context(), chi.URLParam(r, "id"), userID)
	if errors.Is(err, store.ErrNotFound) {
		writeMessage(w, http.StatusNotFound, "Upload not found")
		return
	}
	if err != nil {
		h.log.Error("delete upload", "err", err)
		writeMessage(w, http.StatusInternalServerError, "Error deleting upload")
		return
	}
	writeMessage(w, http.StatusOK, "Upload deleted")
}

// DeleteAccount removes the caller and all of their uploads.
func (h *Handler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserID(r.Context())
	if err := h.store.DeleteUser(r.Context(), userID); err != nil && !errors.Is(err, store.ErrNotFound) {
		h.log.Error("delete account", "err", err)
		writeMessage(w, http.StatusInternalServerError, "Account deletion failed")
		return
	}
	writeMessage(w, http.StatusOK, "Account and uploads deleted")
}
