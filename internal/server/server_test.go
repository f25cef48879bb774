package server

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/sheetviz-cli/internal/analysis"
	"github.com/KaramelBytes/sheetviz-cli/internal/auth"
	"github.com/KaramelBytes/sheetviz-cli/internal/store"
)

func newTestServer(t *testing.T, maxUpload int64) *httptest.Server {
	t.Helper()
	st, err := store.NewFileStore(t.TempDir())
	require.NoError(t, err)
	iss, err := auth.NewIssuer("test-secret", time.Hour)
	require.NoError(t, err)
	h, err := NewHandler(Options{Store: st, Issuer: iss, MaxUploadBytes: maxUpload})
	require.NoError(t, err)
	srv := httptest.NewServer(h.Router())
	t.Cleanup(srv.Close)
	return srv
}

func do(t *testing.T, method, url, token string, body any) (*http.Response, map[string]any) {
	t.Helper()
	var rdr *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rdr = bytes.NewReader(b)
	} else {
		rdr = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, url, rdr)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	var out map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp, out
}

func uploadRequest(t *testing.T, url, token, field, name, content string) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile(field, name)
	require.NoError(t, err)
	_, err = fw.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	req, err := http.NewRequest(http.MethodPost, url+"/api/uploads", &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func registerAndLogin(t *testing.T, url, user string) string {
	t.Helper()
	resp, body := do(t, http.MethodPost, url+"/api/register", "", map[string]string{"username": user, "password": "pa$$"})
	require.Equal(t, http.StatusCreated, resp.StatusCode, body)
	resp, body = do(t, http.MethodPost, url+"/api/login", "", map[string]string{"username": user, "password": "pa$$"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, user, body["userId"])
	tok, _ := body["token"].(string)
	require.NotEmpty(t, tok)
	return tok
}

func TestRootAndRegistrationRules(t *testing.T) {
	srv := newTestServer(t, 0)

	resp, err := http.Get(srv.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()
	var sb strings.Builder
	_, _ = sb.ReadFrom(resp.Body)
	assert.Equal(t, "API is running.", sb.String())

	resp2, body := do(t, http.MethodPost, srv.URL+"/api/register", "", map[string]string{"username": "alice!", "password": "pa$$"})
	assert.Equal(t, http.StatusBadRequest, resp2.StatusCode)
	assert.Equal(t, "Username must include at least one number", body["message"])

	resp2, body = do(t, http.MethodPost, srv.URL+"/api/register", "", map[string]string{"username": "alice1!", "password": "plain"})
	assert.Equal(t, http.StatusBadRequest, resp2.StatusCode)
	assert.Equal(t, "Password must contain at least one special character", body["message"])

	registerAndLogin(t, srv.URL, "alice1!")
	resp2, body = do(t, http.MethodPost, srv.URL+"/api/register", "", map[string]string{"username": "alice1!", "password": "pa$$"})
	assert.Equal(t, http.StatusBadRequest, resp2.StatusCode)
	assert.Equal(t, "User already exists", body["message"])

	resp2, body = do(t, http.MethodPost, srv.URL+"/api/login", "", map[string]string{"username": "alice1!", "password": "wrong!"})
	assert.Equal(t, http.StatusUnauthorized, resp2.StatusCode)
	assert.Equal(t, "Invalid credentials", body["message"])
}

func TestUploadLifecycle(t *testing.T) {
	srv := newTestServer(t, 0)
	tok := registerAndLogin(t, srv.URL, "bob2@")
	other := registerAndLogin(t, srv.URL, "eve3#")

	resp, body := do(t, http.MethodGet, srv.URL+"/api/uploads", "", nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "No token provided", body["message"])
	resp, body = do(t, http.MethodGet, srv.URL+"/api/uploads", "nope", nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "Invalid token", body["message"])

	up := uploadRequest(t, srv.URL, tok, "file", "sales.csv", "Region,Sales\nNorth,10\nSouth,\n")
	defer up.Body.Close()
	require.Equal(t, http.StatusCreated, up.StatusCode)
	var created UploadResponse
	require.NoError(t, json.NewDecoder(up.Body).Decode(&created))
	assert.Equal(t, "Upload saved", created.Message)
	assert.Equal(t, "sales.csv", created.Upload.FileName)
	assert.Equal(t, analysis.Number(10), created.Upload.Data[1][1])
	id := created.Upload.ID

	listResp, err := http.NewRequest(http.MethodGet, srv.URL+"/api/uploads", nil)
	require.NoError(t, err)
	listResp.Header.Set("Authorization", tok)
	lr, err := http.DefaultClient.Do(listResp)
	require.NoError(t, err)
	defer lr.Body.Close()
	var list []store.Upload
	require.NoError(t, json.NewDecoder(lr.Body).Decode(&list))
	require.Len(t, list, 1)
	assert.Equal(t, id, list[0].ID)
	assert.Nil(t, list[0].Data)

	resp, body = do(t, http.MethodGet, srv.URL+"/api/uploads/"+id, tok, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "sales.csv", body["fileName"])
	assert.Equal(t, []any{"Region", "Sales"}, body["data"].([]any)[0])

	resp, body = do(t, http.MethodGet, srv.URL+"/api/uploads/"+id, other, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "Upload not found", body["message"])

	resp, _ = do(t, http.MethodDelete, srv.URL+"/api/uploads/"+id, other, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp, body = do(t, http.MethodDelete, srv.URL+"/api/uploads/"+id, tok, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Upload deleted", body["message"])

	resp, body = do(t, http.MethodDelete, srv.URL+"/api/account", tok, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Account and uploads deleted", body["message"])
	resp, _ = do(t, http.MethodPost, srv.URL+"/api/login", "", map[string]string{"username": "bob2@", "password": "pa$$"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestUploadRejections(t *testing.T) {
	srv := newTestServer(t, 64)
	tok := registerAndLogin(t, srv.URL, "carl4!")

	missing := uploadRequest(t, srv.URL, tok, "other", "a.csv", "a,b\n")
	defer missing.Body.Close()
	assert.Equal(t, http.StatusBadRequest, missing.StatusCode)

	unsupported := uploadRequest(t, srv.URL, tok, "file", "a.pdf", "%PDF")
	defer unsupported.Body.Close()
	assert.Equal(t, http.StatusBadRequest, unsupported.StatusCode)

	big := uploadRequest(t, srv.URL, tok, "file", "big.csv", strings.Repeat("x,y\n", 100))
	defer big.Body.Close()
	assert.Equal(t, http.StatusRequestEntityTooLarge, big.StatusCode)
}

func TestSetMaxUploadBytes(t *testing.T) {
	st, err := store.NewFileStore(t.TempDir())
	require.NoError(t, err)
	iss, err := auth.NewIssuer("test-secret", time.Hour)
	require.NoError(t, err)
	h, err := NewHandler(Options{Store: st, Issuer: iss})
	require.NoError(t, err)
	assert.EqualValues(t, 5<<20, h.MaxUploadBytes())
	h.SetMaxUploadBytes(1 << 20)
	assert.EqualValues(t, 1<<20, h.MaxUploadBytes())
	h.SetMaxUploadBytes(0)
	assert.EqualValues(t, 1<<20, h.MaxUploadBytes())
}
