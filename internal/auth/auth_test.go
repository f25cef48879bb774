package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateRegistration(t *testing.T) {
	cases := []struct {
		user, pass string
		ok         bool
	}{
		{"ada1!", "pw!", true},
		{"ada!", "pw!", false},
		{"ada1", "pw!", false},
		{"ada1!", "password", false},
		{"", "pw!", false},
	}
	for _, tc := range cases {
		err := ValidateRegistration(tc.user, tc.pass)
		if tc.ok {
			assert.NoError(t, err, tc.user)
		} else {
			var verr *ValidationError
			assert.ErrorAs(t, err, &verr, tc.user)
		}
	}
}

func TestPasswordHashing(t *testing.T) {
	h, err := HashPassword("s3cret!")
	require.NoError(t, err)
	assert.NoError(t, CheckPassword(h, "s3cret!"))
	assert.ErrorIs(t, CheckPassword(h, "wrong"), ErrInvalidCredentials)
}

func TestIssuerRoundTripAndExpiry(t *testing.T) {
	iss, err := NewIssuer("secret", time.Hour)
	require.NoError(t, err)
	base := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	iss.now = func() time.Time { return base }

	tok, err := iss.Issue("user-1")
	require.NoError(t, err)
	id, err := iss.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, "user-1", id)

	iss.now = func() time.Time { return base.Add(2 * time.Hour) }
	_, err = iss.Verify(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)

	other, err := NewIssuer("other", time.Hour)
	require.NoError(t, err)
	other.now = func() time.Time { return base }
	_, err = other.Verify(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = NewIssuer("", time.Hour)
	assert.Error(t, err)
}

func TestMiddleware(t *testing.T) {
	iss, err := NewIssuer("secret", time.Hour)
	require.NoError(t, err)
	tok, err := iss.Issue("user-1")
	require.NoError(t, err)

	deny := func(w http.ResponseWriter, status int, msg string) { http.Error(w, msg, status) }
	h := iss.Middleware(deny)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := UserID(r.Context())
		require.True(t, ok)
		_, _ = w.Write([]byte(id))
	}))

	for _, header := range []string{tok, "Bearer " + tok} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", header)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "user-1", rec.Body.String())
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "No token provided")

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "garbage")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "Invalid token")
}
