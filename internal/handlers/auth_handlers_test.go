package handlers_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"snowbasin-backend/internal/config"
	"snowbasin-backend/internal/handlers"
	"snowbasin-backend/internal/models"
	"snowbasin-backend/internal/services"
	"snowbasin-backend/internal/store/storetest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAuthHandler() *handlers.AuthHandler {
	cfg := &config.Config{
		JWTSecret:       "test-secret",
		TokenExpiration: time.Hour,
	}
	return handlers.NewAuthHandler(services.NewAuthService(storetest.New(), cfg))
}

func postAuth(t *testing.T, h http.HandlerFunc, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h(rr, req)
	return rr
}

func TestHandleSignup(t *testing.T) {
	h := newAuthHandler()

	rr := postAuth(t, h.HandleSignup, "/v1/auth/signup", `{"email":"Skier@Example.com","password":"hunter22"}`)
	require.Equal(t, http.StatusCreated, rr.Code)

	var resp models.AuthResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.AccessToken)
	assert.Equal(t, "skier@example.com", resp.User.Email)
}

func TestHandleSignupDuplicateEmail(t *testing.T) {
	h := newAuthHandler()

	rr := postAuth(t, h.HandleSignup, "/v1/auth/signup", `{"email":"dup@example.com","password":"pw123456"}`)
	require.Equal(t, http.StatusCreated, rr.Code)

	rr = postAuth(t, h.HandleSignup, "/v1/auth/signup", `{"email":"dup@example.com","password":"different"}`)
	assert.Equal(t, http.StatusConflict, rr.Code)
}

func TestHandleSignupValidation(t *testing.T) {
	h := newAuthHandler()

	for _, body := range []string{
		`{"email":"","password":"pw"}`,
		`{"email":"a@b.com","password":""}`,
	} {
		rr := postAuth(t, h.HandleSignup, "/v1/auth/signup", body)
		assert.Equal(t, http.StatusBadRequest, rr.Code, "body: %s", body)
	}
}

func TestHandleLogin(t *testing.T) {
	h := newAuthHandler()

	rr := postAuth(t, h.HandleSignup, "/v1/auth/signup", `{"email":"rider@example.com","password":"secretpw"}`)
	require.Equal(t, http.StatusCreated, rr.Code)

	rr = postAuth(t, h.HandleLogin, "/v1/auth/login", `{"email":"rider@example.com","password":"secretpw"}`)
	require.Equal(t, http.StatusOK, rr.Code)

	var resp models.AuthResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.AccessToken)

	// Wrong password and unknown user both yield the same 401.
	rr = postAuth(t, h.HandleLogin, "/v1/auth/login", `{"email":"rider@example.com","password":"wrong"}`)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = postAuth(t, h.HandleLogin, "/v1/auth/login", `{"email":"nobody@example.com","password":"secretpw"}`)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}
