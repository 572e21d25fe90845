package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/krailo/recipe-api/internal/httputil"
	"github.com/krailo/recipe-api/internal/logging"
	"github.com/krailo/recipe-api/internal/user"
)

// fakeUserStore is an in-memory user.Store so the handlers run against the
// real user service.
type fakeUserStore struct {
	nextID  int64
	byEmail map[string]*user.User
	byID    map[int64]*user.User
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{
		nextID:  1,
		byEmail: make(map[string]*user.User),
		byID:    make(map[int64]*user.User),
	}
}

func (f *fakeUserStore) Create(_ context.Context, u *user.User) (*user.User, error) {
	if _, exists := f.byEmail[u.Email]; exists {
		return nil, user.ErrDuplicateEmail
	}
	stored := *u
	stored.ID = f.nextID
	f.nextID++
	f.byEmail[stored.Email] = &stored
	f.byID[stored.ID] = &stored
	return &stored, nil
}

func (f *fakeUserStore) GetByEmail(_ context.Context, email string) (*user.User, error) {
	u, ok := f.byEmail[email]
	if !ok {
		return nil, user.ErrNotFound
	}
	copied := *u
	return &copied, nil
}

func (f *fakeUserStore) GetByID(_ context.Context, id int64) (*user.User, error) {
	u, ok := f.byID[id]
	if !ok {
		return nil, user.ErrNotFound
	}
	copied := *u
	return &copied, nil
}

func (f *fakeUserStore) Update(_ context.Context, u *user.User) (*user.User, error) {
	existing, ok := f.byID[u.ID]
	if !ok {
		return nil, user.ErrNotFound
	}
	existing.Name = u.Name
	existing.PasswordHash = u.PasswordHash
	copied := *existing
	return &copied, nil
}

// fakeLimiter counts calls and denies once the budget runs out.
type fakeLimiter struct {
	remaining int
	err       error
}

func (f *fakeLimiter) Allow(context.Context, string, string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	if f.remaining <= 0 {
		return false, nil
	}
	f.remaining--
	return true, nil
}

type handlerFixture struct {
	handler *Handler
	users   *user.Service
	tokens  *Service
}

func newHandlerFixture(limiter RateLimiter) *handlerFixture {
	logger := logging.NewLogger(true)
	userStore := newFakeUserStore()
	users := user.NewService(userStore, logger)
	tokens := NewService(users, newFakeTokenStore(), logger)
	return &handlerFixture{
		handler: NewHandler(users, tokens, limiter, logger),
		users:   users,
		tokens:  tokens,
	}
}

func postJSON(t *testing.T, h http.HandlerFunc, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

func TestCreateUserHandler(t *testing.T) {
	fx := newHandlerFixture(&fakeLimiter{remaining: 100})

	rec := postJSON(t, fx.handler.CreateUser, "/user/create",
		`{"email":"kate@EXAMPLE.com","password":"tr0ub4dor&3","name":"Kate"}`)

	require.Equal(t, http.StatusCreated, rec.Code)

	var body UserResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, int64(1), body.ID)
	assert.Equal(t, "kate@example.com", body.Email)
	assert.Equal(t, "Kate", body.Name)
	assert.NotContains(t, rec.Body.String(), "tr0ub4dor")
}

func TestCreateUserHandlerInvalidBody(t *testing.T) {
	fx := newHandlerFixture(&fakeLimiter{remaining: 100})

	rec := postJSON(t, fx.handler.CreateUser, "/user/create", `{"email": `)

	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var body httputil.ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, httputil.CodeInvalidRequestBody, body.Code)
}

func TestCreateUserHandlerValidation(t *testing.T) {
	fx := newHandlerFixture(&fakeLimiter{remaining: 100})

	rec := postJSON(t, fx.handler.CreateUser, "/user/create",
		`{"email":"not-an-email","password":"short"}`)

	require.Equal(t, http.StatusBadRequest, rec.Code)

	var body httputil.ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, httputil.CodeValidationFailed, body.Code)
	assert.Contains(t, body.Fields, "email")
	assert.Contains(t, body.Fields, "password")
}

func TestCreateUserHandlerDuplicateEmail(t *testing.T) {
	fx := newHandlerFixture(&fakeLimiter{remaining: 100})

	rec := postJSON(t, fx.handler.CreateUser, "/user/create",
		`{"email":"kate@example.com","password":"tr0ub4dor&3"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = postJSON(t, fx.handler.CreateUser, "/user/create",
		`{"email":"kate@example.com","password":"an0ther-g00d-one"}`)

	require.Equal(t, http.StatusBadRequest, rec.Code)

	var body httputil.ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, httputil.CodeValidationFailed, body.Code)
	assert.Contains(t, body.Fields, "email")
}

func TestCreateUserHandlerRateLimited(t *testing.T) {
	fx := newHandlerFixture(&fakeLimiter{remaining: 0})

	rec := postJSON(t, fx.handler.CreateUser, "/user/create",
		`{"email":"kate@example.com","password":"tr0ub4dor&3"}`)

	require.Equal(t, http.StatusTooManyRequests, rec.Code)

	var body httputil.ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, httputil.CodeTooManyRequests, body.Code)
}

func TestCreateUserHandlerLimiterFailsOpen(t *testing.T) {
	fx := newHandlerFixture(&fakeLimiter{err: assert.AnError})

	rec := postJSON(t, fx.handler.CreateUser, "/user/create",
		`{"email":"kate@example.com","password":"tr0ub4dor&3"}`)

	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestIssueTokenHandler(t *testing.T) {
	fx := newHandlerFixture(&fakeLimiter{remaining: 100})

	rec := postJSON(t, fx.handler.CreateUser, "/user/create",
		`{"email":"kate@example.com","password":"tr0ub4dor&3"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = postJSON(t, fx.handler.IssueToken, "/user/token",
		`{"email":"kate@example.com","password":"tr0ub4dor&3"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var first TokenResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&first))
	assert.Len(t, first.Token, 40)

	// Reissuing returns the same key.
	rec = postJSON(t, fx.handler.IssueToken, "/user/token",
		`{"email":"kate@example.com","password":"tr0ub4dor&3"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var second TokenResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&second))
	assert.Equal(t, first.Token, second.Token)
}

func TestIssueTokenHandlerBadCredentials(t *testing.T) {
	fx := newHandlerFixture(&fakeLimiter{remaining: 100})

	rec := postJSON(t, fx.handler.CreateUser, "/user/create",
		`{"email":"kate@example.com","password":"tr0ub4dor&3"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = postJSON(t, fx.handler.IssueToken, "/user/token",
		`{"email":"kate@example.com","password":"wrong"}`)

	require.Equal(t, http.StatusBadRequest, rec.Code)

	var body httputil.ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, httputil.CodeInvalidCredentials, body.Code)
}

func authedRequest(method, path, body string, userID int64) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	ctx := context.WithValue(req.Context(), UserIDContextKey, userID)
	return req.WithContext(ctx)
}

func TestMeHandler(t *testing.T) {
	fx := newHandlerFixture(&fakeLimiter{remaining: 100})

	created, err := fx.users.CreateUser(context.Background(), "kate@example.com", "tr0ub4dor&3", "Kate")
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	fx.handler.Me(rec, authedRequest(http.MethodGet, "/user/me", "", created.ID))

	require.Equal(t, http.StatusOK, rec.Code)

	var body ProfileResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "kate@example.com", body.Email)
	assert.Equal(t, "Kate", body.Name)
}

func TestMeHandlerWithoutIdentity(t *testing.T) {
	fx := newHandlerFixture(&fakeLimiter{remaining: 100})

	rec := httptest.NewRecorder()
	fx.handler.Me(rec, httptest.NewRequest(http.MethodGet, "/user/me", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestUpdateMeHandler(t *testing.T) {
	fx := newHandlerFixture(&fakeLimiter{remaining: 100})
	ctx := context.Background()

	created, err := fx.users.CreateUser(ctx, "kate@example.com", "tr0ub4dor&3", "Kate")
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	fx.handler.UpdateMe(rec, authedRequest(http.MethodPatch, "/user/me",
		`{"name":"Katherine","password":"an0ther-g00d-one"}`, created.ID))

	require.Equal(t, http.StatusOK, rec.Code)

	var body ProfileResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "Katherine", body.Name)

	// The new password is live immediately.
	_, err = fx.users.VerifyCredentials(ctx, "kate@example.com", "an0ther-g00d-one")
	assert.NoError(t, err)
}

func TestUpdateMeHandlerRejectsWeakPassword(t *testing.T) {
	fx := newHandlerFixture(&fakeLimiter{remaining: 100})

	created, err := fx.users.CreateUser(context.Background(), "kate@example.com", "tr0ub4dor&3", "Kate")
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	fx.handler.UpdateMe(rec, authedRequest(http.MethodPatch, "/user/me",
		`{"password":"short"}`, created.ID))

	require.Equal(t, http.StatusBadRequest, rec.Code)

	var body httputil.ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Contains(t, body.Fields, "password")
}

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{"forwarded chain", map[string]string{"X-Forwarded-For": "203.0.113.9, 10.0.0.1"}, "10.0.0.2:1234", "203.0.113.9"},
		{"real ip", map[string]string{"X-Real-IP": "203.0.113.9"}, "10.0.0.2:1234", "203.0.113.9"},
		{"remote addr", nil, "203.0.113.9:1234", "203.0.113.9"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, getClientIP(req))
		})
	}
}
