package auth_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/ayush/microblog/internal/auth"
	"github.com/ayush/microblog/internal/middleware"
	"github.com/ayush/microblog/internal/models"
	"github.com/ayush/microblog/internal/store"
	"github.com/ayush/microblog/internal/web"
)

// memUsers is an in-memory credential store with the same contract as
// the Postgres one: validation, unique emails, bcrypt hashes.
type memUsers struct {
	byEmail map[string]*models.User
	nextID  int
}

func newMemUsers() *memUsers {
	return &memUsers{byEmail: make(map[string]*models.User)}
}

func (m *memUsers) CreateUser(_ context.Context, params models.SignupParams) (*models.User, error) {
	if errs := params.Validate(); errs != nil {
		return nil, errs
	}
	if _, ok := m.byEmail[params.Email]; ok {
		return nil, store.ErrEmailTaken
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(params.Password), bcrypt.MinCost)
	if err != nil {
		return nil, err
	}
	m.nextID++
	u := &models.User{
		ID:           fmt.Sprintf("user-%d", m.nextID),
		Name:         params.Name,
		Email:        params.Email,
		PasswordHash: string(hash),
		CreatedAt:    time.Now(),
	}
	m.byEmail[params.Email] = u
	return u, nil
}

func (m *memUsers) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	u, ok := m.byEmail[email]
	if !ok {
		return nil, store.ErrUserNotFound
	}
	return u, nil
}

func (m *memUsers) GetUserByID(_ context.Context, id string) (*models.User, error) {
	for _, u := range m.byEmail {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, store.ErrUserNotFound
}

func (m *memUsers) VerifyPassword(u *models.User, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil
}

type memSessions struct {
	tokens map[string]string
}

func newMemSessions() *memSessions {
	return &memSessions{tokens: make(map[string]string)}
}

func (m *memSessions) Create(_ context.Context, userID string) (string, error) {
	token := uuid.New().String()
	m.tokens[token] = userID
	return token, nil
}

func (m *memSessions) Get(_ context.Context, token string) (string, error) {
	return m.tokens[token], nil
}

func (m *memSessions) Delete(_ context.Context, token string) error {
	delete(m.tokens, token)
	return nil
}

// newTestApp wires the auth handler and request gate the way
// cmd/server does, with a stub home page behind the gate.
func newTestApp(t *testing.T) (*memUsers, *memSessions, http.Handler) {
	t.Helper()
	users := newMemUsers()
	sessions := newMemSessions()
	h := auth.NewHandler(users, sessions, web.NewRenderer())
	requireAuth := middleware.RequireAuth(sessions)

	r := chi.NewRouter()
	r.Get("/signup", h.SignupForm)
	r.Post("/users", h.Signup)
	r.Get("/login", h.LoginForm)
	r.Post("/login", h.Login)
	r.Post("/logout", h.Logout)
	r.With(requireAuth).Get("/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, "home for %s", auth.UserID(r.Context()))
	})
	r.With(requireAuth).Get("/api/auth/me", h.Me)
	return users, sessions, r
}

func formRequest(path string, form url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func sessionCookie(t *testing.T, res *http.Response) *http.Cookie {
	t.Helper()
	for _, c := range res.Cookies() {
		if c.Name == auth.SessionCookie && c.MaxAge >= 0 {
			return c
		}
	}
	return nil
}

func signup(t *testing.T, app http.Handler, name, email, password string) *http.Cookie {
	t.Helper()
	rec := httptest.NewRecorder()
	app.ServeHTTP(rec, formRequest("/users", url.Values{
		"name":                  {name},
		"email":                 {email},
		"password":              {password},
		"password_confirmation": {password},
	}))
	require.Equal(t, http.StatusSeeOther, rec.Code)
	cookie := sessionCookie(t, rec.Result())
	require.NotNil(t, cookie)
	return cookie
}

func TestSignupLogsInAndRedirects(t *testing.T) {
	users, sessions, app := newTestApp(t)

	rec := httptest.NewRecorder()
	app.ServeHTTP(rec, formRequest("/users", url.Values{
		"name":                  {"Alice"},
		"email":                 {"a@example.com"},
		"password":              {"secret123"},
		"password_confirmation": {"secret123"},
	}))

	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Equal(t, "/", rec.Header().Get("Location"))

	cookie := sessionCookie(t, rec.Result())
	require.NotNil(t, cookie)

	u, err := users.GetUserByEmail(context.Background(), "a@example.com")
	require.NoError(t, err)
	require.Equal(t, u.ID, sessions.tokens[cookie.Value])
	require.NotEqual(t, "secret123", u.PasswordHash)
}

func TestSignupPasswordMismatch(t *testing.T) {
	users, _, app := newTestApp(t)

	rec := httptest.NewRecorder()
	app.ServeHTTP(rec, formRequest("/users", url.Values{
		"name":                  {"Alice"},
		"email":                 {"a@example.com"},
		"password":              {"secret123"},
		"password_confirmation": {"different"},
	}))

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	require.Contains(t, rec.Body.String(), "doesn&#39;t match password")

	_, err := users.GetUserByEmail(context.Background(), "a@example.com")
	require.ErrorIs(t, err, store.ErrUserNotFound)
}

func TestSignupDuplicateEmail(t *testing.T) {
	users, _, app := newTestApp(t)
	signup(t, app, "Alice", "a@example.com", "secret123")

	rec := httptest.NewRecorder()
	app.ServeHTTP(rec, formRequest("/users", url.Values{
		"name":                  {"Impostor"},
		"email":                 {"a@example.com"},
		"password":              {"other456"},
		"password_confirmation": {"other456"},
	}))

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	require.Contains(t, rec.Body.String(), "has already been taken")

	u, err := users.GetUserByEmail(context.Background(), "a@example.com")
	require.NoError(t, err)
	require.Equal(t, "Alice", u.Name)
}

func TestLoginSuccessReachesProtectedPage(t *testing.T) {
	_, _, app := newTestApp(t)
	signup(t, app, "Alice", "a@example.com", "secret123")

	rec := httptest.NewRecorder()
	app.ServeHTTP(rec, formRequest("/login", url.Values{
		"email":    {"a@example.com"},
		"password": {"secret123"},
	}))
	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Equal(t, "/", rec.Header().Get("Location"))

	cookie := sessionCookie(t, rec.Result())
	require.NotNil(t, cookie)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Accept", "text/html")
	req.AddCookie(cookie)
	rec = httptest.NewRecorder()
	app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "home for user-1")
}

func TestLoginWrongPasswordStaysAnonymous(t *testing.T) {
	_, sessions, app := newTestApp(t)
	signup(t, app, "Alice", "a@example.com", "secret123")
	before := len(sessions.tokens)

	rec := httptest.NewRecorder()
	app.ServeHTTP(rec, formRequest("/login", url.Values{
		"email":    {"a@example.com"},
		"password": {"wrong"},
	}))

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	require.Contains(t, rec.Body.String(), "Invalid email or password")
	require.Nil(t, sessionCookie(t, rec.Result()))
	require.Len(t, sessions.tokens, before)
}

func TestLoginBlankFields(t *testing.T) {
	_, _, app := newTestApp(t)

	rec := httptest.NewRecorder()
	app.ServeHTTP(rec, formRequest("/login", url.Values{"password": {"secret123"}}))
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	require.Contains(t, rec.Body.String(), "email can&#39;t be blank")

	rec = httptest.NewRecorder()
	app.ServeHTTP(rec, formRequest("/login", url.Values{"email": {"a@example.com"}}))
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	require.Contains(t, rec.Body.String(), "password can&#39;t be blank")
}

func TestLoginReplacesExistingSession(t *testing.T) {
	_, sessions, app := newTestApp(t)
	signup(t, app, "Alice", "a@example.com", "secret123")
	sessions.tokens["stale-token"] = "user-1"

	req := formRequest("/login", url.Values{
		"email":    {"a@example.com"},
		"password": {"secret123"},
	})
	req.AddCookie(&http.Cookie{Name: auth.SessionCookie, Value: "stale-token"})
	rec := httptest.NewRecorder()
	app.ServeHTTP(rec, req)

	require.Equal(t, http.StatusSeeOther, rec.Code)
	_, stale := sessions.tokens["stale-token"]
	require.False(t, stale)

	cookie := sessionCookie(t, rec.Result())
	require.NotNil(t, cookie)
	require.NotEqual(t, "stale-token", cookie.Value)
}

func TestLogoutEndsSession(t *testing.T) {
	_, sessions, app := newTestApp(t)
	cookie := signup(t, app, "Alice", "a@example.com", "secret123")

	req := httptest.NewRequest(http.MethodPost, "/logout", nil)
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()
	app.ServeHTTP(rec, req)

	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Equal(t, "/login", rec.Header().Get("Location"))
	require.Empty(t, sessions.tokens)

	// The old token no longer opens the protected page.
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Accept", "text/html")
	req.AddCookie(cookie)
	rec = httptest.NewRecorder()
	app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Equal(t, "/login", rec.Header().Get("Location"))
}

func TestEntryPointsReachableWhileAnonymous(t *testing.T) {
	_, _, app := newTestApp(t)

	for _, path := range []string{"/signup", "/login"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.Header.Set("Accept", "text/html")
		rec := httptest.NewRecorder()
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, path)
	}
}

func TestMeReturnsCurrentUser(t *testing.T) {
	_, _, app := newTestApp(t)
	cookie := signup(t, app, "Alice", "a@example.com", "secret123")

	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()
	app.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"email":"a@example.com"`)
	require.NotContains(t, rec.Body.String(), "password")
}
