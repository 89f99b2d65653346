package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/ayush/microblog/internal/models"
	"github.com/ayush/microblog/internal/store"
	"github.com/ayush/microblog/internal/web"
)

// UserStore defines the interface for user persistence.
type UserStore interface {
	CredentialStore
	CreateUser(ctx context.Context, params models.SignupParams) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
}

// Handler holds the sign-up, login, and logout HTTP handlers.
type Handler struct {
	users    UserStore
	sessions Sessions
	view     *web.Renderer
}

func NewHandler(users UserStore, sessions Sessions, view *web.Renderer) *Handler {
	return &Handler{users: users, sessions: sessions, view: view}
}

// SignupForm renders the sign-up page (GET /signup).
func (h *Handler) SignupForm(w http.ResponseWriter, r *http.Request) {
	h.view.Render(w, http.StatusOK, "signup.html", web.SignupData{
		Notice: web.PopFlash(w, r),
	})
}

// Signup creates a user from the sign-up form (POST /users). On
// success the user is logged in immediately.
func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	params := models.SignupParams{
		Name:                 r.FormValue("name"),
		Email:                r.FormValue("email"),
		Password:             r.FormValue("password"),
		PasswordConfirmation: r.FormValue("password_confirmation"),
	}

	user, err := h.users.CreateUser(r.Context(), params)
	if err != nil {
		var fieldErrs models.FieldErrors
		switch {
		case errors.As(err, &fieldErrs):
		case errors.Is(err, store.ErrEmailTaken):
			fieldErrs = models.FieldErrors{"email": "has already been taken"}
		default:
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		h.view.Render(w, http.StatusUnprocessableEntity, "signup.html", web.SignupData{
			Errors: fieldErrs,
			Params: params,
		})
		return
	}

	if err := Begin(r.Context(), w, r, h.sessions, user.ID); err != nil {
		http.Error(w, "session creation failed", http.StatusInternalServerError)
		return
	}
	web.SetFlash(w, fmt.Sprintf("Thank you for signing up, %s!", user.Name))
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// LoginForm renders the login page (GET /login).
func (h *Handler) LoginForm(w http.ResponseWriter, r *http.Request) {
	h.view.Render(w, http.StatusOK, "login.html", web.LoginData{
		Notice: web.PopFlash(w, r),
	})
}

// Login authenticates the submitted credentials (POST /login).
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	creds := Credentials{
		Email:    r.FormValue("email"),
		Password: r.FormValue("password"),
	}

	userID, err := Authenticate(r.Context(), h.users, creds)
	if err != nil {
		alert := "Invalid email or password"
		switch {
		case errors.Is(err, ErrEmailBlank), errors.Is(err, ErrPasswordBlank):
			alert = err.Error()
		case errors.Is(err, ErrInvalidCredentials):
		default:
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		h.view.Render(w, http.StatusUnprocessableEntity, "login.html", web.LoginData{
			Alert: alert,
			Email: creds.Email,
		})
		return
	}

	if err := Begin(r.Context(), w, r, h.sessions, userID); err != nil {
		http.Error(w, "session creation failed", http.StatusInternalServerError)
		return
	}

	greeting := "Hello!"
	if user, err := h.users.GetUserByID(r.Context(), userID); err == nil {
		greeting = fmt.Sprintf("Hello, %s!", user.Name)
	}
	web.SetFlash(w, greeting)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// Logout destroys the current session and expires the cookie.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	End(r.Context(), w, r, h.sessions)
	web.SetFlash(w, "You have been logged out.")
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// Me returns the currently authenticated user (GET /api/auth/me).
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	userID := UserID(r.Context())
	if userID == "" {
		http.Error(w, `{"error":"not authenticated"}`, http.StatusUnauthorized)
		return
	}

	user, err := h.users.GetUserByID(r.Context(), userID)
	if err != nil {
		http.Error(w, `{"error":"user not found"}`, http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(user)
}
