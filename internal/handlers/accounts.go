package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/fmeta/backend/internal/accounts"
	"github.com/fmeta/backend/internal/logging"
	"github.com/fmeta/backend/internal/models"
)

// AccountHandler serves registration, login and profile endpoints.
type AccountHandler struct {
	Accounts AccountService
}

type registerRequest struct {
	Name     string `json:"name" validate:"required,max=100"`
	Username string `json:"username" validate:"required,max=50"`
	Password string `json:"password" validate:"required"`
	Email    string `json:"email" validate:"omitempty,email"`
	Phone    string `json:"phone" validate:"omitempty,max=32"`
}

type loginRequest struct {
	Identifier string `json:"identifier" validate:"required"`
	Password   string `json:"password" validate:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

type profileUpdateRequest struct {
	Name               *string `json:"name" validate:"omitempty,max=100"`
	Bio                *string `json:"bio" validate:"omitempty,max=500"`
	RelationshipStatus *string `json:"relationshipStatus"`
}

// accountResponse is the public form of an account. Credentials and
// verification state never leave the server.
type accountResponse struct {
	ID                 string    `json:"id"`
	Name               string    `json:"name"`
	Username           string    `json:"username"`
	Email              string    `json:"email,omitempty"`
	Phone              string    `json:"phone,omitempty"`
	Bio                string    `json:"bio"`
	RelationshipStatus string    `json:"relationshipStatus"`
	IsEmailVerified    bool      `json:"isEmailVerified"`
	FollowersCount     int       `json:"followersCount"`
	FollowingCount     int       `json:"followingCount"`
	PostsCount         int       `json:"postsCount"`
	CreatedAt          time.Time `json:"createdAt"`
}

func newAccountResponse(a models.Account) accountResponse {
	return accountResponse{
		ID:                 a.ID,
		Name:               a.Name,
		Username:           a.Username,
		Email:              a.Email,
		Phone:              a.Phone,
		Bio:                a.Bio,
		RelationshipStatus: string(a.RelationshipStatus),
		IsEmailVerified:    a.Verified,
		FollowersCount:     len(a.Followers),
		FollowingCount:     len(a.Following),
		PostsCount:         len(a.Posts),
		CreatedAt:          a.CreatedAt,
	}
}

type profileResponse struct {
	accountResponse
	Followers []accounts.AccountSummary `json:"followers"`
	Following []accounts.AccountSummary `json:"following"`
}

func newProfileResponse(p accounts.Profile) profileResponse {
	resp := profileResponse{
		accountResponse: newAccountResponse(p.Account),
		Followers:       p.Followers,
		Following:       p.Following,
	}
	resp.FollowersCount = p.FollowerCount
	resp.FollowingCount = p.FollowingCount
	resp.PostsCount = p.PostCount
	if resp.Followers == nil {
		resp.Followers = []accounts.AccountSummary{}
	}
	if resp.Following == nil {
		resp.Following = []accounts.AccountSummary{}
	}
	return resp
}

type authResponse struct {
	Success         bool            `json:"success"`
	Message         string          `json:"message"`
	User            accountResponse `json:"user"`
	Token           string          `json:"token,omitempty"`
	RefreshToken    string          `json:"refreshToken,omitempty"`
	AlreadyVerified bool            `json:"alreadyVerified,omitempty"`
}

type tokenResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	models.SessionTokens
}

// Register implements POST /api/auth/register.
func (h AccountHandler) Register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req registerRequest
	if err := decodeRequest(w, r, &req); err != nil {
		respondError(ctx, w, err)
		return
	}

	result, err := h.Accounts.Register(ctx, accounts.RegisterInput{
		Name:     req.Name,
		Username: req.Username,
		Password: req.Password,
		Email:    req.Email,
		Phone:    req.Phone,
	})
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	resp := authResponse{
		Success: true,
		Message: "User registered successfully",
		User:    newAccountResponse(result.Account),
	}
	if result.VerificationRequired {
		resp.Message = "User registered successfully. Please check your email to verify your account."
	}
	if result.Tokens != nil {
		resp.Token = result.Tokens.AccessToken
		resp.RefreshToken = result.Tokens.RefreshToken
	}

	respondJSON(ctx, w, http.StatusCreated, resp)
}

// VerifyEmail implements GET /api/auth/verify-email?token=...
func (h AccountHandler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	result, err := h.Accounts.VerifyEmail(ctx, r.URL.Query().Get("token"))
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	resp := authResponse{
		Success:         true,
		Message:         "Email verified successfully. You can now log in.",
		User:            newAccountResponse(result.Account),
		AlreadyVerified: result.AlreadyVerified,
	}
	if result.AlreadyVerified {
		resp.Message = "Email is already verified"
	}

	respondJSON(ctx, w, http.StatusOK, resp)
}

// Login implements POST /api/auth/login.
func (h AccountHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req loginRequest
	if err := decodeRequest(w, r, &req); err != nil {
		respondError(ctx, w, err)
		return
	}

	result, err := h.Accounts.Login(ctx, req.Identifier, req.Password)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, authResponse{
		Success:      true,
		Message:      "Login successful",
		User:         newAccountResponse(result.Account),
		Token:        result.Tokens.AccessToken,
		RefreshToken: result.Tokens.RefreshToken,
	})
}

// Refresh implements POST /api/auth/refresh.
func (h AccountHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req refreshRequest
	if err := decodeRequest(w, r, &req); err != nil {
		respondError(ctx, w, err)
		return
	}

	tokens, err := h.Accounts.Refresh(ctx, req.RefreshToken)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, tokenResponse{
		Success:       true,
		Message:       "Token refreshed successfully",
		SessionTokens: tokens,
	})
}

// Logout implements POST /api/auth/logout.
func (h AccountHandler) Logout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req refreshRequest
	if err := decodeRequest(w, r, &req); err != nil {
		respondError(ctx, w, err)
		return
	}

	if err := h.Accounts.Logout(ctx, req.RefreshToken); err != nil {
		respondError(ctx, w, err)
		return
	}

	respondMessage(ctx, w, http.StatusOK, "Logout successful")
}

// Me implements GET /api/auth/profile.
func (h AccountHandler) Me(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	account, err := h.Accounts.Me(ctx, logging.AccountIDFromContext(ctx))
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]any{
		"success": true,
		"user":    newAccountResponse(account),
	})
}

// UpdateProfile implements PATCH /api/auth/profile.
func (h AccountHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req profileUpdateRequest
	if err := decodeRequest(w, r, &req); err != nil {
		respondError(ctx, w, err)
		return
	}

	account, err := h.Accounts.UpdateProfile(ctx, logging.AccountIDFromContext(ctx), accounts.ProfileUpdate{
		Name:               req.Name,
		Bio:                req.Bio,
		RelationshipStatus: req.RelationshipStatus,
	})
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Profile updated successfully",
		"user":    newAccountResponse(account),
	})
}

// Profile implements GET /api/auth/users/{userId}.
func (h AccountHandler) Profile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	profile, err := h.Accounts.Profile(ctx, chi.URLParam(r, "userId"))
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]any{
		"success": true,
		"user":    newProfileResponse(profile),
	})
}

// Search implements GET /api/auth/users/search?q=...
func (h AccountHandler) Search(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	query := strings.TrimSpace(r.URL.Query().Get("q"))
	found, err := h.Accounts.Search(ctx, query)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	users := make([]accountResponse, 0, len(found))
	for _, account := range found {
		users = append(users, newAccountResponse(account))
	}

	respondJSON(ctx, w, http.StatusOK, map[string]any{
		"success": true,
		"users":   users,
		"count":   len(users),
	})
}
