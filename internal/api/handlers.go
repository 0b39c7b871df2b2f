package api

import (
	"errors"
	"net/http"

	"chatroom-backend/internal/chat"
	"chatroom-backend/internal/config"
	"chatroom-backend/internal/middleware"
	"chatroom-backend/internal/models"

	"github.com/gin-gonic/gin"
)

type Server struct {
	store  *chat.Store
	config *config.Config
}

func NewServer(store *chat.Store, cfg *config.Config) *Server {
	return &Server{
		store:  store,
		config: cfg,
	}
}

// respondStoreError maps the store's typed errors onto HTTP status codes.
// Anything unrecognized is an internal error.
func respondStoreError(c *gin.Context, err error) {
	var verr *chat.ValidationError
	if errors.As(err, &verr) {
		c.JSON(http.StatusBadRequest, gin.H{"errors": verr.Fields})
		return
	}

	switch {
	case errors.Is(err, chat.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case errors.Is(err, chat.ErrAccountDisabled),
		errors.Is(err, chat.ErrNotReceiver),
		errors.Is(err, chat.ErrNotAuthor),
		errors.Is(err, chat.ErrNotAMember),
		errors.Is(err, chat.ErrNotGroupAdmin):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, chat.ErrUnknownUser),
		errors.Is(err, chat.ErrUnknownGroup),
		errors.Is(err, chat.ErrUnknownMessage):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, chat.ErrDuplicateUsername),
		errors.Is(err, chat.ErrAlreadyMember),
		errors.Is(err, chat.ErrGroupFull),
		errors.Is(err, chat.ErrGroupInactive):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, chat.ErrNoActiveSession):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

// Auth handlers

func (s *Server) Register(c *gin.Context) {
	var req models.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.Password != req.PasswordConfirmation {
		c.JSON(http.StatusBadRequest, gin.H{"error": "passwords don't match"})
		return
	}

	ctx := c.Request.Context()
	user, err := s.store.CreateUser(ctx, chat.CreateUserParams{
		Username:    req.Username,
		Email:       req.Email,
		Password:    req.Password,
		DisplayName: req.DisplayName,
	})
	if err != nil {
		respondStoreError(c, err)
		return
	}

	token, err := s.store.IssueToken(ctx, user.ID)
	if err != nil {
		respondStoreError(c, err)
		return
	}

	c.JSON(http.StatusCreated, models.LoginResponse{
		Message: "User registered successfully",
		User:    *user,
		Token:   token,
	})
}

func (s *Server) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	user, err := s.store.Authenticate(ctx, req.Username, req.Password)
	if err != nil {
		respondStoreError(c, err)
		return
	}

	// Get-or-create: a second login returns the same token.
	token, err := s.store.IssueToken(ctx, user.ID)
	if err != nil {
		respondStoreError(c, err)
		return
	}

	if err := s.store.UpdatePresence(ctx, user.ID, models.StatusOnline); err != nil {
		respondStoreError(c, err)
		return
	}
	user.Status = models.StatusOnline

	c.JSON(http.StatusOK, models.LoginResponse{
		Message: "Login successful",
		User:    *user,
		Token:   token,
	})
}

func (s *Server) Logout(c *gin.Context) {
	userID := middleware.MustUserID(c)
	ctx := c.Request.Context()

	if err := s.store.RevokeToken(ctx, userID); err != nil {
		respondStoreError(c, err)
		return
	}

	// Best effort; the session is already gone.
	_ = s.store.UpdatePresence(ctx, userID, models.StatusOffline)

	c.JSON(http.StatusOK, gin.H{"message": "Logout successful"})
}

// Profile handlers

func (s *Server) GetProfile(c *gin.Context) {
	user, err := s.store.GetUser(c.Request.Context(), middleware.MustUserID(c))
	if err != nil {
		respondStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (s *Server) UpdateProfile(c *gin.Context) {
	var req models.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := s.store.UpdateProfile(c.Request.Context(), middleware.MustUserID(c), req)
	if err != nil {
		respondStoreError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Profile updated successfully",
		"user":    user,
	})
}

func (s *Server) ChangePassword(c *gin.Context) {
	var req models.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err := s.store.ChangePassword(c.Request.Context(), middleware.MustUserID(c), req.OldPassword, req.NewPassword)
	if err != nil {
		respondStoreError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Password updated successfully"})
}

func (s *Server) DeleteAccount(c *gin.Context) {
	if err := s.store.DeleteUser(c.Request.Context(), middleware.MustUserID(c)); err != nil {
		respondStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Account deleted successfully"})
}
