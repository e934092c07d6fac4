package controllers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"foodmarket/database"
	"foodmarket/middleware"
	"foodmarket/models"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"
)

func (h *Controller) Register(c *gin.Context) {
	var input struct {
		Name     string           `json:"name" binding:"required"`
		Email    string           `json:"email" binding:"required,email"`
		Password string           `json:"password" binding:"required,min=6"`
		Role     string           `json:"role"`
		Location *models.Location `json:"location"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		h.fail(c, http.StatusBadRequest, "Invalid input", nil)
		return
	}

	role := input.Role
	if role == "" {
		role = models.RoleBuyer
	}
	if role != models.RoleBuyer && role != models.RoleSeller {
		h.fail(c, http.StatusBadRequest, "Invalid role", nil)
		return
	}

	ctx, cancel := h.ctx(c)
	defer cancel()

	email := strings.ToLower(strings.TrimSpace(input.Email))
	if _, err := h.Users.FindByEmail(ctx, email); err == nil {
		h.fail(c, http.StatusConflict, "Email already registered", nil)
		return
	} else if !errors.Is(err, database.ErrNotFound) {
		h.fail(c, http.StatusInternalServerError, "Failed to register", err)
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		h.fail(c, http.StatusInternalServerError, "Failed to register", err)
		return
	}

	user := models.User{
		ID:          primitive.NewObjectID(),
		Name:        strings.TrimSpace(input.Name),
		Email:       email,
		Password:    string(hashed),
		Role:        role,
		Preferences: []string{},
		Location:    input.Location,
		CreatedAt:   time.Now(),
	}
	if err := h.Users.Create(ctx, &user); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			h.fail(c, http.StatusConflict, "Email already registered", nil)
			return
		}
		h.fail(c, http.StatusInternalServerError, "Failed to register", err)
		return
	}

	h.Log.Info("user registered", "user_id", user.ID.Hex(), "role", user.Role)
	c.JSON(http.StatusCreated, gin.H{
		"message": "User registered successfully",
		"user":    user.Public(),
	})
}

func (h *Controller) Login(c *gin.Context) {
	var input struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		h.fail(c, http.StatusBadRequest, "Invalid input", nil)
		return
	}

	ctx, cancel := h.ctx(c)
	defer cancel()

	user, err := h.Users.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(input.Email)))
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			h.fail(c, http.StatusUnauthorized, "Invalid email or password", nil)
			return
		}
		h.fail(c, http.StatusInternalServerError, "Failed to log in", err)
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(input.Password)); err != nil {
		h.fail(c, http.StatusUnauthorized, "Invalid email or password", nil)
		return
	}

	token, err := h.Tokens.Issue(user)
	if err != nil {
		h.fail(c, http.StatusInternalServerError, "Failed to log in", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Login successful",
		"token":   token,
		"user":    user.Public(),
	})
}

func (h *Controller) Logout(c *gin.Context) {
	token := c.GetString(middleware.CtxToken)
	claims, _ := c.Get(middleware.CtxClaims)
	expiresAt := time.Now().Add(h.Tokens.TTL)
	if cl, ok := claims.(middleware.Claims); ok {
		expiresAt = cl.ExpiresAt
	}

	ctx, cancel := h.ctx(c)
	defer cancel()

	if err := h.Revoker.Revoke(ctx, token, expiresAt); err != nil {
		h.fail(c, http.StatusInternalServerError, "Failed to log out", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Logged out successfully"})
}

func (h *Controller) AddPreferences(c *gin.Context) {
	userID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		h.fail(c, http.StatusBadRequest, "Invalid user id", nil)
		return
	}
	if caller, ok := callerID(c); !ok || caller != userID {
		h.fail(c, http.StatusForbidden, "You can only edit your own preferences", nil)
		return
	}

	var input struct {
		UserPreferences []string `json:"userPreferences" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		h.fail(c, http.StatusBadRequest, "Invalid input", nil)
		return
	}
	prefs := make([]string, 0, len(input.UserPreferences))
	for _, p := range input.UserPreferences {
		if p = strings.TrimSpace(p); p != "" {
			prefs = append(prefs, p)
		}
	}
	if len(prefs) == 0 {
		h.fail(c, http.StatusBadRequest, "At least one preference is required", nil)
		return
	}

	ctx, cancel := h.ctx(c)
	defer cancel()

	user, err := h.Users.AddPreferences(ctx, userID, prefs)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			h.fail(c, http.StatusNotFound, "User not found", nil)
			return
		}
		h.fail(c, http.StatusInternalServerError, "Failed to update preferences", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Preferences updated", "user": user.Public()})
}
