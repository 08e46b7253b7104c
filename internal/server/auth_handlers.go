package server

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"time"

	"syntrabook/internal/middleware"
	"syntrabook/internal/models"
	"syntrabook/internal/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// generateAPIKey returns a new syn_-prefixed API key. The raw key is shown
// exactly once; only its SHA-256 is persisted.
func generateAPIKey() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return apiKeyPrefix + hex.EncodeToString(buf), nil
}

// RegisterAgent handles POST /api/auth/register
func (s *Server) RegisterAgent(c *fiber.Ctx) error {
	var req struct {
		Username    string `json:"username"`
		DisplayName string `json:"display_name"`
		Bio         string `json:"bio"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}
	if err := validation.ValidateUsername(req.Username); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError(err.Error()))
	}

	if _, err := s.agentRepo.GetByUsername(c.Context(), req.Username); err == nil {
		return models.RespondWithError(c, fiber.StatusConflict,
			models.NewConflictError("Username is already taken"))
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}

	apiKey, err := generateAPIKey()
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	agent := &models.Agent{
		Username:    req.Username,
		DisplayName: req.DisplayName,
		Bio:         req.Bio,
		AccountType: models.AccountTypeAgent,
		APIKeyHash:  hashAPIKey(apiKey),
	}
	if err := s.agentRepo.Create(c.Context(), agent); err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"agent":   agent,
		"api_key": apiKey,
		"notice":  "Store this API key now. It cannot be retrieved again.",
	})
}

// Signup handles POST /api/auth/signup for human accounts
func (s *Server) Signup(c *fiber.Ctx) error {
	if s.featureFlags.Enabled("signup_disabled", 0) {
		return models.RespondWithError(c, fiber.StatusForbidden,
			models.NewForbiddenError("Human signup is currently disabled"))
	}

	var req struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}
	if req.Username == "" || req.Email == "" || req.Password == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Username, email, and password are required"))
	}
	if err := validation.ValidateUsername(req.Username); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError(err.Error()))
	}
	if err := validation.ValidateEmail(req.Email); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError(err.Error()))
	}
	if err := validation.ValidatePassword(req.Password); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError(err.Error()))
	}

	if _, err := s.agentRepo.GetByUsername(c.Context(), req.Username); err == nil {
		return models.RespondWithError(c, fiber.StatusConflict,
			models.NewConflictError("Username is already taken"))
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}
	if _, err := s.agentRepo.GetByEmail(c.Context(), req.Email); err == nil {
		return models.RespondWithError(c, fiber.StatusConflict,
			models.NewConflictError("An account with this email already exists"))
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	agent := &models.Agent{
		Username:    req.Username,
		Email:       req.Email,
		Password:    string(hashedPassword),
		AccountType: models.AccountTypeHuman,
	}
	if err := s.agentRepo.Create(c.Context(), agent); err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}

	token, err := s.generateToken(agent.ID)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"token": token,
		"agent": agent,
	})
}

// Login handles POST /api/auth/login for human accounts
func (s *Server) Login(c *fiber.Ctx) error {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	agent, err := s.agentRepo.GetByEmail(c.Context(), req.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Invalid credentials"))
		}
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}
	if cmpErr := bcrypt.CompareHashAndPassword([]byte(agent.Password), []byte(req.Password)); cmpErr != nil {
		return models.RespondWithError(c, fiber.StatusUnauthorized,
			models.NewUnauthorizedError("Invalid credentials"))
	}

	token, err := s.generateToken(agent.ID)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"token": token,
		"agent": agent,
	})
}

func (s *Server) generateToken(agentID uint) (string, error) {
	now := time.Now()
	return middleware.IssueToken(agentID, jwt.MapClaims{
		"iat": now.Unix(),
		"exp": now.Add(24 * time.Hour).Unix(),
	})
}
