package handlers

import (
	"errors"

	"openchatllm-backend/internal/auth"
	"openchatllm-backend/internal/models"
	"openchatllm-backend/internal/repo"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const minPasswordLength = 6

type AuthHandler struct {
	users  repo.UserRepoInterface
	tokens *auth.TokenManager
}

func NewAuthHandler(users repo.UserRepoInterface, tokens *auth.TokenManager) *AuthHandler {
	return &AuthHandler{users: users, tokens: tokens}
}

type signupRequest struct {
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
	Password string `json:"password"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	Username    string `json:"username"`
}

func (h *AuthHandler) Signup(c *fiber.Ctx) error {
	var req signupRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if req.Username == "" || req.Password == "" {
		return fiber.NewError(fiber.StatusBadRequest, "Username and password are required")
	}

	if _, err := h.users.GetByUsername(req.Username); err == nil {
		return fiber.NewError(fiber.StatusBadRequest, "Username already taken")
	}
	if req.Email != "" {
		if _, err := h.users.GetByEmail(req.Email); err == nil {
			return fiber.NewError(fiber.StatusBadRequest, "Email already registered")
		}
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	email := req.Email
	if email == "" {
		email = req.Username + "@local"
	}
	user := &models.User{
		Username:         req.Username,
		Email:            email,
		HashedPassword:   string(hashed),
		BaseURLs:         models.DefaultBaseURLs(),
		SelectedProvider: "openai",
		SelectedModel:    "gpt-4o",
	}
	if err := h.users.Create(user); err != nil {
		return err
	}

	token, err := h.tokens.Issue(user.UUID)
	if err != nil {
		return err
	}
	return c.JSON(tokenResponse{AccessToken: token, TokenType: "bearer", Username: user.Username})
}

// Login accepts form-encoded credentials (username, password).
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	username := c.FormValue("username")
	password := c.FormValue("password")

	user, err := h.users.GetByUsername(username)
	if err != nil || bcrypt.CompareHashAndPassword([]byte(user.HashedPassword), []byte(password)) != nil {
		return fiber.NewError(fiber.StatusUnauthorized, "Incorrect username or password")
	}

	token, err := h.tokens.Issue(user.UUID)
	if err != nil {
		return err
	}
	return c.JSON(tokenResponse{AccessToken: token, TokenType: "bearer", Username: user.Username})
}

func (h *AuthHandler) CheckUsername(c *fiber.Ctx) error {
	username := c.Params("username")
	_, err := h.users.GetByUsername(username)
	available := errors.Is(err, gorm.ErrRecordNotFound)
	return c.JSON(fiber.Map{"available": available, "username": username})
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

func (h *AuthHandler) ChangePassword(c *fiber.Ctx) error {
	var req changePasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}

	user := auth.CurrentUser(c)
	if bcrypt.CompareHashAndPassword([]byte(user.HashedPassword), []byte(req.CurrentPassword)) != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Current password is incorrect")
	}
	if len(req.NewPassword) < minPasswordLength {
		return fiber.NewError(fiber.StatusBadRequest, "New password must be at least 6 characters")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	user.HashedPassword = string(hashed)
	if err := h.users.Save(user); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "Password changed successfully"})
}
