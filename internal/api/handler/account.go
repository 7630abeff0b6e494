package handler

import (
	"context"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/saturnino-fabrica-de-software/emotune/internal/domain"
	"github.com/saturnino-fabrica-de-software/emotune/internal/service"
)

// AccountService interface for signup and login
type AccountService interface {
	Signup(ctx context.Context, username, password string) (*domain.User, error)
	Login(ctx context.Context, username, password string) (*service.Session, error)
}

type AccountHandler struct {
	service AccountService
	logger  *slog.Logger
}

func NewAccountHandler(service AccountService, logger *slog.Logger) *AccountHandler {
	return &AccountHandler{
		service: service,
		logger:  logger,
	}
}

// CredentialsRequest request body for signup and login
type CredentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// MessageResponse generic response carrying a message
type MessageResponse struct {
	Message string `json:"message"`
}

// LoginResponse response for login endpoint
type LoginResponse struct {
	Message  string `json:"message"`
	Token    string `json:"token"`
	Username string `json:"username"`
}

// Signup POST /signup
func (h *AccountHandler) Signup(c *fiber.Ctx) error {
	var req CredentialsRequest
	if err := c.BodyParser(&req); err != nil {
		return domain.ErrBadRequest.WithError(err)
	}

	if _, err := h.service.Signup(c.UserContext(), req.Username, req.Password); err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(MessageResponse{Message: "User created successfully"})
}

// Login POST /login
func (h *AccountHandler) Login(c *fiber.Ctx) error {
	var req CredentialsRequest
	if err := c.BodyParser(&req); err != nil {
		return domain.ErrBadRequest.WithError(err)
	}

	session, err := h.service.Login(c.UserContext(), req.Username, req.Password)
	if err != nil {
		return err
	}

	return c.JSON(LoginResponse{
		Message:  "Login successful",
		Token:    session.Token,
		Username: session.User.Username,
	})
}
