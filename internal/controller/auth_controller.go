package controller

import (
	"errors"
	"time"

	"studyroom-be/internal/config"
	"studyroom-be/internal/dto"
	"studyroom-be/internal/pkg/logger"
	"studyroom-be/internal/pkg/serverutils"
	"studyroom-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IAuthController interface {
	RegisterRoutes(r fiber.Router)
	Login(ctx *fiber.Ctx) error
	Logout(ctx *fiber.Ctx) error
	AuthStatus(ctx *fiber.Ctx) error
}

type authController struct {
	service service.IAuthService
	cfg     *config.Config
	logger  logger.ILogger
}

func NewAuthController(service service.IAuthService, cfg *config.Config, log logger.ILogger) IAuthController {
	return &authController{service: service, cfg: cfg, logger: log}
}

func (c *authController) RegisterRoutes(r fiber.Router) {
	r.Post("/login", c.Login)
	r.Post("/logout", c.Logout)
	r.Get("/auth-status", c.AuthStatus)
}

func (c *authController) Login(ctx *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := ctx.BodyParser(&req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(fiber.StatusBadRequest, "Invalid secret key format"))
	}

	ip := ctx.IP()
	c.logger.Info("AuthController", "Login attempt", map[string]interface{}{"ip": ip})

	res, err := c.service.Login(ctx.UserContext(), ip, req.SecretKey)
	if err != nil {
		var locked *service.LockedOutError
		var invalid *service.InvalidSecretError
		switch {
		case errors.As(err, &locked):
			return ctx.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error":         "Too many login attempts",
				"remainingTime": locked.RemainingSeconds(),
			})
		case errors.Is(err, service.ErrInvalidSecretFormat):
			return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(fiber.StatusBadRequest, "Invalid secret key format"))
		case errors.As(err, &invalid):
			return ctx.Status(fiber.StatusUnauthorized).JSON(serverutils.ErrorResponse(fiber.StatusUnauthorized, invalid.Error()))
		}
		return err
	}

	ctx.Cookie(&fiber.Cookie{
		Name:     c.cfg.Security.CookieName,
		Value:    res.Token,
		Path:     "/",
		Expires:  res.ExpiresAt,
		HTTPOnly: true,
		Secure:   c.cfg.IsProduction(),
		SameSite: fiber.CookieSameSiteStrictMode,
	})

	return ctx.JSON(dto.LoginResponse{
		Message: "Login successful",
		Users:   c.cfg.Roster.Users,
	})
}

func (c *authController) Logout(ctx *fiber.Ctx) error {
	ctx.Cookie(&fiber.Cookie{
		Name:     c.cfg.Security.CookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		HTTPOnly: true,
		Secure:   c.cfg.IsProduction(),
		SameSite: fiber.CookieSameSiteStrictMode,
	})
	c.logger.Info("AuthController", "User logged out", map[string]interface{}{"ip": ctx.IP()})
	return ctx.JSON(fiber.Map{"message": "Logged out successfully"})
}

func (c *authController) AuthStatus(ctx *fiber.Ctx) error {
	return ctx.JSON(dto.AuthStatusResponse{
		Authenticated: serverutils.HasSession(ctx, c.service, c.cfg.Security.CookieName),
	})
}
