package controller

import (
	"path/filepath"

	"studyroom-be/internal/config"
	"studyroom-be/internal/model"
	"studyroom-be/internal/pkg/serverutils"
	"studyroom-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

// StatusSource is the hub view of system status (live connection count included).
type StatusSource interface {
	SystemInfo() model.SystemInfo
}

type ISystemController interface {
	RegisterRoutes(r fiber.Router, sessionRequired fiber.Handler)
	Users(ctx *fiber.Ctx) error
	WsServers(ctx *fiber.Ctx) error
	ServerInfo(ctx *fiber.Ctx) error
	Version(ctx *fiber.Ctx) error
}

type systemController struct {
	cfg    *config.Config
	status StatusSource
	info   *service.SystemInfoService
}

func NewSystemController(cfg *config.Config, status StatusSource, info *service.SystemInfoService) ISystemController {
	return &systemController{cfg: cfg, status: status, info: info}
}

func (c *systemController) RegisterRoutes(r fiber.Router, sessionRequired fiber.Handler) {
	r.Get("/users", sessionRequired, c.Users)
	r.Get("/ws-servers", sessionRequired, c.WsServers)
	r.Get("/server-info", c.ServerInfo)
	r.Get("/version", c.Version)
}

func (c *systemController) Users(ctx *fiber.Ctx) error {
	users := c.cfg.Roster.Users
	if users == nil {
		users = []config.RosterUser{}
	}
	return ctx.JSON(fiber.Map{"users": users})
}

func (c *systemController) WsServers(ctx *fiber.Ctx) error {
	servers := c.cfg.Roster.WsServers
	if servers == nil {
		servers = []config.RosterWsServer{}
	}
	return ctx.JSON(fiber.Map{"servers": servers})
}

func (c *systemController) ServerInfo(ctx *fiber.Ctx) error {
	return ctx.JSON(struct {
		Type string `json:"type"`
		model.SystemInfo
	}{
		Type:       "API_SERVER",
		SystemInfo: c.status.SystemInfo(),
	})
}

func (c *systemController) Version(ctx *fiber.Ctx) error {
	return ctx.JSON(c.info.Version())
}

// StudyRoomPage guards the study room page behind the session cookie.
func StudyRoomPage(sessions serverutils.SessionValidator, cookieName, publicDir string) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		if !serverutils.HasSession(ctx, sessions, cookieName) {
			return ctx.Redirect("/login.html", fiber.StatusFound)
		}
		return ctx.SendFile(filepath.Join(publicDir, "studyroom.html"))
	}
}
