package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/sukritx/roommatebase/internal/config"
)

// NewApp builds the fiber application with body limits sized for image uploads.
func NewApp(cfg config.AppConfig) *fiber.App {
	fiberCfg := fiber.Config{
		AppName:               cfg.Name,
		DisableStartupMessage: true,
	}
	if cfg.BodyLimitBytes > 0 {
		fiberCfg.BodyLimit = cfg.BodyLimitBytes
	}
	return fiber.New(fiberCfg)
}
