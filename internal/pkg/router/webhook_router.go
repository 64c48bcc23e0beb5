package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/HoangNamVo/Lumely/app/controllers"
)

type WebhookRouter struct {
}

func NewWebhookRouter() *WebhookRouter {
	return &WebhookRouter{}
}

// InstallRouter mounts provider callbacks outside the rate-limited API
// group. Retried deliveries must never be throttled.
func (h WebhookRouter) InstallRouter(app *fiber.App) {
	app.Post("/webhooks/lemonsqueezy", controllers.HandleLemonWebhook)
}
