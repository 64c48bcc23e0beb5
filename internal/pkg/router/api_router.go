package router

import (
	"net"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	redisstorage "github.com/gofiber/storage/redis"

	"github.com/HoangNamVo/Lumely/app/controllers"
	"github.com/HoangNamVo/Lumely/internal/pkg/cache"
	"github.com/HoangNamVo/Lumely/internal/pkg/middleware"
)

type ApiRouter struct {
}

func NewApiRouter() *ApiRouter {
	return &ApiRouter{}
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	api := app.Group("/api", limiter.New(limiter.Config{
		Max:        120,
		Expiration: 1 * time.Minute,
		Storage:    limiterStorage(),
	}))
	api.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
			"message": "Hello from api",
		})
	})

	v1 := api.Group("/v1")

	// Auth
	auth := v1.Group("/auth")
	auth.Post("/register", controllers.HandleRegister)
	auth.Post("/verify-email", controllers.HandleVerifyEmail)
	auth.Post("/resend-code", controllers.HandleResendCode)
	auth.Post("/login", controllers.HandleLogin)
	auth.Post("/logout", controllers.HandleLogout)
	auth.Get("/me", middleware.RequireAuth(), controllers.HandleMe)
	auth.Post("/oauth/logout", controllers.HandleOAuthLogout)
	// Social login. Registered last so the named routes above win.
	auth.Get("/:provider", controllers.HandleOAuthBegin)
	auth.Get("/:provider/callback", controllers.HandleOAuthCallback)

	// Public catalog and content
	v1.Get("/plans", controllers.HandleListPlans)
	v1.Get("/plans/:code", controllers.HandleGetPlan)
	v1.Get("/blog", controllers.HandleListBlogPosts)
	v1.Get("/blog/categories", controllers.HandleListBlogCategories)
	v1.Get("/blog/:slug", controllers.HandleGetBlogPost)
	v1.Get("/faqs", controllers.HandleListFAQs)

	// Authenticated account area
	me := v1.Group("/me", middleware.RequireAuth())
	me.Put("/profile", controllers.HandleUpdateProfile)
	me.Put("/password", controllers.HandleChangePassword)
	me.Post("/avatar", controllers.HandleUploadAvatar)
	me.Get("/subscription", controllers.HandleMySubscription)
	me.Get("/payments", controllers.HandleMyPayments)

	// Billing
	v1.Post("/billing/checkout", middleware.RequireAuth(), controllers.HandleCreateCheckout)

	// Support tickets
	tickets := v1.Group("/tickets", middleware.RequireAuth())
	tickets.Post("/", controllers.HandleCreateTicket)
	tickets.Get("/", controllers.HandleListMyTickets)
	tickets.Get("/:id", controllers.HandleGetTicket)
	tickets.Post("/:id/comments", controllers.HandleAddTicketComment)

	// Admin
	admin := v1.Group("/admin", middleware.RequireAuth(), middleware.RequireAdmin())
	admin.Get("/users", controllers.HandleListUsers)
	admin.Get("/users/:id", controllers.HandleGetUser)
	admin.Delete("/users/:id", controllers.HandleDeleteUser)
	admin.Get("/plans", controllers.HandleListAllPlans)
	admin.Post("/plans", controllers.HandleCreatePlan)
	admin.Put("/plans/:id", controllers.HandleUpdatePlan)
	admin.Delete("/plans/:id", controllers.HandleDeletePlan)
	admin.Get("/tickets", controllers.HandleListAllTickets)
	admin.Get("/tickets/:id", controllers.HandleGetTicket)
	admin.Put("/tickets/:id/status", controllers.HandleUpdateTicketStatus)
	admin.Get("/webhook-events", controllers.HandleListWebhookEvents)
	admin.Post("/blog", controllers.HandleCreateBlogPost)
	admin.Put("/blog/:id", controllers.HandleUpdateBlogPost)
	admin.Post("/blog/:id/thumbnail", controllers.HandleUploadBlogThumbnail)
	admin.Delete("/blog/:id", controllers.HandleDeleteBlogPost)
	admin.Post("/faq-categories", controllers.HandleCreateFAQCategory)
	admin.Put("/faq-categories/:id", controllers.HandleUpdateFAQCategory)
	admin.Delete("/faq-categories/:id", controllers.HandleDeleteFAQCategory)
	admin.Post("/faqs", controllers.HandleCreateFAQ)
	admin.Put("/faqs/:id", controllers.HandleUpdateFAQ)
	admin.Delete("/faqs/:id", controllers.HandleDeleteFAQ)
}

// limiterStorage backs the rate limiter with the shared Redis connection,
// using a separate logical database from sessions.
func limiterStorage() fiber.Storage {
	opts := cache.GetClient().Options()
	host, port := "127.0.0.1", 6379
	if opts != nil && opts.Addr != "" {
		if h, p, err := net.SplitHostPort(opts.Addr); err == nil {
			host = h
			if parsed, e := strconv.Atoi(p); e == nil {
				port = parsed
			}
		} else {
			host = opts.Addr
		}
	}
	return redisstorage.New(redisstorage.Config{
		Host:     host,
		Port:     port,
		Username: opts.Username,
		Password: opts.Password,
		Database: 3,
		Reset:    false,
	})
}
