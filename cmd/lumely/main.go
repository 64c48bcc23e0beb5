package main

import (
	"fmt"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/HoangNamVo/Lumely/app/repository"
	"github.com/HoangNamVo/Lumely/internal/pkg/cache"
	"github.com/HoangNamVo/Lumely/internal/pkg/database"
	"github.com/HoangNamVo/Lumely/internal/pkg/env"
	"github.com/HoangNamVo/Lumely/internal/pkg/oauth"
	"github.com/HoangNamVo/Lumely/internal/pkg/router"
)

func main() {
	app := NewApplication()
	err := app.Listen(fmt.Sprintf("%s:%s", env.GetEnv("APP_HOST", "localhost"), env.GetEnv("APP_PORT", "8000")))
	log.Fatal(err)
}

func NewApplication() *fiber.App {
	env.SetupEnvFile()
	database.SetupDatabase()
	repository.InitializeFactory(database.GetDB())
	cache.SetupCache()
	oauth.Setup()

	go cleanupExpiredTokens()

	app := fiber.New(fiber.Config{
		AppName:   "Lumely",
		BodyLimit: 10 * 1024 * 1024,
	})

	// recovery and logging
	app.Use(recover.New(), logger.New())

	// locally stored uploads (avatars, ticket attachments)
	app.Static("/uploads", env.GetEnv("UPLOAD_DIR", "./uploads"), fiber.Static{
		CacheDuration: 10 * time.Second,
		MaxAge:        604800, // 7 days
	})

	// ROUTER
	router.InstallRouter(app)

	return app
}

// cleanupExpiredTokens purges expired bearer tokens once per hour.
func cleanupExpiredTokens() {
	for range time.Tick(time.Hour) {
		n, err := repository.GetGlobalFactory().GetUserRepository().DeleteExpiredTokens()
		if err != nil {
			log.Printf("token cleanup failed: %v", err)
			continue
		}
		if n > 0 {
			log.Printf("token cleanup removed %d expired tokens", n)
		}
	}
}
