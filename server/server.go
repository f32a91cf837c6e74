package server

import (
	"log"

	"github.com/gofiber/fiber/v2"

	"github.com/osprey-db/osprey/engine"
	"github.com/osprey-db/osprey/server/routes"
)

// Start serves the engine's HTTP surface until the listener fails.
func Start(eng *engine.Engine, addr string) error {
	app := New(eng)

	log.Printf("osprey listening on %s", addr)
	return app.Listen(addr)
}

func New(eng *engine.Engine) *fiber.App {
	app := fiber.New(fiber.Config{AppName: "osprey"})

	api := app.Group("/")
	routes.SetupRoutes(api, eng)

	return app
}
