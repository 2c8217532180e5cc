package main

import (
	"os"

	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/template/html/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/albertoelopez/AI-Debate-Arena/internal/handlers"
	"github.com/albertoelopez/AI-Debate-Arena/internal/services"
)

func main() {
	logger := logrus.New()

	if err := godotenv.Load(); err != nil {
		logger.Info("No .env file found")
	}

	client, err := services.NewOpenRouterClient(logger)
	if err != nil {
		logger.Fatalf("LLM client setup failed: %v", err)
	}
	generator := services.NewLLMGenerator(client, logger)
	synthesizer := services.SynthesizerFromEnv(logger)
	arena := services.NewArenaService(generator, synthesizer, logger, services.DefaultEngineOptions())

	staticDir := os.Getenv("STATIC_DIR")
	if staticDir == "" {
		staticDir = "./static"
	}

	engine := html.New(staticDir, ".html")
	app := fiber.New(fiber.Config{
		Views: engine,
	})
	app.Use(fiberlogger.New())
	app.Static("/", staticDir)

	h := handlers.NewHandler(arena, logger)
	ws := handlers.NewWebSocketHandler(arena, logger)

	app.Get("/", h.IndexPage)
	app.Get("/health", h.Health)
	app.Get("/api/templates", h.ListTemplates)
	app.Get("/api/templates/:name", h.GetTemplate)
	app.Post("/api/debate/create", h.CreateDebate)
	app.Post("/api/debate/create-custom", h.CreateCustomDebate)
	app.Get("/api/debate/:debate_id", h.GetDebate)
	app.Post("/api/debate/:debate_id/start", h.StartDebate)
	app.Delete("/api/debate/:debate_id", h.StopDebate)
	app.Get("/api/debate/:debate_id/transcript", h.GetTranscript)
	app.Get("/ws", ws.WebSocketMiddleware, websocket.New(ws.HandleWebSocket))

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	logger.Infof("🎭 Debate Arena running on :%s", port)
	logger.Fatal(app.Listen(":" + port))
}
