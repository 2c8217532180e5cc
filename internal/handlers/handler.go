package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"github.com/albertoelopez/AI-Debate-Arena/internal/models"
	"github.com/albertoelopez/AI-Debate-Arena/internal/services"
)

type Handler struct {
	Arena  *services.ArenaService
	Logger *logrus.Logger
}

func NewHandler(arena *services.ArenaService, logger *logrus.Logger) *Handler {
	return &Handler{Arena: arena, Logger: logger}
}

func (h *Handler) IndexPage(c *fiber.Ctx) error {
	return c.Render("index", nil)
}

func (h *Handler) Health(c *fiber.Ctx) error {
	names := make([]string, 0, len(models.DebateTemplates))
	for name := range models.DebateTemplates {
		names = append(names, name)
	}
	return c.JSON(fiber.Map{
		"status":              "healthy",
		"version":             "2.0",
		"active_debates":      h.Arena.Count(),
		"available_templates": names,
	})
}

func (h *Handler) ListTemplates(c *fiber.Ctx) error {
	templates := make([]fiber.Map, 0, len(models.DebateTemplates))
	for name, cfg := range models.DebateTemplates {
		debaters := make([]fiber.Map, 0, len(cfg.Debaters))
		for _, d := range cfg.Debaters {
			debaters = append(debaters, fiber.Map{
				"name":     d.Name,
				"position": d.Position.Name,
			})
		}
		templates = append(templates, fiber.Map{
			"name":         name,
			"topic":        cfg.Topic,
			"description":  cfg.Description,
			"num_debaters": len(cfg.Debaters),
			"debaters":     debaters,
		})
	}
	return c.JSON(fiber.Map{"templates": templates})
}

func (h *Handler) GetTemplate(c *fiber.Ctx) error {
	name := c.Params("name")
	cfg, ok := models.DebateTemplates[name]
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Template not found"})
	}

	debaters := make([]fiber.Map, 0, len(cfg.Debaters))
	for _, d := range cfg.Debaters {
		debaters = append(debaters, fiber.Map{
			"id":       d.ID,
			"name":     d.Name,
			"position": d.Position.Name,
			"stance":   d.Position.Stance,
			"avatar":   d.AvatarEmoji,
		})
	}
	return c.JSON(fiber.Map{
		"name":        name,
		"topic":       cfg.Topic,
		"description": cfg.Description,
		"max_rounds":  cfg.MaxRounds,
		"debaters":    debaters,
	})
}

type createDebateRequest struct {
	Template  string `json:"template"`
	MaxRounds int    `json:"max_rounds"`
}

func (h *Handler) CreateDebate(c *fiber.Ctx) error {
	var req createDebateRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid JSON body"})
	}
	if req.Template == "" {
		req.Template = "god_existence"
	}

	engine, err := h.Arena.CreateFromTemplate(req.Template, req.MaxRounds)
	if err != nil {
		h.Logger.Errorf("Create debate failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return c.JSON(fiber.Map{
		"debate_id":  engine.ID(),
		"topic":      engine.Config().Topic,
		"debaters":   debaterSummaries(engine.Config()),
		"max_rounds": engine.Config().MaxRounds,
		"status":     "created",
	})
}

type createCustomRequest struct {
	Topic               string                `json:"topic"`
	Positions           []models.PositionSpec `json:"positions"`
	MaxRounds           int                   `json:"max_rounds"`
	ModeratorStrictness string                `json:"moderator_strictness"`
}

func (h *Handler) CreateCustomDebate(c *fiber.Ctx) error {
	var req createCustomRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid JSON body"})
	}
	if req.Topic == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Topic is required"})
	}
	if len(req.Positions) < 2 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "At least 2 positions required"})
	}

	engine, err := h.Arena.CreateCustom(req.Topic, req.Positions, req.MaxRounds, req.ModeratorStrictness)
	if err != nil {
		h.Logger.Errorf("Create custom debate failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return c.JSON(fiber.Map{
		"debate_id":  engine.ID(),
		"topic":      engine.Config().Topic,
		"debaters":   debaterSummaries(engine.Config()),
		"max_rounds": engine.Config().MaxRounds,
		"status":     "created",
	})
}

func (h *Handler) GetDebate(c *fiber.Ctx) error {
	engine := h.Arena.Get(c.Params("debate_id"))
	if engine == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Debate not found"})
	}

	return c.JSON(fiber.Map{
		"debate_id":     engine.ID(),
		"topic":         engine.Config().Topic,
		"phase":         string(engine.Phase()),
		"current_round": engine.CurrentRound(),
		"total_rounds":  engine.Config().MaxRounds,
		"is_active":     engine.IsActive(),
		"total_turns":   engine.TurnCount(),
		"debaters":      debaterSummaries(engine.Config()),
	})
}

func (h *Handler) StartDebate(c *fiber.Ctx) error {
	debateID := c.Params("debate_id")
	if h.Arena.Get(debateID) == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Debate not found"})
	}
	if err := h.Arena.Start(debateID); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{
		"debate_id": debateID,
		"status":    "starting",
	})
}

func (h *Handler) StopDebate(c *fiber.Ctx) error {
	debateID := c.Params("debate_id")
	if err := h.Arena.Stop(debateID); err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Debate not found"})
	}
	return c.JSON(fiber.Map{"message": "Debate stopped"})
}

func (h *Handler) GetTranscript(c *fiber.Ctx) error {
	engine := h.Arena.Get(c.Params("debate_id"))
	if engine == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Debate not found"})
	}
	return c.JSON(fiber.Map{
		"debate_id":  engine.ID(),
		"transcript": engine.Transcript(),
		"statistics": engine.Statistics(),
	})
}

func debaterSummaries(cfg *models.DebateConfig) []fiber.Map {
	out := make([]fiber.Map, 0, len(cfg.Debaters))
	for _, d := range cfg.Debaters {
		out = append(out, fiber.Map{
			"id":       d.ID,
			"name":     d.Name,
			"position": d.Position.Name,
			"stance":   d.Position.Stance,
			"avatar":   d.AvatarEmoji,
		})
	}
	return out
}
