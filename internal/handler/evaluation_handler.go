package handler

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/ideascope-api/internal/dto"
	"github.com/noah-isme/ideascope-api/internal/middleware"
	"github.com/noah-isme/ideascope-api/internal/service"
	"github.com/noah-isme/ideascope-api/internal/utils"
	"github.com/noah-isme/ideascope-api/pkg/ai"
)

// EvaluationHandler exposes startup idea evaluation endpoints.
type EvaluationHandler struct {
	service service.EvaluationService
	logger  zerolog.Logger
}

// NewEvaluationHandler constructs an evaluation handler.
func NewEvaluationHandler(service service.EvaluationService, logger zerolog.Logger) *EvaluationHandler {
	return &EvaluationHandler{
		service: service,
		logger:  logger.With().Str("component", "evaluation_handler").Logger(),
	}
}

// Register wires the enveloped evaluation routes.
func (h *EvaluationHandler) Register(router fiber.Router) {
	router.Post("/", h.create)
}

// RegisterLegacy wires POST /validate, which answers with the bare evaluation document.
func (h *EvaluationHandler) RegisterLegacy(router fiber.Router, middlewares ...fiber.Handler) {
	handlers := append(append([]fiber.Handler{}, middlewares...), h.validate)
	router.Post("/validate", handlers...)
}

func (h *EvaluationHandler) create(c *fiber.Ctx) error {
	result, err := h.evaluate(c)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "idea evaluated", result)
}

func (h *EvaluationHandler) validate(c *fiber.Ctx) error {
	result, err := h.evaluate(c)
	if err != nil {
		return h.handleError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(result.Evaluation)
}

func (h *EvaluationHandler) evaluate(c *fiber.Ctx) (dto.EvaluationResponse, error) {
	var payload dto.StartupIdeaRequest
	if err := c.BodyParser(&payload); err != nil {
		return dto.EvaluationResponse{}, errInvalidPayload
	}

	result, err := h.service.Evaluate(c.UserContext(), payload)
	if err != nil {
		return dto.EvaluationResponse{}, err
	}

	strategy := result.Strategy
	if result.Cached {
		strategy = "cache"
	} else if result.Fallback {
		strategy = "fallback"
	}
	c.Set(middleware.StrategyHeader, strategy)
	c.Set(middleware.FallbackHeader, strconv.FormatBool(result.Fallback))

	if result.Fallback {
		requestLogger(h.logger, c).Warn().Str("reason", result.FallbackReason).Msg("served fallback evaluation")
	}

	return result, nil
}

var errInvalidPayload = errors.New("invalid request payload")

func (h *EvaluationHandler) handleError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, errInvalidPayload):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	case isValidationError(err):
		return utils.Fail(c, fiber.StatusBadRequest, "idea is missing required fields", validationDetails(err))
	case errors.Is(err, ai.ErrBackendUnavailable):
		requestLogger(h.logger, c).Warn().Err(err).Msg("evaluation backend unavailable")
		return utils.SendError(c, fiber.StatusServiceUnavailable, "evaluation backend unavailable")
	case errors.Is(err, ai.ErrGenerationFailed):
		requestLogger(h.logger, c).Error().Err(err).Msg("evaluation generation failed")
		return utils.SendError(c, fiber.StatusInternalServerError, "evaluation generation failed")
	default:
		requestLogger(h.logger, c).Error().Err(err).Msg("evaluation failed")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to evaluate idea")
	}
}
