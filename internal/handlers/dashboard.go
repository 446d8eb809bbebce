package handlers

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"github.com/rs/zerolog/log"

	"c2w-go-api/internal/models"
	"c2w-go-api/internal/months"
	"c2w-go-api/internal/services"
	"c2w-go-api/pkg/backend"
)

// Dashboard is the data the handlers need from the service layer
type Dashboard interface {
	BuildDashboard(ctx context.Context, req services.DashboardRequest) (*models.Dashboard, error)
	Leaderboard(ctx context.Context, productID string) ([]models.RankedForecast, error)
	RefreshCache(ctx context.Context) error
}

type DashboardHandler struct {
	orchestrator Dashboard
	selections   *services.SelectionTracker
}

func NewDashboardHandler(orchestrator Dashboard, selections *services.SelectionTracker) *DashboardHandler {
	return &DashboardHandler{
		orchestrator: orchestrator,
		selections:   selections,
	}
}

// GetDashboard handles GET /v1/dashboard
func (h *DashboardHandler) GetDashboard(c *fiber.Ctx) error {
	req, invalid := dashboardRequest(c)
	if invalid != nil {
		return c.Status(invalid.Code).JSON(invalid)
	}

	ctx, cancel := context.WithTimeout(c.Context(), 30*time.Second)
	defer cancel()

	dashboard, err := h.orchestrator.BuildDashboard(ctx, req)
	if err != nil {
		return dashboardError(c, err)
	}

	return c.JSON(dashboard)
}

// GetSeries handles GET /v1/series
func (h *DashboardHandler) GetSeries(c *fiber.Ctx) error {
	req, invalid := dashboardRequest(c)
	if invalid != nil {
		return c.Status(invalid.Code).JSON(invalid)
	}

	ctx, cancel := context.WithTimeout(c.Context(), 30*time.Second)
	defer cancel()

	dashboard, err := h.orchestrator.BuildDashboard(ctx, req)
	if err != nil {
		return dashboardError(c, err)
	}

	return c.JSON(dashboard.Series)
}

// GetForecasts handles GET /v1/forecasts
func (h *DashboardHandler) GetForecasts(c *fiber.Ctx) error {
	productID := utils.CopyString(c.Query("product_id"))
	if productID == "" {
		return badRequest(c, "Product is required", "Please provide a product_id")
	}

	ctx, cancel := context.WithTimeout(c.Context(), 30*time.Second)
	defer cancel()

	ranked, err := h.orchestrator.Leaderboard(ctx, productID)
	if err != nil {
		return dashboardError(c, err)
	}

	return c.JSON(ranked)
}

// CreateSession handles POST /v1/sessions
func (h *DashboardHandler) CreateSession(c *fiber.Ctx) error {
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"sessionId": h.selections.Open(),
	})
}

// DeleteSession handles DELETE /v1/sessions/:id
func (h *DashboardHandler) DeleteSession(c *fiber.Ctx) error {
	if !h.selections.Close(c.Params("id")) {
		return sessionNotFound(c)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// PutSelection handles PUT /v1/sessions/:id/selection
func (h *DashboardHandler) PutSelection(c *fiber.Ctx) error {
	var body models.SelectionRequest
	if err := c.BodyParser(&body); err != nil {
		return badRequest(c, "Invalid request body", err.Error())
	}
	if body.Country == "" || body.ProductID == "" {
		return badRequest(c, "Country and product are required", "Please provide country and productId")
	}

	ctx, cancel := context.WithTimeout(c.Context(), 30*time.Second)
	defer cancel()

	req := services.DashboardRequest{Country: body.Country, ProductID: body.ProductID}
	dashboard, err := h.selections.Select(ctx, c.Params("id"), func(ctx context.Context) (*models.Dashboard, error) {
		return h.orchestrator.BuildDashboard(ctx, req)
	})
	if err != nil {
		return dashboardError(c, err)
	}

	return c.JSON(dashboard)
}

// GetSessionDashboard handles GET /v1/sessions/:id/dashboard
func (h *DashboardHandler) GetSessionDashboard(c *fiber.Ctx) error {
	dashboard, err := h.selections.Current(c.Params("id"))
	if err != nil {
		return sessionNotFound(c)
	}
	if dashboard == nil {
		return c.Status(fiber.StatusNotFound).JSON(models.ErrorResponse{
			Error:   "No dashboard yet",
			Message: "Select a country and product first",
			Code:    fiber.StatusNotFound,
		})
	}

	return c.JSON(dashboard)
}

// RefreshCache handles POST /v1/admin/refresh
func (h *DashboardHandler) RefreshCache(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 60*time.Second)
	defer cancel()

	if err := h.orchestrator.RefreshCache(ctx); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(models.ErrorResponse{
			Error:   "Failed to refresh cache",
			Message: err.Error(),
			Code:    fiber.StatusInternalServerError,
		})
	}

	return c.JSON(fiber.Map{
		"message": "Cache refreshed successfully",
		"time":    time.Now(),
	})
}

// GetCatalog handles GET /v1/catalog
func (h *DashboardHandler) GetCatalog(c *fiber.Ctx) error {
	return c.JSON(DefaultCatalog)
}

// dashboardRequest copies the query values since they end up as cache keys
// and fiber reuses the request buffer they point into.
func dashboardRequest(c *fiber.Ctx) (services.DashboardRequest, *models.ErrorResponse) {
	req := services.DashboardRequest{
		Country:   utils.CopyString(c.Query("country")),
		ProductID: utils.CopyString(c.Query("product_id")),
	}
	if req.Country == "" || req.ProductID == "" {
		return req, &models.ErrorResponse{
			Error:   "Country and product are required",
			Message: "Please provide country and product_id",
			Code:    fiber.StatusBadRequest,
		}
	}

	req.FutureCount = c.QueryInt("future", 0)
	if req.FutureCount < 0 || req.FutureCount > 2*months.MonthsPerYear {
		return req, &models.ErrorResponse{
			Error:   "Invalid future",
			Message: "future must be between 0 and 24",
			Code:    fiber.StatusBadRequest,
		}
	}
	return req, nil
}

// dashboardError maps service errors onto status codes
func dashboardError(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	title := "Failed to build dashboard"

	switch {
	case errors.Is(err, services.ErrUnknownSession):
		return sessionNotFound(c)
	case errors.Is(err, services.ErrSuperseded):
		code = fiber.StatusConflict
		title = "Selection superseded"
	case errors.Is(err, months.ErrNegativeCount):
		code = fiber.StatusBadRequest
		title = "Invalid future"
	case errors.Is(err, months.ErrUnknownMonth):
		code = fiber.StatusBadGateway
		title = "Analytics backend sent an unknown month"
	case errors.Is(err, backend.ErrUpstream):
		code = fiber.StatusBadGateway
		title = "Analytics backend unavailable"
	case errors.Is(err, context.DeadlineExceeded):
		code = fiber.StatusGatewayTimeout
		title = "Analytics backend timed out"
	}

	if code >= fiber.StatusInternalServerError {
		log.Error().Err(err).Str("path", c.Path()).Msg(title)
	}

	return c.Status(code).JSON(models.ErrorResponse{
		Error:   title,
		Message: err.Error(),
		Code:    code,
	})
}

func badRequest(c *fiber.Ctx, title, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse{
		Error:   title,
		Message: message,
		Code:    fiber.StatusBadRequest,
	})
}

func sessionNotFound(c *fiber.Ctx) error {
	return c.Status(fiber.StatusNotFound).JSON(models.ErrorResponse{
		Error: "Session not found",
		Code:  fiber.StatusNotFound,
	})
}

// CustomErrorHandler handles Fiber errors
func CustomErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError

	var e *fiber.Error
	if errors.As(err, &e) {
		code = e.Code
	}

	return c.Status(code).JSON(models.ErrorResponse{
		Error:   "Request failed",
		Message: err.Error(),
		Code:    code,
	})
}
