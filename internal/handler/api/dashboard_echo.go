package api

import (
	"StockLens/internal/domain/models"
	"StockLens/internal/usecase"
	xhttp "StockLens/pkg/http"
	xlogger "StockLens/pkg/logger"

	"github.com/labstack/echo/v4"
)

type DashboardEchoHandler struct {
	logger    *xlogger.Logger
	dashboard *usecase.Dashboard
	alerts    usecase.AlertFeed
}

func NewDashboardEchoHandler(logger *xlogger.Logger, dashboard *usecase.Dashboard, alerts usecase.AlertFeed) *DashboardEchoHandler {
	return &DashboardEchoHandler{logger: logger, dashboard: dashboard, alerts: alerts}
}

func (h *DashboardEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.POST("/dashboard", h.Dashboard)
	g.GET("/portfolio/summary", h.PortfolioSummary)
	g.GET("/alerts", h.Alerts)
}

// Dashboard prices the request portfolio, or the loaded CSV portfolio when
// the request has none.
func (h *DashboardEchoHandler) Dashboard(c echo.Context) error {
	req := &models.DashboardRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	p, err := usecase.NormalizePortfolio(req.Portfolio)
	if err != nil {
		return xhttp.ErrorResponse(c, errorMapper.Map(err))
	}

	summary, err := h.dashboard.Build(c.Request().Context(), p, req.News, req.Alerts, req.MaxNews)
	if err != nil {
		h.logger.Error("dashboard usecase error", xlogger.Error(err))
		return xhttp.ErrorResponse(c, errorMapper.Map(err))
	}
	return xhttp.SuccessResponse(c, summary)
}

func (h *DashboardEchoHandler) PortfolioSummary(c echo.Context) error {
	return xhttp.SuccessResponse(c, h.dashboard.Summary())
}

func (h *DashboardEchoHandler) Alerts(c echo.Context) error {
	if h.alerts == nil {
		return xhttp.SuccessResponse(c, []models.VolatilityAlert{})
	}
	return xhttp.SuccessResponse(c, h.alerts.Recent())
}
