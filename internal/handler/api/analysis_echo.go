package api

import (
	"StockLens/internal/domain/models"
	"StockLens/internal/services/anomaly"
	"StockLens/internal/usecase"
	xhttp "StockLens/pkg/http"
	xlogger "StockLens/pkg/logger"
	"StockLens/pkg/util"

	"github.com/labstack/echo/v4"
)

// AnalysisEchoHandler serves the timeseries, indicator, z-score and export
// endpoints.
type AnalysisEchoHandler struct {
	logger   *xlogger.Logger
	analyzer *usecase.Analyzer
	exporter *usecase.Exporter
}

func NewAnalysisEchoHandler(logger *xlogger.Logger, analyzer *usecase.Analyzer, exporter *usecase.Exporter) *AnalysisEchoHandler {
	return &AnalysisEchoHandler{logger: logger, analyzer: analyzer, exporter: exporter}
}

func (h *AnalysisEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/timeseries", h.Timeseries)
	g.GET("/anomalies/zscore", h.ZScore)
	g.POST("/indicators", h.Indicators)
	g.POST("/export", h.Export)
}

func (h *AnalysisEchoHandler) Timeseries(c echo.Context) error {
	req := &models.TimeseriesRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	res := h.analyzer.Timeseries(c.Request().Context(), req.Ticker, req.Start, req.End)
	c.Response().Header().Set(echo.HeaderCacheControl, "private, max-age=60")
	return resultResponse(c, res)
}

func (h *AnalysisEchoHandler) Indicators(c echo.Context) error {
	req := &models.IndicatorsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	return resultResponse(c, h.analyzer.AnalyzePrices(*req))
}

func (h *AnalysisEchoHandler) ZScore(c echo.Context) error {
	req := &models.ZScoreRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	start, err := util.ParseDate(req.Start)
	if err != nil {
		return xhttp.ErrorResponse(c, xhttp.BadRequestErrorf("invalid start: %v", err))
	}
	end, err := util.ParseDate(req.End)
	if err != nil {
		return xhttp.ErrorResponse(c, xhttp.BadRequestErrorf("invalid end: %v", err))
	}

	alerts, err := h.analyzer.VolatilityAlerts(c.Request().Context(), req.Ticker, start, end, anomaly.ZScoreOptions{
		Window:     req.Window,
		Threshold:  req.Threshold,
		MinNonNull: req.MinNonNull,
	})
	if err != nil {
		h.logger.Error("zscore usecase error", xlogger.Error(err))
		return xhttp.ErrorResponse(c, errorMapper.Map(err))
	}
	return xhttp.SuccessResponse(c, alerts)
}

func (h *AnalysisEchoHandler) Export(c echo.Context) error {
	req := &models.ExportRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	res := h.analyzer.Timeseries(c.Request().Context(), req.Ticker, req.Start, req.End)
	if !res.OK() {
		return resultResponse(c, res)
	}
	path, err := h.exporter.Export(res.Payload, req.Format)
	if err != nil {
		h.logger.Error("export error", xlogger.Error(err))
		return xhttp.ErrorResponse(c, xhttp.InternalErrorf("export failed: %v", err))
	}
	return xhttp.SuccessResponse(c, map[string]string{"path": path, "format": req.Format})
}
