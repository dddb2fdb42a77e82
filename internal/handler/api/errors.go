package api

import (
	"context"
	"net/http"

	"StockLens/internal/domain/models"
	xhttp "StockLens/pkg/http"
	"StockLens/pkg/util"

	"github.com/labstack/echo/v4"
)

func init() {
	mustRegister(xhttp.RegisterStringRule("ticker", "must be 1-7 characters of A-Z, 0-9, '.' or '-'", func(s string) bool {
		_, err := models.NormalizeTicker(s)
		return err == nil
	}))
	mustRegister(xhttp.RegisterStringRule("date", "must be a date such as 2024-01-31", func(s string) bool {
		_, err := util.ParseDate(s)
		return err == nil
	}))
}

func mustRegister(err error) {
	if err != nil {
		panic(err)
	}
}

// Mirrors usecase.Classify for errors that reach the envelope endpoints.
var errorMapper = xhttp.ErrorMapper{
	Rules: []xhttp.ErrorRule{
		{Target: models.ErrInvalidArgument, Status: http.StatusBadRequest, Code: "ERR_INVALID_INPUT"},
		{Target: models.ErrInvalidTicker, Status: http.StatusBadRequest, Code: "ERR_INVALID_TICKER"},
		{Target: models.ErrNoData, Status: http.StatusNotFound, Code: "ERR_NO_DATA"},
		{Target: context.Canceled, Status: http.StatusInternalServerError, Code: "ERR_INTERNAL"},
	},
	Fallback: xhttp.ErrorRule{Status: http.StatusBadGateway, Code: "ERR_UPSTREAM"},
}

func statusFor(kind models.FailureKind) int {
	switch kind {
	case models.FailureInvalidInput:
		return http.StatusBadRequest
	case models.FailureNoData:
		return http.StatusNotFound
	case models.FailureUpstream:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// resultResponse writes an analysis result as-is: the payload on success,
// {"error": "..."} otherwise.
func resultResponse(c echo.Context, res models.AnalysisResult) error {
	if res.OK() {
		return c.JSON(http.StatusOK, res)
	}
	return c.JSON(statusFor(res.Kind), res)
}
