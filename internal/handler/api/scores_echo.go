package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Prizeman-Enterprise/crypto-super-hub/internal/domain/models"
	"github.com/Prizeman-Enterprise/crypto-super-hub/internal/usecase"
	xhttp "github.com/Prizeman-Enterprise/crypto-super-hub/pkg/http"
	xlogger "github.com/Prizeman-Enterprise/crypto-super-hub/pkg/logger"
	"github.com/Prizeman-Enterprise/crypto-super-hub/pkg/util"
)

// RunTrigger starts a background recompute.
type RunTrigger interface {
	Trigger(reason string) bool
	Running() bool
}

// ScoresEchoHandler serves the risk report, per-asset scores and history.
type ScoresEchoHandler struct {
	logger *xlogger.Logger
	uc     *usecase.ScoresQueryUseCase
	runs   RunTrigger
}

func NewScoresEchoHandler(logger *xlogger.Logger, uc *usecase.ScoresQueryUseCase, runs RunTrigger) *ScoresEchoHandler {
	return &ScoresEchoHandler{logger: logger, uc: uc, runs: runs}
}

func (h *ScoresEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/scores", h.Report)
	g.GET("/scores/:asset", h.Asset)
	g.GET("/scores/:asset/history", h.History)
	g.POST("/runs", h.TriggerRun)
	e.GET("/healthz", h.Health)
}

func (h *ScoresEchoHandler) Report(c echo.Context) error {
	rep, err := h.uc.LatestReport(c.Request().Context())
	if err != nil {
		return h.fail(c, "report", err)
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "public, max-age=60")
	return xhttp.SuccessResponse(c, rep)
}

func (h *ScoresEchoHandler) Asset(c echo.Context) error {
	req := &models.AssetRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	s, err := h.uc.LatestAsset(c.Request().Context(), req.Asset)
	if err != nil {
		return h.fail(c, "asset", err)
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "public, max-age=60")
	return xhttp.SuccessResponse(c, s)
}

func (h *ScoresEchoHandler) History(c echo.Context) error {
	req := &models.HistoryRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	p := usecase.HistoryParams{AssetID: req.Asset, Limit: req.Limit}
	if req.From != "" {
		t, ok := util.ParseTime(req.From)
		if !ok {
			return xhttp.AppErrorResponse(c, xhttp.BadRequestError("from", "from must be a date, RFC3339 time or unix seconds"))
		}
		p.From = t
	}
	if req.To != "" {
		t, ok := util.ParseTime(req.To)
		if !ok {
			return xhttp.AppErrorResponse(c, xhttp.BadRequestError("to", "to must be a date, RFC3339 time or unix seconds"))
		}
		p.To = t
	}

	res, err := h.uc.History(c.Request().Context(), p)
	if err != nil {
		return h.fail(c, "history", err)
	}
	return xhttp.ListResponse(c, res.Records, int64(res.Count))
}

func (h *ScoresEchoHandler) TriggerRun(c echo.Context) error {
	if !h.runs.Trigger("api") {
		return xhttp.AppErrorResponse(c, xhttp.ConflictError("a risk run is already in progress"))
	}
	return xhttp.AcceptedResponse(c, models.RunResponse{Accepted: true, Message: "risk run started"})
}

func (h *ScoresEchoHandler) Health(c echo.Context) error {
	ctx := c.Request().Context()
	resp := models.HealthResponse{Status: "ok", Store: "ok", Running: h.runs.Running()}
	if rep, err := h.uc.LatestReport(ctx); err == nil {
		resp.LastReport = rep.UpdatedAt
	}
	if err := h.uc.Health(ctx); err != nil {
		h.logger.Warn("score store unhealthy", xlogger.Error(err))
		resp.Status, resp.Store = "degraded", err.Error()
		return xhttp.DataResponse(c, http.StatusServiceUnavailable, resp)
	}
	return xhttp.SuccessResponse(c, resp)
}

func (h *ScoresEchoHandler) fail(c echo.Context, op string, err error) error {
	switch {
	case errors.Is(err, usecase.ErrUnknownAsset), errors.Is(err, usecase.ErrAssetNotFound):
		return xhttp.AppErrorResponse(c, xhttp.NotFoundError(err.Error()))
	case errors.Is(err, usecase.ErrNoReport):
		c.Response().Header().Set("Retry-After", "300")
		return xhttp.AppErrorResponse(c, xhttp.UnavailableError(err.Error()))
	case errors.Is(err, usecase.ErrInvalidRange):
		return xhttp.AppErrorResponse(c, xhttp.BadRequestError("from", err.Error()))
	}
	h.logger.Error(op+" usecase error", xlogger.Error(err))
	return xhttp.AppErrorResponse(c, xhttp.InternalError("failed to load scores").WithError(err))
}
