package triage

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/healthlink/healthlink/internal/platform/auth"
	"github.com/healthlink/healthlink/pkg/pagination"
	"github.com/healthlink/healthlink/pkg/response"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/triage")
	g.POST("", h.Submit, auth.RequireRole("patient"))
	g.GET("/my-history", h.MyHistory, auth.RequireRole("patient"))
	g.GET("", h.ListAll, auth.RequireRole("doctor"))
	g.PUT("/:id/respond", h.Respond, auth.RequireRole("doctor"))
	g.GET("/:id", h.Get)
}

type submitRequest struct {
	Symptoms Symptoms `json:"symptoms"`
}

func (h *Handler) Submit(c echo.Context) error {
	var req submitRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	patientID := auth.UserIDFromContext(c.Request().Context())
	rec, err := h.svc.Submit(c.Request().Context(), patientID, req.Symptoms)
	if err != nil {
		return httpError(err)
	}
	return response.OK(c, http.StatusCreated, rec)
}

func (h *Handler) MyHistory(c echo.Context) error {
	pg := pagination.FromContext(c)
	patientID := auth.UserIDFromContext(c.Request().Context())
	items, total, err := h.svc.MyHistory(c.Request().Context(), patientID, pg.Limit, pg.Offset)
	if err != nil {
		return httpError(err)
	}
	return response.OK(c, http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) ListAll(c echo.Context) error {
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListAll(c.Request().Context(), c.QueryParam("riskLevel"), pg.Limit, pg.Offset)
	if err != nil {
		return httpError(err)
	}
	return response.OK(c, http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

type respondRequest struct {
	DoctorResponse string `json:"doctorResponse"`
}

func (h *Handler) Respond(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req respondRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	doctorID := auth.UserIDFromContext(c.Request().Context())
	rec, err := h.svc.Respond(c.Request().Context(), id, doctorID, req.DoctorResponse)
	if err != nil {
		return httpError(err)
	}
	return response.OK(c, http.StatusOK, rec)
}

func (h *Handler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	ctx := c.Request().Context()
	rec, err := h.svc.Get(ctx, id, auth.UserIDFromContext(ctx), auth.RoleFromContext(ctx))
	if err != nil {
		return httpError(err)
	}
	return response.OK(c, http.StatusOK, rec)
}

func httpError(err error) error {
	var ve *ValidationError
	switch {
	case errors.As(err, &ve):
		return echo.NewHTTPError(http.StatusBadRequest, ve.Msg)
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "triage record not found")
	case errors.Is(err, ErrForbidden):
		return echo.NewHTTPError(http.StatusForbidden, "not authorized for this triage record")
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}
