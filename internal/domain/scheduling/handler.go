package scheduling

import (
	"errors"
	"net/http"
	"time"

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
	g := api.Group("/appointments")
	g.POST("", h.Create, auth.RequireRole("patient"))
	g.GET("/my", h.MyAppointments, auth.RequireRole("patient"))
	g.GET("", h.ListAll, auth.RequireRole("doctor"))
	g.PUT("/:id", h.Review, auth.RequireRole("doctor"))
	g.DELETE("/:id", h.Delete)
}

type createRequest struct {
	Symptoms      string    `json:"symptoms"`
	PreferredDate time.Time `json:"preferredDate"`
}

func (h *Handler) Create(c echo.Context) error {
	var req createRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	patientID := auth.UserIDFromContext(c.Request().Context())
	a, err := h.svc.Create(c.Request().Context(), patientID, req.Symptoms, req.PreferredDate)
	if err != nil {
		return httpError(err)
	}
	return response.OK(c, http.StatusCreated, a)
}

func (h *Handler) MyAppointments(c echo.Context) error {
	pg := pagination.FromContext(c)
	patientID := auth.UserIDFromContext(c.Request().Context())
	items, total, err := h.svc.MyAppointments(c.Request().Context(), patientID, pg.Limit, pg.Offset)
	if err != nil {
		return httpError(err)
	}
	return response.OK(c, http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) ListAll(c echo.Context) error {
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListAll(c.Request().Context(), c.QueryParam("status"), pg.Limit, pg.Offset)
	if err != nil {
		return httpError(err)
	}
	return response.OK(c, http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

type reviewRequest struct {
	Status      string `json:"status"`
	DoctorNotes string `json:"doctorNotes"`
}

func (h *Handler) Review(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req reviewRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	doctorID := auth.UserIDFromContext(c.Request().Context())
	a, err := h.svc.Review(c.Request().Context(), id, doctorID, req.Status, req.DoctorNotes)
	if err != nil {
		return httpError(err)
	}
	return response.OK(c, http.StatusOK, a)
}

func (h *Handler) Delete(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	ctx := c.Request().Context()
	if err := h.svc.Delete(ctx, id, auth.UserIDFromContext(ctx), auth.RoleFromContext(ctx)); err != nil {
		return httpError(err)
	}
	return response.OK(c, http.StatusOK, map[string]string{"message": "appointment deleted"})
}

func httpError(err error) error {
	var ve *ValidationError
	switch {
	case errors.As(err, &ve):
		return echo.NewHTTPError(http.StatusBadRequest, ve.Msg)
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "appointment not found")
	case errors.Is(err, ErrForbidden):
		return echo.NewHTTPError(http.StatusForbidden, "not authorized for this appointment")
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}
