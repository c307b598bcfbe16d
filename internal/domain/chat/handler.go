package chat

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/healthlink/healthlink/internal/platform/auth"
	"github.com/healthlink/healthlink/pkg/response"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/chat")
	g.GET("/conversations", h.ListConversations)
	g.GET("/messages/:peerId", h.ListMessages)
	g.POST("/messages", h.SendMessage)
	g.GET("/unread-count", h.UnreadCount)
	g.GET("/available-users", h.AvailableUsers)
}

type sendMessageRequest struct {
	ReceiverID uuid.UUID `json:"receiverId"`
	Message    string    `json:"message"`
}

func (h *Handler) SendMessage(c echo.Context) error {
	var req sendMessageRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	userID := auth.UserIDFromContext(c.Request().Context())
	m, err := h.svc.SendMessage(c.Request().Context(), userID, req.ReceiverID, req.Message)
	if err != nil {
		return httpError(err)
	}
	return response.OK(c, http.StatusCreated, m)
}

func (h *Handler) ListMessages(c echo.Context) error {
	peerID, err := uuid.Parse(c.Param("peerId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid peer id")
	}

	userID := auth.UserIDFromContext(c.Request().Context())
	items, err := h.svc.ListMessages(c.Request().Context(), userID, peerID)
	if err != nil {
		return httpError(err)
	}
	if items == nil {
		items = []*Message{}
	}
	return response.OK(c, http.StatusOK, items)
}

func (h *Handler) ListConversations(c echo.Context) error {
	userID := auth.UserIDFromContext(c.Request().Context())
	items, err := h.svc.ListConversations(c.Request().Context(), userID)
	if err != nil {
		return httpError(err)
	}
	if items == nil {
		items = []*Conversation{}
	}
	return response.OK(c, http.StatusOK, items)
}

func (h *Handler) UnreadCount(c echo.Context) error {
	userID := auth.UserIDFromContext(c.Request().Context())
	count, err := h.svc.UnreadCount(c.Request().Context(), userID)
	if err != nil {
		return httpError(err)
	}
	return response.OK(c, http.StatusOK, map[string]int{"count": count})
}

func (h *Handler) AvailableUsers(c echo.Context) error {
	role := auth.RoleFromContext(c.Request().Context())
	users, err := h.svc.AvailableUsers(c.Request().Context(), role)
	if err != nil {
		return httpError(err)
	}
	if users == nil {
		users = []*Participant{}
	}
	return response.OK(c, http.StatusOK, users)
}

func httpError(err error) error {
	var ve *ValidationError
	switch {
	case errors.As(err, &ve):
		return echo.NewHTTPError(http.StatusBadRequest, ve.Msg)
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "user not found")
	case errors.Is(err, ErrForbidden):
		return echo.NewHTTPError(http.StatusForbidden, "patients and doctors can only message each other")
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}
