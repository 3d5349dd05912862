package handler

import (
	"encoding/json"
	"net/http"

	"snaps_engagement/internal/httputil"
	"snaps_engagement/internal/model"
	"snaps_engagement/internal/service"
	"snaps_engagement/internal/transport/http/middleware"
)

type NotificationHandler struct {
	notificationService *service.NotificationService
}

func NewNotificationHandler(notificationService *service.NotificationService) *NotificationHandler {
	return &NotificationHandler{
		notificationService: notificationService,
	}
}

// List handles GET /notifications
func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}
	limit, ok := httputil.QueryLimit(w, r, 50)
	if !ok {
		return
	}

	result, err := h.notificationService.GetNotifications(r.Context(), userID, limit)
	if err != nil {
		httputil.WriteServiceError(w, r, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, result)
}

// MarkRead handles POST /notifications/read
// An empty id list marks everything as read.
func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	var req model.MarkReadRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httputil.WriteBadRequest(w, "Invalid request body")
			return
		}
	}

	var err error
	if len(req.NotificationIDs) == 0 {
		err = h.notificationService.MarkAllAsRead(r.Context(), userID)
	} else {
		err = h.notificationService.MarkAsRead(r.Context(), userID, req.NotificationIDs)
	}
	if err != nil {
		httputil.WriteServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// RegisterDevice handles POST /devices
func (h *NotificationHandler) RegisterDevice(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	var req model.RegisterTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := h.notificationService.RegisterDeviceToken(r.Context(), userID, req); err != nil {
		httputil.WriteServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// RemoveDevice handles DELETE /devices
func (h *NotificationHandler) RemoveDevice(w http.ResponseWriter, r *http.Request) {
	if _, ok := middleware.GetUserIDFromContext(r.Context()); !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	var req model.RegisterTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Token == "" {
		httputil.WriteBadRequest(w, "Device token is required")
		return
	}

	if err := h.notificationService.RemoveDeviceToken(r.Context(), req.Token); err != nil {
		httputil.WriteServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
