package handler

import (
	"encoding/json"
	"net/http"

	"snaps_engagement/internal/httputil"
	"snaps_engagement/internal/model"
	"snaps_engagement/internal/service"
	"snaps_engagement/internal/transport/http/middleware"
)

type CommentHandler struct {
	commentService *service.CommentService
	lifecycle      *service.LifecycleService
}

func NewCommentHandler(commentService *service.CommentService, lifecycle *service.LifecycleService) *CommentHandler {
	return &CommentHandler{
		commentService: commentService,
		lifecycle:      lifecycle,
	}
}

// Create handles POST /posts/{id}/comments
func (h *CommentHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}
	postID, ok := httputil.PathID(w, r, "id")
	if !ok {
		return
	}

	var req model.CreateCommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}

	comment, err := h.commentService.Create(r.Context(), userID, postID, req)
	if err != nil {
		httputil.WriteServiceError(w, r, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, comment)
}

// List handles GET /posts/{id}/comments
func (h *CommentHandler) List(w http.ResponseWriter, r *http.Request) {
	postID, ok := httputil.PathID(w, r, "id")
	if !ok {
		return
	}
	limit, ok := httputil.QueryLimit(w, r, 100)
	if !ok {
		return
	}

	// Anonymous viewers see no like state.
	viewerID, _ := middleware.GetUserIDFromContext(r.Context())

	comments, err := h.commentService.ListByPost(r.Context(), viewerID, postID, limit)
	if err != nil {
		httputil.WriteServiceError(w, r, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"comments": comments,
	})
}

// Update handles PATCH /comments/{id}
func (h *CommentHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}
	commentID, ok := httputil.PathID(w, r, "id")
	if !ok {
		return
	}

	var req model.UpdateCommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}

	comment, err := h.commentService.UpdateContent(r.Context(), userID, commentID, req)
	if err != nil {
		httputil.WriteServiceError(w, r, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, comment)
}

// Delete handles DELETE /comments/{id}
func (h *CommentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	softDelete(w, r, h.lifecycle, model.EntityComment)
}

// softDelete is shared by every owner-only DELETE endpoint.
func softDelete(w http.ResponseWriter, r *http.Request, lifecycle *service.LifecycleService, kind model.EntityKind) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}
	id, ok := httputil.PathID(w, r, "id")
	if !ok {
		return
	}

	if _, err := lifecycle.SoftDeleteAs(r.Context(), userID, kind, id); err != nil {
		httputil.WriteServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
