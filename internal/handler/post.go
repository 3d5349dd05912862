package handler

import (
	"encoding/json"
	"net/http"

	"snaps_engagement/internal/httputil"
	"snaps_engagement/internal/model"
	"snaps_engagement/internal/service"
	"snaps_engagement/internal/transport/http/middleware"
)

type PostHandler struct {
	postService *service.PostService
	lifecycle   *service.LifecycleService
}

func NewPostHandler(postService *service.PostService, lifecycle *service.LifecycleService) *PostHandler {
	return &PostHandler{
		postService: postService,
		lifecycle:   lifecycle,
	}
}

// Create handles POST /posts
// Creates a new post for the authenticated user.
func (h *PostHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	var req model.CreatePostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}

	post, err := h.postService.Create(r.Context(), userID, req)
	if err != nil {
		httputil.WriteServiceError(w, r, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, post)
}

// GetByID handles GET /posts/{id}
// Returns a single post with the viewer's like and bookmark state.
func (h *PostHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	postID, ok := httputil.PathID(w, r, "id")
	if !ok {
		return
	}
	viewerID, _ := middleware.GetUserIDFromContext(r.Context())

	post, err := h.postService.GetByID(r.Context(), viewerID, postID)
	if err != nil {
		httputil.WriteServiceError(w, r, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, post)
}

// GetUserPosts handles GET /users/{id}/posts
func (h *PostHandler) GetUserPosts(w http.ResponseWriter, r *http.Request) {
	userID, ok := httputil.PathID(w, r, "id")
	if !ok {
		return
	}
	limit, ok := httputil.QueryLimit(w, r, 50)
	if !ok {
		return
	}
	viewerID, _ := middleware.GetUserIDFromContext(r.Context())

	posts, err := h.postService.ListByUser(r.Context(), viewerID, userID, limit)
	if err != nil {
		httputil.WriteServiceError(w, r, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"posts": posts,
	})
}

// Delete handles DELETE /posts/{id}
// Soft-deletes a post owned by the authenticated user.
func (h *PostHandler) Delete(w http.ResponseWriter, r *http.Request) {
	softDelete(w, r, h.lifecycle, model.EntityPost)
}
