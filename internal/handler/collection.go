package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"snaps_engagement/internal/httputil"
	"snaps_engagement/internal/model"
	"snaps_engagement/internal/service"
	"snaps_engagement/internal/transport/http/middleware"
)

type CollectionHandler struct {
	collectionService *service.CollectionService
	lifecycle         *service.LifecycleService
}

func NewCollectionHandler(collectionService *service.CollectionService, lifecycle *service.LifecycleService) *CollectionHandler {
	return &CollectionHandler{
		collectionService: collectionService,
		lifecycle:         lifecycle,
	}
}

// Create handles POST /collections
func (h *CollectionHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	var req model.CreateCollectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}

	collection, err := h.collectionService.Create(r.Context(), userID, req)
	if err != nil {
		httputil.WriteServiceError(w, r, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, collection)
}

// ListMine handles GET /collections
func (h *CollectionHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	collections, err := h.collectionService.ListByOwner(r.Context(), userID)
	if err != nil {
		httputil.WriteServiceError(w, r, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"collections": collections,
	})
}

// ListPosts handles GET /collections/{id}/posts
// Readable by the owner and by members.
func (h *CollectionHandler) ListPosts(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}
	collectionID, ok := httputil.PathID(w, r, "id")
	if !ok {
		return
	}
	limit, ok := httputil.QueryLimit(w, r, 50)
	if !ok {
		return
	}

	posts, err := h.collectionService.ListPosts(r.Context(), userID, collectionID, limit)
	if err != nil {
		httputil.WriteServiceError(w, r, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"posts": posts,
	})
}

// AddPost handles PUT /collections/{id}/posts/{postID}
func (h *CollectionHandler) AddPost(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, "postID", http.StatusCreated, h.collectionService.AddPost)
}

// RemovePost handles DELETE /collections/{id}/posts/{postID}
func (h *CollectionHandler) RemovePost(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, "postID", http.StatusNoContent, h.collectionService.RemovePost)
}

// AddMember handles PUT /collections/{id}/members/{userID}
func (h *CollectionHandler) AddMember(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, "userID", http.StatusCreated, h.collectionService.AddMember)
}

// RemoveMember handles DELETE /collections/{id}/members/{userID}
func (h *CollectionHandler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, "userID", http.StatusNoContent, h.collectionService.RemoveMember)
}

// Delete handles DELETE /collections/{id}
func (h *CollectionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	softDelete(w, r, h.lifecycle, model.EntityCollection)
}

type collectionMutation func(ctx context.Context, actorID, collectionID, targetID int64) error

func (h *CollectionHandler) mutate(w http.ResponseWriter, r *http.Request, param string, status int, fn collectionMutation) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}
	collectionID, ok := httputil.PathID(w, r, "id")
	if !ok {
		return
	}
	targetID, ok := httputil.PathID(w, r, param)
	if !ok {
		return
	}

	if err := fn(r.Context(), userID, collectionID, targetID); err != nil {
		httputil.WriteServiceError(w, r, err)
		return
	}

	w.WriteHeader(status)
}
