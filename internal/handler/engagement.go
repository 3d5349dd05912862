package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"snaps_engagement/internal/httputil"
	"snaps_engagement/internal/model"
	"snaps_engagement/internal/service"
	"snaps_engagement/internal/transport/http/middleware"
)

type EngagementHandler struct {
	toggles     *service.ToggleService
	collections *service.CollectionService
}

func NewEngagementHandler(toggles *service.ToggleService, collections *service.CollectionService) *EngagementHandler {
	return &EngagementHandler{
		toggles:     toggles,
		collections: collections,
	}
}

// Toggle handles POST /toggles/{kind}/{id}
// Flips the actor's follow, post like or comment like.
func (h *EngagementHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	kind, err := model.ParseTargetKind(chi.URLParam(r, "kind"))
	if err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}
	h.toggle(w, r, kind)
}

// ToggleFollow handles POST /users/{id}/follow
func (h *EngagementHandler) ToggleFollow(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, model.TargetUser)
}

// TogglePostLike handles POST /posts/{id}/like
func (h *EngagementHandler) TogglePostLike(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, model.TargetPost)
}

// ToggleCommentLike handles POST /comments/{id}/like
func (h *EngagementHandler) ToggleCommentLike(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, model.TargetComment)
}

func (h *EngagementHandler) toggle(w http.ResponseWriter, r *http.Request, kind model.TargetKind) {
	actorID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}
	targetID, ok := httputil.PathID(w, r, "id")
	if !ok {
		return
	}

	result, err := h.toggles.Toggle(r.Context(), actorID, kind, targetID)
	if err != nil {
		httputil.WriteServiceError(w, r, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, result)
}

// ToggleBookmark handles POST /posts/{id}/bookmark
// Adds the post to, or removes it from, the actor's default collection.
func (h *EngagementHandler) ToggleBookmark(w http.ResponseWriter, r *http.Request) {
	actorID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}
	postID, ok := httputil.PathID(w, r, "id")
	if !ok {
		return
	}

	result, err := h.collections.ToggleInDefaultCollection(r.Context(), actorID, postID)
	if err != nil {
		httputil.WriteServiceError(w, r, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, result)
}
