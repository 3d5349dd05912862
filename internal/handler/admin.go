package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"snaps_engagement/internal/httputil"
	"snaps_engagement/internal/model"
	"snaps_engagement/internal/service"
)

// AdminHandler exposes counter repair and moderation deletes. Routes are
// mounted behind the admin token check.
type AdminHandler struct {
	reconcile *service.ReconcileService
	lifecycle *service.LifecycleService
}

func NewAdminHandler(reconcile *service.ReconcileService, lifecycle *service.LifecycleService) *AdminHandler {
	return &AdminHandler{
		reconcile: reconcile,
		lifecycle: lifecycle,
	}
}

// Reconcile handles POST /admin/reconcile/{entity}/{id}
func (h *AdminHandler) Reconcile(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.PathID(w, r, "id")
	if !ok {
		return
	}

	var (
		report *model.ReconcileReport
		err    error
	)
	switch model.EntityKind(chi.URLParam(r, "entity")) {
	case model.EntityUser:
		report, err = h.reconcile.ReconcileUser(r.Context(), id)
	case model.EntityPost:
		report, err = h.reconcile.ReconcilePost(r.Context(), id)
	case model.EntityComment:
		report, err = h.reconcile.ReconcileComment(r.Context(), id)
	default:
		err = model.ErrUnknownEntityKind
	}
	if err != nil {
		httputil.WriteServiceError(w, r, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, report)
}

// ReconcileAllUsers handles POST /admin/reconcile/users
func (h *AdminHandler) ReconcileAllUsers(w http.ResponseWriter, r *http.Request) {
	checked, drifted, err := h.reconcile.ReconcileAllUsers(r.Context())
	if err != nil {
		httputil.WriteServiceError(w, r, err)
		return
	}

	if drifted == nil {
		drifted = []*model.ReconcileReport{}
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"checked": checked,
		"drifted": drifted,
	})
}

// SoftDelete handles DELETE /admin/{entity}/{id}
// Removes any post, comment or collection regardless of owner.
func (h *AdminHandler) SoftDelete(w http.ResponseWriter, r *http.Request) {
	kind, err := model.ParseEntityKind(chi.URLParam(r, "entity"))
	if err != nil {
		httputil.WriteServiceError(w, r, err)
		return
	}
	id, ok := httputil.PathID(w, r, "id")
	if !ok {
		return
	}

	changed, err := h.lifecycle.SoftDelete(r.Context(), kind, id)
	if err != nil {
		httputil.WriteServiceError(w, r, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]bool{"changed": changed})
}
