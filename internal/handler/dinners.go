package handler

import (
	"net/http"

	"github.com/repoeli/dinner-hoting-app/internal/app"
	"github.com/repoeli/dinner-hoting-app/internal/filter"
	"github.com/repoeli/dinner-hoting-app/internal/model"
)

// Index renders the owned and discoverable lists, loading dinners on the
// first visit.
func (h *TemplateHandler) Index(w http.ResponseWriter, r *http.Request) {
	st := h.ensureLoaded(r.Context())
	h.render(w, "index.html", h.listPage(r.Context(), st))
}

// DinnerList renders the lists partial. A filter parameter replaces the
// selected filter.
func (h *TemplateHandler) DinnerList(w http.ResponseWriter, r *http.Request) {
	st := h.ensureLoaded(r.Context())
	if raw := r.URL.Query().Get("filter"); raw != "" {
		k, err := filter.ParseKey(raw)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		st = h.session.SetFilter(k)
	}
	h.renderPartial(w, "dinners", h.listPage(r.Context(), st))
}

// DinnerPage renders the detail page of one dinner.
func (h *TemplateHandler) DinnerPage(w http.ResponseWriter, r *http.Request) {
	st := h.ensureLoaded(r.Context())
	page := detailPage{Title: appTitle, User: h.session.User()}

	d, reservations, err := h.lookupDinner(r.Context(), st, model.ID(r.PathValue("id")))
	if err != nil {
		_, baseURL := h.store(st)
		page.Alert = errorAlert("Failed to load dinner details.", err, baseURL)
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(notFoundStatus(err))
		if err := h.templates.ExecuteTemplate(w, "dinner.html", page); err != nil {
			h.logger.Error("template error", "template", "dinner.html", "error", err)
		}
		return
	}

	page.Title = d.Title + " - " + appTitle
	page.Detail = h.detail(d, reservations, st)
	h.render(w, "dinner.html", page)
}

// DinnerDetail renders the detail partial, used for live refresh.
func (h *TemplateHandler) DinnerDetail(w http.ResponseWriter, r *http.Request) {
	st := h.ensureLoaded(r.Context())
	d, reservations, err := h.lookupDinner(r.Context(), st, model.ID(r.PathValue("id")))
	if err != nil {
		_, baseURL := h.store(st)
		h.renderAlert(w, notFoundStatus(err), errorAlert("Failed to load dinner details.", err, baseURL))
		return
	}
	h.renderPartial(w, "dinner-detail", h.detail(d, reservations, st))
}

// Reload runs a full resolution again (the Retry action).
func (h *TemplateHandler) Reload(w http.ResponseWriter, r *http.Request) {
	st := h.session.Load(r.Context())
	h.renderPartial(w, "dinners", h.listPage(r.Context(), st))
}

// UseDemo switches to the embedded demo dataset.
func (h *TemplateHandler) UseDemo(w http.ResponseWriter, r *http.Request) {
	st := h.session.UseDemo()
	h.renderPartial(w, "dinners", h.listPage(r.Context(), st))
}

// Reconnect clears the banner and resolves from the first candidate.
func (h *TemplateHandler) Reconnect(w http.ResponseWriter, r *http.Request) {
	st := h.session.Reconnect(r.Context())
	h.renderPartial(w, "dinners", h.listPage(r.Context(), st))
}

// DismissBanner hides the banner without reloading.
func (h *TemplateHandler) DismissBanner(w http.ResponseWriter, r *http.Request) {
	st := h.session.DismissBanner()
	h.renderPartial(w, "dinners", h.listPage(r.Context(), st))
}

// reload refreshes the shared lists after a write.
func (h *TemplateHandler) reload(r *http.Request) app.State {
	return h.session.Load(r.Context())
}
