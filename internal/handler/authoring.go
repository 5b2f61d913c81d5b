package handler

import (
	"errors"
	"net/http"

	"github.com/repoeli/dinner-hoting-app/internal/app"
	"github.com/repoeli/dinner-hoting-app/internal/authoring"
	"github.com/repoeli/dinner-hoting-app/internal/imagesearch"
	"github.com/repoeli/dinner-hoting-app/internal/model"
	ws "github.com/repoeli/dinner-hoting-app/internal/websocket"
)

type dinnerForm struct {
	Form       authoring.Form
	Categories []string
	Alert      *alert
}

type imageResults struct {
	Result *imagesearch.Result
	Alert  *alert
}

func newDinnerForm(f authoring.Form) dinnerForm {
	return dinnerForm{Form: f, Categories: authoring.Categories}
}

// NewDinnerForm renders the form in create mode.
func (h *TemplateHandler) NewDinnerForm(w http.ResponseWriter, r *http.Request) {
	h.renderPartial(w, "dinner-form", newDinnerForm(authoring.NewCreateForm()))
}

// EditDinnerForm renders the form pre-populated with one of the user's
// dinners.
func (h *TemplateHandler) EditDinnerForm(w http.ResponseWriter, r *http.Request) {
	st := h.ensureLoaded(r.Context())
	d, _, err := h.lookupDinner(r.Context(), st, model.ID(r.PathValue("id")))
	if err != nil {
		_, baseURL := h.store(st)
		h.renderAlert(w, notFoundStatus(err), errorAlert("Could not load dinner details for editing.", err, baseURL))
		return
	}
	if !app.Owns(d, h.session.User(), h.session.Options()) {
		h.renderAlert(w, http.StatusForbidden, &alert{Level: "warning", Message: "Only the host can edit this dinner."})
		return
	}
	h.renderPartial(w, "dinner-form", newDinnerForm(authoring.EditForm(d)))
}

// SaveDinner creates or updates a dinner depending on whether the form
// carries an id. After an update the form returns to create mode.
func (h *TemplateHandler) SaveDinner(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form data", http.StatusBadRequest)
		return
	}
	form := authoring.FormFromValues(r.PostForm)
	if form.Mode() == authoring.ModeEdit {
		h.updateDinner(w, r, form)
		return
	}

	d, err := authoring.BuildDinner(r.PostForm, h.session.User(), h.now())
	if err != nil {
		h.renderPartial(w, "dinner-form", newDinnerForm(form.WithErrors(err)))
		return
	}

	client, baseURL := h.store(h.session.State())
	created, err := client.CreateDinner(r.Context(), d)
	if err != nil {
		h.logger.Error("create dinner", "title", d.Title, "error", err)
		page := newDinnerForm(form)
		page.Alert = errorAlert("Error creating dinner.", err, baseURL)
		h.renderPartial(w, "dinner-form", page)
		return
	}

	h.metrics.DinnersCreated.Inc()
	h.hub.Broadcast(ws.DinnerCreated(*created))
	h.logger.Info("dinner created", "id", created.ID, "title", created.Title)
	h.reload(r)

	page := newDinnerForm(authoring.NewCreateForm())
	page.Alert = successAlert("Your dinner event has been created!")
	changed(w)
	h.renderPartial(w, "dinner-form", page)
}

func (h *TemplateHandler) updateDinner(w http.ResponseWriter, r *http.Request, form authoring.Form) {
	st := h.session.State()
	existing, _, err := h.lookupDinner(r.Context(), st, form.EditID)
	if err != nil {
		_, baseURL := h.store(st)
		h.renderAlert(w, notFoundStatus(err), errorAlert("Could not load dinner details for editing.", err, baseURL))
		return
	}
	if !app.Owns(existing, h.session.User(), h.session.Options()) {
		h.renderAlert(w, http.StatusForbidden, &alert{Level: "warning", Message: "Only the host can edit this dinner."})
		return
	}

	patch, err := authoring.BuildPatch(r.PostForm, existing)
	if err != nil {
		h.renderPartial(w, "dinner-form", newDinnerForm(form.WithErrors(err)))
		return
	}

	client, baseURL := h.store(st)
	updated, err := client.PatchDinner(r.Context(), existing.ID, patch)
	if err != nil {
		h.logger.Error("update dinner", "id", existing.ID, "error", err)
		page := newDinnerForm(form)
		page.Alert = errorAlert("Error updating dinner. Please try again.", err, baseURL)
		h.renderPartial(w, "dinner-form", page)
		return
	}

	h.metrics.DinnersUpdated.Inc()
	h.hub.Broadcast(ws.DinnerUpdated(*updated))
	h.logger.Info("dinner updated", "id", updated.ID)
	h.reload(r)

	page := newDinnerForm(form.Reset())
	page.Alert = successAlert("Dinner updated successfully!")
	changed(w)
	h.renderPartial(w, "dinner-form", page)
}

// ImageSearch renders provider results, or the sample images when the
// provider is unavailable.
func (h *TemplateHandler) ImageSearch(w http.ResponseWriter, r *http.Request) {
	res, err := h.images.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		a := &alert{Level: "danger", Message: "Error loading images. Please try again or enter an image URL directly."}
		if errors.Is(err, imagesearch.ErrEmptyQuery) {
			a = &alert{Level: "warning", Message: "Please enter a search term for images"}
		}
		h.renderPartial(w, "image-results", imageResults{Alert: a})
		return
	}

	source := "provider"
	if res.Fallback {
		source = "fallback"
	}
	h.metrics.ImageSearches.WithLabelValues(source).Inc()
	h.renderPartial(w, "image-results", imageResults{Result: &res})
}
