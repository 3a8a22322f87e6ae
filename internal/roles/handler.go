package roles

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/meridian-admin/meridian/internal/shared"
	"github.com/meridian-admin/meridian/internal/view"
)

const loadFailureBanner = "Failed to load data. Please check permissions."

// Handler manages role management endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	templates *view.Engine
	csrf      *shared.CSRFManager
	sessions  *shared.SessionManager
	validator *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, templates *view.Engine, csrf *shared.CSRFManager, sessions *shared.SessionManager) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		templates: templates,
		csrf:      csrf,
		sessions:  sessions,
		validator: validator.New(),
	}
}

// MountRoutes registers role routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Get("/new", h.createForm)
	r.Post("/", h.create)
	r.Get("/{id}/edit", h.editForm)
	r.Post("/{id}/edit", h.update)
	r.Post("/{id}/delete", h.delete)
}

type formErrors map[string]string

type roleForm struct {
	Name string `validate:"required"`
	Code string `validate:"required"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	roleList, err := h.service.List(r.Context())
	if err != nil {
		h.logger.Error("load role roster failed", slog.Any("error", err))
		h.flash(r, "error", shared.UserMessage(err, loadFailureBanner))
		h.render(w, r, "pages/roles/list.html", map[string]any{
			"Errors":  formErrors{"general": loadFailureBanner},
			"Modules": h.service.Modules(),
		}, http.StatusBadGateway)
		return
	}
	h.render(w, r, "pages/roles/list.html", map[string]any{
		"Roles":   roleList,
		"Errors":  formErrors{},
		"Modules": h.service.Modules(),
	}, http.StatusOK)
}

func (h *Handler) createForm(w http.ResponseWriter, r *http.Request) {
	draft := NewDraft(h.service.Modules())
	h.renderForm(w, r, draft, formErrors{}, http.StatusOK)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	draft := h.parseDraft(r)
	errs := h.validate(draft)
	if len(errs) > 0 {
		h.renderForm(w, r, draft, errs, http.StatusBadRequest)
		return
	}

	_, err := h.service.Create(r.Context(), Input{
		Name:        draft.Name,
		Code:        draft.Code,
		Permissions: draft.Permissions,
	})
	if err != nil {
		h.logger.Error("create role failed", slog.Any("error", err))
		errs["general"] = shared.UserMessage(err, "Failed to save role.")
		h.renderForm(w, r, draft, errs, http.StatusBadGateway)
		return
	}

	h.redirectWithFlash(w, r, "/roles", "success", "Role created")
}

func (h *Handler) editForm(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	role, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.logger.Error("find role failed", slog.Any("error", err), slog.String("id", id))
		h.redirectWithFlash(w, r, "/roles", "error", shared.UserMessage(err, "Role not found."))
		return
	}
	draft := DraftFrom(role, h.service.Modules())
	h.renderForm(w, r, draft, formErrors{}, http.StatusOK)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	draft := h.parseDraft(r)
	draft.ID = id
	// Codes are write-once. The form ships the input disabled; the service
	// keeps the stored code regardless, so only the name needs validating
	// here.
	errs := formErrors{}
	if draft.Name == "" {
		errs["Name"] = "Name is required"
	}
	if len(errs) > 0 {
		h.renderForm(w, r, draft, errs, http.StatusBadRequest)
		return
	}

	_, err := h.service.Update(r.Context(), id, Input{
		Name:        draft.Name,
		Code:        draft.Code,
		Permissions: draft.Permissions,
	})
	if err != nil {
		h.logger.Error("update role failed", slog.Any("error", err), slog.String("id", id))
		errs["general"] = shared.UserMessage(err, "Failed to save role.")
		h.renderForm(w, r, draft, errs, http.StatusBadGateway)
		return
	}

	h.redirectWithFlash(w, r, "/roles", "success", "Role updated")
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.service.Delete(r.Context(), id); err != nil {
		h.logger.Error("delete role failed", slog.Any("error", err), slog.String("id", id))
		fallback := "Failed to delete role."
		if errors.Is(err, shared.ErrProtectedRole) {
			fallback = "The " + SuperAdminCode + " role is protected and cannot be deleted."
		}
		h.redirectWithFlash(w, r, "/roles", "error", shared.UserMessage(err, fallback))
		return
	}
	h.redirectWithFlash(w, r, "/roles", "success", "Role deleted")
}

// parseDraft rebuilds the permission draft from checkbox fields named
// perm_<module>_<action>. The result is total over the configured modules
// by construction.
func (h *Handler) parseDraft(r *http.Request) Draft {
	draft := NewDraft(h.service.Modules())
	draft.Name = r.PostFormValue("name")
	draft.Code = NormalizeCode(r.PostFormValue("code"))
	for _, module := range h.service.Modules() {
		set := PermissionSet{}
		for _, action := range Actions {
			if r.PostFormValue("perm_"+module+"_"+action) != "" {
				switch action {
				case "view":
					set.View = true
				case "create":
					set.Create = true
				case "edit":
					set.Edit = true
				case "delete":
					set.Delete = true
				}
			}
		}
		draft.Permissions[module] = set
	}
	return draft
}

func (h *Handler) validate(draft Draft) formErrors {
	errs := formErrors{}
	form := roleForm{Name: draft.Name, Code: draft.Code}
	if err := h.validator.Struct(form); err != nil {
		for _, fieldErr := range err.(validator.ValidationErrors) {
			errs[fieldErr.Field()] = fieldErr.Field() + " is required"
		}
	}
	return errs
}

func (h *Handler) renderForm(w http.ResponseWriter, r *http.Request, draft Draft, errs formErrors, status int) {
	h.render(w, r, "pages/roles/form.html", map[string]any{
		"Draft":   draft,
		"Errors":  errs,
		"Modules": h.service.Modules(),
		"Actions": Actions,
		"IsEdit":  draft.ID != "",
	}, status)
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, template string, data map[string]any, status int) {
	sess := shared.SessionFromContext(r.Context())
	csrfToken, _ := h.csrf.EnsureToken(r.Context(), sess)
	var flash *shared.FlashMessage
	if sess != nil {
		flash = sess.PopFlash()
	}
	viewData := view.TemplateData{Title: "Roles", CSRFToken: csrfToken, Flash: flash, CurrentPath: r.URL.Path, Data: data}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := h.templates.Render(w, template, viewData); err != nil {
		h.logger.Error("render template", slog.Any("error", err), slog.String("template", template))
	}
}

func (h *Handler) flash(r *http.Request, kind, message string) {
	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		sess.AddFlash(shared.FlashMessage{Kind: kind, Message: message})
	}
}

func (h *Handler) redirectWithFlash(w http.ResponseWriter, r *http.Request, location, kind, message string) {
	h.flash(r, kind, message)
	http.Redirect(w, r, location, http.StatusSeeOther)
}
