package users

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/meridian-admin/meridian/internal/roles"
	"github.com/meridian-admin/meridian/internal/shared"
	"github.com/meridian-admin/meridian/internal/view"
)

// loadFailureBanner is shown when the roster fetch fails. Load failures
// usually mean the API token lacks access rather than a dead server.
const loadFailureBanner = "Failed to load data. Please check permissions."

// Handler manages user management endpoints.
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

// MountRoutes registers user routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Get("/new", h.createForm)
	r.Post("/", h.create)
	r.Get("/{id}/edit", h.editForm)
	r.Post("/{id}/edit", h.update)
	r.Post("/{id}/delete", h.delete)
}

type formErrors map[string]string

type userForm struct {
	Name     string `validate:"required"`
	Email    string `validate:"required,email"`
	RoleID   string
	Password string `validate:"omitempty,min=6"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	userList, _, err := h.service.Load(r.Context())
	if err != nil {
		h.logger.Error("load user roster failed", slog.Any("error", err))
		h.flash(r, "error", shared.UserMessage(err, loadFailureBanner))
		h.render(w, r, "pages/users/list.html", map[string]any{
			"Errors": formErrors{"general": loadFailureBanner},
		}, http.StatusBadGateway)
		return
	}
	h.render(w, r, "pages/users/list.html", map[string]any{
		"Users":  userList,
		"Errors": formErrors{},
	}, http.StatusOK)
}

func (h *Handler) createForm(w http.ResponseWriter, r *http.Request) {
	roleList, err := h.service.Roles(r.Context())
	if err != nil {
		h.logger.Error("load roles for user form failed", slog.Any("error", err))
		h.flash(r, "error", shared.UserMessage(err, loadFailureBanner))
		http.Redirect(w, r, "/users", http.StatusSeeOther)
		return
	}
	h.renderForm(w, r, userForm{}, formErrors{}, roleList, "", http.StatusOK)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	form := userForm{
		Name:     r.PostFormValue("name"),
		Email:    r.PostFormValue("email"),
		RoleID:   r.PostFormValue("role_id"),
		Password: r.PostFormValue("password"),
	}
	errs := h.validate(form)
	if form.Password == "" {
		errs["Password"] = "Password is required"
	}
	if len(errs) > 0 {
		h.renderForm(w, r, form, errs, h.formRoles(r), "", http.StatusBadRequest)
		return
	}

	_, err := h.service.Create(r.Context(), Input{
		Name:     form.Name,
		Email:    form.Email,
		RoleID:   form.RoleID,
		Password: form.Password,
	})
	if err != nil {
		h.logger.Error("create user failed", slog.Any("error", err))
		errs["general"] = shared.UserMessage(err, "Failed to save user.")
		h.renderForm(w, r, form, errs, h.formRoles(r), "", http.StatusBadGateway)
		return
	}

	h.redirectWithFlash(w, r, "/users", "success", "User created")
}

func (h *Handler) editForm(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	user, roleList, err := h.service.Find(r.Context(), id)
	if err != nil {
		h.logger.Error("find user failed", slog.Any("error", err), slog.String("id", id))
		h.redirectWithFlash(w, r, "/users", "error", shared.UserMessage(err, "User not found."))
		return
	}
	// Password stays blank on edit; an untouched field leaves the stored
	// password as-is.
	form := userForm{Name: user.Name, Email: user.Email, RoleID: user.RoleID}
	h.renderForm(w, r, form, formErrors{}, roleList, id, http.StatusOK)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	form := userForm{
		Name:     r.PostFormValue("name"),
		Email:    r.PostFormValue("email"),
		RoleID:   r.PostFormValue("role_id"),
		Password: r.PostFormValue("password"),
	}
	errs := h.validate(form)
	if len(errs) > 0 {
		h.renderForm(w, r, form, errs, h.formRoles(r), id, http.StatusBadRequest)
		return
	}

	_, err := h.service.Update(r.Context(), id, Input{
		Name:     form.Name,
		Email:    form.Email,
		RoleID:   form.RoleID,
		Password: form.Password,
	})
	if err != nil {
		h.logger.Error("update user failed", slog.Any("error", err), slog.String("id", id))
		errs["general"] = shared.UserMessage(err, "Failed to save user.")
		h.renderForm(w, r, form, errs, h.formRoles(r), id, http.StatusBadGateway)
		return
	}

	h.redirectWithFlash(w, r, "/users", "success", "User updated")
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.service.Delete(r.Context(), id); err != nil {
		h.logger.Error("delete user failed", slog.Any("error", err), slog.String("id", id))
		h.redirectWithFlash(w, r, "/users", "error", shared.UserMessage(err, "Failed to delete user."))
		return
	}
	h.redirectWithFlash(w, r, "/users", "success", "User deleted")
}

func (h *Handler) validate(form userForm) formErrors {
	errs := formErrors{}
	if err := h.validator.Struct(form); err != nil {
		for _, fieldErr := range err.(validator.ValidationErrors) {
			errs[fieldErr.Field()] = validationMessage(fieldErr)
		}
	}
	return errs
}

func validationMessage(fieldErr validator.FieldError) string {
	switch fieldErr.Tag() {
	case "required":
		return fieldErr.Field() + " is required"
	case "email":
		return "Enter a valid email address"
	case "min":
		return fieldErr.Field() + " must be at least " + fieldErr.Param() + " characters"
	default:
		return fieldErr.Field() + " is invalid"
	}
}

// formRoles fetches the role list for re-rendering a failed form. A fetch
// failure here only costs the role select its options.
func (h *Handler) formRoles(r *http.Request) []roles.Role {
	roleList, err := h.service.Roles(r.Context())
	if err != nil {
		h.logger.Warn("load roles for form rerender failed", slog.Any("error", err))
		return nil
	}
	return roleList
}

func (h *Handler) renderForm(w http.ResponseWriter, r *http.Request, form userForm, errs formErrors, roleList []roles.Role, id string, status int) {
	h.render(w, r, "pages/users/form.html", map[string]any{
		"Form":   form,
		"Errors": errs,
		"Roles":  roleList,
		"UserID": id,
		"IsEdit": id != "",
	}, status)
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, template string, data map[string]any, status int) {
	sess := shared.SessionFromContext(r.Context())
	csrfToken, _ := h.csrf.EnsureToken(r.Context(), sess)
	var flash *shared.FlashMessage
	if sess != nil {
		flash = sess.PopFlash()
	}
	viewData := view.TemplateData{Title: "Users", CSRFToken: csrfToken, Flash: flash, CurrentPath: r.URL.Path, Data: data}
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
