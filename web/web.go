package web

import (
	"database/sql"
	"errors"
	"html/template"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/csrf"
	"github.com/rs/zerolog"

	"downtimelog/auth"
	"downtimelog/config"
	"downtimelog/duration"
	"downtimelog/i18n"
	"downtimelog/store"
)

// Handlers serves the server-rendered pages: login/registration,
// the downtime log, and logout.
type Handlers struct {
	auth    *auth.Service
	entries *store.DowntimeStore
	logger  zerolog.Logger
}

func NewHandlers(authSvc *auth.Service, entries *store.DowntimeStore, logger zerolog.Logger) *Handlers {
	return &Handlers{auth: authSvc, entries: entries, logger: logger}
}

func (h *Handlers) Routes(r chi.Router) {
	r.Get("/", h.Index)
	r.Get("/login", h.LoginPage)
	r.Post("/login", h.Login)
	r.Post("/register", h.Register)
	r.Get("/logout", h.Logout)
	r.Get("/home", h.Home)
	r.Post("/downtime/save", h.SaveEntry)
	r.Post("/downtime/delete", h.DeleteEntry)
}

func (h *Handlers) Index(w http.ResponseWriter, r *http.Request) {
	if CurrentUsername(r) != "" {
		http.Redirect(w, r, "/home", http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func (h *Handlers) LoginPage(w http.ResponseWriter, r *http.Request) {
	if CurrentUsername(r) != "" {
		http.Redirect(w, r, "/home", http.StatusSeeOther)
		return
	}
	renderTemplate(w, r, "login.html", nil)
}

func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	lang := i18n.DetectLanguage(r)
	ip := getClientIP(r)
	if !loginLimiter.Allow(ip) {
		renderTemplate(w, r, "login.html", map[string]any{"Error": i18n.T(lang, "TooManyAttempts")})
		return
	}

	username := r.FormValue("username")
	password := r.FormValue("password")

	if err := h.auth.Authenticate(r.Context(), username, password); err != nil {
		if !errors.Is(err, auth.ErrInvalidCredentials) {
			h.logger.Error().Err(err).Msg("login failed")
		}
		loginLimiter.RecordFailure(ip)
		renderTemplate(w, r, "login.html", map[string]any{
			"Error":    i18n.T(lang, "InvalidCredentials"),
			"Username": username,
		})
		return
	}

	loginLimiter.Reset(ip)
	SetSession(w, r, username)
	http.Redirect(w, r, "/home", http.StatusSeeOther)
}

func (h *Handlers) Register(w http.ResponseWriter, r *http.Request) {
	lang := i18n.DetectLanguage(r)
	ip := getClientIP(r)
	if !registerLimiter.Allow(ip) {
		renderTemplate(w, r, "login.html", map[string]any{"RegError": i18n.T(lang, "TooManyAttempts")})
		return
	}

	username := r.FormValue("username")
	password := r.FormValue("password")

	if err := h.auth.Register(r.Context(), username, password); err != nil {
		registerLimiter.RecordFailure(ip)
		msg := i18n.T(lang, "InternalError")
		if errors.Is(err, store.ErrConflict) {
			msg = i18n.T(lang, "UsernameAlreadyExists")
		} else {
			h.logger.Error().Err(err).Msg("registration failed")
		}
		renderTemplate(w, r, "login.html", map[string]any{"RegError": msg})
		return
	}

	// Record the attempt to limit account creation per IP
	registerLimiter.RecordFailure(ip)
	renderTemplate(w, r, "login.html", map[string]any{"RegSuccess": i18n.T(lang, "UserRegistered")})
}

func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	ClearSession(w, r)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// entryView is a table row on the home page.
type entryView struct {
	ID       int
	ClockIn  string
	ClockOut string
	Length   string
	Notes    string
}

const displayLayout = "02 Jan 2006 15:04"

// inputLayout is what a datetime-local input produces and consumes.
const inputLayout = "2006-01-02T15:04"

func (h *Handlers) Home(w http.ResponseWriter, r *http.Request) {
	username := CurrentUsername(r)
	if username == "" {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	lang := i18n.DetectLanguage(r)
	entries, err := h.entries.ListByUsername(r.Context(), username)
	if err != nil {
		h.logger.Error().Err(err).Msg("list entries failed")
		http.Error(w, i18n.T(lang, "InternalError"), http.StatusInternalServerError)
		return
	}

	views := make([]entryView, 0, len(entries))
	for _, e := range entries {
		v := entryView{
			ID:       e.ID,
			ClockIn:  e.ClockIn.Format(displayLayout),
			ClockOut: "N/A",
			Length:   duration.FormatLength(e.ClockIn, e.ClockOut),
		}
		if e.ClockOut != nil {
			v.ClockOut = e.ClockOut.Format(displayLayout)
		}
		if e.Notes != nil {
			v.Notes = *e.Notes
		}
		views = append(views, v)
	}

	data := map[string]any{
		"Username": username,
		"Entries":  views,
		"Total":    duration.Total(entries),
	}

	// Selecting "Edit" pre-fills the form, truncated to input precision.
	if editID, err := strconv.Atoi(r.URL.Query().Get("edit")); err == nil {
		for _, e := range entries {
			if e.ID != editID {
				continue
			}
			data["EditID"] = e.ID
			data["FormClockIn"] = e.ClockIn.Format(inputLayout)
			if e.ClockOut != nil {
				data["FormClockOut"] = e.ClockOut.Format(inputLayout)
			}
			if e.Notes != nil {
				data["FormNotes"] = *e.Notes
			}
		}
	}

	if key := r.URL.Query().Get("error"); key != "" {
		data["Error"] = i18n.T(lang, key)
	}

	renderTemplate(w, r, "home.html", data)
}

func (h *Handlers) SaveEntry(w http.ResponseWriter, r *http.Request) {
	username := CurrentUsername(r)
	if username == "" {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	clockIn, err := parseFormTime(r.FormValue("clockIn"))
	if err != nil || clockIn == nil {
		http.Redirect(w, r, "/home?error=InternalError", http.StatusSeeOther)
		return
	}
	clockOut, err := parseFormTime(r.FormValue("clockOut"))
	if err != nil {
		http.Redirect(w, r, "/home?error=InternalError", http.StatusSeeOther)
		return
	}
	notes := r.FormValue("notes")

	if idStr := r.FormValue("id"); idStr != "" {
		id, err := strconv.Atoi(idStr)
		if err != nil {
			http.Redirect(w, r, "/home?error=EntryNotFound", http.StatusSeeOther)
			return
		}
		patch := store.EntryPatch{
			Username: &username,
			ClockIn:  clockIn,
			ClockOut: nullTime(clockOut),
			Notes:    nullString(notes),
		}
		if _, err := h.entries.Update(r.Context(), id, patch); err != nil {
			key := "InternalError"
			if errors.Is(err, store.ErrNotFound) {
				key = "EntryNotFound"
			} else {
				h.logger.Error().Err(err).Int("id", id).Msg("update entry failed")
			}
			http.Redirect(w, r, "/home?error="+key, http.StatusSeeOther)
			return
		}
	} else {
		if _, err := h.entries.Create(r.Context(), username, *clockIn, clockOut, &notes); err != nil {
			h.logger.Error().Err(err).Msg("create entry failed")
			http.Redirect(w, r, "/home?error=InternalError", http.StatusSeeOther)
			return
		}
	}

	http.Redirect(w, r, "/home", http.StatusSeeOther)
}

func (h *Handlers) DeleteEntry(w http.ResponseWriter, r *http.Request) {
	username := CurrentUsername(r)
	if username == "" {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	id, err := strconv.Atoi(r.FormValue("id"))
	if err != nil {
		http.Redirect(w, r, "/home?error=EntryNotFound", http.StatusSeeOther)
		return
	}

	if err := h.entries.Delete(r.Context(), id); err != nil {
		key := "InternalError"
		if errors.Is(err, store.ErrNotFound) {
			key = "EntryNotFound"
		} else {
			h.logger.Error().Err(err).Int("id", id).Msg("delete entry failed")
		}
		http.Redirect(w, r, "/home?error="+key, http.StatusSeeOther)
		return
	}

	http.Redirect(w, r, "/home", http.StatusSeeOther)
}

func parseFormTime(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	for _, layout := range []string{inputLayout, time.RFC3339} {
		if t, err := time.Parse(layout, value); err == nil {
			return &t, nil
		}
	}
	return nil, errors.New("invalid time value")
}

func nullTime(t *time.Time) *sql.NullTime {
	if t == nil {
		return &sql.NullTime{}
	}
	return &sql.NullTime{Time: *t, Valid: true}
}

func nullString(s string) *sql.NullString {
	return &sql.NullString{String: s, Valid: true}
}

func renderTemplate(w http.ResponseWriter, r *http.Request, name string, data any) {
	lang := i18n.DetectLanguage(r)

	funcMap := template.FuncMap{
		"T": func(key string) string {
			return i18n.T(lang, key)
		},
	}

	tmpl, err := template.New(name).Funcs(funcMap).ParseFiles("templates/layout.html", "templates/"+name)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	csrfField := csrf.TemplateField(r)

	if m, ok := data.(map[string]any); ok {
		if _, exists := m["AppName"]; !exists {
			m["AppName"] = config.AppConfig.AppName
		}
		m["Lang"] = lang
		m["csrfField"] = csrfField
	} else if data == nil {
		data = map[string]any{
			"AppName":   config.AppConfig.AppName,
			"Lang":      lang,
			"csrfField": csrfField,
		}
	}

	tmpl.ExecuteTemplate(w, "layout", data)
}
