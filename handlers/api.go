package handlers

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"downtimelog/auth"
	"downtimelog/store"
)

// API serves the JSON endpoints under /api.
type API struct {
	auth    *auth.Service
	entries *store.DowntimeStore
	logger  zerolog.Logger
}

func NewAPI(authSvc *auth.Service, entries *store.DowntimeStore, logger zerolog.Logger) *API {
	return &API{auth: authSvc, entries: entries, logger: logger}
}

func (a *API) Routes(r chi.Router) {
	r.Get("/health", a.Health)
	r.Post("/register", a.Register)
	r.Post("/login", a.Login)
	r.Get("/downtime", a.ListDowntime)
	r.Post("/downtime", a.CreateDowntime)
	r.Put("/downtime/{id}", a.UpdateDowntime)
	r.Delete("/downtime/{id}", a.DeleteDowntime)
}

func (a *API) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

type credentialsRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func (a *API) Register(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := a.auth.Register(r.Context(), req.Username, req.Password); err != nil {
		if errors.Is(err, store.ErrConflict) {
			writeError(w, http.StatusConflict, "Username already exists")
			return
		}
		a.logger.Error().Err(err).Str("username", req.Username).Msg("registration failed")
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeMessage(w, http.StatusCreated, "User registered successfully")
}

func (a *API) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := a.auth.Authenticate(r.Context(), req.Username, req.Password); err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			writeError(w, http.StatusBadRequest, "Invalid credentials")
			return
		}
		a.logger.Error().Err(err).Msg("login failed")
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeMessage(w, http.StatusOK, "Login successful")
}

func (a *API) ListDowntime(w http.ResponseWriter, r *http.Request) {
	username := r.URL.Query().Get("username")

	entries, err := a.entries.ListByUsername(r.Context(), username)
	if err != nil {
		a.logger.Error().Err(err).Msg("list entries failed")
		writeError(w, http.StatusInternalServerError, "Error fetching downtime entries")
		return
	}

	writeJSON(w, http.StatusOK, entries)
}

// entryRequest is the wire shape for create and update. Timestamps
// arrive as strings so both RFC 3339 and datetime-local values parse.
type entryRequest struct {
	Username *string `json:"username"`
	ClockIn  *string `json:"clockIn"`
	ClockOut *string `json:"clockOut"`
	Notes    *string `json:"notes"`
}

func (a *API) CreateDowntime(w http.ResponseWriter, r *http.Request) {
	var req entryRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Username == nil || req.ClockIn == nil || *req.ClockIn == "" {
		writeError(w, http.StatusBadRequest, "username and clockIn are required")
		return
	}

	clockIn, err := parseTimestamp(*req.ClockIn)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var clockOut *time.Time
	if req.ClockOut != nil && *req.ClockOut != "" {
		t, err := parseTimestamp(*req.ClockOut)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		clockOut = &t
	}

	entry, err := a.entries.Create(r.Context(), *req.Username, clockIn, clockOut, req.Notes)
	if err != nil {
		a.logger.Error().Err(err).Msg("create entry failed")
		writeError(w, http.StatusInternalServerError, "Error creating downtime entry")
		return
	}

	writeJSON(w, http.StatusCreated, entry)
}

func (a *API) UpdateDowntime(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "Entry not found")
		return
	}

	var req entryRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	patch := store.EntryPatch{Username: req.Username}
	if req.ClockIn != nil {
		t, err := parseTimestamp(*req.ClockIn)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		patch.ClockIn = &t
	}
	if req.ClockOut != nil {
		// An empty clockOut reopens the entry.
		nt := sql.NullTime{}
		if *req.ClockOut != "" {
			t, err := parseTimestamp(*req.ClockOut)
			if err != nil {
				writeError(w, http.StatusBadRequest, err.Error())
				return
			}
			nt = sql.NullTime{Time: t, Valid: true}
		}
		patch.ClockOut = &nt
	}
	if req.Notes != nil {
		patch.Notes = &sql.NullString{String: *req.Notes, Valid: true}
	}

	entry, err := a.entries.Update(r.Context(), id, patch)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Entry not found")
			return
		}
		a.logger.Error().Err(err).Int("id", id).Msg("update entry failed")
		writeError(w, http.StatusInternalServerError, "Error updating downtime entry")
		return
	}

	writeJSON(w, http.StatusOK, entry)
}

func (a *API) DeleteDowntime(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "Entry not found")
		return
	}

	if err := a.entries.Delete(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Entry not found")
			return
		}
		a.logger.Error().Err(err).Int("id", id).Msg("delete entry failed")
		writeError(w, http.StatusInternalServerError, "Error deleting downtime entry")
		return
	}

	writeMessage(w, http.StatusOK, "Entry deleted")
}
