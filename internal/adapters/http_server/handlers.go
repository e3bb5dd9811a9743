// internal/adapters/http_server/handlers.go
package httpserver

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"lightbnb/internal/app"
	"lightbnb/internal/domain"
	"lightbnb/internal/storage/query"
)

type Handlers struct {
	Q *app.QueryService
	C *app.CommandService
}

type problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })

	s.mux.Route("/v1", func(r chi.Router) {
		r.Get("/properties", h.searchProperties)
		r.Post("/properties", h.addProperty)

		r.Get("/users", h.userByEmail)
		r.Post("/users", h.addUser)
		r.Get("/users/{id}", h.userByID)
		r.Get("/users/{id}/reservations", h.upcomingReservations)
	})
}

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(problem{Type: "about:blank", Title: title, Status: status, Detail: detail}); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
}

// writeStoreError maps domain errors; anything unclassified is a 500 so a failed
// query never looks like an empty result.
func writeStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrConflict):
		writeProblem(w, http.StatusConflict, "Conflict", "resource already exists")
	case errors.Is(err, domain.ErrInvalidFilter):
		writeProblem(w, http.StatusBadRequest, "Invalid filter", err.Error())
	default:
		writeProblem(w, http.StatusInternalServerError, "Internal Server Error", "query failed")
	}
}

// calcETagAndBody marshals once and hashes once, returning both ETag and body.
func calcETagAndBody(v any) (string, []byte) {
	body, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal object for ETag/body")
		return "", nil
	}
	sum := sha1.Sum(body)
	etag := `W/"` + hex.EncodeToString(sum[:]) + `"`
	return etag, body
}

// writeCached writes v with an ETag and answers 304 when the client already has it.
func writeCached(w http.ResponseWriter, r *http.Request, v any) {
	etag, body := calcETagAndBody(v)
	if inm := r.Header.Get("If-None-Match"); inm != "" && inm == etag {
		w.Header().Set("ETag", etag)
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("ETag", etag)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Str("path", r.URL.Path).Msg("failed to write body")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("write JSON response failed")
	}
}

// ---- query parsing ----

type badParam struct {
	name string
	err  error
}

func (e badParam) Error() string {
	if e.err != nil {
		return e.name + " must be a positive number: " + e.err.Error()
	}
	return e.name + " must be a positive number"
}

// positive parses an optional positive number; empty and zero mean "not set".
func positive[T int | int64 | float64](r *http.Request, name string, parse func(string) (T, error)) (*T, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return nil, nil
	}
	v, err := parse(raw)
	if err != nil {
		return nil, badParam{name, err}
	}
	if v < 0 {
		return nil, badParam{name: name}
	}
	if v == 0 {
		return nil, nil
	}
	return &v, nil
}

func parseInt64(s string) (int64, error) { return strconv.ParseInt(s, 10, 64) }
func parseInt(s string) (int, error)     { return strconv.Atoi(s) }

// parseFloat refuses NaN and infinities, which ParseFloat accepts.
func parseFloat(s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%q is not a finite number", s)
	}
	return v, nil
}

func parsePrice(s string) (float64, error) {
	v, err := parseFloat(s)
	if err != nil {
		return 0, err
	}
	if v > query.MaxPricePerNight {
		return 0, fmt.Errorf("price %s exceeds %g", s, query.MaxPricePerNight)
	}
	return v, nil
}

func parseFilter(r *http.Request) (domain.PropertyFilter, error) {
	var (
		f   domain.PropertyFilter
		err error
	)
	if city := strings.TrimSpace(r.URL.Query().Get("city")); city != "" {
		f.City = &city
	}
	if f.OwnerID, err = positive(r, "owner_id", parseInt64); err != nil {
		return f, err
	}
	if f.MinimumPricePerNight, err = positive(r, "minimum_price_per_night", parsePrice); err != nil {
		return f, err
	}
	if f.MaximumPricePerNight, err = positive(r, "maximum_price_per_night", parsePrice); err != nil {
		return f, err
	}
	if f.MinimumRating, err = positive(r, "minimum_rating", parseFloat); err != nil {
		return f, err
	}
	return f, nil
}

// parseLimit returns 0 (store default) when absent.
func parseLimit(r *http.Request) (int, error) {
	l, err := positive(r, "limit", parseInt)
	if err != nil || l == nil {
		return 0, err
	}
	if *l > 200 {
		return 0, errors.New("limit must be an integer between 1 and 200")
	}
	return *l, nil
}

func pathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	return id, err == nil && id > 0
}

// ---- handlers ----

func (h *Handlers) searchProperties(w http.ResponseWriter, r *http.Request) {
	f, err := parseFilter(r)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid filter", err.Error())
		return
	}
	limit, err := parseLimit(r)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid limit", err.Error())
		return
	}

	out, err := h.Q.SearchProperties(r.Context(), f, limit)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeCached(w, r, map[string]any{"properties": out})
}

func (h *Handlers) addProperty(w http.ResponseWriter, r *http.Request) {
	var p domain.Property
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid body", err.Error())
		return
	}
	out, err := h.C.AddProperty(r.Context(), p)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, out)
}

func (h *Handlers) userByEmail(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")
	if email == "" {
		writeProblem(w, http.StatusBadRequest, "Missing email", "email query parameter is required")
		return
	}
	u, err := h.Q.UserByEmail(r.Context(), email)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	if u == nil {
		writeProblem(w, http.StatusNotFound, "Not Found", "user not found")
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (h *Handlers) userByID(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeProblem(w, http.StatusBadRequest, "Invalid ID", "id must be a number")
		return
	}
	u, err := h.Q.UserByID(r.Context(), id)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	if u == nil {
		writeProblem(w, http.StatusNotFound, "Not Found", "user not found")
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (h *Handlers) addUser(w http.ResponseWriter, r *http.Request) {
	var in domain.NewUser
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid body", err.Error())
		return
	}
	u, err := h.C.AddUser(r.Context(), in)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, u)
}

func (h *Handlers) upcomingReservations(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeProblem(w, http.StatusBadRequest, "Invalid ID", "id must be a number")
		return
	}
	limit, err := parseLimit(r)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid limit", err.Error())
		return
	}
	out, err := h.Q.UpcomingReservations(r.Context(), id, limit)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeCached(w, r, map[string]any{"reservations": out})
}
