package armorhttp

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/saylorsolutions/wordarmor/pkg/armor"
)

const (
	maxBodySize = 8 << 20
	// maxCachedTables bounds the table cache, which is keyed by date.
	maxCachedTables = 4
)

// Config contains everything the Handler needs to build mapping tables.
type Config struct {
	Catalog *armor.Catalog
	Secret  armor.Secret
	// DefaultLimit is used when a don request doesn't specify a limit.
	DefaultLimit int
	// Workers bounds the parallelism of each request, zero means GOMAXPROCS.
	Workers int
	Log     *slog.Logger
}

// Handler serves the armor endpoints.
type Handler struct {
	cfg   Config
	log   *slog.Logger
	today func() armor.Date

	mu     sync.Mutex
	tables map[armor.Date]*armor.Table
}

// New creates a Handler with the given Config.
func New(cfg Config) (*Handler, error) {
	if cfg.Catalog == nil {
		return nil, errors.New("a catalog is required")
	}
	if cfg.Workers < 0 {
		return nil, errors.New("worker count cannot be negative")
	}
	log := cfg.Log
	if log == nil {
		log = slog.Default()
	}
	return &Handler{
		cfg:    cfg,
		log:    log,
		today:  armor.Today,
		tables: map[armor.Date]*armor.Table{},
	}, nil
}

// RegisterRoutes registers the armor endpoints with the router.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/don", h.handleDon)
	r.Post("/doff", h.handleDoff)
	r.Get("/livez", h.handleLiveness)
}

// Router creates a standalone router serving the armor endpoints.
func (h *Handler) Router() http.Handler {
	mux := chi.NewRouter()
	mux.Use(middleware.RequestID)
	mux.Use(middleware.Recoverer)
	h.RegisterRoutes(mux)
	return mux
}

type donRequest struct {
	Data  []byte `json:"data"`
	Limit int    `json:"limit,omitempty"`
	Date  string `json:"date,omitempty"`
}

type donResponse struct {
	Messages []string `json:"messages"`
}

type doffRequest struct {
	Messages []string `json:"messages"`
	Date     string   `json:"date,omitempty"`
}

type doffResponse struct {
	Data []byte `json:"data"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (h *Handler) handleDon(w http.ResponseWriter, r *http.Request) {
	var req donRequest
	if err := decode(w, r, &req); err != nil {
		h.writeError(w, r, http.StatusBadRequest, err)
		return
	}
	table, err := h.table(req.Date)
	if err != nil {
		h.writeError(w, r, statusFor(err), err)
		return
	}
	limit := req.Limit
	if limit == 0 {
		limit = h.cfg.DefaultLimit
	}
	messages, err := armor.Don(req.Data, table, limit, h.options()...)
	if err != nil {
		h.writeError(w, r, statusFor(err), err)
		return
	}
	h.log.Debug("Donned armor", "bytes", len(req.Data), "messages", len(messages), "date", table.Date().String())
	writeJSON(w, http.StatusOK, donResponse{Messages: messages})
}

func (h *Handler) handleDoff(w http.ResponseWriter, r *http.Request) {
	var req doffRequest
	if err := decode(w, r, &req); err != nil {
		h.writeError(w, r, http.StatusBadRequest, err)
		return
	}
	table, err := h.table(req.Date)
	if err != nil {
		h.writeError(w, r, statusFor(err), err)
		return
	}
	data, err := armor.Doff(req.Messages, table, h.options()...)
	if err != nil {
		h.writeError(w, r, statusFor(err), err)
		return
	}
	h.log.Debug("Doffed armor", "messages", len(req.Messages), "bytes", len(data), "date", table.Date().String())
	writeJSON(w, http.StatusOK, doffResponse{Data: data})
}

func (h *Handler) handleLiveness(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "alive"})
}

func (h *Handler) options() []armor.Option {
	if h.cfg.Workers > 0 {
		return []armor.Option{armor.WithWorkers(h.cfg.Workers)}
	}
	return nil
}

// table returns the cached Table for the given date, building it if needed.
// An empty date means today.
func (h *Handler) table(given string) (*armor.Table, error) {
	date := h.today()
	if len(given) > 0 {
		var err error
		date, err = armor.ParseDate(given)
		if err != nil {
			return nil, errBadRequest{err}
		}
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if t, ok := h.tables[date]; ok {
		return t, nil
	}
	t, err := armor.BuildTable(h.cfg.Catalog, h.cfg.Secret, date)
	if err != nil {
		return nil, err
	}
	if len(h.tables) >= maxCachedTables {
		clear(h.tables)
	}
	h.tables[date] = t
	h.log.Info("Built mapping table", "date", date.String())
	return t, nil
}

type errBadRequest struct {
	error
}

func (e errBadRequest) Unwrap() error {
	return e.error
}

func statusFor(err error) int {
	var bad errBadRequest
	switch {
	case errors.As(err, &bad), errors.Is(err, armor.ErrLimitTooSmall), errors.Is(err, armor.ErrTooManyMessages):
		return http.StatusBadRequest
	case errors.Is(err, armor.ErrMalformedMessage), errors.Is(err, armor.ErrDuplicateSequence):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func decode(w http.ResponseWriter, r *http.Request, target any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize))
	dec.DisallowUnknownFields()
	if err := dec.Decode(target); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, status int, err error) {
	if status >= http.StatusInternalServerError {
		h.log.Error("Request failed", "path", r.URL.Path, "request_id", middleware.GetReqID(r.Context()), "error", err)
	} else {
		h.log.Debug("Request rejected", "path", r.URL.Path, "status", status, "error", err)
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
