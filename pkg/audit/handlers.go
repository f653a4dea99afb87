package audit

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/platinummonkey/menuguard/pkg/httputil"
	"github.com/platinummonkey/menuguard/pkg/observability"
)

// Handlers serves the system log endpoints
type Handlers struct {
	store          Store
	recorder       *Recorder
	archiveEnabled bool
}

// NewHandlers creates system log handlers
func NewHandlers(store Store, recorder *Recorder, archiveEnabled bool) *Handlers {
	return &Handlers{store: store, recorder: recorder, archiveEnabled: archiveEnabled}
}

// RegisterRoutes registers the system log routes on router
func (h *Handlers) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/logs", h.list).Methods("GET")
	router.HandleFunc("/api/logs/search", h.list).Methods("GET")
	router.HandleFunc("/api/logs/search", h.searchBody).Methods("POST")
	router.HandleFunc("/api/logs/stats", h.stats).Methods("GET")
	router.HandleFunc("/api/logs/count", h.count).Methods("GET")
	router.HandleFunc("/api/logs/count/level/{level}", h.countByLevel).Methods("GET")
	router.HandleFunc("/api/logs/export", h.export).Methods("GET")
	router.HandleFunc("/api/logs/cleanup", h.cleanup).Methods("DELETE")
	router.HandleFunc("/api/logs/{id:[0-9]+}", h.get).Methods("GET")
}

func filterFromQuery(r *http.Request) (SearchFilter, error) {
	var f SearchFilter
	var err error

	if f.Page, err = httputil.ParseQueryInt(r, "page", 0); err != nil {
		return f, err
	}
	if f.Size, err = httputil.ParseQueryInt(r, "size", DefaultPageSize); err != nil {
		return f, err
	}
	if f.StartDate, err = httputil.ParseQueryTime(r, "startDate"); err != nil {
		return f, err
	}
	if f.EndDate, err = httputil.ParseQueryTime(r, "endDate"); err != nil {
		return f, err
	}
	if raw := httputil.ParseQueryString(r, "level", ""); raw != "" {
		level, ok := ParseLevel(raw)
		if !ok {
			return f, fmt.Errorf("invalid level: %s", raw)
		}
		f.Level = level
	}
	f.Username = httputil.ParseQueryString(r, "username", "")
	f.Action = httputil.ParseQueryString(r, "action", "")
	f.Search = httputil.ParseQueryString(r, "search", "")
	return f, nil
}

func (h *Handlers) list(w http.ResponseWriter, r *http.Request) {
	filter, err := filterFromQuery(r)
	if err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}
	h.search(w, r, filter)
}

type searchRequest struct {
	StartDate *time.Time `json:"startDate"`
	EndDate   *time.Time `json:"endDate"`
	Level     string     `json:"level"`
	Username  string     `json:"username"`
	Action    string     `json:"action"`
	Search    string     `json:"search"`
	Page      int        `json:"page"`
	Size      int        `json:"size"`
}

func (h *Handlers) searchBody(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	filter := SearchFilter{
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
		Username:  req.Username,
		Action:    req.Action,
		Search:    req.Search,
		Page:      req.Page,
		Size:      req.Size,
	}
	if req.Level != "" {
		level, ok := ParseLevel(req.Level)
		if !ok {
			httputil.WriteBadRequest(w, "invalid level: "+req.Level)
			return
		}
		filter.Level = level
	}
	h.search(w, r, filter)
}

func (h *Handlers) search(w http.ResponseWriter, r *http.Request, filter SearchFilter) {
	result, err := h.store.Search(r.Context(), filter)
	if err != nil {
		httputil.WriteInternalError(w, r, err)
		return
	}
	httputil.WriteSuccess(w, result)
}

func (h *Handlers) get(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}

	entry, err := h.store.Get(r.Context(), id)
	if errors.Is(err, ErrEntryNotFound) {
		httputil.WriteNotFound(w, err.Error())
		return
	}
	if err != nil {
		httputil.WriteInternalError(w, r, err)
		return
	}
	httputil.WriteSuccess(w, entry)
}

func (h *Handlers) stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.store.Stats(r.Context())
	if err != nil {
		httputil.WriteInternalError(w, r, err)
		return
	}
	httputil.WriteSuccess(w, stats)
}

func (h *Handlers) count(w http.ResponseWriter, r *http.Request) {
	n, err := h.store.Count(r.Context())
	if err != nil {
		httputil.WriteInternalError(w, r, err)
		return
	}
	httputil.WriteSuccess(w, map[string]int64{"count": n})
}

func (h *Handlers) countByLevel(w http.ResponseWriter, r *http.Request) {
	raw, err := httputil.ParsePathString(r, "level")
	if err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}
	level, ok := ParseLevel(raw)
	if !ok {
		httputil.WriteBadRequest(w, "invalid level: "+raw)
		return
	}

	n, err := h.store.CountByLevel(r.Context(), level)
	if err != nil {
		httputil.WriteInternalError(w, r, err)
		return
	}
	httputil.WriteSuccess(w, map[string]interface{}{"level": level, "count": n})
}

func (h *Handlers) export(w http.ResponseWriter, r *http.Request) {
	filter, err := filterFromQuery(r)
	if err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}

	format := ExportFormat(httputil.ParseQueryString(r, "format", string(ExportFormatJSON)))
	switch format {
	case ExportFormatJSON, ExportFormatCSV, ExportFormatNDJSON:
	default:
		httputil.WriteBadRequest(w, "unsupported export format: "+string(format))
		return
	}

	body, err := h.store.Export(r.Context(), filter, format)
	if err != nil {
		httputil.WriteInternalError(w, r, err)
		return
	}
	filename := "system-logs." + string(format)
	_ = httputil.WriteAttachment(w, format.ContentType(), filename, body)
}

func (h *Handlers) cleanup(w http.ResponseWriter, r *http.Request) {
	days, err := httputil.ParseQueryInt(r, "days", DefaultRetentionPolicy().RetentionDays)
	if err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}
	if days <= 0 {
		httputil.WriteBadRequest(w, "days must be positive")
		return
	}

	deleted, err := h.store.Cleanup(r.Context(), RetentionPolicy{RetentionDays: days, ArchiveEnabled: h.archiveEnabled})
	if err != nil {
		httputil.WriteInternalError(w, r, err)
		return
	}

	username := observability.GetUsername(r.Context())
	h.recorder.Info(r.Context(), username, ActionLogCleanup,
		"deleted "+strconv.FormatInt(deleted, 10)+" system logs older than "+strconv.Itoa(days)+" days")
	httputil.WriteSuccess(w, map[string]int64{"deleted": deleted})
}
