package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"confnode/internal/codec"
	"confnode/internal/domain"
	"confnode/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// maxFactsBody caps uploaded facts documents
const maxFactsBody = 4 << 20

// NodeLookup is the service surface the handler needs
type NodeLookup interface {
	Find(ctx context.Context, name, environment string) (*domain.Node, error)
	Names(ctx context.Context, name, environment string) ([]string, error)
	Facts(ctx context.Context, name, environment string) (*domain.Facts, error)
	SaveFacts(ctx context.Context, facts *domain.Facts, environment string) error
	DeleteFacts(ctx context.Context, name string) error
	TrustedFacts(name string) (map[string]any, bool)
}

// NodeHandler handles node API requests
type NodeHandler struct {
	svc    NodeLookup
	logger *slog.Logger
}

// NewNodeHandler creates a new node handler
func NewNodeHandler(svc NodeLookup, logger *slog.Logger) *NodeHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &NodeHandler{svc: svc, logger: logger}
}

// ErrorResponse is the body of every error reply
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// NewRouter mounts the API. events may be nil to disable the event stream.
func NewRouter(h *NodeHandler, events http.Handler) http.Handler {
	r := chi.NewRouter()

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]string{"status": "ok"}, http.StatusOK)
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/nodes/{name}", h.GetNode)
		r.Get("/nodes/{name}/names", h.GetNames)
		r.Get("/nodes/{name}/trusted", h.GetTrusted)
		r.Get("/facts/{name}", h.GetFacts)
		r.Put("/facts/{name}", h.PutFacts)
		r.Delete("/facts/{name}", h.DeleteFacts)
		if events != nil {
			r.Handle("/events", events)
		}
	})

	return r
}

// GetNode returns the node data hash
func (h *NodeHandler) GetNode(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	format := r.URL.Query().Get("format")
	if format == "" {
		format = "json"
	}
	c, err := codec.ForFormat(format)
	if err != nil {
		h.writeError(w, "Unsupported format", err.Error(), http.StatusBadRequest)
		return
	}

	node, err := h.svc.Find(r.Context(), name, r.URL.Query().Get("environment"))
	if err != nil {
		h.writeServiceError(w, "Failed to find node", err)
		return
	}

	data, err := node.ToData()
	if err != nil {
		h.writeServiceError(w, "Failed to export node", err)
		return
	}

	var buf bytes.Buffer
	if err := c.Export(data, &buf); err != nil {
		h.logger.Error("node export failed", "node", name, "error", err)
		h.writeError(w, "Failed to export node", err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", contentType(c.Format()))
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

// GetNames returns the candidate names for the node
func (h *NodeHandler) GetNames(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	names, err := h.svc.Names(r.Context(), name, r.URL.Query().Get("environment"))
	if err != nil {
		h.writeServiceError(w, "Failed to find node", err)
		return
	}
	writeJSON(w, names, http.StatusOK)
}

// GetTrusted returns the trusted server facts recorded for the node
func (h *NodeHandler) GetTrusted(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	facts, ok := h.svc.TrustedFacts(name)
	if !ok {
		h.writeError(w, "Not found", fmt.Sprintf("no trusted facts recorded for %s", name), http.StatusNotFound)
		return
	}
	writeJSON(w, facts, http.StatusOK)
}

// GetFacts returns the stored facts snapshot
func (h *NodeHandler) GetFacts(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	facts, err := h.svc.Facts(r.Context(), name, r.URL.Query().Get("environment"))
	if err != nil {
		h.writeServiceError(w, "Failed to get facts", err)
		return
	}
	writeJSON(w, facts, http.StatusOK)
}

// factsUpload is the accepted upload body. A body without a values key
// is read as a flat map of facts.
type factsUpload struct {
	Name       string         `json:"name"`
	Values     map[string]any `json:"values"`
	Timestamp  *time.Time     `json:"timestamp"`
	Expiration *time.Time     `json:"expiration"`
}

// PutFacts stores an uploaded facts snapshot
func (h *NodeHandler) PutFacts(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	body, err := io.ReadAll(io.LimitReader(r.Body, maxFactsBody))
	if err != nil {
		h.writeError(w, "Invalid request body", err.Error(), http.StatusBadRequest)
		return
	}

	var upload factsUpload
	if err := json.Unmarshal(body, &upload); err != nil {
		h.writeError(w, "Invalid request body", err.Error(), http.StatusBadRequest)
		return
	}
	if upload.Values == nil {
		var flat map[string]any
		if err := json.Unmarshal(body, &flat); err != nil {
			h.writeError(w, "Invalid request body", err.Error(), http.StatusBadRequest)
			return
		}
		upload = factsUpload{Values: flat}
	}
	if upload.Name != "" && upload.Name != name {
		h.writeError(w, "Name mismatch", fmt.Sprintf("body names %s, path names %s", upload.Name, name), http.StatusBadRequest)
		return
	}

	facts := domain.NewFacts(name, upload.Values)
	if upload.Timestamp != nil {
		facts.Timestamp = *upload.Timestamp
	}
	facts.Expiration = upload.Expiration

	if err := h.svc.SaveFacts(r.Context(), facts, r.URL.Query().Get("environment")); err != nil {
		h.writeServiceError(w, "Failed to save facts", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteFacts drops the stored facts snapshot
func (h *NodeHandler) DeleteFacts(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteFacts(r.Context(), chi.URLParam(r, "name")); err != nil {
		h.writeServiceError(w, "Failed to delete facts", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// writeServiceError maps service and domain errors onto status codes
func (h *NodeHandler) writeServiceError(w http.ResponseWriter, msg string, err error) {
	var retrieval *domain.FactsRetrievalError

	status := http.StatusInternalServerError
	switch {
	case errors.As(err, &retrieval):
		status = http.StatusBadGateway
	case errors.Is(err, domain.ErrNodeNotFound),
		errors.Is(err, domain.ErrEnvironmentNotFound),
		errors.Is(err, service.ErrFactsNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidArgument):
		status = http.StatusBadRequest
	case errors.Is(err, service.ErrFactsReadOnly):
		status = http.StatusMethodNotAllowed
	}

	if status >= http.StatusInternalServerError {
		h.logger.Error(msg, "error", err)
	}
	h.writeError(w, msg, err.Error(), status)
}

func (h *NodeHandler) writeError(w http.ResponseWriter, msg, details string, status int) {
	writeJSON(w, ErrorResponse{Error: msg, Details: details}, status)
}

func writeJSON(w http.ResponseWriter, data any, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func contentType(format string) string {
	if format == "yaml" {
		return "application/yaml"
	}
	return "application/json"
}
