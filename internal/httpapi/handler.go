// Package httpapi serves validation over HTTP with a registry of named
// schemas.
package httpapi

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	gojson "github.com/goccy/go-json"

	"github.com/reoring/jsonvalidator"
	"github.com/reoring/jsonvalidator/internal/store"
	"github.com/reoring/jsonvalidator/middleware"
)

const (
	timeFormat      = "2006-01-02T15:04:05.999999999Z07:00"
	maxJSONBodySize = middleware.DefaultMaxBodyBytes
)

// SchemaStore persists named schema documents.
type SchemaStore interface {
	Upsert(ctx context.Context, name string, text []byte) (store.Schema, error)
	Get(ctx context.Context, name string) (store.Schema, error)
	Delete(ctx context.Context, name string) (bool, error)
	List(ctx context.Context) ([]store.Schema, error)
}

type Handler struct {
	schemas SchemaStore
	opts    []jsonvalidator.Option
	// handles caches compiled schemas by name. Entries are replaced, never
	// closed, since a request may still be validating with the old one.
	handles sync.Map
	// mu orders store writes against cache fills, so a fill never
	// resurrects a schema that was replaced or deleted meanwhile.
	mu sync.Mutex
}

func NewHandler(schemas SchemaStore, opts ...jsonvalidator.Option) *Handler {
	return &Handler{schemas: schemas, opts: opts}
}

func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)

	r.Get("/healthz", h.healthz)
	r.Post("/v1/validate", h.validateOnce)
	r.Post("/v1/check", h.checkSchema)

	r.Get("/v1/schemas", h.listSchemas)
	r.Put("/v1/schemas/{name}", h.putSchema)
	r.Get("/v1/schemas/{name}", h.getSchema)
	r.Delete("/v1/schemas/{name}", h.deleteSchema)
	r.Post("/v1/schemas/{name}/validate", h.validateNamed)
	return r
}

type validateRequest struct {
	Schema   gojson.RawMessage `json:"schema"`
	Instance gojson.RawMessage `json:"instance"`
}

type validateResponse struct {
	Valid    bool              `json:"valid"`
	Instance gojson.RawMessage `json:"instance,omitempty"`
}

type schemaResponse struct {
	ID        string            `json:"id"`
	Name      string            `json:"name"`
	Schema    gojson.RawMessage `json:"schema,omitempty"`
	CreatedAt string            `json:"created_at"`
	UpdatedAt string            `json:"updated_at"`
}

func (h *Handler) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) validateOnce(w http.ResponseWriter, r *http.Request) {
	body, ok := readBody(w, r)
	if !ok {
		return
	}
	var req validateRequest
	if err := gojson.Unmarshal(body, &req); err != nil || req.Schema == nil || req.Instance == nil {
		writeError(w, http.StatusBadRequest, "body must be an object with schema and instance")
		return
	}
	out, err := jsonvalidator.ValidateOnce(req.Schema, req.Instance, h.opts...)
	if err != nil {
		h.operationError(w, r, "validate", err)
		return
	}
	writeJSON(w, http.StatusOK, validateResponse{Valid: true, Instance: out})
}

func (h *Handler) checkSchema(w http.ResponseWriter, r *http.Request) {
	body, ok := readBody(w, r)
	if !ok {
		return
	}
	if err := jsonvalidator.CheckSchema(body); err != nil {
		h.operationError(w, r, "check", err)
		return
	}
	writeJSON(w, http.StatusOK, validateResponse{Valid: true})
}

func (h *Handler) listSchemas(w http.ResponseWriter, r *http.Request) {
	list, err := h.schemas.List(r.Context())
	if err != nil {
		handleStoreError(w, err)
		return
	}
	out := make([]schemaResponse, len(list))
	for i, s := range list {
		out[i] = toSchemaResponse(s, false)
	}
	writeJSON(w, http.StatusOK, map[string]any{"schemas": out})
}

func (h *Handler) putSchema(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if err := store.ValidateName(name); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	body, ok := readBody(w, r)
	if !ok {
		return
	}
	if err := jsonvalidator.CheckSchema(body); err != nil {
		h.operationError(w, r, "check", err)
		return
	}
	compiled, err := jsonvalidator.New(body, h.opts...)
	if err != nil {
		h.operationError(w, r, "compile", err)
		return
	}
	h.mu.Lock()
	saved, err := h.schemas.Upsert(r.Context(), name, body)
	if err == nil {
		h.handles.Store(name, compiled)
	}
	h.mu.Unlock()
	if err != nil {
		handleStoreError(w, err)
		return
	}
	log.Printf("schema stored name=%s id=%s request_id=%s", name, saved.ID, chimw.GetReqID(r.Context()))
	writeJSON(w, http.StatusOK, toSchemaResponse(saved, true))
}

func (h *Handler) getSchema(w http.ResponseWriter, r *http.Request) {
	saved, err := h.schemas.Get(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		handleStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSchemaResponse(saved, true))
}

func (h *Handler) deleteSchema(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	h.mu.Lock()
	deleted, err := h.schemas.Delete(r.Context(), name)
	if err == nil {
		h.handles.Delete(name)
	}
	h.mu.Unlock()
	if err != nil {
		handleStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"deleted": deleted})
}

// validateNamed validates the body with a stored schema through the
// request-body middleware.
func (h *Handler) validateNamed(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	compiled, err := h.handle(r.Context(), name)
	if err != nil {
		var opErr *jsonvalidator.Error
		if errors.As(err, &opErr) {
			h.operationError(w, r, "compile", err)
			return
		}
		handleStoreError(w, err)
		return
	}
	middleware.Validate(compiled)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := middleware.BodyFromContext(r.Context())
		writeJSON(w, http.StatusOK, validateResponse{Valid: true, Instance: body})
	})).ServeHTTP(w, r)
}

// handle returns the compiled schema for name, compiling the stored
// document on first use.
func (h *Handler) handle(ctx context.Context, name string) (*jsonvalidator.Handle, error) {
	if cached, ok := h.handles.Load(name); ok {
		return cached.(*jsonvalidator.Handle), nil
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if cached, ok := h.handles.Load(name); ok {
		return cached.(*jsonvalidator.Handle), nil
	}
	saved, err := h.schemas.Get(ctx, name)
	if err != nil {
		return nil, err
	}
	compiled, err := jsonvalidator.New(saved.Text, h.opts...)
	if err != nil {
		return nil, err
	}
	h.handles.Store(name, compiled)
	return compiled, nil
}

func (h *Handler) operationError(w http.ResponseWriter, r *http.Request, op string, err error) {
	status := middleware.Status(err)
	if status >= http.StatusInternalServerError {
		log.Printf("operation failed op=%s request_id=%s err=%v", op, chimw.GetReqID(r.Context()), err)
	}
	writeJSON(w, status, middleware.ErrorPayload(err))
}

func readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxJSONBodySize))
	if err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
		return nil, false
	}
	return body, true
}

func toSchemaResponse(s store.Schema, withText bool) schemaResponse {
	out := schemaResponse{
		ID:        s.ID,
		Name:      s.Name,
		CreatedAt: s.CreatedAt.UTC().Format(timeFormat),
		UpdatedAt: s.UpdatedAt.UTC().Format(timeFormat),
	}
	if withText {
		out.Schema = s.Text
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	data, err := gojson.Marshal(body)
	if err != nil {
		log.Printf("encode json response: %v", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(append(data, '\n')); err != nil {
		log.Printf("write response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"error": message})
}

func handleStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrInvalidName):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	default:
		log.Printf("store error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

// NewServer wires the handler into an http.Server.
func NewServer(addr string, h *Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           h.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}
}
