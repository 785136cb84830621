package middleware

import (
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
)

// Handler contains HTTP request handlers
type Handler struct {
	middleware *Middleware
}

// NewHandler creates a new handler
func NewHandler(middleware *Middleware) *Handler {
	return &Handler{middleware: middleware}
}

func symbolParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	name, err := url.PathUnescape(chi.URLParam(r, "name"))
	if err != nil {
		WriteError(w, NewInvalidRequestError("invalid symbol name"))
		return "", false
	}
	if name == "" {
		WriteError(w, NewInvalidRequestError("symbol name is required"))
		return "", false
	}
	return name, true
}

// HandleReadSymbol handles GET /api/v1/symbols/{name}/value
func (h *Handler) HandleReadSymbol(w http.ResponseWriter, r *http.Request) {
	name, ok := symbolParam(w, r)
	if !ok {
		return
	}

	result, err := h.middleware.ReadSymbol(r.Context(), name)
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, result)
}

// HandleWriteSymbol handles POST /api/v1/symbols/{name}/value
func (h *Handler) HandleWriteSymbol(w http.ResponseWriter, r *http.Request) {
	name, ok := symbolParam(w, r)
	if !ok {
		return
	}

	var req WriteSymbolRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid JSON body"))
		return
	}

	result, err := h.middleware.WriteSymbol(r.Context(), name, req)
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, result)
}

// HandleReadRaw handles GET /api/v1/symbols/{name}/raw
func (h *Handler) HandleReadRaw(w http.ResponseWriter, r *http.Request) {
	name, ok := symbolParam(w, r)
	if !ok {
		return
	}

	result, err := h.middleware.ReadRaw(r.Context(), name)
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, result)
}

// HandleBatchRead handles POST /api/v1/symbols/read
func (h *Handler) HandleBatchRead(w http.ResponseWriter, r *http.Request) {
	var req BatchReadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid JSON body"))
		return
	}

	if len(req.Symbols) == 0 {
		WriteError(w, NewInvalidRequestError("symbols array cannot be empty"))
		return
	}

	result, err := h.middleware.BatchRead(r.Context(), req.Symbols)
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, result)
}

// HandleBatchWrite handles POST /api/v1/symbols/write
func (h *Handler) HandleBatchWrite(w http.ResponseWriter, r *http.Request) {
	var req BatchWriteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid JSON body"))
		return
	}

	if len(req.Writes) == 0 {
		WriteError(w, NewInvalidRequestError("writes map cannot be empty"))
		return
	}

	result, err := h.middleware.BatchWrite(r.Context(), req.Writes)
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, result)
}

// HandleGetSymbolTable handles GET /api/v1/symbols?pattern=...
func (h *Handler) HandleGetSymbolTable(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, h.middleware.GetSymbolTable(r.URL.Query().Get("pattern")))
}

// HandleGetSymbolInfo handles GET /api/v1/symbols/{name}
func (h *Handler) HandleGetSymbolInfo(w http.ResponseWriter, r *http.Request) {
	name, ok := symbolParam(w, r)
	if !ok {
		return
	}

	result, err := h.middleware.GetSymbolInfo(name)
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, result)
}

// HandleVerify handles POST /api/v1/verify. An invalid path or literal is
// reported in the body with status 200.
func (h *Handler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	var req VerifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid JSON body"))
		return
	}
	if req.Path == "" {
		WriteError(w, NewInvalidRequestError("path is required"))
		return
	}
	WriteJSON(w, http.StatusOK, h.middleware.Verify(req))
}

// HandlePersistent handles GET /api/v1/paths/persistent
func (h *Handler) HandlePersistent(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, h.middleware.Persistent())
}

// HandlePathsByType handles GET /api/v1/paths/by-type?type=...
func (h *Handler) HandlePathsByType(w http.ResponseWriter, r *http.Request) {
	typeName := r.URL.Query().Get("type")
	if typeName == "" {
		WriteError(w, NewInvalidRequestError("type query parameter is required"))
		return
	}
	WriteJSON(w, http.StatusOK, h.middleware.WithDataTypeName(typeName))
}

// HandleHealth handles GET /api/v1/health
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, h.middleware.GetHealth())
}

// HandleInfo handles GET /api/v1/info
func (h *Handler) HandleInfo(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, h.middleware.GetInfo())
}

// HandleGetVersion handles GET /api/v1/version
func (h *Handler) HandleGetVersion(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, h.middleware.GetVersion())
}
