package middleware

import (
	"encoding/json"
	"time"
)

// SymbolValueResponse represents a single symbol read response
type SymbolValueResponse struct {
	Success bool   `json:"success"`
	Symbol  string `json:"symbol"`
	Value   any    `json:"value"`
	Kind    string `json:"kind,omitempty"`
	Text    string `json:"text,omitempty"`
	Error   string `json:"error,omitempty"`
}

// BatchReadRequest represents a request to read multiple symbols
type BatchReadRequest struct {
	Symbols []string `json:"symbols"`
}

// BatchReadResponse represents a batch read response
type BatchReadResponse struct {
	Success bool              `json:"success"`
	Data    map[string]any    `json:"data"`
	Errors  map[string]string `json:"errors,omitempty"`
}

// WriteSymbolRequest carries either a JSON value or a PLC literal such as
// "16#FF" or "[1,2,3]". Text wins when both are set.
type WriteSymbolRequest struct {
	Value json.RawMessage `json:"value,omitempty"`
	Text  *string         `json:"text,omitempty"`
}

// WriteSymbolResponse represents a single symbol write response
type WriteSymbolResponse struct {
	Success bool   `json:"success"`
	Symbol  string `json:"symbol"`
	Error   string `json:"error,omitempty"`
}

// BatchWriteRequest represents a request to write multiple symbols
type BatchWriteRequest struct {
	Writes map[string]WriteSymbolRequest `json:"writes"`
}

// BatchWriteResponse represents a batch write response
type BatchWriteResponse struct {
	Success bool              `json:"success"`
	Results map[string]bool   `json:"results"`
	Errors  map[string]string `json:"errors,omitempty"`
}

// VerifyRequest checks a path, and a literal for it when Text is set.
type VerifyRequest struct {
	Path string  `json:"path"`
	Text *string `json:"text,omitempty"`
}

// VerifyResponse reports whether a path (and literal) would be accepted.
type VerifyResponse struct {
	Valid bool   `json:"valid"`
	Path  string `json:"path"`
	Kind  string `json:"kind,omitempty"`
	Error string `json:"error,omitempty"`
}

// SymbolInfo represents metadata about a symbol
type SymbolInfo struct {
	Name        string       `json:"name"`
	Type        string       `json:"type"`
	Tag         string       `json:"tag"`
	Size        uint32       `json:"size"`
	IndexGroup  uint32       `json:"index_group"`
	IndexOffset uint32       `json:"index_offset"`
	Group       string       `json:"group"`
	Persistent  bool         `json:"persistent"`
	Comment     string       `json:"comment,omitempty"`
	Ranges      []RangeInfo  `json:"ranges,omitempty"`
	Fields      []SymbolInfo `json:"fields,omitempty"`
}

// RangeInfo is one inclusive array dimension.
type RangeInfo struct {
	Lo int32 `json:"lo"`
	Hi int32 `json:"hi"`
}

// SymbolTableResponse represents the symbol table response
type SymbolTableResponse struct {
	Success bool         `json:"success"`
	Count   int          `json:"count"`
	Symbols []SymbolInfo `json:"symbols"`
}

// PathListResponse lists flattened paths.
type PathListResponse struct {
	Count int      `json:"count"`
	Paths []string `json:"paths"`
}

// RawResponse holds the bytes at a path as hex.
type RawResponse struct {
	Symbol      string `json:"symbol"`
	IndexGroup  uint32 `json:"index_group"`
	IndexOffset uint32 `json:"index_offset"`
	Size        int    `json:"size"`
	Hex         string `json:"hex"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string    `json:"status"`
	Online    bool      `json:"online"`
	Timestamp time.Time `json:"timestamp"`
}

// InfoResponse describes the loaded symbol tables.
type InfoResponse struct {
	Source        string    `json:"source"`
	Online        bool      `json:"online"`
	SymbolCount   int       `json:"symbol_count"`
	DataTypeCount int       `json:"data_type_count"`
	SchemaTaken   time.Time `json:"schema_taken"`
	ServerUptime  string    `json:"server_uptime"`
}

// VersionResponse represents library version information
type VersionResponse struct {
	Version   string `json:"version"`
	GitCommit string `json:"git_commit,omitempty"`
	GoVersion string `json:"go_version,omitempty"`
}

// ErrorResponse represents a generic error response
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains detailed error information
type ErrorDetail struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}
