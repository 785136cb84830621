// Package middleware exposes a goadsym Client over HTTP with JSON bodies.
package middleware

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/mrpasztoradam/goadsym"
	"github.com/mrpasztoradam/goadsym/internal/symbols"
)

// Middleware provides JSON-based operations over a goadsym client
type Middleware struct {
	client    *goadsym.Client
	config    *Config
	logger    goadsym.Logger
	startTime time.Time
}

// NewMiddleware creates a new middleware instance
func NewMiddleware(client *goadsym.Client, config *Config, logger goadsym.Logger) *Middleware {
	if logger == nil {
		logger = goadsym.DefaultLogger
	}
	return &Middleware{
		client:    client,
		config:    config,
		logger:    logger,
		startTime: time.Now(),
	}
}

// ReadSymbol reads and decodes the value at path.
func (m *Middleware) ReadSymbol(ctx context.Context, path string) (*SymbolValueResponse, error) {
	v, err := m.client.GetValue(ctx, path)
	if err != nil {
		return nil, FromError(err, path)
	}
	return valueResponse(path, v), nil
}

func valueResponse(path string, v goadsym.Variable) *SymbolValueResponse {
	return &SymbolValueResponse{
		Success: true,
		Symbol:  path,
		Value:   goadsym.Native(v),
		Kind:    v.Kind().String(),
		Text:    v.String(),
	}
}

// BatchRead reads several paths concurrently. Failures are reported per path.
func (m *Middleware) BatchRead(ctx context.Context, paths []string) (*BatchReadResponse, error) {
	if len(paths) > m.config.Middleware.MaxBatchSize {
		return nil, NewBatchSizeExceededError(len(paths), m.config.Middleware.MaxBatchSize)
	}

	data := make(map[string]any)
	errs := make(map[string]string)
	for path, result := range m.client.ReadValues(ctx, paths...) {
		if result.Err != nil {
			errs[path] = result.Err.Error()
			continue
		}
		data[path] = goadsym.Native(result.Value)
	}

	return &BatchReadResponse{
		Success: len(errs) == 0,
		Data:    data,
		Errors:  errs,
	}, nil
}

// WriteSymbol writes a JSON value or a literal to path.
func (m *Middleware) WriteSymbol(ctx context.Context, path string, req WriteSymbolRequest) (*WriteSymbolResponse, error) {
	text, err := requestLiteral(req)
	if err != nil {
		return nil, err
	}
	if err := m.client.SetValueFromString(ctx, path, text); err != nil {
		return nil, FromError(err, path)
	}
	goadsym.LoggerFromContext(ctx, m.logger).Info("symbol written", "path", path)
	return &WriteSymbolResponse{Success: true, Symbol: path}, nil
}

// BatchWrite writes several paths in turn. Failures are reported per path.
func (m *Middleware) BatchWrite(ctx context.Context, writes map[string]WriteSymbolRequest) (*BatchWriteResponse, error) {
	if len(writes) > m.config.Middleware.MaxBatchSize {
		return nil, NewBatchSizeExceededError(len(writes), m.config.Middleware.MaxBatchSize)
	}

	results := make(map[string]bool)
	errs := make(map[string]string)
	for path, req := range writes {
		_, err := m.WriteSymbol(ctx, path, req)
		results[path] = err == nil
		if err != nil {
			errs[path] = err.Error()
		}
	}

	return &BatchWriteResponse{
		Success: len(errs) == 0,
		Results: results,
		Errors:  errs,
	}, nil
}

// Verify checks a path, and a literal for it, without touching the device.
func (m *Middleware) Verify(req VerifyRequest) *VerifyResponse {
	resp := &VerifyResponse{Path: req.Path}

	var err error
	if req.Text != nil {
		err = m.client.VerifyPathAndString(req.Path, *req.Text)
	} else {
		err = m.client.VerifyPath(req.Path)
	}
	if err != nil {
		resp.Error = err.Error()
		if kind := goadsym.KindOf(err); kind != nil {
			resp.Kind = kind.Error()
		}
		return resp
	}
	resp.Valid = true
	return resp
}

// ReadRaw reads the bytes at path.
func (m *Middleware) ReadRaw(ctx context.Context, path string) (*RawResponse, error) {
	loc, err := m.client.Directory().Locate(path)
	if err != nil {
		return nil, FromError(err, path)
	}
	data, err := m.client.ReadRaw(ctx, path)
	if err != nil {
		return nil, FromError(err, path)
	}
	return &RawResponse{
		Symbol:      path,
		IndexGroup:  loc.IndexGroup,
		IndexOffset: loc.IndexOffset,
		Size:        len(data),
		Hex:         hex.EncodeToString(data),
	}, nil
}

// GetSymbolTable lists top-level symbols, optionally filtered by a
// case-insensitive substring.
func (m *Middleware) GetSymbolTable(pattern string) *SymbolTableResponse {
	var list []*symbols.Symbol
	if pattern != "" {
		list = m.client.FindSymbols(pattern)
	} else {
		list = m.client.ListSymbols()
	}

	infos := make([]SymbolInfo, 0, len(list))
	for _, sym := range list {
		infos = append(infos, symbolToInfo(sym.Name, sym, symbols.Location{
			IndexGroup:  sym.IndexGroup,
			IndexOffset: sym.Offset,
			Size:        sym.Size,
		}))
	}

	return &SymbolTableResponse{
		Success: true,
		Count:   len(infos),
		Symbols: infos,
	}
}

// GetSymbolInfo describes the variable at path, one level of fields deep.
func (m *Middleware) GetSymbolInfo(path string) (*SymbolInfo, error) {
	dir := m.client.Directory()
	sym, dt, err := dir.Resolve(path)
	if err != nil {
		return nil, FromError(err, path)
	}
	loc, err := dir.Locate(path)
	if err != nil {
		return nil, FromError(err, path)
	}

	info := symbolToInfo(path, sym, loc)
	info.Type = dt.Name
	info.Tag = dt.Tag.String()
	for _, r := range dt.Ranges {
		info.Ranges = append(info.Ranges, RangeInfo{Lo: r.Lo, Hi: r.Hi})
	}
	for i := range dt.Fields {
		field := &dt.Fields[i]
		info.Fields = append(info.Fields, symbolToInfo(field.Name, field, symbols.Location{
			IndexGroup:  loc.IndexGroup,
			IndexOffset: loc.IndexOffset + field.Offset,
			Size:        field.Size,
		}))
	}
	return &info, nil
}

// Persistent lists every persistent leaf path.
func (m *Middleware) Persistent() *PathListResponse {
	return pathList(m.client.Persistent())
}

// WithDataTypeName lists every leaf path declared with the given type.
func (m *Middleware) WithDataTypeName(name string) *PathListResponse {
	return pathList(m.client.SymbolsWithDataTypeName(name))
}

func pathList(paths []string) *PathListResponse {
	if paths == nil {
		paths = []string{}
	}
	return &PathListResponse{Count: len(paths), Paths: paths}
}

// GetHealth returns the health status
func (m *Middleware) GetHealth() *HealthResponse {
	return &HealthResponse{
		Status:    "ok",
		Online:    m.client.Online(),
		Timestamp: time.Now(),
	}
}

// GetInfo describes the loaded symbol tables.
func (m *Middleware) GetInfo() *InfoResponse {
	snap := m.client.Snapshot()
	dir := m.client.Directory()
	return &InfoResponse{
		Source:        snap.Source,
		Online:        m.client.Online(),
		SymbolCount:   len(dir.Symbols()),
		DataTypeCount: len(dir.DataTypes()),
		SchemaTaken:   snap.Taken,
		ServerUptime:  time.Since(m.startTime).String(),
	}
}

// GetVersion returns the library version.
func (m *Middleware) GetVersion() *VersionResponse {
	info := goadsym.GetBuildInfo()
	return &VersionResponse{
		Version:   info.Version,
		GitCommit: info.GitCommit,
		GoVersion: info.GoVersion,
	}
}

func symbolToInfo(name string, sym *symbols.Symbol, loc symbols.Location) SymbolInfo {
	return SymbolInfo{
		Name:        name,
		Type:        sym.TypeName,
		Tag:         sym.Tag.String(),
		Size:        loc.Size,
		IndexGroup:  loc.IndexGroup,
		IndexOffset: loc.IndexOffset,
		Group:       sym.Group.String(),
		Persistent:  sym.Persistent,
		Comment:     sym.Comment,
	}
}

// requestLiteral turns a write request into the literal text the client
// parses against the symbol's type.
func requestLiteral(req WriteSymbolRequest) (string, error) {
	if req.Text != nil {
		return *req.Text, nil
	}
	if len(req.Value) == 0 {
		return "", NewInvalidRequestError("value or text is required")
	}

	dec := json.NewDecoder(bytes.NewReader(req.Value))
	dec.UseNumber()
	var value any
	if err := dec.Decode(&value); err != nil {
		return "", NewInvalidRequestError("invalid value: " + err.Error())
	}
	return jsonLiteral(value)
}

// jsonLiteral renders a decoded JSON value as a literal. Strings are quoted
// so that commas inside array elements survive splitting.
func jsonLiteral(value any) (string, error) {
	switch v := value.(type) {
	case nil:
		return "", nil
	case bool:
		if v {
			return "TRUE", nil
		}
		return "FALSE", nil
	case json.Number:
		return v.String(), nil
	case string:
		return goadsym.QuoteLiteral(v), nil
	case []any:
		parts := make([]string, len(v))
		for i, el := range v {
			part, err := jsonLiteral(el)
			if err != nil {
				return "", err
			}
			parts[i] = part
		}
		return "[" + strings.Join(parts, ",") + "]", nil
	case map[string]any:
		return "", fmt.Errorf("%w: struct values, write each field path instead", goadsym.ErrUnsupported)
	default:
		return "", NewInvalidRequestError(fmt.Sprintf("unsupported JSON value %T", value))
	}
}
