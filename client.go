// Package goadsym reads and writes TwinCAT PLC variables by symbolic path.
//
// A Client uploads the device's symbol and data type tables once, then
// resolves paths such as "MAIN.kitchen.fridge.middle_shelf[3]" to device
// addresses and converts between raw bytes and typed Variables.
package goadsym

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mrpasztoradam/goadsym/internal/ads"
	"github.com/mrpasztoradam/goadsym/internal/snapshot"
	"github.com/mrpasztoradam/goadsym/internal/symbols"
)

// Transport carries raw reads and writes to a device. Implementations must
// be safe for concurrent use.
type Transport interface {
	Read(ctx context.Context, indexGroup, indexOffset, length uint32) ([]byte, error)
	Write(ctx context.Context, indexGroup, indexOffset uint32, data []byte) error
}

// Client is a session with one device. The directory is built once in New
// and never changes, so all methods are safe for concurrent use.
type Client struct {
	transport Transport
	snap      *snapshot.Snapshot
	dir       *symbols.Directory
	codec     *codec
	logger    Logger
	metrics   Metrics
}

// Option is a functional option for configuring a Client.
type Option func(*clientConfig) error

type clientConfig struct {
	logger        Logger
	metrics       Metrics
	excluded      []string
	uploadTimeout time.Duration
	source        string
}

// WithExcludedTypePrefixes replaces the vendor namespaces whose struct
// fields are skipped when decoding.
func WithExcludedTypePrefixes(prefixes ...string) Option {
	return func(c *clientConfig) error {
		c.excluded = append([]string(nil), prefixes...)
		return nil
	}
}

// WithUploadTimeout bounds the schema upload in New (optional, defaults to 30s).
func WithUploadTimeout(timeout time.Duration) Option {
	return func(c *clientConfig) error {
		if timeout <= 0 {
			return fmt.Errorf("goadsym: upload timeout must be positive")
		}
		c.uploadTimeout = timeout
		return nil
	}
}

// WithSource labels the device in logs and snapshots.
func WithSource(source string) Option {
	return func(c *clientConfig) error {
		c.source = source
		return nil
	}
}

func newConfig(opts []Option) (*clientConfig, error) {
	cfg := &clientConfig{
		logger:        DefaultLogger,
		metrics:       DefaultMetrics,
		excluded:      DefaultExcludedTypePrefixes,
		uploadTimeout: 30 * time.Second,
	}
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// New uploads the symbol and data type tables through transport and builds
// the client's directory.
func New(ctx context.Context, transport Transport, opts ...Option) (*Client, error) {
	if transport == nil {
		return nil, fmt.Errorf("goadsym: transport is required")
	}
	cfg, err := newConfig(opts)
	if err != nil {
		return nil, err
	}

	uploadCtx, cancel := context.WithTimeout(ctx, cfg.uploadTimeout)
	defer cancel()

	start := time.Now()
	snap, err := Upload(uploadCtx, transport)
	if err != nil {
		cfg.metrics.ErrorOccurred(ClassifyError(err, "upload").Category, "upload")
		return nil, fmt.Errorf("goadsym: %w", err)
	}
	snap.Source = cfg.source

	c, err := newClient(snap, cfg)
	if err != nil {
		return nil, err
	}
	c.transport = transport
	cfg.metrics.SchemaLoaded(len(c.dir.Symbols()), len(c.dir.DataTypes()), time.Since(start))
	return c, nil
}

// NewFromSnapshot builds an offline client. Path verification and
// flattening work; reads and writes fail with ErrOffline.
func NewFromSnapshot(snap *snapshot.Snapshot, opts ...Option) (*Client, error) {
	if snap == nil {
		return nil, fmt.Errorf("goadsym: snapshot is required")
	}
	cfg, err := newConfig(opts)
	if err != nil {
		return nil, err
	}
	return newClient(snap, cfg)
}

func newClient(snap *snapshot.Snapshot, cfg *clientConfig) (*Client, error) {
	dir, err := snap.Directory()
	if err != nil {
		return nil, fmt.Errorf("goadsym: %w", err)
	}

	logger := cfg.logger
	if snap.Source != "" {
		logger = logger.With("source", snap.Source)
	}
	logger.Info("schema loaded",
		"symbols", len(dir.Symbols()),
		"data_types", len(dir.DataTypes()),
		"symbol_bytes", len(snap.Symbols),
		"data_type_bytes", len(snap.DataTypes))

	for _, sym := range dir.Symbols() {
		if _, known := symbols.GroupFromIndexGroup(sym.IndexGroup); !known {
			logger.Debug("unknown index group", "symbol", sym.Name, "index_group", fmt.Sprintf("0x%04X", sym.IndexGroup))
		}
	}

	return &Client{
		snap:    snap,
		dir:     dir,
		codec:   newCodec(dir, cfg.excluded),
		logger:  logger,
		metrics: cfg.metrics,
	}, nil
}

// Upload reads the upload info record, then both schema blobs concurrently.
func Upload(ctx context.Context, transport Transport) (*snapshot.Snapshot, error) {
	raw, err := transport.Read(ctx, ads.IndexGroupSymbolUploadInfo2, 0, ads.UploadInfoLength)
	if err != nil {
		return nil, fmt.Errorf("read upload info: %w", err)
	}

	var info ads.UploadInfo
	if err := info.UnmarshalBinary(raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ads.ErrMalformedSchema, err)
	}

	var symbolData, dataTypeData []byte
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		data, err := readBlob(gctx, transport, ads.IndexGroupSymbolUpload, info.SymbolLength)
		if err != nil {
			return fmt.Errorf("upload symbol table: %w", err)
		}
		symbolData = data
		return nil
	})
	g.Go(func() error {
		data, err := readBlob(gctx, transport, ads.IndexGroupDataTypeUpload, info.DataTypeLength)
		if err != nil {
			return fmt.Errorf("upload data type table: %w", err)
		}
		dataTypeData = data
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return snapshot.New(info, symbolData, dataTypeData, ""), nil
}

func readBlob(ctx context.Context, transport Transport, indexGroup, length uint32) ([]byte, error) {
	if length == 0 {
		return nil, nil
	}
	data, err := transport.Read(ctx, indexGroup, 0, length)
	if err != nil {
		return nil, err
	}
	if uint32(len(data)) != length {
		return nil, fmt.Errorf("%w: announced %d bytes, received %d", ads.ErrMalformedSchema, length, len(data))
	}
	return data, nil
}

// Directory returns the immutable symbol and data type directory.
func (c *Client) Directory() *symbols.Directory {
	return c.dir
}

// Snapshot returns the uploads the client was built from.
func (c *Client) Snapshot() *snapshot.Snapshot {
	return c.snap
}

// Online reports whether the client has a transport.
func (c *Client) Online() bool {
	return c.transport != nil
}

// GetSymbol retrieves a top-level symbol by name.
func (c *Client) GetSymbol(name string) (*symbols.Symbol, error) {
	return c.dir.Symbol(name)
}

// ListSymbols returns all top-level symbols in upload order.
func (c *Client) ListSymbols() []*symbols.Symbol {
	return c.dir.Symbols()
}

// FindSymbols searches for symbols matching the pattern (case-insensitive substring).
func (c *Client) FindSymbols(pattern string) []*symbols.Symbol {
	return c.dir.Find(pattern)
}

// Persistent lists every leaf path marked persistent.
func (c *Client) Persistent() []string {
	return c.dir.Persistent()
}

// SymbolsWithDataTypeName lists every leaf path declared with the given type.
func (c *Client) SymbolsWithDataTypeName(name string) []string {
	return c.dir.WithDataTypeName(name)
}

// Flatten lists every leaf path matching pred.
func (c *Client) Flatten(pred symbols.Predicate) []string {
	return c.dir.Flatten(pred)
}

// target is a resolved path ready for I/O.
type target struct {
	sym *symbols.Symbol
	dt  *symbols.DataType
	loc symbols.Location
}

func (c *Client) resolve(path string) (target, error) {
	sym, dt, err := c.dir.Resolve(path)
	if err != nil {
		return target{}, err
	}
	loc, err := c.dir.Locate(path)
	if err != nil {
		return target{}, err
	}
	return target{sym: sym, dt: dt, loc: loc}, nil
}

// observe records the outcome of an operation and classifies its error.
func (c *Client) observe(ctx context.Context, operation, path string, start time.Time, err error) error {
	c.metrics.OperationCompleted(operation, time.Since(start), err)
	logger := LoggerFromContext(ctx, c.logger)
	if err == nil {
		logger.Debug(operation, "path", path, "duration", time.Since(start))
		return nil
	}

	ce := newPathError(operation, path, err)
	c.metrics.ErrorOccurred(ce.Category, operation)
	logger.Warn(operation+" failed", "path", path, "category", ce.Category, "error", err)
	return ce
}

// ReadRaw reads the bytes at path.
func (c *Client) ReadRaw(ctx context.Context, path string) (data []byte, err error) {
	start := time.Now()
	c.metrics.OperationStarted("read")
	defer func() { err = c.observe(ctx, "read", path, start, err) }()

	t, err := c.resolve(path)
	if err != nil {
		return nil, err
	}
	return c.read(ctx, t)
}

func (c *Client) read(ctx context.Context, t target) ([]byte, error) {
	if c.transport == nil {
		return nil, ErrOffline
	}
	data, err := c.transport.Read(ctx, t.loc.IndexGroup, t.loc.IndexOffset, t.loc.Size)
	if err != nil {
		return nil, err
	}
	c.metrics.BytesRead(int64(len(data)))
	if uint32(len(data)) != t.loc.Size {
		return nil, fmt.Errorf("%w: read %d bytes, expected %d", ads.ErrMalformedData, len(data), t.loc.Size)
	}
	return data, nil
}

// WriteRaw writes data at path. data may be shorter than the addressed
// value, in which case only its leading bytes are written.
func (c *Client) WriteRaw(ctx context.Context, path string, data []byte) (err error) {
	start := time.Now()
	c.metrics.OperationStarted("write")
	defer func() { err = c.observe(ctx, "write", path, start, err) }()

	t, err := c.resolve(path)
	if err != nil {
		return err
	}
	return c.write(ctx, t, data)
}

func (c *Client) write(ctx context.Context, t target, data []byte) error {
	if uint32(len(data)) > t.loc.Size {
		return sizeError(t, len(data))
	}
	if c.transport == nil {
		return ErrOffline
	}
	if err := c.transport.Write(ctx, t.loc.IndexGroup, t.loc.IndexOffset, data); err != nil {
		return err
	}
	c.metrics.BytesWritten(int64(len(data)))
	return nil
}

func sizeError(t target, n int) error {
	return fmt.Errorf("%w: %d bytes exceed %q of %d bytes", ads.ErrInvalidArgument, n, t.sym.Name, t.loc.Size)
}

// GetValue reads and decodes the value at path.
func (c *Client) GetValue(ctx context.Context, path string) (v Variable, err error) {
	start := time.Now()
	c.metrics.OperationStarted("get")
	defer func() { err = c.observe(ctx, "get", path, start, err) }()

	t, err := c.resolve(path)
	if err != nil {
		return nil, err
	}
	data, err := c.read(ctx, t)
	if err != nil {
		return nil, err
	}
	return c.codec.decode(t.sym, t.dt, data)
}

// SetValue encodes v for path and writes it. Arrays shorter than their
// declaration write a prefix. Struct values are rejected with
// ErrUnsupported; write their fields individually.
func (c *Client) SetValue(ctx context.Context, path string, v Variable) (err error) {
	start := time.Now()
	c.metrics.OperationStarted("set")
	defer func() { err = c.observe(ctx, "set", path, start, err) }()

	t, err := c.resolve(path)
	if err != nil {
		return err
	}
	data, err := encode(t.sym, t.dt.Ranges, v)
	if err != nil {
		return err
	}
	return c.write(ctx, t, data)
}

// SetValueFromString parses text as a literal for path and writes it.
func (c *Client) SetValueFromString(ctx context.Context, path, text string) (err error) {
	start := time.Now()
	c.metrics.OperationStarted("set")
	defer func() { err = c.observe(ctx, "set", path, start, err) }()

	t, err := c.resolve(path)
	if err != nil {
		return err
	}
	data, err := TextToBytes(text, t.sym, t.dt.Ranges)
	if err != nil {
		return err
	}
	return c.write(ctx, t, data)
}

// Result is the outcome of one path in ReadValues.
type Result struct {
	Value Variable
	Err   error
}

// ReadValues reads several paths concurrently. A failing path does not
// affect the others.
func (c *Client) ReadValues(ctx context.Context, paths ...string) map[string]Result {
	results := make([]Result, len(paths))

	var g errgroup.Group
	g.SetLimit(8)
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			v, err := c.GetValue(ctx, path)
			results[i] = Result{Value: v, Err: err}
			return nil
		})
	}
	_ = g.Wait()

	out := make(map[string]Result, len(paths))
	for i, path := range paths {
		out[path] = results[i]
	}
	return out
}
