package middleware

import (
	"context"
	"fmt"

	"github.com/mrpasztoradam/goadsym"
	"github.com/mrpasztoradam/goadsym/internal/fixture"
	"github.com/mrpasztoradam/goadsym/internal/snapshot"
)

// OpenClient builds the client described by the device configuration.
// Extra options are applied after the ones derived from cfg.
func OpenClient(ctx context.Context, cfg *Config, opts ...goadsym.Option) (*goadsym.Client, error) {
	base := []goadsym.Option{
		goadsym.WithSource(cfg.Device.Source),
		goadsym.WithUploadTimeout(cfg.UploadTimeout()),
	}
	if len(cfg.Device.ExcludedTypePrefixes) > 0 {
		base = append(base, goadsym.WithExcludedTypePrefixes(cfg.Device.ExcludedTypePrefixes...))
	}
	opts = append(base, opts...)

	if cfg.Device.Snapshot != "" {
		snap, err := snapshot.Load(cfg.Device.Snapshot)
		if err != nil {
			return nil, fmt.Errorf("failed to load snapshot: %w", err)
		}
		return goadsym.NewFromSnapshot(snap, opts...)
	}

	model := fixture.House()
	if cfg.Device.Fixture != "" {
		var err error
		if model, err = fixture.LoadFile(cfg.Device.Fixture); err != nil {
			return nil, fmt.Errorf("failed to load fixture: %w", err)
		}
	}

	device, err := model.Device()
	if err != nil {
		return nil, fmt.Errorf("failed to build simulated device: %w", err)
	}
	return goadsym.New(ctx, device, opts...)
}
