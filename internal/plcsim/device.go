// Package plcsim is an in-memory PLC that serves the symbol upload index
// groups and a byte image per process image index group. It satisfies the
// client's Transport interface.
package plcsim

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/mrpasztoradam/goadsym/internal/ads"
)

// Device is a simulated PLC. It is safe for concurrent use.
type Device struct {
	mu        sync.RWMutex
	info      ads.UploadInfo
	symbols   []byte
	dataTypes []byte
	memory    map[uint32][]byte
	faults    map[uint32]error

	reads  atomic.Int64
	writes atomic.Int64
}

// New creates a device serving the given upload blobs.
func New(symbolData []byte, symbolCount uint32, dataTypeData []byte, dataTypeCount uint32) *Device {
	return &Device{
		info: ads.UploadInfo{
			SymbolCount:    symbolCount,
			SymbolLength:   uint32(len(symbolData)),
			DataTypeCount:  dataTypeCount,
			DataTypeLength: uint32(len(dataTypeData)),
		},
		symbols:   symbolData,
		dataTypes: dataTypeData,
		memory:    make(map[uint32][]byte),
		faults:    make(map[uint32]error),
	}
}

// AddArea allocates a zeroed memory area of size bytes for indexGroup,
// replacing any existing one.
func (d *Device) AddArea(indexGroup uint32, size uint32) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.memory[indexGroup] = make([]byte, size)
}

// Poke copies data into an area, bypassing write faults.
func (d *Device) Poke(indexGroup, indexOffset uint32, data []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	area, err := d.area(indexGroup, indexOffset, uint32(len(data)))
	if err != nil {
		return err
	}
	copy(area, data)
	return nil
}

// Peek returns a copy of length bytes of an area.
func (d *Device) Peek(indexGroup, indexOffset, length uint32) ([]byte, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	area, err := d.area(indexGroup, indexOffset, length)
	if err != nil {
		return nil, err
	}
	return append([]byte(nil), area...), nil
}

// Areas lists the allocated index groups in ascending order.
func (d *Device) Areas() []uint32 {
	d.mu.RLock()
	defer d.mu.RUnlock()

	groups := make([]uint32, 0, len(d.memory))
	for g := range d.memory {
		groups = append(groups, g)
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i] < groups[j] })
	return groups
}

// Fail makes every request on indexGroup return err until it is cleared
// with a nil err.
func (d *Device) Fail(indexGroup uint32, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err == nil {
		delete(d.faults, indexGroup)
		return
	}
	d.faults[indexGroup] = err
}

// Stats returns the number of reads and writes served.
func (d *Device) Stats() (reads, writes int64) {
	return d.reads.Load(), d.writes.Load()
}

// Read implements the client's Transport.
func (d *Device) Read(ctx context.Context, indexGroup, indexOffset, length uint32) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	d.reads.Add(1)

	d.mu.RLock()
	defer d.mu.RUnlock()

	if err := d.faults[indexGroup]; err != nil {
		return nil, err
	}

	switch indexGroup {
	case ads.IndexGroupSymbolUploadInfo2:
		if length < ads.UploadInfoLength {
			return nil, ads.ErrDeviceInvalidSize
		}
		return d.info.MarshalBinary()
	case ads.IndexGroupSymbolUpload:
		return slice(d.symbols, indexOffset, length)
	case ads.IndexGroupDataTypeUpload:
		return slice(d.dataTypes, indexOffset, length)
	}

	area, err := d.area(indexGroup, indexOffset, length)
	if err != nil {
		return nil, err
	}
	return append([]byte(nil), area...), nil
}

// Write implements the client's Transport.
func (d *Device) Write(ctx context.Context, indexGroup, indexOffset uint32, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	d.writes.Add(1)

	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.faults[indexGroup]; err != nil {
		return err
	}

	switch indexGroup {
	case ads.IndexGroupSymbolUploadInfo2, ads.IndexGroupSymbolUpload, ads.IndexGroupDataTypeUpload:
		return ads.ErrDeviceServiceNotSupp
	}

	area, err := d.area(indexGroup, indexOffset, uint32(len(data)))
	if err != nil {
		return err
	}
	copy(area, data)
	return nil
}

// area returns the live window [offset, offset+length) of an index group.
// Callers hold d.mu.
func (d *Device) area(indexGroup, indexOffset, length uint32) ([]byte, error) {
	mem, ok := d.memory[indexGroup]
	if !ok {
		return nil, ads.ErrDeviceInvalidIndexGroup
	}
	return slice(mem, indexOffset, length)
}

func slice(data []byte, offset, length uint32) ([]byte, error) {
	if uint64(offset) > uint64(len(data)) {
		return nil, ads.ErrDeviceInvalidIndexOffset
	}
	end := uint64(offset) + uint64(length)
	if end > uint64(len(data)) {
		return nil, ads.ErrDeviceInvalidSize
	}
	return data[offset:end], nil
}

func (d *Device) String() string {
	return fmt.Sprintf("plcsim(%d symbols, %d data types, %d areas)",
		d.info.SymbolCount, d.info.DataTypeCount, len(d.Areas()))
}
