package plcsim

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrpasztoradam/goadsym/internal/ads"
)

func newDevice() *Device {
	d := New([]byte{1, 2, 3}, 1, []byte{4, 5}, 1)
	d.AddArea(ads.IndexGroupPLCData, 16)
	return d
}

func TestUploadGroups(t *testing.T) {
	d := newDevice()
	ctx := context.Background()

	raw, err := d.Read(ctx, ads.IndexGroupSymbolUploadInfo2, 0, ads.UploadInfoLength)
	require.NoError(t, err)

	var info ads.UploadInfo
	require.NoError(t, info.UnmarshalBinary(raw))
	assert.Equal(t, uint32(1), info.SymbolCount)
	assert.Equal(t, uint32(3), info.SymbolLength)
	assert.Equal(t, uint32(2), info.DataTypeLength)

	data, err := d.Read(ctx, ads.IndexGroupSymbolUpload, 0, 3)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, data)

	data, err = d.Read(ctx, ads.IndexGroupDataTypeUpload, 0, 2)
	require.NoError(t, err)
	assert.Equal(t, []byte{4, 5}, data)

	_, err = d.Read(ctx, ads.IndexGroupSymbolUploadInfo2, 0, 8)
	assert.ErrorIs(t, err, ads.ErrDeviceInvalidSize)

	err = d.Write(ctx, ads.IndexGroupSymbolUpload, 0, []byte{0})
	assert.ErrorIs(t, err, ads.ErrDeviceServiceNotSupp)
}

func TestReadWrite(t *testing.T) {
	d := newDevice()
	ctx := context.Background()

	require.NoError(t, d.Write(ctx, ads.IndexGroupPLCData, 4, []byte{0xAA, 0xBB}))

	data, err := d.Read(ctx, ads.IndexGroupPLCData, 3, 4)
	require.NoError(t, err)
	assert.Equal(t, []byte{0, 0xAA, 0xBB, 0}, data)

	data[1] = 0
	again, err := d.Peek(ads.IndexGroupPLCData, 4, 1)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xAA}, again, "reads return copies")

	reads, writes := d.Stats()
	assert.Equal(t, int64(1), reads)
	assert.Equal(t, int64(1), writes)
}

func TestBounds(t *testing.T) {
	d := newDevice()
	ctx := context.Background()

	tests := []struct {
		name   string
		group  uint32
		offset uint32
		length uint32
		want   error
	}{
		{"unknown group", 0x1234, 0, 1, ads.ErrDeviceInvalidIndexGroup},
		{"offset past end", ads.IndexGroupPLCData, 17, 1, ads.ErrDeviceInvalidIndexOffset},
		{"length past end", ads.IndexGroupPLCData, 10, 7, ads.ErrDeviceInvalidSize},
		{"offset overflow", ads.IndexGroupPLCData, 0xFFFFFFFF, 2, ads.ErrDeviceInvalidIndexOffset},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := d.Read(ctx, tt.group, tt.offset, tt.length)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	data, err := d.Read(ctx, ads.IndexGroupPLCData, 16, 0)
	require.NoError(t, err)
	assert.Empty(t, data)
}

func TestFaults(t *testing.T) {
	d := newDevice()
	ctx := context.Background()
	boom := errors.New("boom")

	d.Fail(ads.IndexGroupPLCData, boom)
	_, err := d.Read(ctx, ads.IndexGroupPLCData, 0, 1)
	assert.ErrorIs(t, err, boom)
	assert.ErrorIs(t, d.Write(ctx, ads.IndexGroupPLCData, 0, []byte{1}), boom)
	require.NoError(t, d.Poke(ads.IndexGroupPLCData, 0, []byte{1}))

	d.Fail(ads.IndexGroupPLCData, nil)
	data, err := d.Read(ctx, ads.IndexGroupPLCData, 0, 1)
	require.NoError(t, err)
	assert.Equal(t, []byte{1}, data)
}

func TestCanceledContext(t *testing.T) {
	d := newDevice()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := d.Read(ctx, ads.IndexGroupPLCData, 0, 1)
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, d.Write(ctx, ads.IndexGroupPLCData, 0, []byte{1}), context.Canceled)
}
