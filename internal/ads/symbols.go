// Package ads holds the device-facing constants and records used for symbol upload.
package ads

import (
	"encoding/binary"
	"fmt"
)

// Reserved index groups serving the symbol and data type upload.
const (
	IndexGroupSymbolUpload      uint32 = 0xF00B
	IndexGroupDataTypeUpload    uint32 = 0xF00E
	IndexGroupSymbolUploadInfo2 uint32 = 0xF00F
)

// Process image index groups. A symbol's index group selects its Group.
const (
	IndexGroupPLCMemory       uint32 = 0x4020
	IndexGroupPLCData         uint32 = 0x4040
	IndexGroupPhysicalInputs  uint32 = 0xF020
	IndexGroupPhysicalOutputs uint32 = 0xF030
)

// SymbolFlagPersistent marks a value the device retains across restarts.
const SymbolFlagPersistent uint32 = 0x00000001

// DataTypeFlagShift moves a symbol flag into the position it occupies inside
// a data type entry's flags word.
const DataTypeFlagShift = 8

// UploadInfoLength is the size of the upload info record.
const UploadInfoLength = 24

// UploadInfo describes the two schema blobs a device is about to upload.
// IndexGroup: 0xF00F, IndexOffset: 0x00000000
type UploadInfo struct {
	SymbolCount    uint32
	SymbolLength   uint32
	DataTypeCount  uint32
	DataTypeLength uint32
	MaxDynSymbols  uint32
	UsedDynSymbols uint32
}

func (r *UploadInfo) MarshalBinary() ([]byte, error) {
	buf := make([]byte, UploadInfoLength)
	binary.LittleEndian.PutUint32(buf[0:4], r.SymbolCount)
	binary.LittleEndian.PutUint32(buf[4:8], r.SymbolLength)
	binary.LittleEndian.PutUint32(buf[8:12], r.DataTypeCount)
	binary.LittleEndian.PutUint32(buf[12:16], r.DataTypeLength)
	binary.LittleEndian.PutUint32(buf[16:20], r.MaxDynSymbols)
	binary.LittleEndian.PutUint32(buf[20:24], r.UsedDynSymbols)
	return buf, nil
}

func (r *UploadInfo) UnmarshalBinary(data []byte) error {
	if len(data) < UploadInfoLength {
		return fmt.Errorf("ads: upload info requires %d bytes, got %d", UploadInfoLength, len(data))
	}
	r.SymbolCount = binary.LittleEndian.Uint32(data[0:4])
	r.SymbolLength = binary.LittleEndian.Uint32(data[4:8])
	r.DataTypeCount = binary.LittleEndian.Uint32(data[8:12])
	r.DataTypeLength = binary.LittleEndian.Uint32(data[12:16])
	r.MaxDynSymbols = binary.LittleEndian.Uint32(data[16:20])
	r.UsedDynSymbols = binary.LittleEndian.Uint32(data[20:24])
	return nil
}
