// Package snapshot persists the raw symbol and data type uploads of a device
// so a directory can be rebuilt offline.
//
// A snapshot file is a zstd stream holding one CBOR record. Each blob is
// stored next to its content digest, which is checked on load.
package snapshot

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/klauspost/compress/zstd"
	"github.com/opencontainers/go-digest"

	"github.com/mrpasztoradam/goadsym/internal/ads"
	"github.com/mrpasztoradam/goadsym/internal/symbols"
)

// formatVersion is bumped whenever the record layout changes.
const formatVersion = 1

// maxDecodedSize bounds the decompressed record.
const maxDecodedSize = 256 << 20

var (
	// ErrDigestMismatch is returned when a stored blob does not match its digest.
	ErrDigestMismatch = errors.New("snapshot: digest mismatch")

	// ErrVersion is returned for records written by an unknown format version.
	ErrVersion = errors.New("snapshot: unsupported format version")
)

// Snapshot is the upload of one device at one point in time.
type Snapshot struct {
	Info      ads.UploadInfo
	Symbols   []byte
	DataTypes []byte
	Taken     time.Time
	Source    string
}

// record is the on-disk layout. Integer keys keep it compact.
type record struct {
	Version         int       `cbor:"1,keyasint"`
	SymbolCount     uint32    `cbor:"2,keyasint"`
	DataTypeCount   uint32    `cbor:"3,keyasint"`
	Symbols         []byte    `cbor:"4,keyasint"`
	SymbolsDigest   string    `cbor:"5,keyasint"`
	DataTypes       []byte    `cbor:"6,keyasint"`
	DataTypesDigest string    `cbor:"7,keyasint"`
	Taken           time.Time `cbor:"8,keyasint"`
	Source          string    `cbor:"9,keyasint,omitempty"`
	MaxDynSymbols   uint32    `cbor:"10,keyasint,omitempty"`
	UsedDynSymbols  uint32    `cbor:"11,keyasint,omitempty"`
}

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error

	encOpts := cbor.EncOptions{
		Sort:          cbor.SortCanonical,
		IndefLength:   cbor.IndefLengthForbidden,
		NilContainers: cbor.NilContainerAsNull,
		Time:          cbor.TimeRFC3339Nano,
	}
	encMode, err = encOpts.EncMode()
	if err != nil {
		panic(fmt.Sprintf("failed to create snapshot CBOR encoder mode: %v", err))
	}

	decOpts := cbor.DecOptions{
		DupMapKey:   cbor.DupMapKeyEnforcedAPF,
		IndefLength: cbor.IndefLengthForbidden,
	}
	decMode, err = decOpts.DecMode()
	if err != nil {
		panic(fmt.Sprintf("failed to create snapshot CBOR decoder mode: %v", err))
	}
}

// New captures the given uploads.
func New(info ads.UploadInfo, symbolData, dataTypeData []byte, source string) *Snapshot {
	return &Snapshot{
		Info:      info,
		Symbols:   symbolData,
		DataTypes: dataTypeData,
		Taken:     time.Now().UTC(),
		Source:    source,
	}
}

// Directory parses the stored uploads.
func (s *Snapshot) Directory() (*symbols.Directory, error) {
	return symbols.Load(s.Symbols, s.Info.SymbolCount, s.DataTypes, s.Info.DataTypeCount)
}

// Encode writes the snapshot to w.
func (s *Snapshot) Encode(w io.Writer) error {
	data, err := encMode.Marshal(record{
		Version:         formatVersion,
		SymbolCount:     s.Info.SymbolCount,
		DataTypeCount:   s.Info.DataTypeCount,
		Symbols:         s.Symbols,
		SymbolsDigest:   digest.FromBytes(s.Symbols).String(),
		DataTypes:       s.DataTypes,
		DataTypesDigest: digest.FromBytes(s.DataTypes).String(),
		Taken:           s.Taken,
		Source:          s.Source,
		MaxDynSymbols:   s.Info.MaxDynSymbols,
		UsedDynSymbols:  s.Info.UsedDynSymbols,
	})
	if err != nil {
		return fmt.Errorf("snapshot: encode: %w", err)
	}

	enc, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedBetterCompression))
	if err != nil {
		return fmt.Errorf("snapshot: create compressor: %w", err)
	}
	if _, err := enc.Write(data); err != nil {
		enc.Close()
		return fmt.Errorf("snapshot: compress: %w", err)
	}
	return enc.Close()
}

// Decode reads a snapshot written by Encode and verifies both blob digests.
func Decode(r io.Reader) (*Snapshot, error) {
	dec, err := zstd.NewReader(r, zstd.WithDecoderMaxMemory(maxDecodedSize))
	if err != nil {
		return nil, fmt.Errorf("snapshot: create decompressor: %w", err)
	}
	defer dec.Close()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, io.LimitReader(dec, maxDecodedSize+1)); err != nil {
		return nil, fmt.Errorf("snapshot: decompress: %w", err)
	}
	if buf.Len() > maxDecodedSize {
		return nil, fmt.Errorf("snapshot: record exceeds %d bytes", maxDecodedSize)
	}

	var rec record
	if err := decMode.Unmarshal(buf.Bytes(), &rec); err != nil {
		return nil, fmt.Errorf("snapshot: decode: %w", err)
	}
	if rec.Version != formatVersion {
		return nil, fmt.Errorf("%w: %d", ErrVersion, rec.Version)
	}
	if err := verify("symbols", rec.Symbols, rec.SymbolsDigest); err != nil {
		return nil, err
	}
	if err := verify("data types", rec.DataTypes, rec.DataTypesDigest); err != nil {
		return nil, err
	}

	return &Snapshot{
		Info: ads.UploadInfo{
			SymbolCount:    rec.SymbolCount,
			SymbolLength:   uint32(len(rec.Symbols)),
			DataTypeCount:  rec.DataTypeCount,
			DataTypeLength: uint32(len(rec.DataTypes)),
			MaxDynSymbols:  rec.MaxDynSymbols,
			UsedDynSymbols: rec.UsedDynSymbols,
		},
		Symbols:   rec.Symbols,
		DataTypes: rec.DataTypes,
		Taken:     rec.Taken,
		Source:    rec.Source,
	}, nil
}

func verify(what string, data []byte, stored string) error {
	want, err := digest.Parse(stored)
	if err != nil {
		return fmt.Errorf("snapshot: %s digest: %w", what, err)
	}
	if got := want.Algorithm().FromBytes(data); got != want {
		return fmt.Errorf("%w: %s is %s, recorded %s", ErrDigestMismatch, what, got, want)
	}
	return nil
}

// Save writes the snapshot to path, replacing any existing file.
func (s *Snapshot) Save(path string) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".snapshot-*")
	if err != nil {
		return fmt.Errorf("snapshot: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := s.Encode(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("snapshot: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("snapshot: %w", err)
	}
	return nil
}

// Load reads a snapshot file.
func Load(path string) (*Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("snapshot: %w", err)
	}
	defer f.Close()
	return Decode(f)
}
