package snapshot

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zstd"
	"github.com/opencontainers/go-digest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrpasztoradam/goadsym/internal/ads"
	"github.com/mrpasztoradam/goadsym/internal/symbols"
)

func sample(t *testing.T) *Snapshot {
	t.Helper()

	syms := []symbols.Symbol{{
		Name: "MAIN.counter", TypeName: "DINT", Tag: symbols.TagInt32,
		IndexGroup: ads.IndexGroupPLCData, Offset: 4, Size: 4, Persistent: true,
	}}
	dts := []symbols.DataType{{Name: "DINT", Tag: symbols.TagInt32, Size: 4}}

	symbolData, err := symbols.EncodeSymbols(syms)
	require.NoError(t, err)
	dataTypeData, err := symbols.EncodeDataTypes(dts)
	require.NoError(t, err)

	info := ads.UploadInfo{
		SymbolCount:    1,
		SymbolLength:   uint32(len(symbolData)),
		DataTypeCount:  1,
		DataTypeLength: uint32(len(dataTypeData)),
		MaxDynSymbols:  16,
	}
	return New(info, symbolData, dataTypeData, "plc-1")
}

func TestRoundTrip(t *testing.T) {
	snap := sample(t)

	var buf bytes.Buffer
	require.NoError(t, snap.Encode(&buf))

	got, err := Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, snap.Info, got.Info)
	assert.Equal(t, snap.Symbols, got.Symbols)
	assert.Equal(t, snap.DataTypes, got.DataTypes)
	assert.Equal(t, "plc-1", got.Source)
	assert.True(t, snap.Taken.Equal(got.Taken))

	dir, err := got.Directory()
	require.NoError(t, err)
	sym, err := dir.Symbol("MAIN.counter")
	require.NoError(t, err)
	assert.True(t, sym.Persistent)
}

func TestSaveLoad(t *testing.T) {
	snap := sample(t)
	path := filepath.Join(t.TempDir(), "plc.snap")

	require.NoError(t, snap.Save(path))
	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, snap.Symbols, got.Symbols)

	_, err = Load(filepath.Join(t.TempDir(), "missing.snap"))
	assert.Error(t, err)
}

// compressed encodes rec the way Encode does, without computing digests.
func compressed(t *testing.T, rec record) *bytes.Buffer {
	t.Helper()

	data, err := encMode.Marshal(rec)
	require.NoError(t, err)

	var buf bytes.Buffer
	enc, err := zstd.NewWriter(&buf)
	require.NoError(t, err)
	_, err = enc.Write(data)
	require.NoError(t, err)
	require.NoError(t, enc.Close())
	return &buf
}

func TestDigestMismatch(t *testing.T) {
	snap := sample(t)
	rec := record{
		Version:         formatVersion,
		SymbolCount:     1,
		DataTypeCount:   1,
		Symbols:         snap.Symbols,
		SymbolsDigest:   digest.FromBytes(snap.Symbols).String(),
		DataTypes:       snap.DataTypes,
		DataTypesDigest: digest.FromBytes([]byte("tampered")).String(),
	}

	_, err := Decode(compressed(t, rec))
	assert.ErrorIs(t, err, ErrDigestMismatch)

	rec.DataTypesDigest = "not-a-digest"
	_, err = Decode(compressed(t, rec))
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrDigestMismatch)
}

func TestVersionCheck(t *testing.T) {
	_, err := Decode(compressed(t, record{Version: formatVersion + 1}))
	assert.ErrorIs(t, err, ErrVersion)
}

func TestDecodeGarbage(t *testing.T) {
	_, err := Decode(bytes.NewReader([]byte("definitely not zstd")))
	assert.Error(t, err)
}
