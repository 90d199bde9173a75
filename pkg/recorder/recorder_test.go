package recorder

import (
	"bytes"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/willibrandon/ChronoGL/pkg/chunk"
	"github.com/willibrandon/ChronoGL/pkg/gl"
	"github.com/willibrandon/ChronoGL/pkg/invariant"
	"github.com/willibrandon/ChronoGL/pkg/resource"
)

func TestInMemoryRecorder(t *testing.T) {
	r := NewInMemoryRecorder()
	assert.Equal(t, 0, r.Len())

	a := chunk.MustBuild(chunk.OpCreateTexture, nil, gl.Texture2D, resource.ID(1))
	b := chunk.MustBuild(chunk.OpBindTexture, nil, gl.Texture2D, resource.ID(1))
	require.NoError(t, r.Record(a))
	require.NoError(t, r.Record(b))

	got := r.Chunks()
	require.Len(t, got, 2)
	assert.Same(t, a, got[0])
	assert.Same(t, b, got[1])

	// returned slice is a copy
	got[0] = b
	assert.Same(t, a, r.Chunks()[0])

	r.Clear()
	assert.Equal(t, 0, r.Len())
}

func TestSessionLogConcurrentAppend(t *testing.T) {
	log := NewSessionLog()
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				_ = log.Record(chunk.MustBuild(chunk.OpActiveTexture, nil, gl.Texture0+gl.Enum(g)))
			}
		}(g)
	}
	wg.Wait()
	assert.Equal(t, 400, log.Len())
}

func TestResourceRecordTarget(t *testing.T) {
	r := NewResourceRecord(7)
	assert.Equal(t, gl.Enum(0), r.Target())

	first, err := r.BindTarget(gl.Texture2D, "BindTexture")
	require.NoError(t, err)
	assert.True(t, first)

	first, err = r.BindTarget(gl.Texture2D, "BindTexture")
	require.NoError(t, err)
	assert.False(t, first)

	_, err = r.BindTarget(gl.Texture3D, "BindTexture")
	v, ok := invariant.As(err)
	require.True(t, ok)
	assert.Equal(t, invariant.Retarget, v.Kind)
	assert.Equal(t, resource.ID(7), v.Resource)
	assert.Equal(t, gl.Texture2D, r.Target())
}

func TestResourceRecordStorage(t *testing.T) {
	r := NewResourceRecord(1)
	_, ok := r.Storage()
	assert.False(t, ok)

	assert.True(t, r.SetStorage(Storage{InternalFormat: gl.RGBA8, Levels: 1, Width: 4, Height: 4, Depth: 1}))
	assert.False(t, r.SetStorage(Storage{InternalFormat: gl.R8, Levels: 2, Width: 8, Height: 8, Depth: 1}))

	s, ok := r.Storage()
	require.True(t, ok)
	assert.Equal(t, gl.RGBA8, s.InternalFormat)
	assert.Equal(t, uint32(4), s.Width)
}

func sampleCapture() *Capture {
	id1, id2 := resource.ID(1), resource.ID(2)
	pixels := []byte{1, 2, 3, 0, 4, 5, 6, 0}
	return &Capture{
		SessionID: uuid.New(),
		Created:   time.Unix(1700000000, 123).UTC(),
		Version:   "test",
		Records: []Record{
			{ID: id2, Target: gl.Texture3D, Chunks: []*chunk.Chunk{
				chunk.MustBuild(chunk.OpCreateTexture, nil, gl.Texture3D, id2),
			}},
			{ID: id1, Target: gl.Texture2D, Chunks: []*chunk.Chunk{
				chunk.MustBuild(chunk.OpCreateTexture, nil, gl.Texture2D, id1),
				chunk.MustBuild(chunk.OpTexParameteri, nil, gl.Texture2D, gl.TextureMinFilter, int32(gl.Nearest), id1),
				chunk.MustBuild(chunk.OpTexStorage2D, nil, gl.Texture2D, uint32(1), gl.R8, uint32(3), uint32(2), id1),
			}},
		},
		Frame: []*chunk.Chunk{
			chunk.MustBuild(chunk.OpActiveTexture, nil, gl.Texture0),
			chunk.MustBuild(chunk.OpTexSubImage2D, pixels,
				gl.Texture2D, int32(0), int32(0), int32(0), uint32(3), uint32(2), gl.Red, gl.UnsignedByte, int32(4), id1),
		},
	}
}

func assertSameCapture(t *testing.T, want, got *Capture) {
	t.Helper()
	assert.Equal(t, want.SessionID, got.SessionID)
	assert.True(t, want.Created.Equal(got.Created))
	assert.Equal(t, want.Version, got.Version)

	want.SortRecords()
	require.Len(t, got.Records, len(want.Records))
	for i := range want.Records {
		assert.Equal(t, want.Records[i].ID, got.Records[i].ID)
		assert.Equal(t, want.Records[i].Target, got.Records[i].Target)
		require.Len(t, got.Records[i].Chunks, len(want.Records[i].Chunks))
		for j, c := range want.Records[i].Chunks {
			assert.Equal(t, chunk.Encode(c), chunk.Encode(got.Records[i].Chunks[j]))
		}
	}
	require.Len(t, got.Frame, len(want.Frame))
	for i, c := range want.Frame {
		assert.Equal(t, chunk.Encode(c), chunk.Encode(got.Frame[i]))
	}
}

func TestContainerRoundTrip(t *testing.T) {
	encKey := []byte("0123456789ABCDEF0123456789ABCDEF")
	macKey := []byte("integrity")

	tests := []struct {
		name string
		opts FileOptions
	}{
		{"plain", FileOptions{CompressionType: NoCompression}},
		{"zstd", DefaultFileOptions()},
		{"encrypted", FileOptions{CompressionType: ZstdCompression, Security: NewSecurityOptions(WithEncryption(encKey))}},
		{"integrity", FileOptions{CompressionType: NoCompression, Security: NewSecurityOptions(WithIntegrityCheck(macKey))}},
		{"everything", FileOptions{CompressionType: ZstdCompression, Security: NewSecurityOptions(WithEncryption(encKey), WithIntegrityCheck(macKey))}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			want := sampleCapture()
			var buf bytes.Buffer
			require.NoError(t, Encode(&buf, want, tt.opts))

			got, hdr, err := Decode(&buf, tt.opts.Security)
			require.NoError(t, err)
			assert.Equal(t, tt.opts.CompressionType, hdr.Compression)
			assert.Equal(t, tt.opts.Security.EnableEncryption, hdr.Encrypted)
			assert.Equal(t, chunk.FormatVersion, hdr.ChunkVersion)
			assertSameCapture(t, want, got)
		})
	}
}

func TestContainerFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "frame.cglc")
	want := sampleCapture()
	require.NoError(t, WriteFile(path, want, DefaultFileOptions()))

	got, _, err := ReadFile(path, DefaultSecurityOptions())
	require.NoError(t, err)
	assertSameCapture(t, want, got)
	assert.Equal(t, 6, got.ChunkCount())

	r, ok := got.Record(1)
	require.True(t, ok)
	assert.Len(t, r.Chunks, 3)
}

func TestContainerTamper(t *testing.T) {
	opts := FileOptions{CompressionType: NoCompression, Security: NewSecurityOptions(WithIntegrityCheck([]byte("k")))}
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, sampleCapture(), opts))
	data := buf.Bytes()

	tampered := append([]byte(nil), data...)
	tampered[len(tampered)-40] ^= 0x01
	_, _, err := Decode(bytes.NewReader(tampered), opts.Security)
	assert.ErrorIs(t, err, ErrIntegrity)

	_, _, err = Decode(bytes.NewReader(data), NewSecurityOptions(WithIntegrityCheck([]byte("wrong"))))
	assert.ErrorIs(t, err, ErrIntegrity)

	_, _, err = Decode(bytes.NewReader(data), DefaultSecurityOptions())
	assert.ErrorIs(t, err, ErrKeyRequired)
}

func TestContainerRejectsGarbage(t *testing.T) {
	_, _, err := Decode(bytes.NewReader([]byte("definitely not a capture file at all......")), DefaultSecurityOptions())
	assert.ErrorIs(t, err, ErrBadMagic)

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, sampleCapture(), FileOptions{}))
	data := buf.Bytes()

	bumped := append([]byte(nil), data...)
	bumped[4] = 99
	_, _, err = Decode(bytes.NewReader(bumped), DefaultSecurityOptions())
	assert.ErrorIs(t, err, ErrVersion)

	_, _, err = Decode(bytes.NewReader(data[:len(data)-3]), DefaultSecurityOptions())
	assert.ErrorIs(t, err, ErrCorrupt)

	// an empty capture ends with its frame count; claim 2^32-1 chunks
	var empty bytes.Buffer
	require.NoError(t, Encode(&empty, &Capture{}, FileOptions{}))
	counted := append([]byte(nil), empty.Bytes()...)
	for i := len(counted) - 4; i < len(counted); i++ {
		counted[i] = 0xff
	}
	_, _, err = Decode(bytes.NewReader(counted), DefaultSecurityOptions())
	assert.True(t, invariant.Is(err, invariant.SchemaMismatch), "got %v", err)
}

func TestContainerCorruptChunk(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, sampleCapture(), FileOptions{}))
	data := buf.Bytes()

	// last chunk is the upload; flip its payload length so it disagrees with
	// the derived size
	corrupt := append([]byte(nil), data...)
	corrupt[len(corrupt)-12] = 9
	_, _, err := Decode(bytes.NewReader(corrupt), DefaultSecurityOptions())
	assert.True(t, invariant.Is(err, invariant.SchemaMismatch), "got %v", err)
}
