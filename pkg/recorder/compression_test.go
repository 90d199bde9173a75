package recorder

import (
	"bytes"
	"errors"
	"testing"
)

func TestCompression(t *testing.T) {
	// Repetitive pixel rows compress well
	testData := bytes.Repeat([]byte{0x10, 0x20, 0x30, 0xFF}, 256)

	compressed, err := CompressData(testData, ZstdCompression)
	if err != nil {
		t.Fatalf("Failed to compress data: %v", err)
	}
	if len(compressed) >= len(testData) {
		t.Errorf("Compressed data (%d bytes) is not smaller than original (%d bytes)",
			len(compressed), len(testData))
	}

	decompressed, err := DecompressData(compressed, ZstdCompression)
	if err != nil {
		t.Fatalf("Failed to decompress data: %v", err)
	}
	if !bytes.Equal(decompressed, testData) {
		t.Fatalf("Decompressed data does not match original")
	}
}

func TestNoCompression(t *testing.T) {
	testData := []byte("plain")
	out, err := CompressData(testData, NoCompression)
	if err != nil || !bytes.Equal(out, testData) {
		t.Fatalf("NoCompression should pass data through, got %q, %v", out, err)
	}
}

func TestUnknownCompression(t *testing.T) {
	if _, err := CompressData([]byte("x"), CompressionType(9)); !errors.Is(err, ErrUnsupportedCompression) {
		t.Errorf("Expected ErrUnsupportedCompression, got %v", err)
	}
	if _, err := DecompressData([]byte("x"), CompressionType(9)); !errors.Is(err, ErrUnsupportedCompression) {
		t.Errorf("Expected ErrUnsupportedCompression, got %v", err)
	}
}

func TestParseCompression(t *testing.T) {
	tests := []struct {
		in      string
		want    CompressionType
		wantErr bool
	}{
		{"", NoCompression, false},
		{"none", NoCompression, false},
		{"zstd", ZstdCompression, false},
		{"lz4", NoCompression, true},
	}

	for _, tt := range tests {
		got, err := ParseCompression(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseCompression(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseCompression(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
