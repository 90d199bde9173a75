package recorder

import (
	"fmt"

	"github.com/klauspost/compress/zstd"
)

// CompressionType defines the compression algorithm applied to a capture body
type CompressionType uint8

const (
	// NoCompression indicates no compression
	NoCompression CompressionType = iota
	// ZstdCompression indicates Zstandard compression
	ZstdCompression
)

var (
	// DefaultCompression is the default compression algorithm
	DefaultCompression = ZstdCompression

	// encoder and decoder for zstd are reusable and thread-safe
	zstdEncoder, _ = zstd.NewWriter(nil)
	zstdDecoder, _ = zstd.NewReader(nil)
)

// String returns the string representation of the CompressionType
func (c CompressionType) String() string {
	switch c {
	case NoCompression:
		return "none"
	case ZstdCompression:
		return "zstd"
	default:
		return fmt.Sprintf("CompressionType(%d)", uint8(c))
	}
}

// ParseCompression maps a config value onto a CompressionType
func ParseCompression(name string) (CompressionType, error) {
	switch name {
	case "", "none", "off":
		return NoCompression, nil
	case "zstd":
		return ZstdCompression, nil
	}
	return NoCompression, fmt.Errorf("unknown compression %q", name)
}

// CompressData compresses a byte slice using the specified compression algorithm
func CompressData(data []byte, compressionType CompressionType) ([]byte, error) {
	switch compressionType {
	case NoCompression:
		return data, nil
	case ZstdCompression:
		return zstdEncoder.EncodeAll(data, make([]byte, 0, len(data))), nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedCompression, compressionType)
}

// DecompressData decompresses a byte slice using the specified compression algorithm
func DecompressData(data []byte, compressionType CompressionType) ([]byte, error) {
	switch compressionType {
	case NoCompression:
		return data, nil
	case ZstdCompression:
		return zstdDecoder.DecodeAll(data, nil)
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedCompression, compressionType)
}
