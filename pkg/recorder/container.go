package recorder

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/willibrandon/ChronoGL/pkg/chunk"
	"github.com/willibrandon/ChronoGL/pkg/gl"
	"github.com/willibrandon/ChronoGL/pkg/resource"
)

// ContainerVersion is the version of the capture file layout around the
// chunk streams.
const ContainerVersion uint16 = 1

var magic = [4]byte{'C', 'G', 'L', 'C'}

const (
	flagEncrypted uint8 = 1 << iota
	flagIntegrity
)

const (
	sectionRecord uint8 = 1
	sectionFrame  uint8 = 2
)

var (
	ErrBadMagic               = errors.New("not a capture file")
	ErrVersion                = errors.New("unsupported capture version")
	ErrIntegrity              = errors.New("integrity check failed: capture may have been tampered with")
	ErrKeyRequired            = errors.New("capture is protected and no key was configured")
	ErrUnsupportedCompression = errors.New("unsupported compression")
	ErrCorrupt                = errors.New("corrupt capture body")
)

// FileOptions contains options for writing a capture file
type FileOptions struct {
	CompressionType CompressionType
	Security        SecurityOptions
}

// DefaultFileOptions returns default options for capture files
func DefaultFileOptions() FileOptions {
	return FileOptions{
		CompressionType: DefaultCompression,
		Security:        DefaultSecurityOptions(),
	}
}

// Header is the plain part of a capture file
type Header struct {
	ContainerVersion uint16
	ChunkVersion     uint16
	SessionID        uuid.UUID
	Compression      CompressionType
	Encrypted        bool
	Integrity        bool
	Created          time.Time
	Version          string
}

func (h Header) flags() uint8 {
	var f uint8
	if h.Encrypted {
		f |= flagEncrypted
	}
	if h.Integrity {
		f |= flagIntegrity
	}
	return f
}

func (h Header) marshal() []byte {
	b := append([]byte(nil), magic[:]...)
	b = binary.LittleEndian.AppendUint16(b, h.ContainerVersion)
	b = binary.LittleEndian.AppendUint16(b, h.ChunkVersion)
	b = append(b, h.SessionID[:]...)
	b = append(b, uint8(h.Compression), h.flags())
	b = binary.LittleEndian.AppendUint64(b, uint64(h.Created.UnixNano()))
	b = binary.LittleEndian.AppendUint16(b, uint16(len(h.Version)))
	return append(b, h.Version...)
}

// Encode writes a capture to w
func Encode(w io.Writer, c *Capture, opts FileOptions) error {
	body, err := marshalBody(c)
	if err != nil {
		return err
	}

	hdr := Header{
		ContainerVersion: ContainerVersion,
		ChunkVersion:     chunk.FormatVersion,
		SessionID:        c.SessionID,
		Compression:      opts.CompressionType,
		Encrypted:        opts.Security.EnableEncryption,
		Integrity:        opts.Security.EnableIntegrityCheck,
		Created:          c.Created,
		Version:          c.Version,
	}

	if body, err = CompressData(body, hdr.Compression); err != nil {
		return err
	}
	if hdr.Encrypted {
		if body, err = EncryptData(body, opts.Security.EncryptionKey); err != nil {
			return fmt.Errorf("encrypt capture: %w", err)
		}
	}

	out := hdr.marshal()
	out = binary.LittleEndian.AppendUint64(out, uint64(len(body)))
	out = append(out, body...)
	if hdr.Integrity {
		out = append(out, CalculateHMAC(out, opts.Security.IntegrityKey)...)
	}

	_, err = w.Write(out)
	return err
}

// Decode reads a capture from r. Keys in opts are used to open protected
// bodies; the enable flags are taken from the file header.
func Decode(r io.Reader, opts SecurityOptions) (*Capture, Header, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, Header{}, err
	}

	hdr, n, err := parseHeader(data)
	if err != nil {
		return nil, hdr, err
	}
	if len(data) < n+8 {
		return nil, hdr, fmt.Errorf("%w: missing body length", ErrCorrupt)
	}
	bodyLen := binary.LittleEndian.Uint64(data[n:])
	end := uint64(n + 8)
	if bodyLen > uint64(len(data))-end {
		return nil, hdr, fmt.Errorf("%w: body of %d bytes truncated", ErrCorrupt, bodyLen)
	}
	end += bodyLen
	body := data[n+8 : end]

	if hdr.Integrity {
		if len(opts.IntegrityKey) == 0 {
			return nil, hdr, fmt.Errorf("%w: integrity key", ErrKeyRequired)
		}
		if !VerifyHMAC(data[:end], opts.IntegrityKey, data[end:]) {
			return nil, hdr, ErrIntegrity
		}
	} else if end != uint64(len(data)) {
		return nil, hdr, fmt.Errorf("%w: %d trailing bytes", ErrCorrupt, uint64(len(data))-end)
	}

	if hdr.Encrypted {
		if len(opts.EncryptionKey) == 0 {
			return nil, hdr, fmt.Errorf("%w: encryption key", ErrKeyRequired)
		}
		if body, err = DecryptData(body, opts.EncryptionKey); err != nil {
			return nil, hdr, fmt.Errorf("decrypt capture: %w", err)
		}
	}
	if body, err = DecompressData(body, hdr.Compression); err != nil {
		return nil, hdr, fmt.Errorf("decompress capture: %w", err)
	}

	c, err := unmarshalBody(body)
	if err != nil {
		return nil, hdr, err
	}
	c.SessionID = hdr.SessionID
	c.Created = hdr.Created
	c.Version = hdr.Version
	return c, hdr, nil
}

// WriteFile writes a capture file
func WriteFile(path string, c *Capture, opts FileOptions) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	bufWriter := bufio.NewWriter(f)
	if err := Encode(bufWriter, c, opts); err != nil {
		f.Close()
		return err
	}
	if err := bufWriter.Flush(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// ReadFile reads a capture file
func ReadFile(path string, opts SecurityOptions) (*Capture, Header, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, Header{}, err
	}
	defer f.Close()
	return Decode(bufio.NewReader(f), opts)
}

func parseHeader(data []byte) (Header, int, error) {
	var hdr Header
	const fixed = 4 + 2 + 2 + 16 + 1 + 1 + 8 + 2
	if len(data) < fixed || !bytes.Equal(data[:4], magic[:]) {
		return hdr, 0, ErrBadMagic
	}
	le := binary.LittleEndian
	hdr.ContainerVersion = le.Uint16(data[4:])
	hdr.ChunkVersion = le.Uint16(data[6:])
	if hdr.ContainerVersion != ContainerVersion || hdr.ChunkVersion != chunk.FormatVersion {
		return hdr, 0, fmt.Errorf("%w: container %d, chunk format %d", ErrVersion, hdr.ContainerVersion, hdr.ChunkVersion)
	}
	copy(hdr.SessionID[:], data[8:24])
	hdr.Compression = CompressionType(data[24])
	hdr.Encrypted = data[25]&flagEncrypted != 0
	hdr.Integrity = data[25]&flagIntegrity != 0
	hdr.Created = time.Unix(0, int64(le.Uint64(data[26:]))).UTC()

	n := int(le.Uint16(data[34:]))
	if len(data) < fixed+n {
		return hdr, 0, fmt.Errorf("%w: truncated header", ErrCorrupt)
	}
	hdr.Version = string(data[fixed : fixed+n])
	return hdr, fixed + n, nil
}

func marshalBody(c *Capture) ([]byte, error) {
	var buf bytes.Buffer
	w := chunk.NewWriter(&buf)
	le := binary.LittleEndian
	var scratch []byte

	records := make([]Record, len(c.Records))
	copy(records, c.Records)
	sorted := &Capture{Records: records}
	sorted.SortRecords()

	for _, r := range sorted.Records {
		scratch = append(scratch[:0], sectionRecord)
		scratch = le.AppendUint64(scratch, uint64(r.ID))
		scratch = le.AppendUint32(scratch, uint32(r.Target))
		scratch = le.AppendUint32(scratch, uint32(len(r.Chunks)))
		buf.Write(scratch)
		for _, ch := range r.Chunks {
			if err := w.Write(ch); err != nil {
				return nil, err
			}
		}
	}

	scratch = append(scratch[:0], sectionFrame)
	scratch = le.AppendUint32(scratch, uint32(len(c.Frame)))
	buf.Write(scratch)
	for _, ch := range c.Frame {
		if err := w.Write(ch); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

func unmarshalBody(body []byte) (*Capture, error) {
	// One buffered reader is shared by section headers and the chunk reader,
	// so neither reads ahead of the other.
	br := bufio.NewReader(bytes.NewReader(body))
	cr := chunk.NewReader(br)
	le := binary.LittleEndian

	c := &Capture{}
	sawFrame := false
	for {
		kind, err := br.ReadByte()
		if errors.Is(err, io.EOF) {
			break
		}
		switch kind {
		case sectionRecord:
			var hdr [16]byte
			if _, err := io.ReadFull(br, hdr[:]); err != nil {
				return nil, fmt.Errorf("%w: record header: %v", ErrCorrupt, err)
			}
			r := Record{
				ID:     resource.ID(le.Uint64(hdr[:8])),
				Target: gl.Enum(le.Uint32(hdr[8:12])),
			}
			if r.Chunks, err = cr.ReadN(int(le.Uint32(hdr[12:]))); err != nil {
				return nil, fmt.Errorf("record %s: %w", r.ID, err)
			}
			c.Records = append(c.Records, r)
		case sectionFrame:
			if sawFrame {
				return nil, fmt.Errorf("%w: second frame section", ErrCorrupt)
			}
			sawFrame = true
			var hdr [4]byte
			if _, err := io.ReadFull(br, hdr[:]); err != nil {
				return nil, fmt.Errorf("%w: frame header: %v", ErrCorrupt, err)
			}
			if c.Frame, err = cr.ReadN(int(le.Uint32(hdr[:]))); err != nil {
				return nil, fmt.Errorf("frame: %w", err)
			}
		default:
			return nil, fmt.Errorf("%w: unknown section %d", ErrCorrupt, kind)
		}
	}
	if !sawFrame {
		return nil, fmt.Errorf("%w: no frame section", ErrCorrupt)
	}
	return c, nil
}
