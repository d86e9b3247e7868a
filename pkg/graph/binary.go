package graph

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"io"
	"os"
	"unsafe"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

const (
	magicBytes = "RDGRAPH\x00"
	version    = uint32(1)
	maxNodes   = 10_000_000
	maxEdges   = 50_000_000
)

// Codec selects the compression applied to the payload after the header.
type Codec uint8

const (
	CodecNone Codec = iota
	CodecZstd
	CodecLZ4
)

func (c Codec) String() string {
	switch c {
	case CodecNone:
		return "none"
	case CodecZstd:
		return "zstd"
	case CodecLZ4:
		return "lz4"
	}
	return fmt.Sprintf("codec(%d)", uint8(c))
}

// ParseCodec maps a codec name to its Codec.
func ParseCodec(s string) (Codec, error) {
	switch s {
	case "", "none":
		return CodecNone, nil
	case "zstd":
		return CodecZstd, nil
	case "lz4":
		return CodecLZ4, nil
	}
	return 0, fmt.Errorf("unknown codec %q", s)
}

// fileHeader is the binary header. It is never compressed.
type fileHeader struct {
	Magic    [8]byte
	Version  uint32
	Codec    uint8
	_        [3]byte
	NumNodes uint32
	NumEdges uint32
}

// WriteBinary serializes g to path atomically via a temp file.
func WriteBinary(path string, g *Graph, codec Codec) error {
	tmpPath := path + ".tmp"
	f, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer func() {
		f.Close()
		os.Remove(tmpPath) // clean up on error
	}()

	bw := bufio.NewWriterSize(f, 1<<20)
	if err := Encode(bw, g, codec); err != nil {
		return err
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("flush: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}

	// Atomic rename.
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("rename: %w", err)
	}
	return nil
}

// Encode writes the header, the (optionally compressed) column payload and
// a CRC32 of the uncompressed payload.
func Encode(w io.Writer, g *Graph, codec Codec) error {
	hdr := fileHeader{
		Version:  version,
		Codec:    uint8(codec),
		NumNodes: g.NumNodes,
		NumEdges: g.NumEdges,
	}
	copy(hdr.Magic[:], magicBytes)
	if err := binary.Write(w, binary.LittleEndian, &hdr); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	var payload io.WriteCloser
	switch codec {
	case CodecNone:
		payload = nopWriteCloser{w}
	case CodecZstd:
		enc, err := zstd.NewWriter(w)
		if err != nil {
			return fmt.Errorf("zstd writer: %w", err)
		}
		payload = enc
	case CodecLZ4:
		payload = lz4.NewWriter(w)
	default:
		return fmt.Errorf("write payload: unknown codec %s", codec)
	}

	cw := &crc32Writer{w: payload, hash: crc32.NewIEEE()}
	if err := writeColumns(cw, g); err != nil {
		payload.Close()
		return err
	}

	// CRC32 trailer travels inside the payload stream.
	if err := binary.Write(payload, binary.LittleEndian, cw.hash.Sum32()); err != nil {
		payload.Close()
		return fmt.Errorf("write CRC32: %w", err)
	}
	if err := payload.Close(); err != nil {
		return fmt.Errorf("close %s stream: %w", codec, err)
	}
	return nil
}

func writeColumns(w io.Writer, g *Graph) error {
	if err := writeFloat64Slice(w, g.NodeLat); err != nil {
		return fmt.Errorf("write NodeLat: %w", err)
	}
	if err := writeFloat64Slice(w, g.NodeLon); err != nil {
		return fmt.Errorf("write NodeLon: %w", err)
	}
	if err := writeUint32Slice(w, g.FirstOut); err != nil {
		return fmt.Errorf("write FirstOut: %w", err)
	}
	if err := writeUint32Slice(w, g.Tail); err != nil {
		return fmt.Errorf("write Tail: %w", err)
	}
	if err := writeUint32Slice(w, g.Head); err != nil {
		return fmt.Errorf("write Head: %w", err)
	}
	if err := writeUint32Slice(w, g.Weight); err != nil {
		return fmt.Errorf("write Weight: %w", err)
	}
	if err := writeKindSlice(w, g.Kind); err != nil {
		return fmt.Errorf("write Kind: %w", err)
	}
	return nil
}

// ReadBinary deserializes and validates a graph file.
func ReadBinary(path string) (*Graph, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	defer f.Close()

	return Decode(bufio.NewReaderSize(f, 1<<20))
}

// Decode reads a graph written by Encode and validates it.
func Decode(r io.Reader) (*Graph, error) {
	var hdr fileHeader
	if err := binary.Read(r, binary.LittleEndian, &hdr); err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	if string(hdr.Magic[:]) != magicBytes {
		return nil, fmt.Errorf("invalid magic bytes: %q", hdr.Magic)
	}
	if hdr.Version != version {
		return nil, fmt.Errorf("unsupported version: %d", hdr.Version)
	}
	if hdr.NumNodes > maxNodes {
		return nil, fmt.Errorf("NumNodes %d exceeds limit %d", hdr.NumNodes, maxNodes)
	}
	if hdr.NumEdges > maxEdges {
		return nil, fmt.Errorf("NumEdges %d exceeds limit %d", hdr.NumEdges, maxEdges)
	}

	var payload io.Reader
	switch codec := Codec(hdr.Codec); codec {
	case CodecNone:
		payload = r
	case CodecZstd:
		dec, err := zstd.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("zstd reader: %w", err)
		}
		defer dec.Close()
		payload = dec
	case CodecLZ4:
		payload = lz4.NewReader(r)
	default:
		return nil, fmt.Errorf("unsupported codec: %s", codec)
	}

	cr := &crc32Reader{r: payload, hash: crc32.NewIEEE()}
	n, m := int(hdr.NumNodes), int(hdr.NumEdges)

	g := &Graph{NumNodes: hdr.NumNodes, NumEdges: hdr.NumEdges}
	var err error
	if g.NodeLat, err = readFloat64Slice(cr, n); err != nil {
		return nil, fmt.Errorf("read NodeLat: %w", err)
	}
	if g.NodeLon, err = readFloat64Slice(cr, n); err != nil {
		return nil, fmt.Errorf("read NodeLon: %w", err)
	}
	if g.FirstOut, err = readUint32Slice(cr, n+1); err != nil {
		return nil, fmt.Errorf("read FirstOut: %w", err)
	}
	if g.Tail, err = readUint32Slice(cr, m); err != nil {
		return nil, fmt.Errorf("read Tail: %w", err)
	}
	if g.Head, err = readUint32Slice(cr, m); err != nil {
		return nil, fmt.Errorf("read Head: %w", err)
	}
	if g.Weight, err = readUint32Slice(cr, m); err != nil {
		return nil, fmt.Errorf("read Weight: %w", err)
	}
	if g.Kind, err = readKindSlice(cr, m); err != nil {
		return nil, fmt.Errorf("read Kind: %w", err)
	}

	// Read and validate CRC32.
	expectedCRC := cr.hash.Sum32()
	var storedCRC uint32
	if err := binary.Read(payload, binary.LittleEndian, &storedCRC); err != nil {
		return nil, fmt.Errorf("read CRC32: %w", err)
	}
	if storedCRC != expectedCRC {
		return nil, fmt.Errorf("CRC32 mismatch: stored=%08x computed=%08x", storedCRC, expectedCRC)
	}

	for i := range g.NodeLat {
		if !validCoord(Node{Lat: g.NodeLat[i], Lon: g.NodeLon[i]}) {
			return nil, constructionErr("nodes", i, "invalid coordinate (%v, %v)", g.NodeLat[i], g.NodeLon[i])
		}
	}
	if err := g.validate(); err != nil {
		return nil, err
	}
	return g, nil
}

// Zero-copy I/O helpers using unsafe.Slice.

func writeUint32Slice(w io.Writer, s []uint32) error {
	if len(s) == 0 {
		return nil
	}
	b := unsafe.Slice((*byte)(unsafe.Pointer(&s[0])), len(s)*4)
	_, err := w.Write(b)
	return err
}

func writeFloat64Slice(w io.Writer, s []float64) error {
	if len(s) == 0 {
		return nil
	}
	b := unsafe.Slice((*byte)(unsafe.Pointer(&s[0])), len(s)*8)
	_, err := w.Write(b)
	return err
}

func writeKindSlice(w io.Writer, s []Kind) error {
	if len(s) == 0 {
		return nil
	}
	b := unsafe.Slice((*byte)(unsafe.Pointer(&s[0])), len(s))
	_, err := w.Write(b)
	return err
}

func readUint32Slice(r io.Reader, n int) ([]uint32, error) {
	s := make([]uint32, n)
	if n == 0 {
		return s, nil
	}
	b := unsafe.Slice((*byte)(unsafe.Pointer(&s[0])), n*4)
	if _, err := io.ReadFull(r, b); err != nil {
		return nil, err
	}
	return s, nil
}

func readFloat64Slice(r io.Reader, n int) ([]float64, error) {
	s := make([]float64, n)
	if n == 0 {
		return s, nil
	}
	b := unsafe.Slice((*byte)(unsafe.Pointer(&s[0])), n*8)
	if _, err := io.ReadFull(r, b); err != nil {
		return nil, err
	}
	return s, nil
}

func readKindSlice(r io.Reader, n int) ([]Kind, error) {
	s := make([]Kind, n)
	if n == 0 {
		return s, nil
	}
	b := unsafe.Slice((*byte)(unsafe.Pointer(&s[0])), n)
	if _, err := io.ReadFull(r, b); err != nil {
		return nil, err
	}
	return s, nil
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

// CRC32 wrapping writers/readers.

type crc32Hash interface {
	Write([]byte) (int, error)
	Sum32() uint32
}

type crc32Writer struct {
	w    io.Writer
	hash crc32Hash
}

func (cw *crc32Writer) Write(p []byte) (int, error) {
	cw.hash.Write(p)
	return cw.w.Write(p)
}

type crc32Reader struct {
	r    io.Reader
	hash crc32Hash
}

func (cr *crc32Reader) Read(p []byte) (int, error) {
	n, err := cr.r.Read(p)
	if n > 0 {
		cr.hash.Write(p[:n])
	}
	return n, err
}
