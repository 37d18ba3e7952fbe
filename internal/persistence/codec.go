// Package persistence serializes temporal memory layers to a compact binary
// snapshot format: a fixed header with magic, version, flags, and checksum,
// followed by a msgpack-encoded layer snapshot, optionally gzip-compressed.
package persistence

import (
	"bytes"
	"compress/gzip"
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"io"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/htm-project/temporal-api/internal/cortical/temporal"
	"github.com/htm-project/temporal-api/internal/domain/htm"
)

const (
	// MagicBytes identifies a temporal memory snapshot file.
	MagicBytes = "HTMS"
	// FormatVersion is the current snapshot format version.
	FormatVersion = 1
)

const flagCompressed uint16 = 1 << 0

type header struct {
	Magic    [4]byte
	Version  uint16
	Flags    uint16
	DataLen  uint64
	Checksum uint32
}

const headerSize = 4 + 2 + 2 + 8 + 4

// Envelope wraps a layer snapshot with instance metadata.
type Envelope struct {
	InstanceID string                  `msgpack:"instance_id"`
	SavedAt    int64                   `msgpack:"saved_at_unix"`
	Layer      *temporal.LayerSnapshot `msgpack:"layer"`
}

// Codec encodes and decodes snapshot envelopes.
type Codec struct {
	compress bool
}

// NewCodec creates a codec. Compression is applied only when it shrinks the
// payload.
func NewCodec(compress bool) *Codec {
	return &Codec{compress: compress}
}

// Encode serializes an envelope to the binary snapshot format.
func (c *Codec) Encode(envelope *Envelope) ([]byte, error) {
	if envelope == nil || envelope.Layer == nil {
		return nil, htm.NewTemporalError(htm.TemporalErrorPersistence, "nothing to encode")
	}
	if envelope.SavedAt == 0 {
		envelope.SavedAt = time.Now().Unix()
	}

	data, err := msgpack.Marshal(envelope)
	if err != nil {
		return nil, htm.NewTemporalError(htm.TemporalErrorPersistence,
			fmt.Sprintf("msgpack encode failed: %v", err))
	}

	var flags uint16
	if c.compress {
		compressed, err := compressData(data)
		if err != nil {
			return nil, htm.NewTemporalError(htm.TemporalErrorPersistence,
				fmt.Sprintf("compression failed: %v", err))
		}
		if len(compressed) < len(data) {
			data = compressed
			flags |= flagCompressed
		}
	}

	h := header{
		Version:  FormatVersion,
		Flags:    flags,
		DataLen:  uint64(len(data)),
		Checksum: crc32.ChecksumIEEE(data),
	}
	copy(h.Magic[:], MagicBytes)

	buf := new(bytes.Buffer)
	if err := binary.Write(buf, binary.LittleEndian, h); err != nil {
		return nil, htm.NewTemporalError(htm.TemporalErrorPersistence,
			fmt.Sprintf("header encode failed: %v", err))
	}
	buf.Write(data)

	return buf.Bytes(), nil
}

// Decode deserializes the binary snapshot format to an envelope.
func (c *Codec) Decode(raw []byte) (*Envelope, error) {
	if len(raw) < headerSize {
		return nil, htm.NewTemporalError(htm.TemporalErrorPersistence, "snapshot data too short")
	}

	buf := bytes.NewReader(raw)
	var h header
	if err := binary.Read(buf, binary.LittleEndian, &h); err != nil {
		return nil, htm.NewTemporalError(htm.TemporalErrorPersistence,
			fmt.Sprintf("header decode failed: %v", err))
	}

	if string(h.Magic[:]) != MagicBytes {
		return nil, htm.NewTemporalError(htm.TemporalErrorPersistence, "invalid magic bytes")
	}
	if h.Version > FormatVersion {
		return nil, htm.NewTemporalError(htm.TemporalErrorPersistence,
			fmt.Sprintf("unsupported snapshot version %d", h.Version))
	}

	data := raw[headerSize:]
	if uint64(len(data)) != h.DataLen {
		return nil, htm.NewTemporalError(htm.TemporalErrorPersistence, "snapshot payload truncated")
	}
	if crc32.ChecksumIEEE(data) != h.Checksum {
		return nil, htm.NewTemporalError(htm.TemporalErrorPersistence, "snapshot checksum mismatch")
	}

	if h.Flags&flagCompressed != 0 {
		decompressed, err := decompressData(data)
		if err != nil {
			return nil, htm.NewTemporalError(htm.TemporalErrorPersistence,
				fmt.Sprintf("decompression failed: %v", err))
		}
		data = decompressed
	}

	var envelope Envelope
	if err := msgpack.Unmarshal(data, &envelope); err != nil {
		return nil, htm.NewTemporalError(htm.TemporalErrorPersistence,
			fmt.Sprintf("msgpack decode failed: %v", err))
	}

	return &envelope, nil
}

func compressData(data []byte) ([]byte, error) {
	buf := new(bytes.Buffer)
	w, err := gzip.NewWriterLevel(buf, gzip.BestSpeed)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decompressData(data []byte) ([]byte, error) {
	r, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}
