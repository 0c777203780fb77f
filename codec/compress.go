package codec

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression selects the algorithm applied to an encoded document.
type Compression uint8

const (
	// None stores the encoded document as-is.
	None Compression = iota
	// LZ4 uses LZ4 block compression (fast, moderate ratio).
	LZ4
	// Zstd uses Zstandard (slower, better ratio for large catalogs).
	Zstd
)

// ErrUnknownCompression is returned for compression values outside the enum.
var ErrUnknownCompression = errors.New("unknown compression")

// ErrCorruptFrame is returned when a compressed frame cannot be decoded.
var ErrCorruptFrame = errors.New("corrupt compressed frame")

func (c Compression) String() string {
	switch c {
	case None:
		return "none"
	case LZ4:
		return "lz4"
	case Zstd:
		return "zstd"
	default:
		return fmt.Sprintf("compression(%d)", uint8(c))
	}
}

var (
	zstdEncoderPool sync.Pool
	zstdDecoderPool sync.Pool
)

func getZstdEncoder() *zstd.Encoder {
	if v := zstdEncoderPool.Get(); v != nil {
		return v.(*zstd.Encoder)
	}
	enc, _ := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	return enc
}

func getZstdDecoder() *zstd.Decoder {
	if v := zstdDecoderPool.Get(); v != nil {
		return v.(*zstd.Decoder)
	}
	dec, _ := zstd.NewReader(nil)
	return dec
}

// Frame layout: [UncompressedSize uint32][CompressedSize uint32][Data...]
// CompressedSize == 0 means the payload is stored uncompressed.
const frameHeaderSize = 8

// Compress wraps data in a frame using the given algorithm.
// None returns data unchanged (no frame).
func Compress(c Compression, data []byte) ([]byte, error) {
	var compressed []byte

	switch c {
	case None:
		return data, nil
	case LZ4:
		buf := make([]byte, lz4.CompressBlockBound(len(data)))
		n, err := lz4.CompressBlock(data, buf, nil)
		if err != nil {
			return nil, err
		}
		compressed = buf[:n]
	case Zstd:
		enc := getZstdEncoder()
		compressed = enc.EncodeAll(data, nil)
		zstdEncoderPool.Put(enc)
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownCompression, c)
	}

	// n == 0 from lz4 means incompressible; store raw inside the frame.
	if len(compressed) == 0 || len(compressed) >= len(data) {
		out := make([]byte, frameHeaderSize+len(data))
		binary.LittleEndian.PutUint32(out[0:], uint32(len(data)))
		copy(out[frameHeaderSize:], data)
		return out, nil
	}

	out := make([]byte, frameHeaderSize+len(compressed))
	binary.LittleEndian.PutUint32(out[0:], uint32(len(data)))
	binary.LittleEndian.PutUint32(out[4:], uint32(len(compressed)))
	copy(out[frameHeaderSize:], compressed)
	return out, nil
}

// Decompress reverses Compress.
func Decompress(c Compression, data []byte) ([]byte, error) {
	if c == None {
		return data, nil
	}
	if c != LZ4 && c != Zstd {
		return nil, fmt.Errorf("%w: %d", ErrUnknownCompression, c)
	}
	if len(data) < frameHeaderSize {
		return nil, fmt.Errorf("%w: frame too small for header", ErrCorruptFrame)
	}

	rawSize := binary.LittleEndian.Uint32(data[0:])
	compressedSize := binary.LittleEndian.Uint32(data[4:])
	payload := data[frameHeaderSize:]

	if compressedSize == 0 {
		if uint32(len(payload)) < rawSize {
			return nil, fmt.Errorf("%w: truncated raw payload", ErrCorruptFrame)
		}
		return payload[:rawSize], nil
	}
	if uint32(len(payload)) < compressedSize {
		return nil, fmt.Errorf("%w: truncated payload", ErrCorruptFrame)
	}
	payload = payload[:compressedSize]

	switch c {
	case LZ4:
		out := make([]byte, rawSize)
		n, err := lz4.UncompressBlock(payload, out)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorruptFrame, err)
		}
		if uint32(n) != rawSize {
			return nil, fmt.Errorf("%w: size mismatch", ErrCorruptFrame)
		}
		return out, nil
	default:
		dec := getZstdDecoder()
		defer zstdDecoderPool.Put(dec)

		out, err := dec.DecodeAll(payload, make([]byte, 0, rawSize))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorruptFrame, err)
		}
		if uint32(len(out)) != rawSize {
			return nil, fmt.Errorf("%w: size mismatch", ErrCorruptFrame)
		}
		return out, nil
	}
}
