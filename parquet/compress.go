package parquet

import (
	"bytes"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/snappy"
	"github.com/klauspost/compress/zstd"
)

// codec is the compressor/decompressor pair this writer reuses across
// row groups (spec.md §9, "scratch reuse"). It widens the teacher's
// decode-only compress.go (snappy-only) into a full encode+decode
// dispatch over the module's closed compression set.
type codec struct {
	kind Compression

	gzipBuf *bytes.Buffer
	gzipW   *gzip.Writer

	zstdEnc *zstd.Encoder
	zstdDec *zstd.Decoder
}

func newCodec(kind Compression) (*codec, *Error) {
	c := &codec{kind: kind}
	switch kind {
	case Uncompressed, Snappy:
		// No persistent encoder state needed.
	case Gzip:
		c.gzipBuf = new(bytes.Buffer)
		c.gzipW = gzip.NewWriter(c.gzipBuf)
	case Zstd:
		enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if err != nil {
			return nil, newErr(KindIOError, "creating zstd encoder: %w", err)
		}
		c.zstdEnc = enc
	default:
		return nil, newErr(KindUnsupportedCompression, "compression codec %d is not recognized", kind)
	}
	return c, nil
}

// compress returns the compressed form of input. For Uncompressed it
// returns input itself (a borrowed passthrough, per spec.md §4.5); for
// every other codec it returns an owned buffer valid until the next call.
func (c *codec) compress(input []byte) ([]byte, *Error) {
	switch c.kind {
	case Uncompressed:
		return input, nil
	case Snappy:
		return snappy.Encode(nil, input), nil
	case Gzip:
		c.gzipBuf.Reset()
		c.gzipW.Reset(c.gzipBuf)
		if _, err := c.gzipW.Write(input); err != nil {
			return nil, newErr(KindIOError, "gzip compress: %w", err)
		}
		if err := c.gzipW.Close(); err != nil {
			return nil, newErr(KindIOError, "gzip flush: %w", err)
		}
		out := make([]byte, c.gzipBuf.Len())
		copy(out, c.gzipBuf.Bytes())
		return out, nil
	case Zstd:
		return c.zstdEnc.EncodeAll(input, nil), nil
	default:
		return nil, newErr(KindUnsupportedCompression, "compression codec %d is not recognized", c.kind)
	}
}

// decompress is provided for round-trip tests (spec.md §8, "reference
// reader decompresses to the exact uncompressed bytes"); the writer
// itself never decompresses its own output.
func (c *codec) decompress(input []byte, uncompressedSize int) ([]byte, *Error) {
	switch c.kind {
	case Uncompressed:
		return input, nil
	case Snappy:
		out, err := snappy.Decode(nil, input)
		if err != nil {
			return nil, newErr(KindIOError, "snappy decompress: %w", err)
		}
		return out, nil
	case Gzip:
		r, err := gzip.NewReader(bytes.NewReader(input))
		if err != nil {
			return nil, newErr(KindIOError, "gzip reader: %w", err)
		}
		defer r.Close()
		out := make([]byte, 0, uncompressedSize)
		buf := make([]byte, 32*1024)
		for {
			n, rerr := r.Read(buf)
			out = append(out, buf[:n]...)
			if rerr != nil {
				break
			}
		}
		return out, nil
	case Zstd:
		if c.zstdDec == nil {
			dec, err := zstd.NewReader(nil)
			if err != nil {
				return nil, newErr(KindIOError, "creating zstd decoder: %w", err)
			}
			c.zstdDec = dec
		}
		out, err := c.zstdDec.DecodeAll(input, make([]byte, 0, uncompressedSize))
		if err != nil {
			return nil, newErr(KindIOError, "zstd decompress: %w", err)
		}
		return out, nil
	default:
		return nil, newErr(KindUnsupportedCompression, "compression codec %d is not recognized", c.kind)
	}
}

func (c *codec) close() {
	if c.zstdEnc != nil {
		c.zstdEnc.Close()
	}
	if c.zstdDec != nil {
		c.zstdDec.Close()
	}
}
