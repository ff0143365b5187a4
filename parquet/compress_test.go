package parquet

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCodecRoundTripsAllCompressionKinds(t *testing.T) {
	input := []byte("the quick brown fox jumps over the lazy dog, repeated: the quick brown fox jumps over the lazy dog")

	for _, kind := range []Compression{Uncompressed, Snappy, Gzip, Zstd} {
		kind := kind
		t.Run(kind.String(), func(t *testing.T) {
			c, err := newCodec(kind)
			require.Nil(t, err)
			defer c.close()

			compressed, cerr := c.compress(input)
			require.Nil(t, cerr)

			out, derr := c.decompress(compressed, len(input))
			require.Nil(t, derr)
			require.Equal(t, input, out)
		})
	}
}

func TestUncompressedCompressReturnsInputUnchanged(t *testing.T) {
	c, err := newCodec(Uncompressed)
	require.Nil(t, err)

	input := []byte("hello")
	out, cerr := c.compress(input)
	require.Nil(t, cerr)
	require.Equal(t, input, out)
}

func TestNewCodecRejectsUnknownCompression(t *testing.T) {
	_, err := newCodec(Compression(99))
	require.NotNil(t, err)
	require.Equal(t, KindUnsupportedCompression, err.Kind)
}
