// Package compress implements the codecs behind the optional block
// compression envelope that may wrap a row-oriented or column-oriented
// payload before it reaches the decoders in this module.
//
// # Overview
//
// Neither wire format in this module compresses individual values —
// compression, when present, wraps a whole block of already-encoded
// bytes under a small envelope header (see ReadFrame in frame.go) carrying
// a format.FrameCodec byte that selects one of:
//
//   - None:  bytes pass through unchanged
//   - LZ4:   fast decompression, moderate ratio
//   - Zstd:  best ratio, moderate speed
//
// An S2 codec (balance of the two, Snappy-compatible block format) is also
// available through GetCodec/CreateCodec with format.CompressionS2; it has
// no FrameCodec byte, so a frame never selects it.
//
// # Architecture
//
//	type Compressor interface {
//	    Compress(data []byte) ([]byte, error)
//	}
//
//	type Decompressor interface {
//	    Decompress(data []byte) ([]byte, error)
//	}
//
//	type Codec interface {
//	    Compressor
//	    Decompressor
//	}
//
// Decoding only ever calls Decompress; Compress exists so tests can
// synthesize compressed fixtures without a second, separate encoder
// implementation to keep in sync.
//
// # Selecting a codec
//
//	codec, err := compress.GetCodec(format.CompressionZstd)
//	original, err := codec.Decompress(envelopeBody)
//
// GetCodec and CreateCodec both resolve a format.CompressionType to a
// Codec; GetCodec uses a shared built-in instance per algorithm, CreateCodec
// always constructs a fresh one.
package compress
