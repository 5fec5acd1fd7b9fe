// Package format defines the small enumerations shared across the decoder and
// compress packages: the block-level compression algorithm used by the
// optional ClickHouse native-protocol compression envelope (see the
// compress package and SPEC_FULL.md's "Compression envelope" section).
package format

// CompressionType identifies the algorithm used to compress a block envelope.
type CompressionType uint8

const (
	CompressionNone CompressionType = 0x1 // CompressionNone represents no compression.
	CompressionZstd CompressionType = 0x2 // CompressionZstd represents Zstandard compression.
	CompressionS2   CompressionType = 0x3 // CompressionS2 represents S2 compression.
	CompressionLZ4  CompressionType = 0x4 // CompressionLZ4 represents LZ4 compression.
)

func (c CompressionType) String() string {
	switch c {
	case CompressionNone:
		return "None"
	case CompressionZstd:
		return "Zstd"
	case CompressionS2:
		return "S2"
	case CompressionLZ4:
		return "LZ4"
	default:
		return "Unknown"
	}
}

// FrameCodec identifies the one-byte codec marker used by the wire
// compression envelope (SPEC_FULL.md's "Compression envelope" section).
// These values match ClickHouse's native-protocol codec bytes.
type FrameCodec uint8

const (
	FrameCodecNone FrameCodec = 0x00
	FrameCodecLZ4  FrameCodec = 0x02
	FrameCodecZstd FrameCodec = 0x82
)

// CompressionType maps a wire codec byte to the corresponding CompressionType.
func (f FrameCodec) CompressionType() (CompressionType, bool) {
	switch f {
	case FrameCodecNone:
		return CompressionNone, true
	case FrameCodecLZ4:
		return CompressionLZ4, true
	case FrameCodecZstd:
		return CompressionZstd, true
	default:
		return 0, false
	}
}
