package compress

import (
	"github.com/clickhouse-explorer/wirecore/errs"
	"github.com/clickhouse-explorer/wirecore/format"
	"github.com/clickhouse-explorer/wirecore/reader"
)

// FrameHeaderSize is the fixed size of a compression envelope header:
// 16-byte checksum + 1-byte codec + 4-byte compressed size + 4-byte
// uncompressed size.
const FrameHeaderSize = 16 + 1 + 4 + 4

// Frame is one decoded compression envelope: the recorded (but
// unverified) checksum, the codec byte, and the decompressed payload.
type Frame struct {
	Checksum         [16]byte
	Codec            format.FrameCodec
	CompressedSize   uint32
	UncompressedSize uint32
	Payload          []byte
	HeaderRange      reader.ByteRange
}

// ReadFrame reads one compression envelope header from r and returns the
// decompressed payload alongside the header's byte range. r is
// positioned just past the frame's compressed payload on success.
func ReadFrame(r *reader.ByteReader) (*Frame, error) {
	headerStart := r.Pos()

	var checksum [16]byte
	checksumBytes, _, err := r.ReadBytes(16)
	if err != nil {
		return nil, err
	}
	copy(checksum[:], checksumBytes)

	codecByte, _, err := r.ReadU8()
	if err != nil {
		return nil, err
	}
	codec := format.FrameCodec(codecByte)

	compressedSize, _, err := r.ReadU32()
	if err != nil {
		return nil, err
	}
	uncompressedSize, _, err := r.ReadU32()
	if err != nil {
		return nil, err
	}

	payloadLen := int(compressedSize) - 9 // exclude the codec byte + two size fields
	if payloadLen < 0 {
		return nil, errs.NewParseError(headerStart, "compressed frame declares impossible size %d", compressedSize)
	}

	raw, _, err := r.ReadBytes(payloadLen)
	if err != nil {
		return nil, err
	}

	compressionType, ok := codec.CompressionType()
	if !ok {
		return nil, errs.NewParseError(headerStart, "unknown frame codec 0x%02X", codecByte)
	}

	codecImpl, err := GetCodec(compressionType)
	if err != nil {
		return nil, err
	}

	payload, err := codecImpl.Decompress(raw)
	if err != nil {
		return nil, err
	}

	return &Frame{
		Checksum:         checksum,
		Codec:            codec,
		CompressedSize:   compressedSize,
		UncompressedSize: uncompressedSize,
		Payload:          payload,
		HeaderRange:      reader.ByteRange{Start: headerStart, End: headerStart + FrameHeaderSize},
	}, nil
}
