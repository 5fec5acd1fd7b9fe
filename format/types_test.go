package format

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFrameCodec_CompressionType(t *testing.T) {
	tests := []struct {
		name string
		code FrameCodec
		want CompressionType
		ok   bool
	}{
		{name: "none", code: FrameCodecNone, want: CompressionNone, ok: true},
		{name: "lz4", code: FrameCodecLZ4, want: CompressionLZ4, ok: true},
		{name: "zstd", code: FrameCodecZstd, want: CompressionZstd, ok: true},
		{name: "unknown", code: FrameCodec(0xFF), ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.code.CompressionType()
			require.Equal(t, tt.ok, ok)
			if tt.ok {
				require.Equal(t, tt.want, got)
			}
		})
	}
}
