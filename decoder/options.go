package decoder

import "github.com/clickhouse-explorer/wirecore/internal/options"

// decoderConfig holds the non-spec-breaking knobs both RowDecoder and
// ColumnDecoder accept: whether the input is wrapped in a compression
// envelope (SPEC_FULL.md "Compression envelope"), whether raw byte
// values borrow from the input or are copied (§5's "MAY offer a zero-copy
// mode"), and the starting value of the per-decode id counter (§9 "pass
// it through the decoder state rather than making it process-global").
type decoderConfig struct {
	compressedInput bool
	zeroCopy        bool
	idStart         int
}

func newDecoderConfig() *decoderConfig {
	return &decoderConfig{}
}

// DecoderOption configures either decoder; RowDecoderOption and
// ColumnDecoderOption are aliases of it so each constructor advertises its
// own option type while sharing one implementation.
type DecoderOption = options.Option[*decoderConfig]

// RowDecoderOption configures NewRowDecoder.
type RowDecoderOption = DecoderOption

// ColumnDecoderOption configures NewColumnDecoder.
type ColumnDecoderOption = DecoderOption

// WithCompressedInput tells the decoder its input begins with a
// compression envelope header (checksum + codec + sizes) that must be
// peeled off and decompressed before any byte-range tracking begins.
func WithCompressedInput() DecoderOption {
	return options.NoError(func(c *decoderConfig) {
		c.compressedInput = true
	})
}

// WithZeroCopyStrings makes the raw byte values of FixedString, UUID and
// IPv4/IPv6 nodes borrow from the input slice instead of being copied.
// String values are Go strings and are always copied, with or without
// this option. The input must outlive the returned ParsedData when this
// option is set.
func WithZeroCopyStrings() DecoderOption {
	return options.NoError(func(c *decoderConfig) {
		c.zeroCopy = true
	})
}

// WithIDCounterStart sets the first value the per-decode node id counter
// will hand out. Defaults to 0.
func WithIDCounterStart(n int) DecoderOption {
	return options.NoError(func(c *decoderConfig) {
		c.idStart = n
	})
}

// applyDecoderOptions builds a decoderConfig from the given options,
// shared by NewRowDecoder and NewColumnDecoder.
func applyDecoderOptions(opts []DecoderOption) (*decoderConfig, error) {
	cfg := newDecoderConfig()
	if err := options.Apply(cfg, opts...); err != nil {
		return nil, err
	}

	return cfg, nil
}
