package housekeeping

import (
	"fmt"

	"github.com/klauspost/compress/zstd"

	"musicwordle/internal/housekeeping/interfaces"
	"musicwordle/internal/structures"
)

// maxDecodedSize caps a single decoded snapshot or archive bucket so a corrupt
// frame header cannot make the decoder allocate without bound.
const maxDecodedSize = 1 << 30

var compressionLevels = map[string]zstd.EncoderLevel{
	"":        zstd.SpeedDefault,
	"fastest": zstd.SpeedFastest,
	"default": zstd.SpeedDefault,
	"better":  zstd.SpeedBetterCompression,
	"best":    zstd.SpeedBestCompression,
}

type ZstdCompression struct {
	encoder *zstd.Encoder
	decoder *zstd.Decoder
}

func (z *ZstdCompression) Compress(val []byte) ([]byte, error) {
	return z.encoder.EncodeAll(val, make([]byte, 0, len(val)/4)), nil
}

func (z *ZstdCompression) Decompress(val []byte) ([]byte, error) {
	out, err := z.decoder.DecodeAll(val, nil)
	if err != nil {
		return nil, fmt.Errorf("zstd decode: %w", err)
	}
	return out, nil
}

func (z *ZstdCompression) Close() {
	_ = z.encoder.Close()
	z.decoder.Close()
}

// NewZstdCompressor builds the codec shared by snapshots and the archive,
// using storage.compression as the encoder level.
func NewZstdCompressor(conf *structures.Config) (interfaces.CompressorInterface, error) {
	level, ok := compressionLevels[conf.Storage.Compression]
	if !ok {
		return nil, fmt.Errorf("unknown compression level %q", conf.Storage.Compression)
	}
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(level))
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd encoder: %w", err)
	}
	decoder, err := zstd.NewReader(nil, zstd.WithDecoderConcurrency(0), zstd.WithDecoderMaxMemory(maxDecodedSize))
	if err != nil {
		_ = encoder.Close()
		return nil, fmt.Errorf("failed to create zstd decoder: %w", err)
	}
	return &ZstdCompression{encoder: encoder, decoder: decoder}, nil
}
