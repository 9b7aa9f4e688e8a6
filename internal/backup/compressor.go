package backup

import (
	"fmt"
	"gamewarden/internal/backup/interfaces"
	"io"

	"github.com/klauspost/compress/zstd"
)

type ZstdCompression struct {
	level zstd.EncoderLevel
}

func (z *ZstdCompression) NewWriter(w io.Writer) (io.WriteCloser, error) {
	enc, err := zstd.NewWriter(w, zstd.WithEncoderLevel(z.level))
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd encoder: %w", err)
	}
	return enc, nil
}

func (z *ZstdCompression) NewReader(r io.Reader) (io.ReadCloser, error) {
	dec, err := zstd.NewReader(r, zstd.WithDecoderConcurrency(0))
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd decoder: %w", err)
	}
	return dec.IOReadCloser(), nil
}

func NewZstdCompressor() interfaces.CompressorInterface {
	return &ZstdCompression{level: zstd.SpeedDefault}
}
