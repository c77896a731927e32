package storage

import (
	"encoding/json"
	"fmt"

	"github.com/klauspost/compress/zstd"
)

// Codec сериализует кадры в JSON и сжимает их zstd.
// Encoder и Decoder безопасны для конкурентного EncodeAll/DecodeAll.
type Codec struct {
	enc *zstd.Encoder
	dec *zstd.Decoder
}

// NewCodec создаёт кодек со скоростью сжатия по умолчанию
func NewCodec() (*Codec, error) {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("zstd encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		enc.Close()
		return nil, fmt.Errorf("zstd decoder: %w", err)
	}
	return &Codec{enc: enc, dec: dec}, nil
}

// Encode сериализует и сжимает v
func (c *Codec) Encode(v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("ошибка сериализации кадра: %w", err)
	}
	return c.enc.EncodeAll(raw, make([]byte, 0, len(raw)/4)), nil
}

// Decode распаковывает data и разбирает её в v
func (c *Codec) Decode(data []byte, v any) error {
	raw, err := c.dec.DecodeAll(data, nil)
	if err != nil {
		return fmt.Errorf("ошибка распаковки кадра: %w", err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("ошибка десериализации кадра: %w", err)
	}
	return nil
}

// Close освобождает ресурсы кодека
func (c *Codec) Close() {
	c.enc.Close()
	c.dec.Close()
}
