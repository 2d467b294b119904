package outbound

import (
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/vmihailenco/msgpack/v5"
)

// EncodingZstd значение метаданных encoding для сжатых пачек
const EncodingZstd = "zstd"

var (
	zstdOnce sync.Once
	zstdEnc  *zstd.Encoder
	zstdDec  *zstd.Decoder
	zstdErr  error
)

// EncodeAll/DecodeAll безопасны для конкурентного вызова, поэтому кодеки общие
func codecs() (*zstd.Encoder, *zstd.Decoder, error) {
	zstdOnce.Do(func() {
		zstdEnc, zstdErr = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedFastest))
		if zstdErr != nil {
			return
		}
		zstdDec, zstdErr = zstd.NewReader(nil)
	})
	return zstdEnc, zstdDec, zstdErr
}

// EncodeBatch сериализует пачку в msgpack; если результат больше compressAbove байт
// (и compressAbove > 0), сжимает zstd. Возвращает полезную нагрузку и кодировку.
func EncodeBatch(b *Batch, compressAbove int) ([]byte, string, error) {
	raw, err := msgpack.Marshal(b)
	if err != nil {
		return nil, "", fmt.Errorf("msgpack: %w", err)
	}
	if compressAbove <= 0 || len(raw) <= compressAbove {
		return raw, "", nil
	}

	enc, _, err := codecs()
	if err != nil {
		return nil, "", fmt.Errorf("zstd: %w", err)
	}
	return enc.EncodeAll(raw, make([]byte, 0, len(raw)/2)), EncodingZstd, nil
}

// DecodeBatch обратная операция для потребителей шины
func DecodeBatch(payload []byte, encoding string) (*Batch, error) {
	switch encoding {
	case "":
	case EncodingZstd:
		_, dec, err := codecs()
		if err != nil {
			return nil, fmt.Errorf("zstd: %w", err)
		}
		payload, err = dec.DecodeAll(payload, nil)
		if err != nil {
			return nil, fmt.Errorf("zstd: %w", err)
		}
	default:
		return nil, fmt.Errorf("неизвестная кодировка %q", encoding)
	}

	var b Batch
	if err := msgpack.Unmarshal(payload, &b); err != nil {
		return nil, fmt.Errorf("msgpack: %w", err)
	}
	return &b, nil
}
