package thumbnail

import (
	"bytes"
	"io"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"
	"github.com/klauspost/compress/zstd"

	zerrors "github.com/zarrlens/zarrlens/pkg/errors"
	"github.com/zarrlens/zarrlens/pkg/zarr"
)

var zstdDecoder, _ = zstd.NewReader(nil, zstd.WithDecoderConcurrency(0))

// decodeChunk undoes the array's codec chain, returning raw element bytes.
// Codecs are applied in reverse of their declared (encoding) order.
func decodeChunk(data []byte, codecs []zarr.Codec) ([]byte, error) {
	var err error
	for i := len(codecs) - 1; i >= 0; i-- {
		c := codecs[i]
		switch c.Name {
		case zarr.CodecBytes, "transpose":
			// Byte order and memory layout are applied when reading elements.
		case zarr.CodecCRC32C:
			if len(data) < 4 {
				return nil, zerrors.New(zerrors.ErrCodeThumbnailFailure, "chunk shorter than its checksum")
			}
			data = data[:len(data)-4]
		case zarr.CodecGzip:
			data, err = readAll(gzip.NewReader(bytes.NewReader(data)))
		case zarr.CodecZlib:
			data, err = readAll(zlib.NewReader(bytes.NewReader(data)))
		case zarr.CodecZstd:
			data, err = zstdDecoder.DecodeAll(data, nil)
		default:
			return nil, zerrors.New(zerrors.ErrCodeUnsupported, "codec %q", c.Name)
		}
		if err != nil {
			return nil, zerrors.Wrap(zerrors.ErrCodeThumbnailFailure, err, "decode %s", c.Name)
		}
	}
	return data, nil
}

func readAll(r io.ReadCloser, err error) ([]byte, error) {
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}
