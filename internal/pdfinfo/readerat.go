package pdfinfo

import (
	"bytes"
	"io"
)

// newBufferedReaderAt buffers a stream into memory so it can be read at
// random offsets. Archive entries only expose sequential readers, and the
// PDF cross-reference table lives at the end of the file.
func newBufferedReaderAt(r io.Reader) io.ReaderAt {
	data, err := io.ReadAll(r)
	if err != nil {
		return errReaderAt{err}
	}
	return bytes.NewReader(data)
}

type errReaderAt struct{ err error }

func (e errReaderAt) ReadAt([]byte, int64) (int, error) { return 0, e.err }
