package importer

// streaming.go wraps row sources so arbitrarily large files are read with
// constant memory, and tracks consumption for run-summary logging.

import "io"

// bomSkippingReader strips a leading UTF-8 BOM (0xEF 0xBB 0xBF), which
// spreadsheet exports on Windows commonly prepend. Without this the first
// header cell would read as "\ufeffHandle" and fail the key-shape check.
type bomSkippingReader struct {
	r       io.Reader
	checked bool
	rest    []byte
}

func newBOMSkippingReader(r io.Reader) *bomSkippingReader {
	return &bomSkippingReader{r: r}
}

func (b *bomSkippingReader) Read(p []byte) (int, error) {
	if !b.checked {
		b.checked = true

		var head [3]byte
		n, err := io.ReadFull(b.r, head[:])
		if err == io.ErrUnexpectedEOF {
			err = io.EOF
		}
		if err != nil && err != io.EOF {
			return 0, err
		}
		if !(n == 3 && head[0] == 0xEF && head[1] == 0xBB && head[2] == 0xBF) {
			b.rest = append(b.rest, head[:n]...)
		}
	}

	if len(b.rest) > 0 {
		n := copy(p, b.rest)
		b.rest = b.rest[n:]
		return n, nil
	}
	return b.r.Read(p)
}

// countingReader tracks bytes consumed from the underlying reader.
type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

// BytesRead returns the number of bytes consumed so far.
func (c *countingReader) BytesRead() int64 { return c.n }
