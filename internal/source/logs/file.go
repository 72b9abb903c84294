package logs

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/and161185/terraria-exporter/internal/source"
)

const fileTailBytes = 4 << 20

// FileSource tails a local log file, e.g. a server running next to the exporter.
type FileSource struct {
	Path string
}

// Tail returns the last lines of the file. Only the final few megabytes are read.
func (f FileSource) Tail(ctx context.Context, lines int) (Chunk, error) {
	if err := ctx.Err(); err != nil {
		return Chunk{}, err
	}
	fd, err := os.Open(f.Path)
	if err != nil {
		return Chunk{}, fmt.Errorf("%w: %v", source.ErrSourceUnavailable, err)
	}
	defer fd.Close()

	st, err := fd.Stat()
	if err != nil {
		return Chunk{}, fmt.Errorf("%w: %v", source.ErrSourceUnavailable, err)
	}
	offset := max(0, st.Size()-fileTailBytes)
	if _, err := fd.Seek(offset, io.SeekStart); err != nil {
		return Chunk{}, fmt.Errorf("%w: %v", source.ErrSourceUnavailable, err)
	}
	data, err := io.ReadAll(fd)
	if err != nil {
		return Chunk{}, fmt.Errorf("%w: %v", source.ErrSourceUnavailable, err)
	}
	if offset > 0 {
		// Drop the partial first line.
		if i := bytes.IndexByte(data, '\n'); i >= 0 {
			data = data[i+1:]
		}
	}
	return Chunk{Text: lastLines(data, lines)}, nil
}

// lastLines keeps the final n lines of text; n <= 0 keeps everything.
func lastLines(text []byte, n int) []byte {
	if n <= 0 {
		return text
	}
	end := len(text)
	if end > 0 && text[end-1] == '\n' {
		end--
	}
	i := end
	for range n {
		j := bytes.LastIndexByte(text[:i], '\n')
		if j < 0 {
			return text
		}
		i = j
	}
	return text[i+1:]
}
