package upload

import (
	"bytes"
	"context"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/gabriel-vasile/mimetype"

	"github.com/dharsanguruparan/picktoss/internal/objectstore"
)

// MarkdownType is the content type sent for every upload.
const MarkdownType = "text/markdown"

// File is an upload payload.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// Fetcher downloads objects from a bucket.
type Fetcher interface {
	Fetch(ctx context.Context, loc objectstore.Location) (objectstore.Object, error)
}

// ReadSource loads a local path or an s3://bucket/key location.
func ReadSource(ctx context.Context, fetcher Fetcher, src string) (File, error) {
	if objectstore.IsLocation(src) {
		if fetcher == nil {
			return File{}, objectstore.ErrNotConfigured
		}
		loc, err := objectstore.ParseLocation(src)
		if err != nil {
			return File{}, err
		}
		obj, err := fetcher.Fetch(ctx, loc)
		if err != nil {
			return File{}, err
		}
		return File{Name: loc.Name(), ContentType: obj.ContentType, Data: obj.Data}, nil
	}
	data, err := os.ReadFile(src)
	if err != nil {
		return File{}, fmt.Errorf("read %s: %w", src, err)
	}
	return File{Name: filepath.Base(src), ContentType: mime.TypeByExtension(filepath.Ext(src)), Data: data}, nil
}

// IsMarkdown accepts files named *.md or declared as text/markdown unless
// their bytes are binary. Markdown may open with anything textual (inline
// SVG, a JSON snippet), so a text sniff that disagrees is not a rejection.
func IsMarkdown(f File) bool {
	declared := strings.EqualFold(filepath.Ext(f.Name), ".md")
	if mediaType, _, err := mime.ParseMediaType(f.ContentType); err == nil && mediaType == MarkdownType {
		declared = true
	}
	if !declared {
		return false
	}
	return !isBinary(f.Data)
}

func isBinary(data []byte) bool {
	return bytes.IndexByte(data, 0) >= 0 || !utf8.Valid(data)
}

// Sniff reports the media type detected from data.
func Sniff(data []byte) string {
	return mimetype.Detect(data).String()
}

// DocumentName returns name, or the file name without extension when empty.
func DocumentName(name, fileName string) string {
	if n := strings.TrimSpace(name); n != "" {
		return n
	}
	return strings.TrimSuffix(fileName, filepath.Ext(fileName))
}
