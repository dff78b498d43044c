// Package extract turns contract files into plain text for the engine.
//
// PDFs are read through their text layer. Anything else must be text: UTF-8,
// UTF-8 or UTF-16 with a byte order mark, or GBK.
package extract

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/h2non/filetype"
	"github.com/ledongthuc/pdf"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

const (
	MaxFileSize = 20 << 20
	headerSize  = 261

	KindPDF  = "pdf"
	KindText = "text"
)

var (
	ErrEmpty       = errors.New("file is empty")
	ErrTooLarge    = errors.New("file too large")
	ErrUnsupported = errors.New("unsupported file type")
)

// Document is the extracted text of one file.
type Document struct {
	Path     string `json:"path"`
	Kind     string `json:"kind"`
	Encoding string `json:"encoding,omitempty"`
	Pages    int    `json:"pages,omitempty"`
	Text     string `json:"-"`
}

// File reads path and extracts its text.
func File(path string) (*Document, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s: is a directory", path)
	}
	if info.Size() > MaxFileSize {
		return nil, fmt.Errorf("%s: %w (%d bytes, limit %d)", path, ErrTooLarge, info.Size(), MaxFileSize)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	doc, err := Bytes(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	doc.Path = path
	return doc, nil
}

// Bytes extracts text from an in-memory file.
func Bytes(data []byte) (*Document, error) {
	if len(data) == 0 {
		return nil, ErrEmpty
	}
	if len(data) > MaxFileSize {
		return nil, ErrTooLarge
	}

	head := data
	if len(head) > headerSize {
		head = head[:headerSize]
	}

	kind, _ := filetype.Match(head)
	switch {
	case kind.Extension == "pdf":
		return readPDF(data)
	case filetype.IsImage(head), filetype.IsVideo(head), filetype.IsAudio(head),
		filetype.IsArchive(head), filetype.IsDocument(head), filetype.IsFont(head):
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, kind.MIME.Value)
	}

	text, enc, err := Decode(data)
	if err != nil {
		return nil, err
	}
	return &Document{Kind: KindText, Encoding: enc, Text: text}, nil
}

// Decode converts raw text bytes to a string and names the encoding it used.
func Decode(data []byte) (string, string, error) {
	var (
		out []byte
		enc string
		err error
	)
	switch {
	case bytes.HasPrefix(data, []byte{0xEF, 0xBB, 0xBF}):
		enc = "utf-8"
		out = data[3:]
	case bytes.HasPrefix(data, []byte{0xFF, 0xFE}), bytes.HasPrefix(data, []byte{0xFE, 0xFF}):
		enc = "utf-16"
		out, _, err = transform.Bytes(unicode.BOMOverride(unicode.UTF8.NewDecoder()), data)
	case utf8.Valid(data):
		enc = "utf-8"
		out = data
	default:
		enc = "gbk"
		out, _, err = transform.Bytes(simplifiedchinese.GBK.NewDecoder(), data)
	}
	if err != nil {
		return "", "", fmt.Errorf("decode %s: %w", enc, err)
	}
	if bytes.IndexByte(out, 0) >= 0 {
		return "", "", fmt.Errorf("%w: binary content", ErrUnsupported)
	}
	return string(out), enc, nil
}

// readPDF concatenates the plain text of every page. The parser panics on
// some malformed files, so panics become errors.
func readPDF(data []byte) (doc *Document, err error) {
	defer func() {
		if r := recover(); r != nil {
			doc, err = nil, fmt.Errorf("read pdf: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("read pdf: %w", err)
	}

	var sb strings.Builder
	pages := reader.NumPage()
	for i := 1; i <= pages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		content, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		sb.WriteString(content)
		sb.WriteString("\n")
	}

	text := strings.TrimSpace(sb.String())
	if text == "" {
		return nil, fmt.Errorf("read pdf: no text layer in %d pages", pages)
	}
	return &Document{Kind: KindPDF, Pages: pages, Text: text}, nil
}
