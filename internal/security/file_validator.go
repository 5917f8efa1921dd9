package security

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// ErrRejected is wrapped by every validation failure so callers can tell a
// skipped file from an I/O error.
var ErrRejected = errors.New("file rejected")

// FileValidator decides whether a file on disk is plain text a document can
// be built from. Only a bounded header is inspected for content checks.
type FileValidator struct {
	MaxSize    int64 // Files larger than this are rejected outright
	HeaderSize int64 // Size of header to read for validation
}

func NewFileValidator(maxKB int64) *FileValidator {
	return &FileValidator{
		MaxSize:    maxKB * 1024,
		HeaderSize: 64 * 1024, // 64KB header
	}
}

// Validate returns nil for text files within the size limit. Rejections wrap
// ErrRejected; stat and read failures are returned as is.
func (fv *FileValidator) Validate(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("failed to stat file: %w", err)
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("%w: %s is not a regular file", ErrRejected, path)
	}
	if fv.MaxSize > 0 && info.Size() > fv.MaxSize {
		return fmt.Errorf("%w: %s is %d bytes, limit is %d", ErrRejected, path, info.Size(), fv.MaxSize)
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	header := make([]byte, fv.HeaderSize)
	n, err := io.ReadFull(f, header)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return fmt.Errorf("failed to read header: %w", err)
	}
	header = header[:n]

	if err := fv.checkMagicBytes(path, header); err != nil {
		return err
	}
	if isBinaryData(header) {
		return fmt.Errorf("%w: %s appears to be binary", ErrRejected, path)
	}
	if !validUTF8Prefix(header, n < int(fv.HeaderSize)) {
		return fmt.Errorf("%w: %s is not valid UTF-8", ErrRejected, path)
	}
	return nil
}

// ValidateContent applies the content checks to bytes already in memory.
func (fv *FileValidator) ValidateContent(data []byte) error {
	if fv.MaxSize > 0 && int64(len(data)) > fv.MaxSize {
		return fmt.Errorf("%w: %d bytes, limit is %d", ErrRejected, len(data), fv.MaxSize)
	}
	head := data
	if int64(len(head)) > fv.HeaderSize {
		head = head[:fv.HeaderSize]
	}
	if isBinaryData(head) {
		return fmt.Errorf("%w: content appears to be binary", ErrRejected)
	}
	if !utf8.Valid(data) {
		return fmt.Errorf("%w: content is not valid UTF-8", ErrRejected)
	}
	return nil
}

// magicBytes lists signatures of common binary formats. A text extension
// carrying one of them is a disguised binary.
var magicBytes = [][]byte{
	{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}, // png
	{0xFF, 0xD8, 0xFF},             // jpeg
	{0x47, 0x49, 0x46, 0x38},       // gif
	{0x25, 0x50, 0x44, 0x46, 0x2D}, // pdf
	{0x50, 0x4B, 0x03, 0x04},       // zip
	{0x7F, 0x45, 0x4C, 0x46},       // elf
}

// checkMagicBytes rejects files whose header starts with a known binary signature
func (fv *FileValidator) checkMagicBytes(path string, header []byte) error {
	for _, magic := range magicBytes {
		if bytes.HasPrefix(header, magic) {
			ext := strings.ToLower(filepath.Ext(path))
			return fmt.Errorf("%w: %s has a binary signature (extension %q)", ErrRejected, path, ext)
		}
	}
	return nil
}

// isBinaryData checks if data contains binary content
func isBinaryData(data []byte) bool {
	if len(data) == 0 {
		return false
	}
	if bytes.IndexByte(data, 0) >= 0 {
		return true
	}

	// Control characters other than tab, LF, VT, FF, CR, plus DEL
	nonPrintable := 0
	for _, b := range data {
		if b < 9 || (b > 13 && b < 32) || b == 127 {
			nonPrintable++
		}
	}

	// If more than 30% non-printable, consider binary
	ratio := float64(nonPrintable) / float64(len(data))
	return ratio > 0.3
}

// validUTF8Prefix reports whether data is valid UTF-8. When the data was cut
// at the header boundary a trailing partial rune is tolerated.
func validUTF8Prefix(data []byte, complete bool) bool {
	if complete {
		return utf8.Valid(data)
	}
	for i := 0; i < utf8.UTFMax && len(data) > 0; i++ {
		if utf8.Valid(data) {
			return true
		}
		data = data[:len(data)-1]
	}
	return utf8.Valid(data)
}
