package util

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
)

// SanitizeFileName removes path separators and rejects traversal patterns.
func SanitizeFileName(name string) (string, error) {
	if strings.Contains(name, "..") {
		return "", errors.New("invalid file name")
	}
	s := strings.TrimSpace(name)
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	if s == "" {
		return "", errors.New("invalid file name")
	}
	return s, nil
}

// Sniff reads up to 512 bytes for content detection and returns them along
// with a reader that replays the full stream.
func Sniff(r io.Reader) ([]byte, io.Reader, error) {
	var head [512]byte
	n, err := io.ReadFull(r, head[:])
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return nil, nil, fmt.Errorf("read sniff: %w", err)
	}
	sniffed := append([]byte(nil), head[:n]...)
	return sniffed, io.MultiReader(bytes.NewReader(sniffed), r), nil
}
