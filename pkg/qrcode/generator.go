package qrcode

import (
	"errors"
	"net/url"
	"strings"

	skipqrcode "github.com/skip2/go-qrcode"
)

var (
	ErrEmptyContent = errors.New("content cannot be empty")
	ErrInvalidURL   = errors.New("share url must be absolute http(s)")
	ErrGenerate     = errors.New("failed to generate QR code")
)

const (
	DefaultSize = 256
	MaxSize     = 1024
)

// Generate encodes content as a PNG. Sizes outside (0, MaxSize] fall back
// to DefaultSize.
func Generate(content string, size int) ([]byte, error) {
	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyContent
	}
	if size <= 0 || size > MaxSize {
		size = DefaultSize
	}
	png, err := skipqrcode.Encode(content, skipqrcode.Medium, size)
	if err != nil {
		return nil, errors.Join(ErrGenerate, err)
	}
	return png, nil
}

// ShareURL validates an absolute link before it is encoded, so a QR code never
// points at a relative or non-http target.
func ShareURL(raw string, size int) ([]byte, error) {
	u, err := url.Parse(raw)
	if err != nil || !u.IsAbs() || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, ErrInvalidURL
	}
	return Generate(u.String(), size)
}
