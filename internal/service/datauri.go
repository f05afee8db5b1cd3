package service

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"strings"

	_ "golang.org/x/image/webp"
)

const dataURIDelimiter = ";base64,"

// ErrInvalidDataURI is returned when an image payload is not a decodable
// base64 data URI of a supported image format.
var ErrInvalidDataURI = errors.New("invalid image data")

// imageFormats maps the formats image.DecodeConfig recognises to the file
// extension and content type they are stored with. Nothing else is stored.
var imageFormats = map[string]struct {
	ext         string
	contentType string
}{
	"png":  {"png", "image/png"},
	"jpeg": {"jpg", "image/jpeg"},
	"gif":  {"gif", "image/gif"},
	"webp": {"webp", "image/webp"},
}

// ImageInfo describes a payload sniffed from its bytes.
type ImageInfo struct {
	Format      string // png, jpeg, gif or webp
	Extension   string
	ContentType string
	Width       int
	Height      int
}

// SniffImage identifies data by its content. The declared type of the
// payload plays no part.
func SniffImage(data []byte) (*ImageInfo, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: not a supported image: %v", ErrInvalidDataURI, err)
	}
	known, ok := imageFormats[format]
	if !ok {
		return nil, fmt.Errorf("%w: unsupported image format %q", ErrInvalidDataURI, format)
	}
	return &ImageInfo{
		Format:      format,
		Extension:   known.ext,
		ContentType: known.contentType,
		Width:       cfg.Width,
		Height:      cfg.Height,
	}, nil
}

// DataURI is a decoded "<mime>;base64,<payload>" string.
type DataURI struct {
	DeclaredType string // MIME type from the header, informational only
	Image        ImageInfo
	Data         []byte
}

// DecodeDataURI splits value at the first ";base64,", decodes the payload
// and sniffs it. Extension and content type come from the sniffed format, so
// a payload that is not a png, jpeg, gif or webp image is rejected whatever
// its header claims.
func DecodeDataURI(value string) (*DataURI, error) {
	header, payload, found := strings.Cut(value, dataURIDelimiter)
	if !found {
		return nil, fmt.Errorf("%w: missing %q delimiter", ErrInvalidDataURI, dataURIDelimiter)
	}

	payload = strings.TrimSpace(payload)
	if payload == "" {
		return nil, fmt.Errorf("%w: empty payload", ErrInvalidDataURI)
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		// browsers occasionally strip the padding
		var rawErr error
		data, rawErr = base64.RawStdEncoding.DecodeString(payload)
		if rawErr != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidDataURI, err)
		}
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty payload", ErrInvalidDataURI)
	}

	info, err := SniffImage(data)
	if err != nil {
		return nil, err
	}

	declared := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(header), "data:"))
	if idx := strings.Index(declared, ";"); idx != -1 {
		declared = declared[:idx]
	}
	return &DataURI{
		DeclaredType: declared,
		Image:        *info,
		Data:         data,
	}, nil
}
