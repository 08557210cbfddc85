package analysis

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	"glowcheck/internal/llm"
)

var ErrImageEncode = errors.New("failed to process image")

// Fetcher downloads web-hosted images. *llm.Client satisfies it.
type Fetcher interface {
	FetchImage(ctx context.Context, imageURL string) ([]byte, string, error)
}

// Image is a transport-ready image.
type Image struct {
	Base64 string
	MIME   string
	Bytes  []byte
}

// Encoder turns an image reference into an Image. References may be data
// URIs, http(s) URLs, or local paths when local files are allowed.
type Encoder struct {
	fetcher         Fetcher
	allowLocalFiles bool
}

func NewEncoder(fetcher Fetcher, allowLocalFiles bool) *Encoder {
	return &Encoder{fetcher: fetcher, allowLocalFiles: allowLocalFiles}
}

func (e *Encoder) Encode(ctx context.Context, ref string) (Image, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return Image{}, fmt.Errorf("%w: empty image reference", ErrImageEncode)
	}

	var (
		body []byte
		mime string
		err  error
	)
	lowered := strings.ToLower(ref)
	switch {
	case strings.HasPrefix(lowered, "data:"):
		body, mime, err = llm.DecodeDataImageURL(ref)
	case strings.HasPrefix(lowered, "http://"), strings.HasPrefix(lowered, "https://"):
		if e.fetcher == nil {
			return Image{}, fmt.Errorf("%w: remote images are not supported", ErrImageEncode)
		}
		body, mime, err = e.fetcher.FetchImage(ctx, ref)
	default:
		if !e.allowLocalFiles {
			return Image{}, fmt.Errorf("%w: local files are not allowed", ErrImageEncode)
		}
		body, err = os.ReadFile(strings.TrimPrefix(ref, "file://"))
	}
	if err != nil {
		return Image{}, fmt.Errorf("%w: %v", ErrImageEncode, err)
	}
	if len(body) == 0 {
		return Image{}, fmt.Errorf("%w: image is empty", ErrImageEncode)
	}

	if sniffed := http.DetectContentType(body); strings.HasPrefix(sniffed, "image/") {
		mime = sniffed
	}
	if mime == "" {
		mime = "image/jpeg"
	}
	return Image{
		Base64: base64.StdEncoding.EncodeToString(body),
		MIME:   mime,
		Bytes:  body,
	}, nil
}

// DataURI wraps raw base64 as a data URI unless it already is one.
func DataURI(imageBase64 string) string {
	trimmed := strings.TrimSpace(imageBase64)
	if trimmed == "" || strings.HasPrefix(strings.ToLower(trimmed), "data:") {
		return trimmed
	}
	return "data:image/jpeg;base64," + trimmed
}
