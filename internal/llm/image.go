package llm

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// maxImageBytes bounds what FetchImage will read from a remote reference.
const maxImageBytes = 15 << 20

// FetchImage downloads a web-hosted image, returning its bytes and MIME type.
func (c *Client) FetchImage(ctx context.Context, imageURL string) ([]byte, string, error) {
	trimmedURL := strings.TrimSpace(imageURL)
	if trimmedURL == "" {
		return nil, "", ErrImageRequired
	}
	if strings.HasPrefix(strings.ToLower(trimmedURL), "data:image/") {
		return DecodeDataImageURL(trimmedURL)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, trimmedURL, nil)
	if err != nil {
		return nil, "", err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes+1))
	if err != nil {
		return nil, "", err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, "", fmt.Errorf("download image failed, status=%d", resp.StatusCode)
	}
	if len(body) > maxImageBytes {
		return nil, "", fmt.Errorf("download image failed: larger than %d bytes", maxImageBytes)
	}
	if len(body) == 0 {
		return nil, "", fmt.Errorf("download image failed: empty body")
	}
	contentType := strings.TrimSpace(resp.Header.Get("Content-Type"))
	if contentType == "" {
		contentType = http.DetectContentType(body)
	}
	return body, contentType, nil
}

func DecodeDataImageURL(dataURL string) ([]byte, string, error) {
	comma := strings.Index(dataURL, ",")
	if comma <= 0 || comma >= len(dataURL)-1 {
		return nil, "", fmt.Errorf("invalid data url")
	}
	header := dataURL[:comma]
	payload := dataURL[comma+1:]
	if !strings.HasPrefix(strings.ToLower(header), "data:image/") {
		return nil, "", fmt.Errorf("unsupported data url")
	}
	if !strings.Contains(strings.ToLower(header), ";base64") {
		return nil, "", fmt.Errorf("data url is not base64 encoded")
	}
	mime := strings.TrimSpace(strings.TrimPrefix(strings.Split(header, ";")[0], "data:"))
	if mime == "" {
		mime = "image/png"
	}
	decoded, err := base64.StdEncoding.DecodeString(strings.TrimSpace(payload))
	if err != nil {
		return nil, "", err
	}
	return decoded, mime, nil
}
