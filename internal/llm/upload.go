package llm

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	cos "github.com/tencentyun/cos-go-sdk-v5"
)

var ErrUploadUnavailable = errors.New("photo upload is not configured")

var fileNamePattern = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

// UploadPhoto stores analysed photo bytes in COS and returns their public URL.
func (c *Client) UploadPhoto(ctx context.Context, imageBytes []byte, fileName string) (string, error) {
	if len(imageBytes) == 0 {
		return "", fmt.Errorf("image bytes is empty")
	}
	if !c.CanUpload() {
		return "", ErrUploadUnavailable
	}
	return c.uploadViaCOS(ctx, imageBytes, fileName)
}

func (c *Client) CanUpload() bool {
	return c.cosSecretID != "" &&
		c.cosSecretKey != "" &&
		c.cosBucketName != "" &&
		c.cosPublicDomain != ""
}

func (c *Client) uploadViaCOS(ctx context.Context, imageBytes []byte, fileName string) (string, error) {
	bucketURL, err := url.Parse(fmt.Sprintf("https://%s.cos.%s.myqcloud.com", c.cosBucketName, c.cosRegion))
	if err != nil {
		return "", err
	}
	client := cos.NewClient(&cos.BaseURL{BucketURL: bucketURL}, &http.Client{
		Transport: &cos.AuthorizationTransport{
			SecretID:  c.cosSecretID,
			SecretKey: c.cosSecretKey,
		},
	})

	key := buildUploadObjectKey(fileName)
	opt := &cos.ObjectPutOptions{
		ObjectPutHeaderOptions: &cos.ObjectPutHeaderOptions{
			ContentType: http.DetectContentType(imageBytes),
		},
	}
	if _, err := client.Object.Put(ctx, key, bytes.NewReader(imageBytes), opt); err != nil {
		return "", err
	}

	return strings.TrimRight(c.cosPublicDomain, "/") + "/" + key, nil
}

func buildUploadObjectKey(fileName string) string {
	clean := sanitizeFileName(fileName)
	return fmt.Sprintf("photos/%s/%d_%s_%s", time.Now().UTC().Format("2006-01"), time.Now().Unix(), randomHex(4), clean)
}

func sanitizeFileName(fileName string) string {
	base := strings.TrimSpace(filepath.Base(fileName))
	if base == "" || base == "." || base == "/" {
		base = "photo.jpg"
	}
	base = fileNamePattern.ReplaceAllString(base, "_")
	if base == "" {
		base = "photo.jpg"
	}
	return base
}

func randomHex(bytesLen int) string {
	if bytesLen <= 0 {
		bytesLen = 4
	}
	buf := make([]byte, bytesLen)
	if _, err := rand.Read(buf); err != nil {
		return "r"
	}
	return hex.EncodeToString(buf)
}
