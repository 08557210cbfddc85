package llm

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func newTestClient(t *testing.T, server *httptest.Server) *Client {
	t.Helper()
	client, err := NewClient(Config{
		VisionURL:     server.URL + "/v1/images:annotate",
		VisionAPIKey:  "vision-key",
		CompletionURL: server.URL + "/text/llm/",
		Timeout:       2 * time.Second,
	})
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	client.httpClient = server.Client()
	return client
}

func TestAnnotateSendsFeaturesAndKey(t *testing.T) {
	var gotKey string
	var gotFeatures []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/images:annotate" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		gotKey = r.URL.Query().Get("key")
		var req struct {
			Requests []struct {
				Image struct {
					Content string `json:"content"`
				} `json:"image"`
				Features []Feature `json:"features"`
			} `json:"requests"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request body: %v", err)
		}
		if len(req.Requests) != 1 || req.Requests[0].Image.Content != "aGVsbG8=" {
			t.Fatalf("unexpected request payload: %+v", req)
		}
		for _, f := range req.Requests[0].Features {
			gotFeatures = append(gotFeatures, f.Type)
		}
		_, _ = w.Write([]byte(`{"responses":[{"labelAnnotations":[{"description":"Person","score":0.9}]}]}`))
	}))
	defer server.Close()

	raw, err := newTestClient(t, server).Annotate(context.Background(), "aGVsbG8=")
	if err != nil {
		t.Fatalf("Annotate() error = %v", err)
	}
	if !strings.Contains(string(raw), "Person") {
		t.Fatalf("expected raw annotation body, got %s", raw)
	}
	if gotKey != "vision-key" {
		t.Fatalf("expected api key in query, got %q", gotKey)
	}
	if strings.Join(gotFeatures, ",") != "FACE_DETECTION,LABEL_DETECTION,OBJECT_LOCALIZATION,IMAGE_PROPERTIES" {
		t.Fatalf("unexpected features: %v", gotFeatures)
	}
}

func TestAnnotateNonSuccessStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusForbidden)
	}))
	defer server.Close()

	if _, err := newTestClient(t, server).Annotate(context.Background(), "aGVsbG8="); err == nil {
		t.Fatalf("expected error for 403 response")
	}
}

func TestAnnotateRequiresImage(t *testing.T) {
	client, err := NewClient(Config{})
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	if _, err := client.Annotate(context.Background(), "  "); !errors.Is(err, ErrImageRequired) {
		t.Fatalf("expected ErrImageRequired, got %v", err)
	}
}

func TestGenerateReadsCompletionField(t *testing.T) {
	var systemPrompt string
	var sawImage bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/text/llm/" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		var req struct {
			Messages []struct {
				Role    string          `json:"role"`
				Content json.RawMessage `json:"content"`
			} `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request body: %v", err)
		}
		for _, msg := range req.Messages {
			switch msg.Role {
			case "system":
				_ = json.Unmarshal(msg.Content, &systemPrompt)
			case "user":
				sawImage = strings.Contains(string(msg.Content), `"type":"image"`)
			}
		}
		_, _ = w.Write([]byte(`{"completion":"{\"glowScore\":8.4}"}`))
	}))
	defer server.Close()

	text, err := newTestClient(t, server).Generate(context.Background(), GenerateRequest{
		System:      "You are an expert beauty analyst.",
		Text:        "Please analyze this beauty photo.",
		ImageBase64: "aGVsbG8=",
	})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if text != `{"glowScore":8.4}` {
		t.Fatalf("unexpected completion %q", text)
	}
	if systemPrompt != "You are an expert beauty analyst." {
		t.Fatalf("unexpected system prompt %q", systemPrompt)
	}
	if !sawImage {
		t.Fatalf("expected image part in user message")
	}
}

func TestGenerateReadsChatCompletionsShape(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":[{"type":"text","text":"{\"outfitScore\":9}"}]}}]}`))
	}))
	defer server.Close()

	text, err := newTestClient(t, server).Generate(context.Background(), GenerateRequest{Text: "x"})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if text != `{"outfitScore":9}` {
		t.Fatalf("unexpected completion %q", text)
	}
}

func TestGenerateEmptyCompletionIsInvalid(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"completion":""}`))
	}))
	defer server.Close()

	if _, err := newTestClient(t, server).Generate(context.Background(), GenerateRequest{Text: "x"}); !errors.Is(err, ErrInvalidResponse) {
		t.Fatalf("expected ErrInvalidResponse, got %v", err)
	}
}

func TestGenerateHonoursTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer server.Close()

	client := newTestClient(t, server)
	client.timeout = 50 * time.Millisecond

	start := time.Now()
	if _, err := client.Generate(context.Background(), GenerateRequest{Text: "x"}); err == nil {
		t.Fatalf("expected timeout error")
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("Generate() took %s, expected the client timeout to apply", elapsed)
	}
}

func TestExtractJSONPayloadStripsFences(t *testing.T) {
	got := ExtractJSONPayload("```json\n{\"glowScore\": 8}\n```")
	if got != `{"glowScore": 8}` {
		t.Fatalf("unexpected payload %q", got)
	}
	if got := ExtractJSONPayload("Sure! {\"a\":1} hope this helps"); got != `{"a":1}` {
		t.Fatalf("unexpected payload %q", got)
	}
	if got := ExtractJSONPayload(""); got != "{}" {
		t.Fatalf("expected empty object, got %q", got)
	}
}

func TestFetchImage(t *testing.T) {
	png := []byte("\x89PNG\r\n\x1a\n0000")
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing.png" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(png)
	}))
	defer server.Close()

	client := newTestClient(t, server)
	body, mime, err := client.FetchImage(context.Background(), server.URL+"/selfie.png")
	if err != nil {
		t.Fatalf("FetchImage() error = %v", err)
	}
	if mime != "image/png" || string(body) != string(png) {
		t.Fatalf("unexpected fetch result mime=%q len=%d", mime, len(body))
	}
	if _, _, err := client.FetchImage(context.Background(), server.URL+"/missing.png"); err == nil {
		t.Fatalf("expected error for 404 image")
	}
}

func TestDecodeDataImageURL(t *testing.T) {
	payload := base64.StdEncoding.EncodeToString([]byte("jpeg-bytes"))
	body, mime, err := DecodeDataImageURL("data:image/jpeg;base64," + payload)
	if err != nil {
		t.Fatalf("DecodeDataImageURL() error = %v", err)
	}
	if mime != "image/jpeg" || string(body) != "jpeg-bytes" {
		t.Fatalf("unexpected decode result mime=%q body=%q", mime, body)
	}
	if _, _, err := DecodeDataImageURL("data:text/plain;base64," + payload); err == nil {
		t.Fatalf("expected error for non-image data url")
	}
}

func TestUploadPhotoRequiresConfiguration(t *testing.T) {
	client, err := NewClient(Config{})
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	if client.CanUpload() {
		t.Fatalf("expected upload to be unavailable without COS settings")
	}
	if _, err := client.UploadPhoto(context.Background(), []byte("x"), "a.jpg"); !errors.Is(err, ErrUploadUnavailable) {
		t.Fatalf("expected ErrUploadUnavailable, got %v", err)
	}
}

func TestBuildUploadObjectKeySanitizesName(t *testing.T) {
	key := buildUploadObjectKey("../my selfie (1).jpg")
	if !strings.HasPrefix(key, "photos/") || !strings.HasSuffix(key, "_my_selfie_1_.jpg") {
		t.Fatalf("unexpected object key %q", key)
	}
}
