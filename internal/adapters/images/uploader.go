package images

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"path"
	"strings"

	"github.com/njoroofficial/dev-events/internal/domain"
)

// UploaderConfig holds configuration for creating an image uploader.
type UploaderConfig struct {
	Provider string
	Endpoint string
	APIKey   string
	// BaseURL is the placeholder base used by the noop uploader.
	BaseURL string
}

// NewUploader creates an image uploader from config. Provider "http" posts
// files to an external upload service; "noop" or an unknown provider returns
// placeholder URLs without uploading anything.
func NewUploader(config UploaderConfig, client *http.Client) domain.ImageUploader {
	switch config.Provider {
	case "http":
		if client == nil {
			client = http.DefaultClient
		}
		return &httpUploader{
			client:   client,
			endpoint: config.Endpoint,
			apiKey:   config.APIKey,
		}
	case "noop":
		return &noopUploader{baseURL: config.BaseURL}
	default:
		log.Printf("[IMAGES] Unknown upload provider %q, using noop", config.Provider)
		return &noopUploader{baseURL: config.BaseURL}
	}
}

type httpUploader struct {
	client   *http.Client
	endpoint string
	apiKey   string
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// Upload posts the file as a multipart form to the upload service and returns
// the public URL from its response.
func (u *httpUploader) Upload(ctx context.Context, eventID string, image domain.ImageUpload) (string, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	// CreateFormFile would force application/octet-stream, so build the part
	// by hand to carry the real content type.
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition",
		fmt.Sprintf(`form-data; name="image"; filename="%s"`, quoteEscaper.Replace(image.Filename)))
	header.Set("Content-Type", image.ContentType)
	part, err := writer.CreatePart(header)
	if err != nil {
		return "", fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := part.Write(image.Data); err != nil {
		return "", fmt.Errorf("failed to write image data: %w", err)
	}
	if err := writer.WriteField("event_id", eventID); err != nil {
		return "", fmt.Errorf("failed to write event id field: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("failed to finalize form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.endpoint, &body)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if u.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+u.apiKey)
	}

	resp, err := u.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to upload image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("upload service returned status: %d", resp.StatusCode)
	}

	var data struct {
		URL string `json:"url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return "", fmt.Errorf("failed to decode upload response: %w", err)
	}
	if data.URL == "" {
		return "", fmt.Errorf("upload service returned no url")
	}
	return data.URL, nil
}

// noopUploader skips the upload and hands back a deterministic placeholder
// URL so development environments work without an upload vendor.
type noopUploader struct {
	baseURL string
}

func (u *noopUploader) Upload(_ context.Context, eventID string, image domain.ImageUpload) (string, error) {
	base := strings.TrimSuffix(u.baseURL, "/")
	if base == "" {
		base = "/static/events"
	}
	ext := path.Ext(image.Filename)
	if ext == "" {
		ext = ".png"
	}
	log.Printf("[IMAGES] Image upload skipped (noop) for event %s", eventID)
	return fmt.Sprintf("%s/%s%s", base, eventID, ext), nil
}
