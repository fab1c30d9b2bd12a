package render

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"path/filepath"
	"strings"

	"github.com/rime13-coder/azure-diagram-generator/pkg/errors"
	"github.com/rime13-coder/azure-diagram-generator/pkg/httputil"
)

// =============================================================================
// Lucidchart Standard Import Upload
// =============================================================================

const lucidImportContentType = "x-application/vnd.lucid.standardImport"

// Uploader posts .lucid files to the Lucidchart Standard Import REST API.
// API keys come from https://lucid.app/developer#/apikeys.
type Uploader struct {
	APIKey  string
	BaseURL string // Defaults to https://api.lucid.co
	HTTP    *http.Client
}

// NewUploader returns an uploader authenticating with the given API key.
func NewUploader(apiKey string) *Uploader {
	return &Uploader{
		APIKey:  apiKey,
		BaseURL: "https://api.lucid.co",
		HTTP:    httputil.NewHTTPClient(),
	}
}

type lucidUploadResponse struct {
	EditURL string `json:"editUrl"`
	URL     string `json:"url"`
}

// Upload imports a rendered .lucid document and returns the URL of the
// created Lucidchart document. filename names the uploaded part; title,
// when non-empty, overrides the document title.
func (u *Uploader) Upload(ctx context.Context, filename string, data []byte, title string) (string, error) {
	if u.APIKey == "" {
		return "", errors.New(errors.ErrCodeUnauthorized, "lucidchart API key not configured")
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	// The import endpoint requires the Lucid media type on the file part.
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition",
		fmt.Sprintf(`form-data; name="file"; filename=%q`, filepath.Base(filename)))
	header.Set("Content-Type", lucidImportContentType)
	part, err := mw.CreatePart(header)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInternal, err, "building upload request")
	}
	if _, err := part.Write(data); err != nil {
		return "", errors.Wrap(errors.ErrCodeInternal, err, "building upload request")
	}
	if err := mw.WriteField("product", "lucidchart"); err != nil {
		return "", errors.Wrap(errors.ErrCodeInternal, err, "building upload request")
	}
	if title != "" {
		if err := mw.WriteField("title", title); err != nil {
			return "", errors.Wrap(errors.ErrCodeInternal, err, "building upload request")
		}
	}
	if err := mw.Close(); err != nil {
		return "", errors.Wrap(errors.ErrCodeInternal, err, "building upload request")
	}

	url := strings.TrimSuffix(u.BaseURL, "/") + "/documents"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &body)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInternal, err, "building upload request")
	}
	req.Header.Set("Authorization", "Bearer "+u.APIKey)
	req.Header.Set("Lucid-Api-Version", "1")
	req.Header.Set("Content-Type", mw.FormDataContentType())

	client := u.HTTP
	if client == nil {
		client = httputil.NewHTTPClient()
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeNetwork, err, "uploading to lucidchart")
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeNetwork, err, "reading lucidchart response")
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return "", errors.New(errors.ErrCodeUnauthorized, "lucidchart rejected the API key")
	case resp.StatusCode == http.StatusTooManyRequests:
		return "", errors.New(errors.ErrCodeRateLimited, "lucidchart rate limit reached")
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return "", errors.New(errors.ErrCodeNetwork, "lucidchart upload failed: %s: %s",
			resp.Status, strings.TrimSpace(string(respBody)))
	}

	var result lucidUploadResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", errors.Wrap(errors.ErrCodeInternal, err, "decoding lucidchart response")
	}
	if result.EditURL != "" {
		return result.EditURL, nil
	}
	return result.URL, nil
}
