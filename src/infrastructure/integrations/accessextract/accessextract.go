package accessextract

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"

	"accmeta/src/core/extract"
)

// Service talks to the extraction sidecar that opens Access database files
// through the platform automation object model. The sidecar owns all
// filtering rules (system-reserved "~"/"MSys" query names, empty module
// bodies); this client persists nothing and alters nothing it receives.
type Service struct {
	baseURL string
	client  *http.Client
}

func NewService(baseURL string, client *http.Client) *Service {
	return &Service{
		baseURL: baseURL,
		client:  client,
	}
}

type extractResponse struct {
	Queries []extract.Query  `json:"queries"`
	Modules []extract.Module `json:"modules"`
}

// Extract uploads the local file to the sidecar and decodes the structured
// records it found.
func (s *Service) Extract(ctx context.Context, localPath string) ([]extract.Query, []extract.Module, error) {
	file, err := os.Open(localPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open source file: %w", err)
	}
	defer file.Close()

	var requestBody bytes.Buffer
	multipartWriter := multipart.NewWriter(&requestBody)

	fileWriter, err := multipartWriter.CreateFormFile("file", filepath.Base(localPath))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := io.Copy(fileWriter, file); err != nil {
		return nil, nil, fmt.Errorf("failed to write file content: %w", err)
	}
	multipartWriter.Close()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/v1/extract", &requestBody)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("Content-Type", multipartWriter.FormDataContentType())

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to reach extraction service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, nil, fmt.Errorf("extraction service error: %s: %s", resp.Status, bytes.TrimSpace(body))
	}

	var decoded extractResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, nil, fmt.Errorf("failed to parse extraction response: %w", err)
	}

	return decoded.Queries, decoded.Modules, nil
}
