package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/yourorg/market-dashboard/internal/model"
)

// ErrNotCSV is returned for files without a .csv extension
var ErrNotCSV = errors.New("please select a CSV file")

// Uploader sends CSV files to the upload endpoints
type Uploader struct {
	client *APIClient
}

// NewUploader creates a new uploader
func NewUploader(client *APIClient) *Uploader {
	return &Uploader{client: client}
}

// Upload posts the file at path to the daily or monthly upload endpoint
func (u *Uploader) Upload(ctx context.Context, path string, kind model.DatasetKind) (*model.UploadResult, error) {
	if !strings.EqualFold(filepath.Ext(path), ".csv") {
		return nil, ErrNotCSV
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()

	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)
	part, err := form.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if err := form.Close(); err != nil {
		return nil, err
	}

	endpoint := "/api/upload"
	if kind == model.DatasetMonthly {
		endpoint = "/api/upload-monthly"
	}
	url := u.client.baseURL + endpoint

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", form.FormDataContentType())

	resp, err := u.client.httpClient.Do(req)
	if err != nil {
		u.client.logger.Error("Failed to send upload", zap.String("url", url), zap.Error(err))
		return nil, fmt.Errorf("upload failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read upload response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("upload failed: %s", errorMessage(resp.StatusCode, body))
	}

	var result model.UploadResult
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("decode upload response: %w", err)
	}

	u.client.logger.Info("Upload completed",
		zap.String("file", filepath.Base(path)),
		zap.String("kind", string(kind)),
		zap.Int("records", result.RecordsProcessed))

	return &result, nil
}
