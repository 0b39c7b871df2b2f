package storage

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"path/filepath"

	"github.com/google/uuid"
)

// SupabaseStorage is the blob-storage collaborator: it durably stores
// uploaded bytes and hands back a stable public URL. The data model only ever
// records that URL.
type SupabaseStorage struct {
	URL            string
	ServiceRoleKey string
}

func NewSupabaseStorage(url, serviceRoleKey string) *SupabaseStorage {
	return &SupabaseStorage{
		URL:            url,
		ServiceRoleKey: serviceRoleKey,
	}
}

// Upload stores the bytes under a freshly generated object name in the given
// bucket and returns the public URL.
func (s *SupabaseStorage) Upload(bucket, originalName, contentType string, content []byte) (string, error) {
	objectName := uuid.New().String() + filepath.Ext(originalName)

	uploadURL := fmt.Sprintf("%s/storage/v1/object/%s/%s", s.URL, bucket, objectName)
	req, err := http.NewRequest("POST", uploadURL, bytes.NewReader(content))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+s.ServiceRoleKey)
	req.Header.Set("Content-Type", contentType)

	client := &http.Client{}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to upload file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("upload failed with status %d: %s", resp.StatusCode, string(body))
	}

	return fmt.Sprintf("%s/storage/v1/object/public/%s/%s", s.URL, bucket, objectName), nil
}

// Delete removes an object from a bucket.
func (s *SupabaseStorage) Delete(bucket, objectName string) error {
	deleteURL := fmt.Sprintf("%s/storage/v1/object/%s/%s", s.URL, bucket, objectName)
	req, err := http.NewRequest("DELETE", deleteURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create delete request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+s.ServiceRoleKey)

	client := &http.Client{}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("delete failed with status %d: %s", resp.StatusCode, string(body))
	}

	return nil
}
