package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/hyperjump/futago/internal/models"
	"github.com/hyperjump/futago/internal/review"
)

// postJSON posts body (nil for none) to serverURL+path and decodes the response into out.
func postJSON(serverURL, path string, body interface{}, out interface{}) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(b)
	}
	resp, err := http.Post(strings.TrimRight(serverURL, "/")+path, "application/json", reader)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return serverError(resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// serverError turns a non-2xx response into an error, preferring the API's error message.
func serverError(resp *http.Response) error {
	b, _ := io.ReadAll(resp.Body)
	var apiErr struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(b, &apiErr) == nil && apiErr.Error != "" {
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, apiErr.Error)
	}
	return fmt.Errorf("server returned %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
}

func scanViaHTTP(serverURL string) (*review.Report, error) {
	var report review.Report
	if err := postJSON(serverURL, "/api/v1/scan?wait=true", nil, &report); err != nil {
		return nil, err
	}
	return &report, nil
}

func deleteViaHTTP(serverURL, groupID, path string) (*models.Document, error) {
	var doc models.Document
	endpoint := "/api/v1/groups/" + url.PathEscape(groupID) + "/delete"
	if err := postJSON(serverURL, endpoint, map[string]string{"path": path}, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// historyViaHTTP calls the undo or redo endpoint.
func historyViaHTTP(serverURL, command string) (*models.Document, error) {
	var doc models.Document
	if err := postJSON(serverURL, "/api/v1/"+command, nil, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}
