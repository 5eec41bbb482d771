package checker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// ErrDetection covers every reason a cycle could not read the vendor's
// current release.
var ErrDetection = errors.New("version detection failed")

type downloadResponse struct {
	DownloadURL string `json:"downloadUrl"`
}

// VendorClient reads the release pointer from the vendor download API.
type VendorClient struct {
	client *http.Client
	url    string
}

// NewVendorClient follows redirects even when the shared client does not.
func NewVendorClient(client *http.Client, url string) *VendorClient {
	c := *client
	c.CheckRedirect = nil
	return &VendorClient{client: &c, url: url}
}

func (v *VendorClient) DownloadURL(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.url, nil)
	if err != nil {
		return "", fmt.Errorf("%w: build request: %v", ErrDetection, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := v.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDetection, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("%w: vendor responded %s", ErrDetection, resp.Status)
	}

	var body downloadResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&body); err != nil {
		return "", fmt.Errorf("%w: decode response: %v", ErrDetection, err)
	}
	if body.DownloadURL == "" {
		return "", fmt.Errorf("%w: response has no downloadUrl", ErrDetection)
	}
	return body.DownloadURL, nil
}
