package client

import (
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// Facility is the static metadata the directory collaborator owns. The
// engine only ever reads it; provisioning and editing facilities happens
// elsewhere.
type Facility struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	HasOutpatient bool   `json:"has_outpatient"`
}

// DirectoryClient talks to the facility directory service.
type DirectoryClient struct {
	httpClient *HttpClient
}

func NewDirectoryClient(baseURL string, timeout time.Duration) *DirectoryClient {
	return &DirectoryClient{
		httpClient: NewHttpClient(baseURL, timeout),
	}
}

type facilityEnvelope struct {
	Data Facility `json:"data"`
}

// GetFacility returns the facility's directory record, or (nil, nil) when
// the facility does not exist.
func (c *DirectoryClient) GetFacility(facilityID string) (*Facility, error) {
	path := "/api/v1/facilities/id/" + url.PathEscape(facilityID)
	resp, err := c.httpClient.GET(path)
	if err != nil {
		return nil, fmt.Errorf("directory lookup failed: %w", err)
	}

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("directory lookup returned status %d", resp.StatusCode)
	}

	var envelope facilityEnvelope
	if err := resp.DecodeJSON(&envelope); err != nil {
		return nil, fmt.Errorf("failed to decode facility: %w", err)
	}
	return &envelope.Data, nil
}
