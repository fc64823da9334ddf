// Package registry is a minimal client for the crates.io REST API, used by
// the cargo backend for metadata and latest-version lookups.
package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/omnipm/omnipm/pkg/types"
	log "github.com/sirupsen/logrus"
)

var (
	cratesBaseURL = "https://crates.io/api/v1/crates"
	httpClient    = &http.Client{Timeout: 10 * time.Second}
)

// crates.io rejects anonymous/default user agents, so every request carries a
// descriptive client identifier.
const userAgent = "omnipm (+https://github.com/omnipm/omnipm)"

// SetCratesBaseURL allows configuration of the crates.io API base URL.
func SetCratesBaseURL(u string) {
	if u != "" {
		cratesBaseURL = strings.TrimSuffix(u, "/")
	}
}

// GetCratesBaseURL returns the current crates.io API base URL.
func GetCratesBaseURL() string {
	return cratesBaseURL
}

// Crate is the subset of crates.io metadata the core consumes.
type Crate struct {
	Name        string `json:"name"`
	MaxVersion  string `json:"max_version"`
	Description string `json:"description"`
	Homepage    string `json:"homepage"`
	Repository  string `json:"repository"`
}

// HomepageOrRepository returns the crate homepage, falling back to the
// repository URL when no homepage is published.
func (c *Crate) HomepageOrRepository() string {
	if c.Homepage != "" {
		return c.Homepage
	}
	return c.Repository
}

type searchResponse struct {
	Crates []Crate `json:"crates"`
}

type crateResponse struct {
	Crate Crate `json:"crate"`
}

// SearchCrates queries the crates.io search endpoint. A non-success status
// yields an empty result set rather than an error; only transport failures
// surface, as RequestError.
func SearchCrates(ctx context.Context, query string) ([]Crate, error) {
	u := fmt.Sprintf("%s?page=1&per_page=10&q=%s", cratesBaseURL, url.QueryEscape(query))

	body, status, err := get(ctx, u)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		log.Debugf("crates.io search for %q returned status %d", query, status)
		return nil, nil
	}

	var resp searchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, types.WrapError(types.SerializationError, err, "decoding crates.io search response")
	}
	return resp.Crates, nil
}

// GetCrate fetches metadata for one crate by name.
func GetCrate(ctx context.Context, name string) (*Crate, error) {
	body, status, err := get(ctx, cratesBaseURL+"/"+url.PathEscape(name))
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, types.Errorf(types.UnknownError, "crates.io returned status %d for crate %s", status, name)
	}

	var resp crateResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, types.WrapError(types.SerializationError, err, "decoding crates.io crate response")
	}
	return &resp.Crate, nil
}

func get(ctx context.Context, u string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, 0, types.WrapError(types.RequestError, err, "building crates.io request")
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, 0, types.WrapError(types.RequestError, err, "calling crates.io")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, types.WrapError(types.RequestError, err, "reading crates.io response")
	}
	return body, resp.StatusCode, nil
}
