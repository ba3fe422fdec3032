// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/toonsync/pkg/charid"
)

// Failure taxonomy for lookups. These are recorded as cache state, never
// surfaced to ResolveAll callers; transport failures are distinguishable
// from "no such character" so the cache state comes out right.
var (
	ErrNetworkUnavailable = errors.New("identity service unreachable")
	ErrServiceError       = errors.New("identity service error")
	ErrMalformedResponse  = errors.New("malformed identity service response")
	ErrNotFound           = errors.New("character not found")
)

// LookupClient is the transport the resolver speaks to. Lookup resolves a
// bounded list of ids in one call and returns a name per id it found;
// ids absent from the result map do not exist on the service's side.
// Transport-level problems are returned as an error for the whole call.
type LookupClient interface {
	Lookup(ctx context.Context, ids []charid.CharacterID) (map[charid.CharacterID]string, error)
	BatchLimit() int
}

const (
	DefaultESIBaseURL    = "https://esi.evetech.net/latest"
	DefaultDatasource    = "tranquility"
	DefaultESITimeout    = 10 * time.Second
	DefaultESIBatchLimit = 500 // the bulk names endpoint caps at 1000 ids per call
)

// ESIClient resolves character names against EVE's Swagger Interface. It
// prefers the bulk names endpoint and falls back to per-character requests
// when a bulk call is rejected because it contains unknown ids (ESI answers
// 404 for the whole batch in that case).
type ESIClient struct {
	baseURL    string
	datasource string
	batchLimit int
	httpClient *http.Client
}

// ESIOptions configures an ESIClient. Zero values take defaults.
type ESIOptions struct {
	BaseURL    string
	Datasource string
	Timeout    time.Duration
	BatchLimit int
}

// NewESIClient creates a client for the public ESI endpoint.
func NewESIClient(opts ESIOptions) *ESIClient {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultESIBaseURL
	}
	if opts.Datasource == "" {
		opts.Datasource = DefaultDatasource
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultESITimeout
	}
	if opts.BatchLimit <= 0 {
		opts.BatchLimit = DefaultESIBatchLimit
	}
	return &ESIClient{
		baseURL:    opts.BaseURL,
		datasource: opts.Datasource,
		batchLimit: opts.BatchLimit,
		httpClient: &http.Client{Timeout: opts.Timeout},
	}
}

// BatchLimit returns the maximum number of ids accepted per Lookup call.
func (c *ESIClient) BatchLimit() int {
	return c.batchLimit
}

// Lookup implements LookupClient against ESI.
func (c *ESIClient) Lookup(ctx context.Context, ids []charid.CharacterID) (map[charid.CharacterID]string, error) {
	if len(ids) == 0 {
		return map[charid.CharacterID]string{}, nil
	}
	if len(ids) > c.batchLimit {
		return nil, errors.Errorf("lookup of %d ids exceeds batch limit %d", len(ids), c.batchLimit)
	}

	names, err := c.lookupBulk(ctx, ids)
	if err == nil {
		return names, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	// The bulk endpoint refused the whole batch; retry one by one so the
	// valid ids still resolve and only the unknown ones come back missing.
	zerolog.Ctx(ctx).Debug().Int("ids", len(ids)).Msg("bulk lookup rejected, retrying per character")
	return c.lookupEach(ctx, ids)
}

func (c *ESIClient) lookupBulk(ctx context.Context, ids []charid.CharacterID) (map[charid.CharacterID]string, error) {
	payload, err := json.Marshal(ids)
	if err != nil {
		return nil, errors.Errorf("encoding id list: %w", err)
	}

	reqURL := fmt.Sprintf("%s/universe/names/?datasource=%s", c.baseURL, url.QueryEscape(c.datasource))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(payload))
	if err != nil {
		return nil, errors.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Errorf("posting id list: %w", ErrNetworkUnavailable)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusNotFound:
		return nil, errors.Errorf("bulk lookup rejected: %w", ErrNotFound)
	default:
		return nil, errors.Errorf("status %d: %w", resp.StatusCode, ErrServiceError)
	}

	var entries []struct {
		ID       charid.CharacterID `json:"id"`
		Name     string             `json:"name"`
		Category string             `json:"category"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		return nil, errors.Errorf("decoding response: %w", ErrMalformedResponse)
	}

	names := make(map[charid.CharacterID]string, len(entries))
	for _, e := range entries {
		if e.Category != "" && e.Category != "character" {
			continue
		}
		names[e.ID] = e.Name
	}
	return names, nil
}

func (c *ESIClient) lookupEach(ctx context.Context, ids []charid.CharacterID) (map[charid.CharacterID]string, error) {
	names := make(map[charid.CharacterID]string, len(ids))
	for _, id := range ids {
		name, err := c.lookupOne(ctx, id)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				continue
			}
			return nil, err
		}
		names[id] = name
	}
	return names, nil
}

func (c *ESIClient) lookupOne(ctx context.Context, id charid.CharacterID) (string, error) {
	reqURL := fmt.Sprintf("%s/characters/%s/?datasource=%s", c.baseURL, id, url.QueryEscape(c.datasource))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return "", errors.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", errors.Errorf("fetching character %s: %w", id, ErrNetworkUnavailable)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusNotFound:
		return "", errors.Errorf("character %s: %w", id, ErrNotFound)
	default:
		return "", errors.Errorf("status %d: %w", resp.StatusCode, ErrServiceError)
	}

	var body struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", errors.Errorf("decoding character %s: %w", id, ErrMalformedResponse)
	}
	return body.Name, nil
}
