package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/walteh/toonsync/pkg/charid"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *ESIClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewESIClient(ESIOptions{BaseURL: srv.URL, BatchLimit: 10})
}

func TestESILookupBulk(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/universe/names/", r.URL.Path)
		require.Equal(t, "tranquility", r.URL.Query().Get("datasource"))

		var ids []charid.CharacterID
		require.NoError(t, json.NewDecoder(r.Body).Decode(&ids))
		assert.Equal(t, []charid.CharacterID{100, 200}, ids)

		fmt.Fprint(w, `[
			{"id": 100, "name": "Alpha", "category": "character"},
			{"id": 200, "name": "Bravo", "category": "character"},
			{"id": 999, "name": "Some Corp", "category": "corporation"}
		]`)
	})

	names, err := client.Lookup(context.Background(), []charid.CharacterID{100, 200})
	require.NoError(t, err)
	assert.Equal(t, map[charid.CharacterID]string{100: "Alpha", 200: "Bravo"}, names)
}

func TestESILookupFallsBackPerCharacter(t *testing.T) {
	// The bulk endpoint 404s the whole batch when any id is unknown; the
	// client must retry per character so the valid id still resolves.
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/universe/names/":
			w.WriteHeader(http.StatusNotFound)
		case strings.HasPrefix(r.URL.Path, "/characters/100/"):
			fmt.Fprint(w, `{"name": "Alpha", "corporation_id": 1}`)
		case strings.HasPrefix(r.URL.Path, "/characters/200/"):
			w.WriteHeader(http.StatusNotFound)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	})

	names, err := client.Lookup(context.Background(), []charid.CharacterID{100, 200})
	require.NoError(t, err)
	assert.Equal(t, map[charid.CharacterID]string{100: "Alpha"}, names)
}

func TestESILookupServiceError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := client.Lookup(context.Background(), []charid.CharacterID{100})
	assert.ErrorIs(t, err, ErrServiceError)
}

func TestESILookupMalformedResponse(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"this is": "not an array"`)
	})

	_, err := client.Lookup(context.Background(), []charid.CharacterID{100})
	assert.ErrorIs(t, err, ErrMalformedResponse)
}

func TestESILookupNetworkUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	client := NewESIClient(ESIOptions{BaseURL: srv.URL, BatchLimit: 10})
	srv.Close()

	_, err := client.Lookup(context.Background(), []charid.CharacterID{100})
	assert.ErrorIs(t, err, ErrNetworkUnavailable)
}

func TestESILookupRespectsBatchLimit(t *testing.T) {
	client := NewESIClient(ESIOptions{BaseURL: "http://unused", BatchLimit: 2})
	_, err := client.Lookup(context.Background(), []charid.CharacterID{1, 2, 3})
	assert.Error(t, err)
}

func TestESILookupEmpty(t *testing.T) {
	client := NewESIClient(ESIOptions{BaseURL: "http://unused"})
	names, err := client.Lookup(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, names)
}
