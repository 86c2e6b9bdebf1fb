package settings

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPClient_Fetch(t *testing.T) {
	var requests int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		assert.Equal(t, "/devportal/services/settings", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"identityProvider":{"external":true},"app":{}}`))
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL+"/devportal/services/settings", nil)
	s, err := client.Fetch(context.Background())
	require.NoError(t, err)
	assert.True(t, s.IdentityProvider.External)
	assert.Equal(t, 1, requests)
	assert.Equal(t, server.URL+"/devportal/services/settings", client.URL())
}

func TestHTTPClient_FetchErrors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		check   func(t *testing.T, err error)
	}{
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			},
			check: func(t *testing.T, err error) {
				assert.True(t, errors.Is(err, ErrUnexpectedStatus))
				assert.Contains(t, err.Error(), "HTTP 500")
			},
		},
		{
			name: "unauthorized",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusUnauthorized)
			},
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, ErrUnexpectedStatus)
			},
		},
		{
			name: "malformed body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`<html>`))
			},
			check: func(t *testing.T, err error) {
				assert.ErrorContains(t, err, "failed to parse settings")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(tt.handler)
			defer server.Close()

			s, err := NewHTTPClient(server.URL, nil).Fetch(context.Background())
			require.Error(t, err)
			assert.Nil(t, s)
			tt.check(t, err)
		})
	}
}

func TestHTTPClient_TransportError(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	_, err := NewHTTPClient(url, nil).Fetch(context.Background())
	assert.ErrorContains(t, err, "failed to fetch settings")
}

func TestStaticAndClientFunc(t *testing.T) {
	want := &Settings{IdentityProvider: IdentityProvider{External: true}}
	got, err := Static(want).Fetch(context.Background())
	require.NoError(t, err)
	assert.Same(t, want, got)

	failing := ClientFunc(func(ctx context.Context) (*Settings, error) {
		return nil, errors.New("boom")
	})
	_, err = failing.Fetch(context.Background())
	assert.EqualError(t, err, "boom")
}
