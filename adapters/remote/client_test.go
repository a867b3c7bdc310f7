package remote

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"windaep/domain/core"
	"windaep/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_Solve(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, IntegratePath, r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)

		var req ports.IntegrationRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		sum := 0.0
		for _, v := range req.Values {
			sum += v
		}
		json.NewEncoder(w).Encode(ports.IntegrationResponse{ID: req.ID, Value: sum})
	}))
	defer srv.Close()

	client, err := NewClient(Config{BaseURL: srv.URL + "/", Timeout: time.Second})
	require.NoError(t, err)

	resp, err := client.Solve(context.Background(), ports.IntegrationRequest{ID: "abc", Values: []float64{1.5, 2.5}})
	require.NoError(t, err)
	assert.Equal(t, core.RequestID("abc"), resp.ID)
	assert.Equal(t, 4.0, resp.Value)
}

func TestClient_Failures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"server error", func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "tool crashed", http.StatusBadGateway)
		}},
		{"garbage body", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("not json"))
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			client, err := NewClient(Config{BaseURL: srv.URL})
			require.NoError(t, err)

			_, err = client.Solve(context.Background(), ports.IntegrationRequest{Values: []float64{1}})
			assert.True(t, core.IsExternalToolError(err), "got %v", err)
		})
	}
}

func TestClient_RejectsResponseWithoutValue(t *testing.T) {
	bodies := map[string]string{
		"empty object": `{}`,
		"null value":   `{"value":null}`,
		"status only":  `{"status":"queued"}`,
		"out of range": `{"value":1e999}`,
		"string value": `{"value":"12"}`,
	}

	for name, body := range bodies {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.Write([]byte(body))
			}))
			defer srv.Close()

			client, err := NewClient(Config{BaseURL: srv.URL})
			require.NoError(t, err)

			resp, err := client.Solve(context.Background(), ports.IntegrationRequest{Values: []float64{1, 2}})
			assert.True(t, core.IsExternalToolError(err), "got %v", err)
			assert.ErrorIs(t, err, core.ErrResultInvalid)
			assert.Zero(t, resp.Value)
		})
	}
}

func TestClient_AcceptsZeroValue(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id":"r1","value":0}`))
	}))
	defer srv.Close()

	client, err := NewClient(Config{BaseURL: srv.URL})
	require.NoError(t, err)

	resp, err := client.Solve(context.Background(), ports.IntegrationRequest{Values: []float64{0}})
	require.NoError(t, err)
	assert.Equal(t, core.RequestID("r1"), resp.ID)
	assert.Equal(t, 0.0, resp.Value)
}

func TestClient_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	client, err := NewClient(Config{BaseURL: url, Timeout: time.Second})
	require.NoError(t, err)

	_, err = client.Solve(context.Background(), ports.IntegrationRequest{Values: []float64{1}})
	assert.True(t, core.IsExternalToolError(err), "got %v", err)
}

func TestNewClient_RequiresURL(t *testing.T) {
	_, err := NewClient(Config{BaseURL: "  "})
	assert.ErrorIs(t, err, core.ErrInvalidOptions)
}
