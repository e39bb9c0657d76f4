package httputil

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetJSON_Decodes(t *testing.T) {
	client := NewMockHTTPClient().AddResponse(http.StatusOK, `{"free_spaces":3,"frame":"Spaces: 3"}`)

	var got struct {
		FreeSpaces int    `json:"free_spaces"`
		Frame      string `json:"frame"`
	}
	require.NoError(t, GetJSON(context.Background(), client, "http://garage/api/status", &got))
	assert.Equal(t, 3, got.FreeSpaces)
	assert.Equal(t, "Spaces: 3", got.Frame)

	require.Equal(t, 1, client.RequestCount())
	assert.Equal(t, "application/json", client.Requests[0].Header.Get("Accept"))
}

func TestGetJSON_APIError(t *testing.T) {
	client := NewMockHTTPClient().AddResponse(http.StatusServiceUnavailable, `{"error":"journal disabled"}`)

	var v map[string]interface{}
	err := GetJSON(context.Background(), client, "http://garage/api/events", &v)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
	assert.Contains(t, err.Error(), "journal disabled")
}

func TestGetJSON_NonJSONError(t *testing.T) {
	client := NewMockHTTPClient().AddResponse(http.StatusBadGateway, "upstream down")

	var v map[string]interface{}
	err := GetJSON(context.Background(), client, "http://garage/api/status", &v)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status 502")
}

func TestGetJSON_TransportError(t *testing.T) {
	boom := errors.New("connection refused")
	client := NewMockHTTPClient().AddErrorResponse(boom)

	var v map[string]interface{}
	err := GetJSON(context.Background(), client, "http://garage/api/status", &v)
	assert.ErrorIs(t, err, boom)
}

func TestGetJSON_BadBody(t *testing.T) {
	client := NewMockHTTPClient().AddResponse(http.StatusOK, `{"free_spaces":`)

	var v map[string]interface{}
	assert.Error(t, GetJSON(context.Background(), client, "http://garage/api/status", &v))
}

func TestGetJSON_RealClient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		WriteJSONOK(w, map[string]string{"path": r.URL.Path})
	}))
	defer srv.Close()

	var got map[string]string
	require.NoError(t, GetJSON(context.Background(), srv.Client(), srv.URL+"/api/status", &got))
	assert.Equal(t, "/api/status", got["path"])
}
