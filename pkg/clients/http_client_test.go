package clients

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPClient_Post(t *testing.T) {
	var gotBody, gotContentType string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		gotContentType = r.Header.Get("Content-Type")
		w.WriteHeader(http.StatusAccepted)
		_, _ = w.Write([]byte("ok"))
	}))
	defer server.Close()

	client := NewHTTPClient()
	headers := http.Header{"Content-Type": []string{"application/json"}}

	status, body, err := client.Post(context.Background(), server.URL, headers, []byte(`{"kind":"integrity"}`))

	require.NoError(t, err)
	assert.Equal(t, http.StatusAccepted, status)
	assert.Equal(t, "ok", string(body))
	assert.Equal(t, `{"kind":"integrity"}`, gotBody)
	assert.Equal(t, "application/json", gotContentType)
}

func TestHTTPClient_PostUnreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	client := NewHTTPClient()
	_, _, err := client.Post(context.Background(), url, nil, nil)

	assert.Error(t, err)
}

type stubClient struct {
	status int
}

func (s *stubClient) Do(*http.Request) (*http.Response, error) { return nil, nil }

func (s *stubClient) Post(context.Context, string, http.Header, []byte) (int, []byte, error) {
	return s.status, nil, nil
}

func TestHTTPClient_SetClient(t *testing.T) {
	client := NewHTTPClient()
	client.SetClient(&stubClient{status: http.StatusTeapot})

	status, _, err := client.Post(context.Background(), "http://unused", nil, nil)

	assert.NoError(t, err)
	assert.Equal(t, http.StatusTeapot, status)
}
