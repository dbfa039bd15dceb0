package cdn

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vod-service/pkg/config"
	"vod-service/pkg/errno"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(config.CDNConfig{BaseURL: srv.URL, APIKey: "key", Timeout: time.Second})
}

func TestClient_CreateAndUpload(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer key", r.Header.Get("Authorization"))
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/videos":
			var body map[string]string
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "My Film", body["name"])
			_ = json.NewEncoder(w).Encode(map[string]string{"id": "v1", "name": body["name"], "status": "pending"})
		case r.Method == http.MethodGet && r.URL.Path == "/videos/v1/upload":
			_ = json.NewEncoder(w).Encode(map[string]interface{}{"upload_url": "https://up/v1", "token": "tok", "expires": 1700000000})
		default:
			w.WriteHeader(http.StatusTeapot)
		}
	})
	ctx := context.Background()

	v, err := c.CreateVideo(ctx, "My Film")
	require.NoError(t, err)
	assert.Equal(t, "v1", v.ID)

	s, err := c.GetUploadSession(ctx, "v1")
	require.NoError(t, err)
	assert.Equal(t, "https://up/v1", s.UploadURL)
	assert.Equal(t, "tok", s.Token)
	assert.Equal(t, int64(1700000000), s.Expires)
}

func TestClient_GetVideo(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id":"v1","status":"ready","duration":12.4,"manifest_url":"https://cdn/v1/master.m3u8",
			"poster_url":"https://cdn/v1/poster.jpg","total_size":3000,
			"renditions":[{"name":"720p","width":1280,"height":720,"progress":100,"status":"ready"}]}`))
	})
	v, err := c.GetVideo(context.Background(), "v1")
	require.NoError(t, err)
	assert.Equal(t, "ready", v.Status)
	assert.Equal(t, int64(3000), v.TotalSize)
	require.Len(t, v.Renditions, 1)
	assert.Equal(t, 720, v.Renditions[0].Height)
}

func TestClient_ErrorMapping(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/videos/missing" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
	})
	ctx := context.Background()

	err := c.DeleteVideo(ctx, "missing")
	assert.True(t, errno.IsNotFound(err))

	_, err = c.GetVideo(ctx, "broken")
	assert.True(t, errno.IsUpstream(err))
}

func TestClient_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	t.Cleanup(srv.Close)
	c := NewClient(config.CDNConfig{BaseURL: srv.URL, APIKey: "key", Timeout: 50 * time.Millisecond})
	_, err := c.GetVideo(context.Background(), "v1")
	assert.True(t, errno.IsUpstream(err))
}

func TestClient_NotConfigured(t *testing.T) {
	c := NewClient(config.CDNConfig{BaseURL: "http://x"})
	assert.False(t, c.Configured())
	_, err := c.GetVideo(context.Background(), "v1")
	assert.Equal(t, errno.ErrCDNNotConfigured.Code, errno.Code(err).Code)
}
