package uplink

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPAPILoginAndUpload(t *testing.T) {
	var gotLogin map[string]any
	var gotAuth, gotBody string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		switch r.URL.Path {
		case "/auth/battery-login":
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&gotLogin))
			_, _ = w.Write([]byte(`{"access_token":"abc123","token_type":"bearer"}`))
		case "/webhook/live-data":
			gotAuth = r.Header.Get("Authorization")
			b, _ := io.ReadAll(r.Body)
			gotBody = string(b)
			w.WriteHeader(http.StatusOK)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	api := NewHTTPAPI(srv.URL+"/", 7, "s3cret", srv.Client())

	token, err := api.Login(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "abc123", token)
	assert.Equal(t, map[string]any{"battery_id": float64(7), "battery_secret": "s3cret"}, gotLogin)

	require.NoError(t, api.Upload(context.Background(), token, []byte(`{"battery_id":7}`)))
	assert.Equal(t, "Bearer abc123", gotAuth)
	assert.Equal(t, `{"battery_id":7}`, gotBody)
}

func TestHTTPAPILoginNoToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"detail":"ok"}`))
	}))
	defer srv.Close()

	_, err := NewHTTPAPI(srv.URL, 1, "x", nil).Login(context.Background())

	assert.ErrorIs(t, err, ErrNoToken)
}

func TestHTTPAPIErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()
	api := NewHTTPAPI(srv.URL, 1, "x", nil)

	_, err := api.Login(context.Background())
	assert.ErrorContains(t, err, "status 401")

	err = api.Upload(context.Background(), "t", []byte("{}"))
	assert.ErrorContains(t, err, "status 401")
}

func TestHTTPAPIBadJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	}))
	defer srv.Close()

	_, err := NewHTTPAPI(srv.URL, 1, "x", nil).Login(context.Background())

	assert.ErrorContains(t, err, "decode login response")
}
