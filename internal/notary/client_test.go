package notary

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotarize_Success(t *testing.T) {
	var received map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		json.NewEncoder(w).Encode(map[string]string{"tx_hash": "0xdeadbeef"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second, nil)
	ref, err := c.Notarize(context.Background(), "abc123hash")
	require.NoError(t, err)
	assert.Equal(t, "0xdeadbeef", ref)

	// The request carries the hash and a timestamp, never a raw account id.
	assert.Equal(t, "abc123hash", received["account_hash"])
	assert.NotEmpty(t, received["observed_at"])
}

func TestNotarize_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second, nil)
	ref, err := c.Notarize(context.Background(), "abc")
	assert.Error(t, err)
	assert.Empty(t, ref)
}

func TestNotarize_EmptyReference(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"tx_hash": ""})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second, nil)
	_, err := c.Notarize(context.Background(), "abc")
	assert.Error(t, err)
}

func TestNotarize_MalformedResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second, nil)
	_, err := c.Notarize(context.Background(), "abc")
	assert.Error(t, err)
}

func TestNotarize_RespectsContextCancellation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second, nil)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := c.Notarize(ctx, "abc")
	assert.Error(t, err)
}
