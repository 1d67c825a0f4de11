package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/AndrewDonelson/claimcheck"
	"github.com/AndrewDonelson/claimcheck/internal/blobstore"
)

const testOrigin = "http://localhost:8233"

type memStore struct {
	mu   sync.Mutex
	recs map[string][]byte
}

func (m *memStore) Write(_ context.Context, rec blobstore.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recs[rec.ID] = rec.Data
	return nil
}

func (m *memStore) Read(_ context.Context, id string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.recs[id]
	if !ok {
		return nil, blobstore.ErrNotFound
	}
	return b, nil
}

func (m *memStore) DeleteOwner(_ context.Context, _, _ string) (int64, error) { return 0, nil }
func (m *memStore) DeleteExpired(_ context.Context, _ time.Time) (int64, error) {
	return 0, nil
}
func (m *memStore) Ping(_ context.Context) error  { return nil }
func (m *memStore) Close(_ context.Context) error { return nil }

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	codec := claimcheck.NewCodec(&memStore{recs: make(map[string][]byte)}, claimcheck.Options{})
	t.Cleanup(func() { codec.Close(context.Background()) })

	srv := httptest.NewServer(newRouter(&codecServer{
		codec:    codec,
		uiOrigin: testOrigin,
		logger:   zap.NewNop().Sugar(),
	}))
	t.Cleanup(srv.Close)
	return srv
}

func postPayloads(t *testing.T, url string, payloads []claimcheck.Payload) payloadsBody {
	t.Helper()
	body, err := json.Marshal(payloadsBody{Payloads: payloads})
	require.NoError(t, err)

	resp, err := http.Post(url, "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out payloadsBody
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestServer_EncodeDecodeRoundTrip(t *testing.T) {
	srv := newTestServer(t)

	original := claimcheck.Payload{
		Metadata: map[string][]byte{"encoding": []byte("json/plain")},
		Data:     []byte(`{"hello":"world"}`),
	}

	encoded := postPayloads(t, srv.URL+"/encode", []claimcheck.Payload{original})
	require.Len(t, encoded.Payloads, 1)
	assert.True(t, encoded.Payloads[0].IsClaimChecked())

	decoded := postPayloads(t, srv.URL+"/decode", encoded.Payloads)
	require.Len(t, decoded.Payloads, 1)
	assert.Equal(t, original, decoded.Payloads[0])
}

func TestServer_DecodePassesPlainPayloadsThrough(t *testing.T) {
	srv := newTestServer(t)

	plain := claimcheck.Payload{Data: []byte("untouched")}
	out := postPayloads(t, srv.URL+"/decode", []claimcheck.Payload{plain})
	require.Len(t, out.Payloads, 1)
	assert.Equal(t, plain, out.Payloads[0])
}

func TestServer_MalformedBody(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Post(srv.URL+"/encode", "application/json",
		bytes.NewReader([]byte("{not json")))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestServer_CORSPreflight(t *testing.T) {
	srv := newTestServer(t)

	req, err := http.NewRequest(http.MethodOptions, srv.URL+"/decode", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", testOrigin)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, testOrigin, resp.Header.Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "POST", resp.Header.Get("Access-Control-Allow-Methods"))
}

func TestServer_CORSRejectsUnknownOrigin(t *testing.T) {
	srv := newTestServer(t)

	req, err := http.NewRequest(http.MethodOptions, srv.URL+"/decode", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://evil.example.com")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Empty(t, resp.Header.Get("Access-Control-Allow-Origin"))
}
