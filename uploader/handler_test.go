package uploader

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

type mockStore struct {
	echoes   []Echo
	err      error
	flagged  map[string]string
	uploaded map[string]string
}

func newMockStore(echoes []Echo, err error) *mockStore {
	return &mockStore{
		echoes:   echoes,
		err:      err,
		flagged:  make(map[string]string),
		uploaded: make(map[string]string),
	}
}

func (m *mockStore) PendingUploads(ctx context.Context, priorityOnly bool) ([]Echo, error) {
	return m.echoes, m.err
}

func (m *mockStore) MarkFlagged(ctx context.Context, echoID, reason string) error {
	m.flagged[echoID] = reason
	return nil
}

func (m *mockStore) MarkUploaded(ctx context.Context, echoID, txID string) error {
	m.uploaded[echoID] = txID
	return nil
}

type mockModerator struct {
	result ModerationResult
}

func (m *mockModerator) Check(ctx context.Context, content, contentType, mediaURL string) ModerationResult {
	return m.result
}

type mockBundler struct {
	txID    string
	err     error
	payload []byte
}

func (m *mockBundler) Upload(ctx context.Context, payload []byte, tags []Tag) (string, error) {
	m.payload = payload
	return m.txID, m.err
}

func testEcho() Echo {
	return Echo{
		EchoID:        "echo_001",
		CreatorUserID: "user_42",
		Content:       "hello from the park",
		Title:         "Park Echo",
		ContentType:   "text",
		CreatedAt:     time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		IsPermanent:   true,
	}
}

func newTestServer(store EchoStore, mod Moderator, bundler Bundler) *Server {
	return NewServer(Config{InstanceConnectionName: "proj:region:instance"},
		store, mod, bundler, zerolog.Nop())
}

func doRequest(t *testing.T, srv *Server, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeResult(t *testing.T, rec *httptest.ResponseRecorder) BatchResult {
	t.Helper()
	var result BatchResult
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	return result
}

func TestPreflight(t *testing.T) {
	srv := newTestServer(newMockStore(nil, nil), &mockModerator{}, &mockBundler{})
	rec := doRequest(t, srv, http.MethodOptions, "/")

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "POST, GET", rec.Header().Get("Access-Control-Allow-Methods"))
	assert.Equal(t, "3600", rec.Header().Get("Access-Control-Max-Age"))
}

func TestTestModeSkipsDatabase(t *testing.T) {
	store := newMockStore(nil, errors.New("db should not be touched"))
	bundler := &mockBundler{txID: "ar_test_1"}
	srv := newTestServer(store, &mockModerator{}, bundler)

	rec := doRequest(t, srv, http.MethodPost, "/?test_mode=true")

	assert.Equal(t, http.StatusOK, rec.Code)
	var result testBatchResult
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, "test", result.Mode)
	assert.Equal(t, 1, result.Uploaded)
	assert.Equal(t, []string{"ar_test_1"}, result.TxIDs)
	assert.Empty(t, store.uploaded)

	// Test mode has no moderation results; the mock payload carries the
	// same fields as a real echo, timestamp included.
	assert.NotContains(t, rec.Body.String(), "moderation_results")
	assert.Contains(t, string(bundler.payload), `"created_at"`)
}

func TestBatchUploadsApprovedEcho(t *testing.T) {
	store := newMockStore([]Echo{testEcho()}, nil)
	mod := &mockModerator{result: ModerationResult{IsSafe: true, ModerationStatus: "approved", ModelUsed: "gemini"}}
	srv := newTestServer(store, mod, &mockBundler{txID: "ar_20260102030405_7"})

	rec := doRequest(t, srv, http.MethodPost, "/")

	assert.Equal(t, http.StatusOK, rec.Code)
	result := decodeResult(t, rec)
	assert.Equal(t, 1, result.Processed)
	assert.Equal(t, 1, result.Uploaded)
	assert.Equal(t, 0, result.Flagged)
	assert.Equal(t, []string{"ar_20260102030405_7"}, result.TxIDs)
	assert.Equal(t, "ar_20260102030405_7", store.uploaded["echo_001"])
	assert.Len(t, result.ModerationResults, 1)
	assert.Equal(t, "gemini", result.ModerationResults[0].Model)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestBatchFlagsUnsafeEcho(t *testing.T) {
	store := newMockStore([]Echo{testEcho()}, nil)
	mod := &mockModerator{result: ModerationResult{
		IsSafe:           false,
		ModerationStatus: "flagged",
		FlagReason:       "unsafe content",
	}}
	srv := newTestServer(store, mod, &mockBundler{txID: "ar_should_not_happen"})

	rec := doRequest(t, srv, http.MethodPost, "/")

	result := decodeResult(t, rec)
	assert.Equal(t, 1, result.Flagged)
	assert.Equal(t, 0, result.Uploaded)
	assert.Empty(t, result.TxIDs)
	assert.Equal(t, "unsafe content", store.flagged["echo_001"])
	assert.Empty(t, store.uploaded)
}

func TestBatchFailClosedOnModerationError(t *testing.T) {
	store := newMockStore([]Echo{testEcho()}, nil)
	mod := &mockModerator{result: ModerationResult{
		IsSafe:           false,
		ModerationStatus: "error",
		FlagReason:       "Moderation check failed: connection refused",
	}}
	srv := newTestServer(store, mod, &mockBundler{txID: "ar_nope"})

	rec := doRequest(t, srv, http.MethodPost, "/")

	result := decodeResult(t, rec)
	assert.Equal(t, 1, result.Flagged)
	assert.Equal(t, 0, result.Uploaded)
	assert.Contains(t, store.flagged["echo_001"], "Moderation check failed")
}

func TestSkipModerationUploadsWithoutCheck(t *testing.T) {
	store := newMockStore([]Echo{testEcho()}, nil)
	mod := &mockModerator{result: ModerationResult{IsSafe: false, ModerationStatus: "flagged"}}
	srv := newTestServer(store, mod, &mockBundler{txID: "ar_skip"})

	rec := doRequest(t, srv, http.MethodPost, "/?skip_moderation=true")

	result := decodeResult(t, rec)
	assert.Equal(t, 1, result.Uploaded)
	assert.Equal(t, 0, result.Flagged)
	assert.Empty(t, result.ModerationResults)
	assert.Contains(t, rec.Body.String(), `"moderation_results":[]`)
}

func TestEmptyBatchKeepsListFieldsPresent(t *testing.T) {
	store := newMockStore(nil, nil)
	srv := newTestServer(store, &mockModerator{}, &mockBundler{})

	rec := doRequest(t, srv, http.MethodPost, "/")

	assert.Equal(t, http.StatusOK, rec.Code)
	result := decodeResult(t, rec)
	assert.Equal(t, 0, result.Processed)
	assert.Contains(t, rec.Body.String(), `"tx_ids":[]`)
	assert.Contains(t, rec.Body.String(), `"moderation_results":[]`)
}

func TestPayloadKeepsSubSecondTimestamp(t *testing.T) {
	echo := testEcho()
	echo.CreatedAt = time.Date(2026, 1, 2, 3, 4, 5, 123456000, time.UTC)
	store := newMockStore([]Echo{echo}, nil)
	bundler := &mockBundler{txID: "ar_ts"}
	srv := newTestServer(store, &mockModerator{result: ModerationResult{IsSafe: true}}, bundler)

	doRequest(t, srv, http.MethodPost, "/")

	var payload arweavePayload
	assert.NoError(t, json.Unmarshal(bundler.payload, &payload))
	assert.Equal(t, "2026-01-02T03:04:05.123456Z", payload.CreatedAt)
}

func TestBundlerFailureCountsAsFailed(t *testing.T) {
	store := newMockStore([]Echo{testEcho()}, nil)
	mod := &mockModerator{result: ModerationResult{IsSafe: true, ModerationStatus: "approved"}}
	srv := newTestServer(store, mod, &mockBundler{err: errors.New("bundler down")})

	rec := doRequest(t, srv, http.MethodPost, "/")

	result := decodeResult(t, rec)
	assert.Equal(t, 1, result.Processed)
	assert.Equal(t, 1, result.Failed)
	assert.Equal(t, 0, result.Uploaded)
	assert.Empty(t, store.uploaded)
}

func TestDatabaseErrorReturns500WithInstance(t *testing.T) {
	store := newMockStore(nil, errors.New("connection refused"))
	srv := newTestServer(store, &mockModerator{}, &mockBundler{})

	rec := doRequest(t, srv, http.MethodPost, "/")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	var body map[string]string
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "proj:region:instance", body["instance"])
	assert.Contains(t, body["error"], "connection refused")
}
