package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opentimber/fieldsync/internal/config"
	"github.com/opentimber/fieldsync/internal/logger"
	"github.com/opentimber/fieldsync/internal/utils"
	"github.com/opentimber/fieldsync/models"
)

const testToken = "Bearer test-device-token"

func newTestHandler(t *testing.T, hashKey string, startOffline bool) (*Handler, *httptest.Server) {
	t.Helper()
	h := NewHandler(&config.StubConfig{
		Stub: config.Stub{StartOffline: startOffline},
		App:  config.App{HashKey: hashKey},
	}, logger.Nop())

	srv := httptest.NewServer(h.Init())
	t.Cleanup(srv.Close)
	return h, srv
}

func submitBody(t *testing.T, id, hashKey string) []byte {
	t.Helper()
	payload := json.RawMessage(`{"species":"pine","volume_m3":12.5}`)
	req := models.SubmitRequest{
		ID:         id,
		Kind:       "volume-entry",
		Payload:    payload,
		EnqueuedAt: time.Now().UTC(),
	}
	if hashKey != "" {
		req.Hash = utils.HashString(string(payload), hashKey)
	}

	raw, err := json.Marshal(req)
	require.NoError(t, err)
	return raw
}

func doPost(t *testing.T, url string, body []byte, authorized bool) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if authorized {
		req.Header.Set("Authorization", testToken)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

// ── Health ──────────────────────────────────────────────────────────────────

func TestHealth(t *testing.T) {
	_, srv := newTestHandler(t, "", false)

	resp, err := http.Get(srv.URL + "/api/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestHealth_OfflineSimulation(t *testing.T) {
	_, srv := newTestHandler(t, "", true)

	resp, err := http.Get(srv.URL + "/api/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	var body models.OfflineResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.True(t, body.Offline)
	assert.NotEmpty(t, body.Error)
	assert.NotEmpty(t, body.Message)
}

// ── Submit ──────────────────────────────────────────────────────────────────

func TestSubmit_AcceptsAndDeduplicates(t *testing.T) {
	h, srv := newTestHandler(t, "", false)
	body := submitBody(t, "r-1", "")

	resp := doPost(t, srv.URL+"/api/records/submit", body, true)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var first models.SubmitResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&first))
	assert.Equal(t, "r-1", first.ID)
	assert.False(t, first.Duplicate)

	// resubmission of the same id is acknowledged, not double-recorded
	resp = doPost(t, srv.URL+"/api/records/submit", body, true)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var second models.SubmitResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&second))
	assert.True(t, second.Duplicate)

	assert.Equal(t, 1, h.AcceptedCount())
}

func TestSubmit_RequiresDeviceToken(t *testing.T) {
	h, srv := newTestHandler(t, "", false)

	resp := doPost(t, srv.URL+"/api/records/submit", submitBody(t, "r-1", ""), false)

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Zero(t, h.AcceptedCount())
}

func TestSubmit_RejectsMissingID(t *testing.T) {
	_, srv := newTestHandler(t, "", false)

	resp := doPost(t, srv.URL+"/api/records/submit", submitBody(t, "", ""), true)

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSubmit_VerifiesPayloadHash(t *testing.T) {
	const hashKey = "shared-transport-key"
	utils.InitHasherPool(hashKey)

	h, srv := newTestHandler(t, hashKey, false)

	// correctly signed submission passes
	resp := doPost(t, srv.URL+"/api/records/submit", submitBody(t, "r-1", hashKey), true)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 1, h.AcceptedCount())

	// wrong key fails the integrity check
	resp = doPost(t, srv.URL+"/api/records/submit", submitBody(t, "r-2", "some-other-key"), true)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, 1, h.AcceptedCount())
}

// ── Backups ─────────────────────────────────────────────────────────────────

func TestUploadBackup(t *testing.T) {
	h, srv := newTestHandler(t, "", false)

	record := models.BackupRecord{
		ID:        "b-1",
		CreatedAt: time.Now().UTC(),
		Kind:      models.BackupKindCloud,
		Payload: map[string]json.RawMessage{
			"preferences": json.RawMessage(`{"lang":"fi"}`),
		},
	}
	raw, err := json.Marshal(record)
	require.NoError(t, err)

	resp := doPost(t, srv.URL+"/api/backups", raw, true)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	received := h.ReceivedBackups()
	require.Len(t, received, 1)
	assert.Equal(t, "b-1", received[0].ID)
	assert.Equal(t, models.BackupKindCloud, received[0].Kind)
}

// ── Offline toggle ──────────────────────────────────────────────────────────

func TestOfflineToggle(t *testing.T) {
	h, srv := newTestHandler(t, "", false)

	// data routes answer 503 with the offline body while offline
	resp := doPost(t, srv.URL+"/admin/offline", []byte(`{"offline":true}`), false)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, h.Offline())

	resp = doPost(t, srv.URL+"/api/records/submit", submitBody(t, "r-1", ""), true)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	var body models.OfflineResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.True(t, body.Offline)

	// ...and recover after toggling back
	resp = doPost(t, srv.URL+"/admin/offline", []byte(`{"offline":false}`), false)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = doPost(t, srv.URL+"/api/records/submit", submitBody(t, "r-1", ""), true)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 1, h.AcceptedCount())
}

// ── Method handling ─────────────────────────────────────────────────────────

func TestUnsupportedMethodAnswers404(t *testing.T) {
	_, srv := newTestHandler(t, "", false)

	req, err := http.NewRequest(http.MethodDelete, srv.URL+"/api/health", nil)
	require.NoError(t, err)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
