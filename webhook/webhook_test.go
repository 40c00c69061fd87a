package webhook

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Maclenn77/ticha/citation"
	"github.com/Maclenn77/ticha/config"
	"github.com/Maclenn77/ticha/models"
)

func captureServer(t *testing.T, status int) (*httptest.Server, *http.Header, *[]byte) {
	t.Helper()
	var header http.Header
	var body []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header = r.Header.Clone()
		body, _ = io.ReadAll(r.Body)
		w.WriteHeader(status)
	}))
	t.Cleanup(srv.Close)
	return srv, &header, &body
}

func TestDeliverSignsPayload(t *testing.T) {
	srv, header, body := captureServer(t, http.StatusOK)

	res := &models.ResultSet{
		Records:   []models.ManuscriptRecord{{TichaID: "Te675"}},
		SourceURL: "https://ticha.haverford.edu/en/texts/handwritten/",
		Engine:    "browser",
		Duration:  1500 * time.Millisecond,
	}
	cfg := config.WebhookConfig{URL: srv.URL, Secret: "s3cret", Timeout: 5 * time.Second}
	event := Completed("run-1", res, citation.Info(res.SourceURL))

	require.NoError(t, Deliver(context.Background(), cfg, event))

	assert.Equal(t, "application/json", header.Get("Content-Type"))
	assert.Equal(t, "Ticha-Webhook/1.0", header.Get("User-Agent"))

	mac := hmac.New(sha256.New, []byte("s3cret"))
	mac.Write(*body)
	assert.Equal(t, "sha256="+hex.EncodeToString(mac.Sum(nil)), header.Get("X-Ticha-Signature"))

	var got Event
	require.NoError(t, json.Unmarshal(*body, &got))
	assert.Equal(t, EventCompleted, got.Type)
	assert.Equal(t, "run-1", got.RunID)

	data := got.Data.(map[string]interface{})
	assert.Equal(t, float64(1), data["count"])
	assert.Equal(t, float64(1500), data["duration_ms"])
	assert.Equal(t, "browser", data["engine"])
}

func TestDeliverWithoutSecretSkipsSignature(t *testing.T) {
	srv, header, _ := captureServer(t, http.StatusOK)
	cfg := config.WebhookConfig{URL: srv.URL, Timeout: 5 * time.Second}

	serr := models.NewScrapeError(models.ErrCodeTableNotFound, "manuscripts table absent after retry", nil)
	event := Failed("run-2", "https://ticha.haverford.edu/en/texts/handwritten/", serr)

	require.NoError(t, Deliver(context.Background(), cfg, event))
	assert.Empty(t, header.Get("X-Ticha-Signature"))
}

func TestDeliverErrorStatus(t *testing.T) {
	srv, _, _ := captureServer(t, http.StatusInternalServerError)
	cfg := config.WebhookConfig{URL: srv.URL, Timeout: 5 * time.Second}

	err := Deliver(context.Background(), cfg, &Event{Type: EventCompleted})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 500")
}

func TestFailedEventCarriesErrorDetail(t *testing.T) {
	serr := models.NewScrapeError(models.ErrCodeNavigation, "dns lookup failed", nil)
	event := Failed("run-3", "https://example.org", serr)

	data, ok := event.Data.(FailedData)
	require.True(t, ok)
	require.NotNil(t, data.Error)
	assert.Equal(t, models.ErrCodeNavigation, data.Error.Code)
	assert.Equal(t, "dns lookup failed", data.Error.Message)
}
