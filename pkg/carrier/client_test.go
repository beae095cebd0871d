package carrier

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, func()) {
	srv := httptest.NewServer(handler)
	c := &Client{
		projectID:  "PROJ",
		authToken:  "secret",
		space:      "ignored",
		baseURL:    srv.URL,
		httpClient: &http.Client{Timeout: 5 * time.Second},
	}
	return c, srv.Close
}

func TestPlaceCallReturnsParsedResponseOnSuccess(t *testing.T) {
	c, cleanup := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/Accounts/PROJ/Calls.json", r.URL.Path)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "+14155550123", r.FormValue("To"))

		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(PlacedCall{SID: "CA123", To: "+14155550123", Status: "queued"})
	})
	defer cleanup()

	placed, err := c.PlaceCall(t.Context(), PlaceCallRequest{To: "+14155550123", AnswerURL: "https://agent.example.com/webhook/c1"})
	require.NoError(t, err)
	assert.Equal(t, "CA123", placed.SID)
	assert.Equal(t, "queued", placed.Status)
}

func TestDoPlaceCallFailsFastWithoutCredentials(t *testing.T) {
	c := &Client{baseURL: "http://unused", httpClient: http.DefaultClient}
	_, err := c.doPlaceCall(t.Context(), PlaceCallRequest{To: "+14155550123"})
	assert.Error(t, err)
}

func TestPlaceCallRetriesTransientServerErrorThenSucceeds(t *testing.T) {
	attempts := 0
	c, cleanup := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(PlacedCall{SID: "CA999"})
	})
	defer cleanup()

	placed, err := c.PlaceCall(t.Context(), PlaceCallRequest{To: "+14155550123"})
	require.NoError(t, err)
	assert.Equal(t, "CA999", placed.SID)
	assert.GreaterOrEqual(t, attempts, 2)
}

func TestSendSMSReturnsParsedResponseOnSuccess(t *testing.T) {
	c, cleanup := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/Accounts/PROJ/Messages.json", r.URL.Path)
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(SentMessage{SID: "SM1", Status: "sent"})
	})
	defer cleanup()

	sent, err := c.SendSMS(t.Context(), "+15005550006", "+14155550123", "thanks for your time")
	require.NoError(t, err)
	assert.Equal(t, "SM1", sent.SID)
}

func TestDoSendSMSPropagatesAPIError(t *testing.T) {
	c, cleanup := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte("invalid number"))
	})
	defer cleanup()

	_, err := c.doSendSMS(t.Context(), "+15005550006", "bad", "body")
	assert.Error(t, err)
}
