package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testGateway(url string) *Gateway {
	return NewGateway(url, "s3cret", "Trattoria Anderle", 2*time.Second, zerolog.Nop())
}

func TestSendAcknowledged(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	err := testGateway(srv.URL).Send(context.Background(), Message{
		To:       "guest@example.com",
		Subject:  "Your reservation",
		Body:     "plain",
		HTMLBody: "<p>html</p>",
	})
	require.NoError(t, err)

	assert.Equal(t, "s3cret", got["secret"])
	assert.Equal(t, "guest@example.com", got["to"])
	assert.Equal(t, "Your reservation", got["subject"])
	assert.Equal(t, "<p>html</p>", got["htmlBody"])
	assert.Equal(t, "Trattoria Anderle", got["name"])
}

func TestSendNotAcknowledgedDespite200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"ok":false,"error":"quota exceeded"}`))
	}))
	defer srv.Close()

	err := testGateway(srv.URL).Send(context.Background(), Message{To: "guest@example.com"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quota exceeded")
}

func TestSendMalformedResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>gateway error</html>`))
	}))
	defer srv.Close()

	err := testGateway(srv.URL).Send(context.Background(), Message{To: "guest@example.com"})
	assert.Error(t, err)
}

func TestSendWithoutURL(t *testing.T) {
	err := testGateway("").Send(context.Background(), Message{To: "guest@example.com"})
	assert.Error(t, err)
}

func TestSendTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	g := NewGateway(srv.URL, "s", "n", 50*time.Millisecond, zerolog.Nop())
	err := g.Send(context.Background(), Message{To: "guest@example.com"})
	assert.Error(t, err)
}
