package gmail

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"inbox-dashboard/internal/logger"
	"inbox-dashboard/internal/model"
)

func TestSearchQuery(t *testing.T) {
	day := time.Date(2025, 6, 2, 15, 4, 5, 0, time.UTC)
	assert.Equal(t, "in:inbox after:2025/06/02", SearchQuery(model.Since(day)))
	assert.Equal(t, "in:inbox after:2025/06/02 before:2025/06/03", SearchQuery(model.On(day)))
}

func TestDecodeRaw(t *testing.T) {
	msg := []byte("Subject: hi?\r\n\r\nbody>>\r\n")

	padded := base64.URLEncoding.EncodeToString(msg)
	got, err := decodeRaw(padded)
	require.NoError(t, err)
	assert.Equal(t, msg, got)

	unpadded := base64.RawURLEncoding.EncodeToString(msg)
	got, err = decodeRaw(unpadded)
	require.NoError(t, err)
	assert.Equal(t, msg, got)

	_, err = decodeRaw("***")
	assert.Error(t, err)
}

func newFakeGmail(t *testing.T, raw map[string]string) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.URL.Path == "/gmail/v1/users/me/messages":
			assert.True(t, strings.HasPrefix(r.URL.Query().Get("q"), "in:inbox after:"))
			if r.URL.Query().Get("pageToken") == "" {
				json.NewEncoder(w).Encode(map[string]interface{}{
					"messages":      []map[string]string{{"id": "m3"}, {"id": "m2"}},
					"nextPageToken": "p2",
				})
				return
			}
			json.NewEncoder(w).Encode(map[string]interface{}{
				"messages": []map[string]string{{"id": "m1"}},
			})
		case strings.HasPrefix(r.URL.Path, "/gmail/v1/users/me/messages/"):
			id := strings.TrimPrefix(r.URL.Path, "/gmail/v1/users/me/messages/")
			assert.Equal(t, "raw", r.URL.Query().Get("format"))
			body, ok := raw[id]
			if !ok {
				w.WriteHeader(http.StatusNotFound)
				w.Write([]byte(`{"error":{"code":404,"message":"not found"}}`))
				return
			}
			json.NewEncoder(w).Encode(map[string]string{
				"id":  id,
				"raw": base64.URLEncoding.EncodeToString([]byte(body)),
			})
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
}

func TestGmailSessionSearchAndFetch(t *testing.T) {
	server := newFakeGmail(t, map[string]string{"m2": "Subject: second\r\n\r\nhello\r\n"})
	defer server.Close()

	transport := NewGmailTransport(Options{
		Endpoint:   server.URL + "/",
		HTTPClient: server.Client(),
	}, logger.NewWithWriter(&bytes.Buffer{}))

	ctx := context.Background()
	session, err := transport.Connect(ctx)
	require.NoError(t, err)
	defer session.Close()

	ids, err := session.Search(ctx, model.Since(time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)))
	require.NoError(t, err)
	assert.Equal(t, []string{"m1", "m2", "m3"}, ids)

	raw, err := session.Fetch(ctx, "m2")
	require.NoError(t, err)
	assert.Equal(t, "Subject: second\r\n\r\nhello\r\n", string(raw))

	_, err = session.Fetch(ctx, "missing")
	assert.Error(t, err)
}

func TestGmailSearchStopsAtMaxIDs(t *testing.T) {
	server := newFakeGmail(t, nil)
	defer server.Close()

	transport := NewGmailTransport(Options{
		Endpoint:   server.URL + "/",
		HTTPClient: server.Client(),
		MaxIDs:     2,
	}, logger.NewWithWriter(&bytes.Buffer{}))

	session, err := transport.Connect(context.Background())
	require.NoError(t, err)

	ids, err := session.Search(context.Background(), model.Since(time.Now()))
	require.NoError(t, err)
	assert.Equal(t, []string{"m2", "m3"}, ids)
}

func TestConnectWithoutCredentials(t *testing.T) {
	_, err := NewGmailTransport(Options{}, logger.NewWithWriter(&bytes.Buffer{})).Connect(context.Background())
	assert.Error(t, err)
}

func TestMockMailSession(t *testing.T) {
	session := NewMockMailSession()
	session.Add("1", []byte("a"))
	session.Add("2", []byte("b"))

	transport := NewMockMailTransport(session)
	s, err := transport.Connect(context.Background())
	require.NoError(t, err)

	ids, err := s.Search(context.Background(), model.Since(time.Now()))
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2"}, ids)

	_, err = s.Fetch(context.Background(), "3")
	assert.Error(t, err)
	require.NoError(t, s.Close())
	assert.True(t, session.Closed)
}
