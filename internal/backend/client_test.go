package backend

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/law-makers/scrapejob/internal/reqctx"
	"github.com/law-makers/scrapejob/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRequest() models.BackendRequest {
	return models.BackendRequest{
		URL:          "https://shop.test",
		Selector:     ".item",
		NameSelector: []map[string]string{{"title": ".t"}},
	}
}

func TestSubmit_Success(t *testing.T) {
	var gotBody []byte
	var gotHeaders http.Header
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		gotHeaders = r.Header.Clone()
		gotBody, _ = io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"items":[{"title":"A"}]}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, WithUserAgent("test-agent"), WithHeaders(map[string]string{"X-Team": "crawl"}))
	ctx, _ := reqctx.New(context.Background())

	payload, err := client.Submit(ctx, sampleRequest())
	require.NoError(t, err)

	assert.JSONEq(t, `{"items":[{"title":"A"}]}`, string(payload))
	assert.JSONEq(t, `{"url":"https://shop.test","selector":".item","nameSelector":[{"title":".t"}]}`, string(gotBody))
	assert.Equal(t, "application/json", gotHeaders.Get("Content-Type"))
	assert.Equal(t, "test-agent", gotHeaders.Get("User-Agent"))
	assert.Equal(t, "crawl", gotHeaders.Get("X-Team"))
	assert.Equal(t, reqctx.RequestID(ctx), gotHeaders.Get(reqctx.HeaderRequestID))
}

func TestSubmit_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "selector blew up", http.StatusInternalServerError)
	}))
	defer server.Close()

	_, err := NewClient(server.URL).Submit(context.Background(), sampleRequest())
	require.Error(t, err)

	var be *Error
	require.True(t, errors.As(err, &be))
	assert.Equal(t, KindServer, be.Kind)
	assert.Equal(t, http.StatusInternalServerError, be.StatusCode)
	assert.Contains(t, be.Body, "selector blew up")
	assert.ErrorIs(t, err, ErrServer)
	assert.Equal(t, "the scraping server rejected the job (HTTP 500)", be.UserMessage())
}

func TestSubmit_MalformedResponse(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"html", "<html>oops</html>"},
		{"empty", ""},
		{"truncated", `{"items":[`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			_, err := NewClient(server.URL).Submit(context.Background(), sampleRequest())
			assert.ErrorIs(t, err, ErrMalformedResponse)
			assert.NotErrorIs(t, err, ErrServer)
		})
	}
}

func TestSubmit_NetworkError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	endpoint := server.URL
	server.Close()

	_, err := NewClient(endpoint).Submit(context.Background(), sampleRequest())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNetwork)
	assert.Equal(t, KindNetwork, Classify(err).Kind)
}

func TestSubmit_Timeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer server.Close()
	defer close(release)

	_, err := NewClient(server.URL, WithTimeout(50*time.Millisecond)).Submit(context.Background(), sampleRequest())
	assert.ErrorIs(t, err, ErrNetwork)
}

func TestNewClient_DefaultEndpoint(t *testing.T) {
	assert.Equal(t, DefaultEndpoint, NewClient("").Endpoint())
}

func TestClassify(t *testing.T) {
	assert.Nil(t, Classify(nil))

	plain := Classify(errors.New("dial failed"))
	assert.Equal(t, KindNetwork, plain.Kind)
	assert.True(t, strings.Contains(plain.Error(), "dial failed"))

	server := NewServerError(404, "404 Not Found", "")
	assert.Same(t, server, Classify(server))
}

func TestError_IsByKind(t *testing.T) {
	err := NewMalformedError(200, "x", &json.SyntaxError{})
	assert.True(t, errors.Is(err, &Error{Kind: KindMalformed}))
	assert.False(t, errors.Is(err, &Error{Kind: KindNetwork}))
	assert.Equal(t, 200, err.GetStatusCode())
}
