package upload

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tiliavir/trivial-pomodoro/internal/config"
	"github.com/Tiliavir/trivial-pomodoro/internal/model"
	"github.com/Tiliavir/trivial-pomodoro/internal/signing"
)

var fixedNow = time.Unix(1700000000, 0)

func testRecord() model.CompletionRecord {
	return model.CompletionRecord{
		Description: "wrote the upload client",
		Tags:        []string{"go"},
		StartTime:   time.Date(2026, 2, 27, 9, 0, 0, 0, time.FixedZone("CET", 3600)),
		EndTime:     time.Date(2026, 2, 27, 9, 25, 0, 0, time.FixedZone("CET", 3600)),
	}
}

func newTestClient(opts ...Option) *Client {
	opts = append([]Option{WithClock(func() time.Time { return fixedNow }), WithPlatform("test/os")}, opts...)
	return NewClient(time.Second, opts...)
}

func TestUploadSendsSignedJSON(t *testing.T) {
	var got struct {
		method, path, contentType, appID, stamp, sig, requestID string
		body                                                    Payload
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got.method = r.Method
		got.path = r.URL.Path
		got.contentType = r.Header.Get("Content-Type")
		got.appID = r.Header.Get(signing.HeaderAppID)
		got.stamp = r.Header.Get(signing.HeaderTimestamp)
		got.sig = r.Header.Get(signing.HeaderSignature)
		got.requestID = r.Header.Get(HeaderRequestID)
		data, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(data, &got.body)
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	remote := config.RemoteConfig{APIEndpoint: srv.URL + "/v1/pomodoros", AppID: "abc", AppSecret: "secret"}
	err := newTestClient().Upload(context.Background(), testRecord(), remote)
	require.NoError(t, err)

	assert.Equal(t, http.MethodPost, got.method)
	assert.Equal(t, "/v1/pomodoros", got.path)
	assert.Equal(t, "application/json", got.contentType)
	assert.Equal(t, "abc", got.appID)
	assert.Equal(t, "1700000000", got.stamp)
	assert.Equal(t, "cb72a7ffbb9b6dd2e3e4aa88a8802fffedef8d58ee602aca2a0a90702ae11ddd", got.sig)
	assert.NotEmpty(t, got.requestID)

	assert.Equal(t, Payload{
		Client:      "test/os",
		Description: "wrote the upload client",
		StartTime:   "2026-02-27T08:00:00Z",
		EndTime:     "2026-02-27T08:25:00Z",
		Source:      Source,
	}, got.body)
}

func TestUploadConfigurationFailuresSkipNetwork(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer srv.Close()

	tests := []struct {
		name   string
		remote config.RemoteConfig
		want   Kind
	}{
		{"no endpoint", config.RemoteConfig{AppID: "abc", AppSecret: "secret"}, KindNoEndpointConfigured},
		{"both credentials empty", config.RemoteConfig{APIEndpoint: srv.URL}, KindMissingCredentials},
		{"secret empty", config.RemoteConfig{APIEndpoint: srv.URL, AppID: "abc"}, KindMissingCredentials},
		{"app id empty", config.RemoteConfig{APIEndpoint: srv.URL, AppSecret: "secret"}, KindMissingCredentials},
		{"not http", config.RemoteConfig{APIEndpoint: "ftp://example.test/x", AppID: "abc", AppSecret: "secret"}, KindInvalidEndpointURL},
		{"relative", config.RemoteConfig{APIEndpoint: "/v1/pomodoros", AppID: "abc", AppSecret: "secret"}, KindInvalidEndpointURL},
		{"unparsable", config.RemoteConfig{APIEndpoint: "http://[::1", AppID: "abc", AppSecret: "secret"}, KindInvalidEndpointURL},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := newTestClient().Upload(context.Background(), testRecord(), tt.remote)
			require.Error(t, err)
			assert.True(t, IsKind(err, tt.want), "got %v, want %s", err, tt.want)
		})
	}
	assert.Equal(t, int32(0), hits.Load())
}

func TestUploadServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer srv.Close()

	before := testutil.ToFloat64(uploadsCounter.WithLabelValues(string(KindServerError)))

	remote := config.RemoteConfig{APIEndpoint: srv.URL, AppID: "abc", AppSecret: "secret"}
	err := newTestClient().Upload(context.Background(), testRecord(), remote)
	require.Error(t, err)

	var uErr *Error
	require.ErrorAs(t, err, &uErr)
	assert.Equal(t, KindServerError, uErr.Kind)
	assert.Equal(t, http.StatusBadGateway, uErr.StatusCode)
	assert.False(t, uErr.Configuration())
	assert.Equal(t, before+1, testutil.ToFloat64(uploadsCounter.WithLabelValues(string(KindServerError))))
}

func TestUploadTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	remote := config.RemoteConfig{APIEndpoint: url, AppID: "abc", AppSecret: "secret"}
	err := newTestClient().Upload(context.Background(), testRecord(), remote)
	assert.True(t, IsKind(err, KindTransportError), "got %v", err)
}

func TestUploadTimeoutIsTransportError(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	c := newTestClient(WithHTTPClient(&http.Client{Timeout: 50 * time.Millisecond}))
	remote := config.RemoteConfig{APIEndpoint: srv.URL, AppID: "abc", AppSecret: "secret"}
	err := c.Upload(context.Background(), testRecord(), remote)
	assert.True(t, IsKind(err, KindTransportError), "got %v", err)
}

func TestUploadAsyncReportsOutcome(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	done := make(chan error, 1)
	remote := config.RemoteConfig{APIEndpoint: srv.URL, AppID: "abc", AppSecret: "secret"}
	newTestClient().UploadAsync(context.Background(), testRecord(), remote, func(err error) { done <- err })

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("async upload did not report")
	}
}

func TestErrorFormatting(t *testing.T) {
	assert.Equal(t, "SERVER_ERROR: status 500", (&Error{Kind: KindServerError, StatusCode: 500}).Error())
	assert.Equal(t, "MISSING_CREDENTIALS", (&Error{Kind: KindMissingCredentials}).Error())
	assert.True(t, (&Error{Kind: KindMissingCredentials}).Configuration())
	assert.Equal(t, Kind(""), KindOf(nil))
	assert.Equal(t, "success", outcomeLabel(nil))
}
