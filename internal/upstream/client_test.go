package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/af-corp/campaign-relay/internal/config"
	"github.com/af-corp/campaign-relay/internal/httputil"
	"github.com/af-corp/campaign-relay/internal/telemetry"
	"github.com/af-corp/campaign-relay/internal/types"
)

func testConfig(baseURL string) config.UpstreamConfig {
	cfg := config.DefaultConfig().Upstream
	cfg.BaseURL = baseURL
	return cfg
}

func staticConfig(cfg config.UpstreamConfig) func() config.UpstreamConfig {
	return func() config.UpstreamConfig { return cfg }
}

func requireKind(t *testing.T, err error, kind types.ErrorKind) *Error {
	t.Helper()
	var relayErr *Error
	require.True(t, errors.As(err, &relayErr), "expected *Error, got %T: %v", err, err)
	assert.Equal(t, kind, relayErr.Kind)
	return relayErr
}

func TestSend_Success(t *testing.T) {
	var gotPath, gotContentType, gotAuth, gotUA, gotReqID string
	var gotBody map[string]any

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotContentType = r.Header.Get("Content-Type")
		gotAuth = r.Header.Get("Authorization")
		gotUA = r.Header.Get("User-Agent")
		gotReqID = r.Header.Get("X-Request-ID")
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"message":"Flash sale! 20% off today only."}`))
	}))
	defer srv.Close()

	cfg := testConfig(srv.URL + "/")
	cfg.APIKey = "server-side-key"

	metrics := telemetry.NewMetrics(prometheus.NewRegistry())
	c := NewClient(staticConfig(cfg), metrics)

	ctx := httputil.ContextWithRequestID(context.Background(), "req_abc")
	res, err := c.Send(ctx, RouteGenerate, types.CampaignRequest{Objective: "promotion", Tone: "friendly"})
	require.NoError(t, err)

	assert.Equal(t, "Flash sale! 20% off today only.", res.Output)
	assert.Equal(t, "message", res.Field)
	assert.Equal(t, http.StatusOK, res.StatusCode)

	assert.Equal(t, "/webhook/generate-sms", gotPath)
	assert.Equal(t, "application/json", gotContentType)
	assert.Equal(t, "Bearer server-side-key", gotAuth)
	assert.Equal(t, "text-generator-api/1.0", gotUA)
	assert.Equal(t, "req_abc", gotReqID)
	assert.Equal(t, "promotion", gotBody["objective"])
	assert.Equal(t, "friendly", gotBody["tone"])

	var metric dto.Metric
	counter, _ := metrics.ExtractFieldTotal.GetMetricWithLabelValues("message")
	counter.Write(&metric)
	assert.Equal(t, float64(1), metric.GetCounter().GetValue())
}

func TestSend_RewritePathAndNoAuthWithoutKey(t *testing.T) {
	var gotPath string
	authSeen := true
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_, authSeen = r.Header["Authorization"]
		w.Write([]byte(`{"text":"shorter"}`))
	}))
	defer srv.Close()

	c := NewClient(staticConfig(testConfig(srv.URL)), nil)
	res, err := c.Send(context.Background(), RouteRewrite, types.RewriteRequest{Text: "long", Option: "shorten", Language: "english"})
	require.NoError(t, err)

	assert.Equal(t, "shorter", res.Output)
	assert.Equal(t, "/webhook/rewrite-sms", gotPath)
	assert.False(t, authSeen, "Authorization header must not be sent without a configured key")
}

func TestSend_MissingBaseURL(t *testing.T) {
	c := NewClient(staticConfig(testConfig("  ")), nil)

	_, err := c.Send(context.Background(), RouteGenerate, types.CampaignRequest{})
	relayErr := requireKind(t, err, types.KindConfiguration)
	assert.Equal(t, "API_BASE_URL is not configured", relayErr.Message)
	assert.True(t, errors.Is(err, ErrConfiguration))
}

func TestSend_UpstreamErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "workflow not active", http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewClient(staticConfig(testConfig(srv.URL)), nil)
	_, err := c.Send(context.Background(), RouteGenerate, types.CampaignRequest{})

	relayErr := requireKind(t, err, types.KindUpstream)
	assert.Equal(t, http.StatusNotFound, relayErr.StatusCode)
	assert.Contains(t, relayErr.Message, "404")
}

func TestSend_NonJSONBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>gateway</html>"))
	}))
	defer srv.Close()

	c := NewClient(staticConfig(testConfig(srv.URL)), nil)
	_, err := c.Send(context.Background(), RouteGenerate, types.CampaignRequest{})
	requireKind(t, err, types.KindFormat)
}

func TestSend_UnrecognizedShape(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"foo":1}`))
	}))
	defer srv.Close()

	c := NewClient(staticConfig(testConfig(srv.URL)), nil)
	_, err := c.Send(context.Background(), RouteGenerate, types.CampaignRequest{})
	requireKind(t, err, types.KindFormat)
}

func TestSend_StringBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`"plain sms text"`))
	}))
	defer srv.Close()

	c := NewClient(staticConfig(testConfig(srv.URL)), nil)
	res, err := c.Send(context.Background(), RouteGenerate, types.CampaignRequest{})
	require.NoError(t, err)
	assert.Equal(t, "plain sms text", res.Output)
	assert.Equal(t, FieldRaw, res.Field)
}

func TestSend_ResponseTooLarge(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"text":"this body is longer than the limit"}`))
	}))
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cfg.MaxResponseBytes = 10
	c := NewClient(staticConfig(cfg), nil)

	_, err := c.Send(context.Background(), RouteGenerate, types.CampaignRequest{})
	requireKind(t, err, types.KindFormat)
}

func TestSend_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cfg.Timeout = 50 * time.Millisecond
	c := NewClient(staticConfig(cfg), nil)

	_, err := c.Send(context.Background(), RouteGenerate, types.CampaignRequest{})
	relayErr := requireKind(t, err, types.KindTimeout)
	assert.Equal(t, "Upstream API request timed out", relayErr.Message)
}

func TestSend_ConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := NewClient(staticConfig(testConfig(url)), nil)
	_, err := c.Send(context.Background(), RouteGenerate, types.CampaignRequest{})
	requireKind(t, err, types.KindConnectionRefused)
}

func TestSend_UntrustedCertificate(t *testing.T) {
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"text":"over tls"}`))
	}))
	defer srv.Close()

	c := NewClient(staticConfig(testConfig(srv.URL)), nil)
	_, err := c.Send(context.Background(), RouteGenerate, types.CampaignRequest{})
	requireKind(t, err, types.KindSSL)
}

func TestSend_InsecureSkipVerify(t *testing.T) {
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"text":"over tls"}`))
	}))
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cfg.InsecureSkipVerify = true
	c := NewClient(staticConfig(cfg), nil)

	res, err := c.Send(context.Background(), RouteGenerate, types.CampaignRequest{})
	require.NoError(t, err)
	assert.Equal(t, "over tls", res.Output)
}

func TestSend_IgnoresCallerCancellation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(50 * time.Millisecond)
		w.Write([]byte(`{"text":"finished anyway"}`))
	}))
	defer srv.Close()

	c := NewClient(staticConfig(testConfig(srv.URL)), nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := c.Send(ctx, RouteGenerate, types.CampaignRequest{})
	require.NoError(t, err)
	assert.Equal(t, "finished anyway", res.Output)
}

func TestSend_NoCaching(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.Copy(io.Discard, r.Body)
		calls.Add(1)
		w.Write([]byte(`{"text":"again"}`))
	}))
	defer srv.Close()

	c := NewClient(staticConfig(testConfig(srv.URL)), nil)
	req := types.CampaignRequest{Objective: "promotion"}

	for i := 0; i < 2; i++ {
		_, err := c.Send(context.Background(), RouteGenerate, req)
		require.NoError(t, err)
	}
	assert.Equal(t, int32(2), calls.Load())
}

func TestSend_ConfigReadPerRequest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"text":"ok"}`))
	}))
	defer srv.Close()

	current := testConfig("")
	c := NewClient(func() config.UpstreamConfig { return current }, nil)

	_, err := c.Send(context.Background(), RouteGenerate, types.CampaignRequest{})
	requireKind(t, err, types.KindConfiguration)

	current.BaseURL = srv.URL
	res, err := c.Send(context.Background(), RouteGenerate, types.CampaignRequest{})
	require.NoError(t, err)
	assert.Equal(t, "ok", res.Output)
}

func TestRebuild_AppliesInsecureFlag(t *testing.T) {
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"text":"ok"}`))
	}))
	defer srv.Close()

	current := testConfig(srv.URL)
	c := NewClient(func() config.UpstreamConfig { return current }, nil)

	_, err := c.Send(context.Background(), RouteGenerate, types.CampaignRequest{})
	requireKind(t, err, types.KindSSL)

	current.InsecureSkipVerify = true
	c.Rebuild()

	_, err = c.Send(context.Background(), RouteGenerate, types.CampaignRequest{})
	require.NoError(t, err)
}
