package api_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wardenlabs/bruteloom/pkg/api"
	"github.com/wardenlabs/bruteloom/pkg/plugin"
	"github.com/wardenlabs/bruteloom/pkg/plugin/plugintest"
	"github.com/wardenlabs/bruteloom/pkg/registry"
	"github.com/wardenlabs/bruteloom/pkg/session"
)

func newTestServer() (*httptest.Server, *registry.Registry) {
	gin.SetMode(gin.TestMode)
	plugins := plugin.NewRegistry()
	plugins.Register(plugintest.NewMock("mock"))

	reg := registry.New(plugins, 10)
	srv := api.NewServer(reg, session.InProcessBackend{})

	router := gin.New()
	srv.Routes(router)
	return httptest.NewServer(router), reg
}

func TestNewSessionArgvRoundTrip(t *testing.T) {
	ts, reg := newTestServer()
	defer ts.Close()

	argv := []string{"mock", "--target", "http://x.invalid", "--username", "admin", "--password", "p"}
	body, _ := json.Marshal(argv)

	resp, err := http.Post(ts.URL+"/session/new", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var id string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&id))
	require.NotEmpty(t, id)

	sess, err := reg.Get(id)
	require.NoError(t, err)
	assert.Equal(t, argv, sess.Argv)
}

func TestGetSessionUnknownReturns404(t *testing.T) {
	ts, _ := newTestServer()
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/session/does-not-exist")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestNewSessionBadArgvReturns400(t *testing.T) {
	ts, _ := newTestServer()
	defer ts.Close()

	body, _ := json.Marshal([]string{"no-such-plugin"})
	resp, err := http.Post(ts.URL+"/session/new", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestStopSessionIsIdempotent(t *testing.T) {
	ts, reg := newTestServer()
	defer ts.Close()

	argv := []string{"mock", "--target", "http://x.invalid", "--username", "admin", "--password", "p"}
	body, _ := json.Marshal(argv)
	resp, err := http.Post(ts.URL+"/session/new", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	var id string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&id))
	resp.Body.Close()

	for i := 0; i < 2; i++ {
		r, err := http.Get(ts.URL + "/session/" + id + "/stop")
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, r.StatusCode)
		r.Body.Close()
	}

	_ = reg
	time.Sleep(10 * time.Millisecond)
}
