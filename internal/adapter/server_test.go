package adapter

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vyrodovalexey/webfunc/internal/config"
)

func get(t *testing.T, url string) (int, string) {
	t.Helper()

	resp, err := http.Get(url) //nolint:noctx // test helper
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func TestServer_Lifecycle(t *testing.T) {
	t.Parallel()

	for _, hosting := range []config.HostingType{config.HostingLocalhost, config.HostingNow, config.HostingExpress} {
		t.Run(string(hosting), func(t *testing.T) {
			t.Parallel()

			srv, err := NewServer(ServerConfig{
				Hosting: hosting,
				Address: "127.0.0.1",
				Port:    0,
			}, newPipeline(t, "Hello"), nil)
			require.NoError(t, err)

			require.NoError(t, srv.Start(context.Background()))
			assert.True(t, srv.IsRunning())
			assert.Error(t, srv.Start(context.Background()))

			base := "http://" + srv.Addr()
			status, body := get(t, base+"/hello/nicolas")
			assert.Equal(t, http.StatusOK, status)
			assert.Equal(t, "Hello nicolas", body)

			srv.Swap(newPipeline(t, "Ciao"))
			_, body = get(t, base+"/hello/nicolas")
			assert.Equal(t, "Ciao nicolas", body)

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			require.NoError(t, srv.Stop(ctx))
			assert.False(t, srv.IsRunning())
			assert.Empty(t, srv.Addr())
			require.NoError(t, srv.Stop(ctx))
		})
	}
}

func TestNewServer_NonListeningHosting(t *testing.T) {
	t.Parallel()

	_, err := NewServer(ServerConfig{Hosting: config.HostingAWS}, newPipeline(t, "Hello"), nil)
	assert.True(t, errors.Is(err, ErrNotListening))

	srv, err := NewServer(ServerConfig{Hosting: config.HostingGCP}, newPipeline(t, "Hello"), nil)
	require.NoError(t, err)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/hello/ana", http.NoBody))
	assert.Equal(t, "Hello ana", rec.Body.String())
}

func TestServerConfigFrom_GCPPort(t *testing.T) {
	t.Setenv(config.PortEnv, "8089")

	cfg := config.Default()
	cfg.Env.Environments[config.DefaultEnvironment] = config.Environment{HostingType: config.HostingGCP}

	sc := ServerConfigFrom(cfg)
	assert.Equal(t, config.HostingGCP, sc.Hosting)
	assert.Equal(t, 8089, sc.Port)
}

func TestServerConfigFrom(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	cfg.Server.Port = 8081

	sc := ServerConfigFrom(cfg)
	assert.Equal(t, config.HostingLocalhost, sc.Hosting)
	assert.Equal(t, 8081, sc.Port)
	assert.Equal(t, 30*time.Second, sc.ReadTimeout)
	assert.Equal(t, int64(10<<20), sc.MaxBodyBytes)
}
