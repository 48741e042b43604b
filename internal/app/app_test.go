package app

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-afriwork-autoapply/internal/config"
	"go-afriwork-autoapply/internal/store"
)

func testConfig(t *testing.T) *config.Config {
	cfg := &config.Config{}
	cfg.Afriwork.InitData = "user=%7B%22id%22%3A1%7D"
	cfg.Afriwork.RequestTimeout = time.Second
	cfg.Store.Driver = "file"
	cfg.Store.Dir = t.TempDir()
	cfg.LogLevel = "error"
	cfg.Server.Port = "0"
	return cfg
}

func TestNew(t *testing.T) {
	gin.SetMode(gin.TestMode)
	a, err := New(context.Background(), testConfig(t), io.Discard)
	require.NoError(t, err)
	defer a.Close()

	assert.NotNil(t, a.Runner)
	assert.Nil(t, a.Writer)
	assert.IsType(t, &store.FileStore{}, a.Store)

	w := httptest.NewRecorder()
	a.Server().Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestNew_WithWriter(t *testing.T) {
	cfg := testConfig(t)
	cfg.AI.APIKey = "key"

	a, err := New(context.Background(), cfg, io.Discard)
	require.NoError(t, err)
	defer a.Close()

	assert.NotNil(t, a.Writer)
}

func TestNew_RequiresInitData(t *testing.T) {
	cfg := testConfig(t)
	cfg.Afriwork.InitData = ""

	_, err := New(context.Background(), cfg, io.Discard)
	assert.Error(t, err)
}

func TestNew_BadStore(t *testing.T) {
	cfg := testConfig(t)
	cfg.Store.Driver = "mongo"

	_, err := New(context.Background(), cfg, io.Discard)
	assert.ErrorContains(t, err, "mongo")
}

func TestWatch_RequiresChannelConfig(t *testing.T) {
	a, err := New(context.Background(), testConfig(t), io.Discard)
	require.NoError(t, err)
	defer a.Close()

	assert.Error(t, a.Watch(context.Background()))
}
