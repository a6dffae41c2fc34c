package snapshot

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeURL(t *testing.T) {
	got, err := NormalizeURL(" www.suaclinica.com.br ")
	require.NoError(t, err)
	assert.Equal(t, "https://www.suaclinica.com.br", got)

	got, err = NormalizeURL("http://example.com/path?q=1")
	require.NoError(t, err)
	assert.Equal(t, "http://example.com/path?q=1", got)

	for _, bad := range []string{"", "ftp://example.com", "https://", "javascript://alert(1)"} {
		_, err := NormalizeURL(bad)
		assert.Error(t, err, bad)
	}
}

func TestNormalizeURLRefusesLocalHosts(t *testing.T) {
	for _, bad := range []string{
		"localhost:8080",
		"http://LOCALHOST./admin",
		"http://app.localhost",
		"http://127.0.0.1",
		"http://[::1]:9000",
		"http://10.0.0.5",
		"192.168.1.1",
		"http://169.254.169.254/latest/meta-data",
		"http://0.0.0.0",
		"http://[::ffff:127.0.0.1]",
	} {
		_, err := NormalizeURL(bad)
		assert.Error(t, err, bad)
	}

	got, err := NormalizeURL("https://93.184.215.14/")
	require.NoError(t, err)
	assert.Equal(t, "https://93.184.215.14/", got)
}

func TestNewDefaults(t *testing.T) {
	c := New(Config{})
	assert.Equal(t, defaultWidth, c.cfg.Width)
	assert.Equal(t, defaultHeight, c.cfg.Height)
	assert.Equal(t, defaultTimeout, c.cfg.Timeout)
	assert.Equal(t, defaultSettle, c.cfg.Settle)

	c = New(Config{Settle: -time.Second})
	assert.Zero(t, c.cfg.Settle)
}

func TestCaptureRejectsBadURLWithoutBrowser(t *testing.T) {
	c := New(Config{})
	_, err := c.Capture(context.Background(), "ftp://files.example")
	assert.Error(t, err)
}
