package cli

import (
	"bytes"
	"context"
	"net/http/httptest"
	"testing"

	"quickbidz-storefront/internal/config"
	"quickbidz-storefront/internal/querycache"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateKey(t *testing.T) {
	var out bytes.Buffer
	generateKeyCmd.SetOut(&out)

	require.NoError(t, generateKeyCmd.RunE(generateKeyCmd, nil))

	key := bytes.TrimSpace(out.Bytes())
	assert.GreaterOrEqual(t, len(key), 32)
}

func TestNewCacheStore_Memory(t *testing.T) {
	store, closeStore, err := newCacheStore(context.Background(), config.CacheConfig{Backend: config.CacheMemory})
	require.NoError(t, err)
	defer closeStore()

	_, ok := store.(*querycache.MemoryStore)
	assert.True(t, ok)
}

func TestAllowOrigins(t *testing.T) {
	check := allowOrigins([]string{"https://app.example.com"})

	tests := []struct {
		name   string
		origin string
		want   bool
	}{
		{name: "no origin", origin: "", want: true},
		{name: "same host", origin: "http://example.com", want: true},
		{name: "configured origin", origin: "https://app.example.com", want: true},
		{name: "foreign origin", origin: "https://evil.example.com", want: false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "http://example.com/ws/notifications", nil)
			if tc.origin != "" {
				req.Header.Set("Origin", tc.origin)
			}
			assert.Equal(t, tc.want, check(req))
		})
	}
}
