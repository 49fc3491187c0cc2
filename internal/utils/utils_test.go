package utils

import (
	"net/http/httptest"
	"regexp"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBookingReferenceGenerator(t *testing.T) {
	g := &BookingReferenceGenerator{now: func() time.Time {
		return time.Date(2025, 1, 14, 9, 30, 12, 0, time.UTC)
	}}

	first, err := g.NewBookingID()
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^BUS-20250114093012-[0-9A-F]{6}$`), first)

	seen := map[string]bool{first: true}
	for i := 0; i < 20; i++ {
		id, err := g.NewBookingID()
		require.NoError(t, err)
		seen[id] = true
	}
	assert.Greater(t, len(seen), 1)
}

func TestGetRealIP(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name    string
		headers map[string]string
		want    string
	}{
		{"public X-Real-IP", map[string]string{"X-Real-IP": "203.0.113.7"}, "203.0.113.7"},
		{"skips private forwarded hops", map[string]string{"X-Forwarded-For": "10.0.0.5, 198.51.100.2"}, "198.51.100.2"},
		{"falls back to first forwarded entry", map[string]string{"X-Forwarded-For": "192.168.1.10, 10.0.0.1"}, "192.168.1.10"},
		{"private X-Real-IP ignored", map[string]string{"X-Real-IP": "172.16.0.9", "X-Forwarded-For": "198.51.100.2"}, "198.51.100.2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := gin.CreateTestContext(httptest.NewRecorder())
			c.Request = httptest.NewRequest("GET", "/", nil)
			for k, v := range tt.headers {
				c.Request.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, GetRealIP(c))
		})
	}
}

func TestParseUserAgent(t *testing.T) {
	assert.Equal(t, "unknown", ParseUserAgent("").DeviceType)
	assert.Equal(t, "unknown", ParseUserAgent("Unknown").DeviceType)

	info := ParseUserAgent("Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	assert.Equal(t, "desktop", info.DeviceType)
	assert.Equal(t, "Chrome", info.Browser)
	assert.False(t, info.IsBot)
}

func TestGenerateJWTSecrets(t *testing.T) {
	access, refresh, err := GenerateJWTSecrets()
	require.NoError(t, err)
	assert.Len(t, access, 64)
	assert.Len(t, refresh, 64)
	assert.NotEqual(t, access, refresh)

	_, err = GenerateSecret(16)
	assert.Error(t, err)
}
