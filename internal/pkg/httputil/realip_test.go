package httputil

import (
	"net/http"
	"net/http/httptest"
	"net/netip"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTrustedRealIP(t *testing.T) {
	trusted := []netip.Prefix{netip.MustParsePrefix("10.0.0.0/8")}

	tests := []struct {
		name       string
		trusted    []netip.Prefix
		remoteAddr string
		want       string
	}{
		{"no proxies configured", nil, "192.0.2.1:4000", "192.0.2.1:4000"},
		{"untrusted peer", trusted, "192.0.2.1:4000", "192.0.2.1:4000"},
		{"trusted proxy", trusted, "10.1.2.3:4000", "203.0.113.7"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got string
			h := TrustedRealIP(tt.trusted)(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
				got = r.RemoteAddr
			}))

			req := httptest.NewRequest(http.MethodGet, "/api/incidents", nil)
			req.RemoteAddr = tt.remoteAddr
			req.Header.Set("X-Forwarded-For", "203.0.113.7")
			h.ServeHTTP(httptest.NewRecorder(), req)

			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFromTrustedProxy(t *testing.T) {
	trusted := []netip.Prefix{
		netip.MustParsePrefix("10.0.0.0/8"),
		netip.MustParsePrefix("::1/128"),
	}

	assert.True(t, fromTrustedProxy("10.0.0.1:80", trusted))
	assert.True(t, fromTrustedProxy("[::1]:80", trusted))
	assert.True(t, fromTrustedProxy("[::ffff:10.0.0.1]:80", trusted))
	assert.True(t, fromTrustedProxy("10.0.0.1", trusted))
	assert.False(t, fromTrustedProxy("11.0.0.1:80", trusted))
	assert.False(t, fromTrustedProxy("garbage", trusted))
}
