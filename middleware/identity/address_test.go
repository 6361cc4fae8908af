package identity

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"governance-gateway/middleware/ratelimit/domain"
)

func TestSourceAddress(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		remoteAddr string
		xff        string
		trustXFF   bool
		want       string
	}{
		{name: "first forwarded-for token", remoteAddr: "10.0.0.9:5555", xff: "1.2.3.4, 5.6.7.8", trustXFF: true, want: "1.2.3.4"},
		{name: "forwarded-for is not validated", remoteAddr: "10.0.0.9:5555", xff: "not-an-ip,1.2.3.4", trustXFF: true, want: "not-an-ip"},
		{name: "forwarded-for ignored when not trusted", remoteAddr: "10.0.0.9:5555", xff: "1.2.3.4", trustXFF: false, want: "10.0.0.9"},
		{name: "empty first token falls back to peer", remoteAddr: "10.0.0.9:5555", xff: " ,1.2.3.4", trustXFF: true, want: "10.0.0.9"},
		{name: "peer without port", remoteAddr: "10.0.0.9", trustXFF: true, want: "10.0.0.9"},
		{name: "ipv6 peer", remoteAddr: "[::1]:8080", trustXFF: true, want: "::1"},
		{name: "nothing at all", remoteAddr: "", trustXFF: true, want: "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "http://example/", nil)
			r.RemoteAddr = tt.remoteAddr
			if tt.xff != "" {
				r.Header.Set(HeaderForwardedFor, tt.xff)
			}
			assert.Equal(t, tt.want, SourceAddress(r, tt.trustXFF))
		})
	}
}

func TestClientKey_PrefersAuthenticatedIdentity(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "http://example/", nil)
	r.RemoteAddr = "10.0.0.1:1234"
	r.Header.Set(HeaderForwardedFor, "1.2.3.4")
	r = r.WithContext(WithIdentity(r.Context(), Identity{ID: "42", Email: "gold@example.com", Role: domain.RoleGold}))

	assert.Equal(t, domain.Key("user:42"), ClientKey(r, true))
	// mesma identidade => mesma chave
	assert.Equal(t, ClientKey(r, true), ClientKey(r, true))
}

func TestClientKey_AnonymousSameForwardedAddressCollide(t *testing.T) {
	r1 := httptest.NewRequest(http.MethodGet, "http://example/", nil)
	r1.RemoteAddr = "10.0.0.1:1111"
	r1.Header.Set(HeaderForwardedFor, "1.2.3.4")

	r2 := httptest.NewRequest(http.MethodGet, "http://example/other", nil)
	r2.RemoteAddr = "10.0.0.2:2222"
	r2.Header.Set(HeaderForwardedFor, "1.2.3.4, 9.9.9.9")

	assert.Equal(t, ClientKey(r1, true), ClientKey(r2, true))
	assert.Equal(t, domain.Key("ip:1.2.3.4"), ClientKey(r1, true))
}

func TestClientKey_AnonymousNeverMatchesUser(t *testing.T) {
	user := httptest.NewRequest(http.MethodGet, "http://example/", nil)
	user.RemoteAddr = "10.0.0.1:1234"
	user = user.WithContext(WithIdentity(user.Context(), Identity{ID: "42", Role: domain.RoleBronze}))

	anon := httptest.NewRequest(http.MethodGet, "http://example/", nil)
	anon.RemoteAddr = "10.0.0.2:1234"
	anon.Header.Set(HeaderForwardedFor, "42")

	assert.NotEqual(t, ClientKey(user, true), ClientKey(anon, true))
	// o logger continua vendo o endereço sem prefixo
	assert.Equal(t, "42", SourceAddress(anon, true))
}

func TestLabelAndRole(t *testing.T) {
	anon := httptest.NewRequest(http.MethodGet, "http://example/", nil)
	assert.Equal(t, AnonymousLabel, Label(anon))
	assert.Equal(t, domain.RoleUnauthenticated, RoleOf(anon))

	withEmail := anon.WithContext(WithIdentity(anon.Context(), Identity{ID: "7", Email: "a@b.c", Role: domain.RoleBronze}))
	assert.Equal(t, "a@b.c", Label(withEmail))
	assert.Equal(t, domain.RoleBronze, RoleOf(withEmail))

	noEmail := anon.WithContext(WithIdentity(anon.Context(), Identity{ID: "7"}))
	assert.Equal(t, "7", Label(noEmail))

	// identidade sem ID não conta como autenticada
	empty := anon.WithContext(WithIdentity(anon.Context(), Identity{Email: "x@y.z"}))
	assert.Equal(t, AnonymousLabel, Label(empty))
}
