package identity

import (
	"net"
	"net/http"
	"strings"

	"governance-gateway/middleware/ratelimit/domain"
)

const (
	HeaderForwardedFor = "X-Forwarded-For"

	unknownAddress = "unknown"

	// prefixos separam o espaço de chaves de usuários do de endereços
	userKeyPrefix    = "user:"
	addressKeyPrefix = "ip:"
)

// SourceAddress devolve o endereço de origem best-effort.
//
// Com trustXFF, o primeiro item do X-Forwarded-For (cliente original na cadeia de
// proxies) é usado sem validação de formato. Depois vem o host de RemoteAddr.
func SourceAddress(r *http.Request, trustXFF bool) string {
	if trustXFF {
		if xff := r.Header.Get(HeaderForwardedFor); xff != "" {
			first, _, _ := strings.Cut(xff, ",")
			if ip := strings.TrimSpace(first); ip != "" {
				return ip
			}
		}
	}

	// fallback: RemoteAddr
	host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
	if err == nil && host != "" {
		return host
	}
	if r.RemoteAddr != "" {
		return r.RemoteAddr
	}
	return unknownAddress
}

// ClientKey é a chave de rate limit: "user:<id>" para o usuário autenticado ou
// "ip:<SourceAddress>". Clientes anônimos atrás do mesmo endereço compartilham a
// cota; um anônimo nunca cai no bucket de um usuário.
func ClientKey(r *http.Request, trustXFF bool) domain.Key {
	if id, ok := FromContext(r.Context()); ok {
		return domain.Key(userKeyPrefix + id.ID)
	}
	return domain.Key(addressKeyPrefix + SourceAddress(r, trustXFF))
}
