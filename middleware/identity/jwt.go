package identity

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"governance-gateway/middleware/ratelimit/domain"

	"github.com/golang-jwt/jwt/v5"
)

var ErrMissingSubject = errors.New("identity: token without subject")

// Claims são as claims esperadas no token: sub = id do usuário.
type Claims struct {
	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// JWTAuthenticator é um provedor de identidade simples baseado em HS256.
//
// Token ausente ou inválido não gera 401: a requisição segue anônima e o rate
// limit trata como RoleUnauthenticated.
type JWTAuthenticator struct {
	secret []byte
	parser *jwt.Parser
}

func NewJWTAuthenticator(secret []byte) *JWTAuthenticator {
	return &JWTAuthenticator{
		secret: secret,
		parser: jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})),
	}
}

func (a *JWTAuthenticator) Parse(raw string) (Identity, error) {
	claims := &Claims{}
	_, err := a.parser.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return a.secret, nil
	})
	if err != nil {
		return Identity{}, err
	}
	if claims.Subject == "" {
		return Identity{}, ErrMissingSubject
	}
	return Identity{
		ID:    claims.Subject,
		Email: claims.Email,
		Role:  domain.ParseRole(claims.Role),
	}, nil
}

// Issue assina um token para id. ttl <= 0 gera token sem expiração.
func (a *JWTAuthenticator) Issue(id Identity, ttl time.Duration) (string, error) {
	claims := Claims{
		Email: id.Email,
		Role:  id.Role.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  id.ID,
			IssuedAt: jwt.NewNumericDate(time.Now()),
		},
	}
	if ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(ttl))
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

func (a *JWTAuthenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, ok := bearerToken(r)
		if ok {
			if id, err := a.Parse(raw); err == nil {
				r = r.WithContext(WithIdentity(r.Context(), id))
			}
		}
		next.ServeHTTP(w, r)
	})
}

func bearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	scheme, tok, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	tok = strings.TrimSpace(tok)
	return tok, tok != ""
}
