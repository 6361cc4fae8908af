package identity

import (
	"context"
	"net/http"

	"governance-gateway/middleware/ratelimit/domain"
)

// AnonymousLabel é o rótulo usado no log para requisições sem identidade.
const AnonymousLabel = "Anonymous"

// Identity é o usuário autenticado, como entregue pelo subsistema de auth.
type Identity struct {
	// ID é o identificador numérico estável do usuário (como string).
	ID    string
	Email string
	Role  domain.Role
}

func (i Identity) Authenticated() bool { return i.ID != "" }

type ctxKey struct{}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(ctxKey{}).(Identity)
	if !ok || !id.Authenticated() {
		return Identity{}, false
	}
	return id, true
}

// RoleOf devolve o papel da requisição; sem identidade => RoleUnauthenticated.
func RoleOf(r *http.Request) domain.Role {
	if id, ok := FromContext(r.Context()); ok {
		return id.Role
	}
	return domain.RoleUnauthenticated
}

// Label devolve o email (ou id) do usuário autenticado, ou "Anonymous".
func Label(r *http.Request) string {
	id, ok := FromContext(r.Context())
	if !ok {
		return AnonymousLabel
	}
	if id.Email != "" {
		return id.Email
	}
	return id.ID
}
