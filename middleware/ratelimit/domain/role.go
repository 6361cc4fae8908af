package domain

import "strings"

// Role é o papel do cliente. O mapeamento para limites é total: RoleUnknown
// existe explicitamente em vez de um fallback escondido.
type Role int

const (
	RoleUnknown Role = iota
	RoleUnauthenticated
	RoleBronze
	RoleSilver
	RoleGold
)

var roleNames = map[Role]string{
	RoleUnknown:         "unknown",
	RoleUnauthenticated: "unauthenticated",
	RoleBronze:          "bronze",
	RoleSilver:          "silver",
	RoleGold:            "gold",
}

func (r Role) String() string {
	if s, ok := roleNames[r]; ok {
		return s
	}
	return roleNames[RoleUnknown]
}

// ParseRole é case-insensitive. Vazio => RoleUnauthenticated; qualquer outro
// valor não reconhecido => RoleUnknown.
func ParseRole(s string) Role {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return RoleUnauthenticated
	}
	for r, name := range roleNames {
		if name == s {
			return r
		}
	}
	return RoleUnknown
}

// RoleLimits é a tabela papel -> requisições por janela.
type RoleLimits map[Role]int

const fallbackLimit = 1

func DefaultRoleLimits() RoleLimits {
	return RoleLimits{
		RoleGold:            10,
		RoleSilver:          5,
		RoleBronze:          2,
		RoleUnauthenticated: 1,
	}
}

// Limit devolve o limite do papel. Papel ausente (ou RoleUnknown) usa o limite de
// RoleUnauthenticated e, na falta dele, 1.
func (l RoleLimits) Limit(role Role) int {
	if v, ok := l[role]; ok && v > 0 && role != RoleUnknown {
		return v
	}
	if v, ok := l[RoleUnauthenticated]; ok && v > 0 {
		return v
	}
	return fallbackLimit
}
