package domain

import (
	"errors"
	"testing"
)

func TestParseRole_CaseInsensitive(t *testing.T) {
	cases := map[string]Role{
		"gold":            RoleGold,
		"GOLD":            RoleGold,
		" Silver ":        RoleSilver,
		"bronze":          RoleBronze,
		"unauthenticated": RoleUnauthenticated,
		"":                RoleUnauthenticated,
		"default":         RoleUnknown,
		"platinum":        RoleUnknown,
	}
	for in, want := range cases {
		if got := ParseRole(in); got != want {
			t.Fatalf("ParseRole(%q) = %s, want %s", in, got, want)
		}
	}
}

func TestRoleLimits_LimitIsTotal(t *testing.T) {
	l := DefaultRoleLimits()
	want := map[Role]int{
		RoleGold:            10,
		RoleSilver:          5,
		RoleBronze:          2,
		RoleUnauthenticated: 1,
		RoleUnknown:         1,
		Role(99):            1,
	}
	for r, n := range want {
		if got := l.Limit(r); got != n {
			t.Fatalf("Limit(%s) = %d, want %d", r, got, n)
		}
	}

	if got := (RoleLimits{}).Limit(RoleGold); got != 1 {
		t.Fatalf("empty table: expected fallback 1, got %d", got)
	}
	if got := (RoleLimits{RoleUnauthenticated: 3}).Limit(RoleUnknown); got != 3 {
		t.Fatalf("unknown role should use the unauthenticated limit, got %d", got)
	}
}

func TestDecision_Err(t *testing.T) {
	if err := (Decision{Allowed: true}).Err(); err != nil {
		t.Fatalf("expected nil error when allowed, got %v", err)
	}

	err := Decision{Reason: ReasonBlocked}.Err()
	if !errors.Is(err, ErrRateLimitExceeded) {
		t.Fatalf("expected ErrRateLimitExceeded, got %v", err)
	}
	if err.Error() != MessageBlocked {
		t.Fatalf("expected blocked message, got %q", err.Error())
	}

	err = Decision{Reason: ReasonPermissionDenied}.Err()
	if !errors.Is(err, ErrPermissionDenied) || errors.Is(err, ErrRateLimitExceeded) {
		t.Fatalf("expected only ErrPermissionDenied, got %v", err)
	}

	var le *LimitError
	if !errors.As(err, &le) || le.Reason != ReasonPermissionDenied {
		t.Fatalf("expected *LimitError with permission_denied reason")
	}
}
