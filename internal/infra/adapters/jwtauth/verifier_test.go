package jwtauth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/qrave1/PairSpeak/internal/domain/models"
)

func TestVerifyRoundTrip(t *testing.T) {
	v := NewVerifier("secret")

	token, err := v.Sign(models.Principal{ID: "u1", Role: models.RoleModerator, Name: "Ann"}, time.Minute)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	p, err := v.Verify(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}

	if p.ID != "u1" || p.Role != models.RoleModerator || p.Name != "Ann" {
		t.Fatalf("principal = %+v", p)
	}
}

func TestVerifyDefaultsRole(t *testing.T) {
	v := NewVerifier("secret")

	token, err := v.Sign(models.Principal{ID: "u2"}, time.Minute)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	p, err := v.Verify(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}

	if p.Role != models.RoleUser {
		t.Fatalf("role = %q, want %q", p.Role, models.RoleUser)
	}
}

func TestVerifyRejects(t *testing.T) {
	v := NewVerifier("secret")

	expired, _ := v.Sign(models.Principal{ID: "u1"}, -time.Minute)
	foreign, _ := NewVerifier("other").Sign(models.Principal{ID: "u1"}, time.Minute)
	noSubject, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{}).SignedString([]byte("secret"))

	for name, token := range map[string]string{
		"expired":    expired,
		"foreign":    foreign,
		"no subject": noSubject,
		"garbage":    "not-a-token",
	} {
		t.Run(name, func(t *testing.T) {
			if _, err := v.Verify(token); !errors.Is(err, ErrInvalidToken) {
				t.Fatalf("err = %v, want ErrInvalidToken", err)
			}
		})
	}
}
