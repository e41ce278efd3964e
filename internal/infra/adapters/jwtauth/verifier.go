package jwtauth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/qrave1/PairSpeak/internal/domain/models"
)

var ErrInvalidToken = errors.New("invalid or expired jwt")

type Claims struct {
	Role string `json:"role,omitempty"`
	Name string `json:"name,omitempty"`

	jwt.RegisteredClaims
}

// Verifier проверяет HS256 токены, выпущенные сервисом аккаунтов
type Verifier struct {
	secret []byte
}

func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

func (v *Verifier) Verify(tokenString string) (models.Principal, error) {
	claims := new(Claims)

	token, err := jwt.ParseWithClaims(
		tokenString,
		claims,
		func(token *jwt.Token) (any, error) {
			return v.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if err != nil {
		return models.Principal{}, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	if !token.Valid || claims.Subject == "" {
		return models.Principal{}, ErrInvalidToken
	}

	role := claims.Role
	if role == "" {
		role = models.RoleUser
	}

	return models.Principal{
		ID:   claims.Subject,
		Role: role,
		Name: claims.Name,
	}, nil
}

// Sign выпускает токен, используется в тестах и в cli для сервисных токенов
func (v *Verifier) Sign(principal models.Principal, ttl time.Duration) (string, error) {
	claims := Claims{
		Role: principal.Role,
		Name: principal.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   principal.ID,
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signed, err := token.SignedString(v.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}

	return signed, nil
}
