package appctx

import (
	"context"

	"github.com/qrave1/PairSpeak/internal/domain/models"
)

type ctxKey string

const principalKey ctxKey = "principal"

// WithPrincipal добавляет проверенную личность в контекст
func WithPrincipal(ctx context.Context, p models.Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// Principal извлекает личность из контекста
func Principal(ctx context.Context) (models.Principal, bool) {
	p, ok := ctx.Value(principalKey).(models.Principal)
	return p, ok
}
