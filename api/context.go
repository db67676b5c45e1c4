package api

import (
	"context"

	"github.com/rpupo63/team-portfolio-backend/models"
)

type keyType string

const callerKey keyType = "caller"

// ctxWithCaller adds the authenticated caller to the context
func ctxWithCaller(ctx context.Context, caller models.Caller) context.Context {
	return context.WithValue(ctx, callerKey, caller)
}

// ctxGetCaller retrieves the caller from the context. ok is false on unauthenticated routes.
func ctxGetCaller(ctx context.Context) (models.Caller, bool) {
	caller, ok := ctx.Value(callerKey).(models.Caller)
	return caller, ok
}
