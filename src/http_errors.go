package main

import (
	"cems/src/types"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

// respondError maps the domain error taxonomy to HTTP statuses. Everything in
// the taxonomy is recoverable at the request boundary; unknown errors become
// a generic 400 so internals never leak.
func respondError(ctx *gin.Context, err error) {
	var verr *types.ValidationError
	switch {
	case errors.As(err, &verr):
		ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": verr.Reason, "field": verr.Field})
	case errors.Is(err, types.ErrUnauthenticated):
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case errors.Is(err, types.ErrForbidden):
		ctx.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, types.ErrNotFound):
		ctx.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, types.ErrDuplicateBooking):
		ctx.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, types.ErrSoldOut):
		ctx.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, types.ErrPaymentRequired):
		ctx.JSON(http.StatusPaymentRequired, gin.H{"error": err.Error()})
	case errors.Is(err, types.ErrQRRenderTimeout):
		ctx.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	default:
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Error while processing request"})
	}
}
