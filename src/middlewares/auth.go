package middlewares

import (
	"cems/src/config"
	"cems/src/db"
	"cems/src/models"
	"cems/src/types"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

func AuthMiddleware(ctx *gin.Context) {
	bearerToken := ctx.Request.Header.Get("Authorization")
	if !strings.HasPrefix(bearerToken, "Bearer") {
		ctx.AbortWithStatus(http.StatusUnauthorized)
		return
	}
	parts := strings.Split(bearerToken, " ")
	if len(parts) < 2 || parts[1] == "" {
		ctx.AbortWithStatus(http.StatusUnauthorized)
		return
	}
	reqToken := parts[1]
	claims := &types.Claims{}
	tkn, err := jwt.ParseWithClaims(reqToken, claims, func(t *jwt.Token) (any, error) {
		return config.JWTSecret(), nil
	})
	if err != nil {
		log.Printf("token error: %s\n", err.Error())
		ctx.AbortWithStatus(http.StatusUnauthorized)
		return
	}
	if !tkn.Valid {
		ctx.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	d := db.GetDb()
	var user models.User
	uid, err := strconv.Atoi(claims.Subject)
	if err != nil {
		log.Println("error parsing claims:", err.Error())
		ctx.AbortWithStatus(http.StatusUnauthorized)
		return
	}
	if err := d.
		Model(&models.User{}).
		Where(&models.User{ID: uint(uid)}).
		First(&user).
		Error; err != nil {
		ctx.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	ctx.Set("id", user.ID)
	ctx.Set("username", user.Username)
	ctx.Set("email", user.Email)
	ctx.Set("role", string(user.Role))
	if user.DepartmentID != nil {
		ctx.Set("department", *user.DepartmentID)
	}
}

// RequireRole gates a route group by the role lattice: superadmin passes every
// gate, admin passes admin and student gates, students only their own. The
// switch is exhaustive over the closed role set.
func RequireRole(min types.Role) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		role := types.Role(ctx.GetString("role"))
		switch role {
		case types.ROLE_STUDENT, types.ROLE_ADMIN, types.ROLE_SUPERADMIN:
			if !role.AtLeast(min) {
				ctx.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": types.ErrForbidden.Error()})
				return
			}
		default:
			ctx.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": types.ErrForbidden.Error()})
			return
		}
	}
}
