package http

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
)

// userClaims holds the authenticated user's information from the JWT.
type userClaims struct {
	UserID uuid.UUID
	Email  string
}

// authMiddleware validates JWT tokens and sets user claims in context.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Extract token from Authorization header
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			s.writeJSON(w, http.StatusUnauthorized, errorResponse{
				Error: "missing authorization header",
				Code:  "UNAUTHORIZED",
			})
			return
		}

		// Expect "Bearer <token>"
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			s.writeJSON(w, http.StatusUnauthorized, errorResponse{
				Error: "invalid authorization header format",
				Code:  "UNAUTHORIZED",
			})
			return
		}

		claims, err := s.deps.JWT.ValidateAccessToken(parts[1])
		if err != nil {
			s.writeJSON(w, http.StatusUnauthorized, errorResponse{
				Error: "invalid or expired token",
				Code:  "UNAUTHORIZED",
			})
			return
		}

		ctx := setUserClaims(r.Context(), &userClaims{
			UserID: claims.UserID,
			Email:  claims.Email,
		})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
