package models

import "github.com/golang-jwt/jwt/v5"

// UserRole is the role claim carried by access tokens.
type UserRole string

const (
	RoleSuperAdmin UserRole = "SUPERADMIN"
	RoleAdmin      UserRole = "ADMIN"
	RoleProfessor  UserRole = "PROFESSOR"
	RoleStudent    UserRole = "STUDENT"
)

// JWTClaims is the access token payload issued by the catalog system.
type JWTClaims struct {
	UserID string   `json:"user_id"`
	Role   UserRole `json:"role"`
	Email  string   `json:"email"`
	jwt.RegisteredClaims
}
