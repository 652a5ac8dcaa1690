// utils/constants.go
package utils

import "time"

// Application constants
const (
	// Application Info
	AppName    = "Feed Ranker"
	AppVersion = "1.0.0"
	APIVersion = "v1"

	// Default pagination (used by any list-style dev endpoints)
	DefaultPageSize = 20
	MaxPageSize     = 100
	MinPageSize     = 1

	MinUsernameLength = 3
	MaxUsernameLength = 50

	// Rate limiting
	DefaultRateLimit      = 100 // requests per minute
	EngagementRateLimit   = 120 // engagement events per minute per user
	AuthRateLimit         = 5   // login attempts per minute

	// Token expiration
	AccessTokenExpiry  = 24 * time.Hour
	RefreshTokenExpiry = 30 * 24 * time.Hour
	PasswordResetExpiry     = time.Hour
	EmailVerificationExpiry = 24 * time.Hour

	// Database
	MongoTimeout     = 10 * time.Second
	MongoMaxPoolSize = 100
	MongoMinPoolSize = 5
)

// HTTP Status Messages
const (
	StatusSuccess = "success"
	StatusError   = "error"
	StatusFail    = "fail"
)

// Error Messages
const (
	ErrUnauthorized      = "Unauthorized access"
	ErrForbidden         = "Access forbidden"
	ErrTokenExpired      = "Token has expired"
	ErrInvalidToken      = "Invalid token"
	ErrInvalidRequest    = "Invalid request format"
	ErrValidationFailed  = "Validation failed"
	ErrInternalError     = "Internal server error"
	ErrNotFound          = "Resource not found"
	ErrRateLimitExceeded = "Rate limit exceeded"
	ErrServiceUnavailable = "Service temporarily unavailable"
)

// Success Messages
const (
	MsgEngagementRecorded = "Engagement recorded"
	MsgFollowUpdated      = "Follow state updated"
)

// Context Keys
const (
	ContextUserID    = "user_id"
	ContextSessionID = "session_id"
)

// Environment variables keys
const (
	EnvMongoURI  = "MONGO_URI"
	EnvDBName    = "DB_NAME"
	EnvPort      = "PORT"
	EnvJWTSecret = "JWT_SECRET"
	EnvJWTExpiry = "JWT_EXPIRY"
	EnvGinMode   = "GIN_MODE"
	EnvRedisURL  = "REDIS_URL"
	EnvNatsURL   = "NATS_URL"
)

// Regular expressions
const (
	EmailRegex    = `^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`
	UsernameRegex = `^[a-zA-Z0-9_]+$`
)
