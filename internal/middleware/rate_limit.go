// middleware/rate_limit.go
package middleware

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"feedranker/internal/utils"

	"github.com/gin-gonic/gin"
)

// RateLimiter represents a rate limiter
type RateLimiter struct {
	requests        map[string]*ClientInfo
	mutex           sync.RWMutex
	rate            int           // requests per window
	window          time.Duration // time window
	cleanupInterval time.Duration // cleanup interval
}

// ClientInfo stores information about a client's requests
type ClientInfo struct {
	requests  []time.Time
	lastSeen  time.Time
	blocked   bool
	blockTime time.Time
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	Rate    int           // requests per window
	Window  time.Duration // time window
	KeyFunc func(*gin.Context) string
	Message string
	Headers bool // whether to add rate limit headers
	Skip    func(*gin.Context) bool
	OnLimit func(*gin.Context) // callback when rate limit is exceeded
}

// NewRateLimiter creates a new rate limiter
func NewRateLimiter(rate int, window time.Duration, cleanupInterval ...time.Duration) *RateLimiter {
	// Default cleanup interval to 1 minute if not provided
	cleanup := time.Minute
	if len(cleanupInterval) > 0 {
		cleanup = cleanupInterval[0]
	}

	rl := &RateLimiter{
		requests:        make(map[string]*ClientInfo),
		rate:            rate,
		window:          window,
		cleanupInterval: cleanup,
	}

	// Start cleanup goroutine
	go rl.cleanup()

	return rl
}

func RateLimit(config RateLimitConfig) gin.HandlerFunc {
	limiter := NewRateLimiter(config.Rate, config.Window) // Now works with optional parameter

	return gin.HandlerFunc(func(c *gin.Context) {
		// Skip rate limiting if configured
		if config.Skip != nil && config.Skip(c) {
			c.Next()
			return
		}

		// Get client key
		key := ""
		if config.KeyFunc != nil {
			key = config.KeyFunc(c)
		}
		if key == "" {
			key = c.ClientIP()
		}

		// Check rate limit
		allowed, remaining, resetTime := limiter.isAllowed(key)

		// Add headers if configured
		if config.Headers {
			c.Header("X-RateLimit-Limit", fmt.Sprintf("%d", config.Rate))
			c.Header("X-RateLimit-Remaining", fmt.Sprintf("%d", remaining))
			c.Header("X-RateLimit-Reset", fmt.Sprintf("%d", resetTime.Unix()))
			c.Header("X-RateLimit-Window", config.Window.String())
		}

		if !allowed {
			// Call limit callback if configured
			if config.OnLimit != nil {
				config.OnLimit(c)
			}

			message := config.Message
			if message == "" {
				message = "Rate limit exceeded"
			}

			utils.ErrorResponse(c, http.StatusTooManyRequests, message, "")
			c.Abort()
			return
		}

		c.Next()
	})
}

// IPRateLimit creates an IP-based rate limiter
func IPRateLimit(rate int, window time.Duration) gin.HandlerFunc {
	return RateLimit(RateLimitConfig{
		Rate:   rate,
		Window: window,
		KeyFunc: func(c *gin.Context) string {
			return c.ClientIP()
		},
		Headers: true,
		Message: "Too many requests from this IP address",
	})
}

// UserRateLimit creates a user-based rate limiter
func UserRateLimit(rate int, window time.Duration) gin.HandlerFunc {
	return RateLimit(RateLimitConfig{
		Rate:   rate,
		Window: window,
		KeyFunc: func(c *gin.Context) string {
			if userID, exists := c.Get(utils.ContextUserID); exists {
				return userID.(string)
			}
			return c.ClientIP() // fallback to IP
		},
		Headers: true,
		Message: "Too many requests from this user",
		Skip: func(c *gin.Context) bool {
			// Skip for unauthenticated users (they'll be limited by IP)
			_, exists := c.Get(utils.ContextUserID)
			return !exists
		},
	})
}

// GlobalRateLimit creates a global rate limiter
func GlobalRateLimit(rate int, window time.Duration) gin.HandlerFunc {
	limiter := NewRateLimiter(rate, window) // Now works with optional parameter

	return gin.HandlerFunc(func(c *gin.Context) {
		allowed, remaining, resetTime := limiter.isAllowed("global")

		c.Header("X-Global-RateLimit-Limit", fmt.Sprintf("%d", rate))
		c.Header("X-Global-RateLimit-Remaining", fmt.Sprintf("%d", remaining))
		c.Header("X-Global-RateLimit-Reset", fmt.Sprintf("%d", resetTime.Unix()))

		if !allowed {
			utils.ErrorResponse(c, http.StatusTooManyRequests, "Global rate limit exceeded", "")
			c.Abort()
			return
		}

		c.Next()
	})
}

// EngagementRateLimit limits how often a single user can post engagement
// or skip events.
func EngagementRateLimit() gin.HandlerFunc {
	return RateLimit(RateLimitConfig{
		Rate:   utils.EngagementRateLimit,
		Window: time.Minute,
		KeyFunc: func(c *gin.Context) string {
			if userID, exists := c.Get(utils.ContextUserID); exists {
				return "engagement_" + userID.(string)
			}
			return "engagement_" + c.ClientIP()
		},
		Headers: true,
		Message: "Too many engagement events",
	})
}

// FollowRateLimit creates a rate limiter for follow actions.
func FollowRateLimit() gin.HandlerFunc {
	return RateLimit(RateLimitConfig{
		Rate:   30,               // 30 follow actions
		Window: time.Minute * 10, // per 10 minutes
		KeyFunc: func(c *gin.Context) string {
			if userID, exists := c.Get(utils.ContextUserID); exists {
				return "follow_" + userID.(string)
			}
			return "follow_" + c.ClientIP()
		},
		Headers: true,
		Message: "Too many follow/unfollow actions",
	})
}

// Methods for RateLimiter

func (rl *RateLimiter) isAllowed(key string) (bool, int, time.Time) {
	rl.mutex.Lock()
	defer rl.mutex.Unlock()

	now := time.Now()

	// Get or create client info
	client, exists := rl.requests[key]
	if !exists {
		client = &ClientInfo{
			requests: make([]time.Time, 0),
			lastSeen: now,
		}
		rl.requests[key] = client
	}

	// Update last seen
	client.lastSeen = now

	// Check if client is blocked
	if client.blocked && now.Before(client.blockTime.Add(rl.window)) {
		return false, 0, client.blockTime.Add(rl.window)
	}

	// Remove old requests outside the window
	cutoff := now.Add(-rl.window)
	validRequests := make([]time.Time, 0)
	for _, reqTime := range client.requests {
		if reqTime.After(cutoff) {
			validRequests = append(validRequests, reqTime)
		}
	}
	client.requests = validRequests

	// Check if limit exceeded
	if len(client.requests) >= rl.rate {
		client.blocked = true
		client.blockTime = now
		return false, 0, now.Add(rl.window)
	}

	// Add current request
	client.requests = append(client.requests, now)
	client.blocked = false

	remaining := rl.rate - len(client.requests)
	var resetTime time.Time
	if len(client.requests) > 0 {
		resetTime = client.requests[0].Add(rl.window)
	} else {
		resetTime = now.Add(rl.window)
	}

	return true, remaining, resetTime
}

func (rl *RateLimiter) cleanup() {
	ticker := time.NewTicker(rl.cleanupInterval) // use the renamed field
	defer ticker.Stop()

	for range ticker.C {
		rl.mutex.Lock()
		now := time.Now()
		cutoff := now.Add(-rl.window * 2) // Keep data for 2 windows

		for key, client := range rl.requests {
			if client.lastSeen.Before(cutoff) {
				delete(rl.requests, key)
			}
		}
		rl.mutex.Unlock()
	}
}

// GetRateLimitInfo returns current rate limit information for a key
func (rl *RateLimiter) GetRateLimitInfo(key string) (remaining int, resetTime time.Time, blocked bool) {
	rl.mutex.RLock()
	defer rl.mutex.RUnlock()

	client, exists := rl.requests[key]
	if !exists {
		return rl.rate, time.Now().Add(rl.window), false
	}

	now := time.Now()
	cutoff := now.Add(-rl.window)

	// Count valid requests
	validCount := 0
	var oldestRequest time.Time
	for _, reqTime := range client.requests {
		if reqTime.After(cutoff) {
			validCount++
			if oldestRequest.IsZero() || reqTime.Before(oldestRequest) {
				oldestRequest = reqTime
			}
		}
	}

	remaining = rl.rate - validCount
	if remaining < 0 {
		remaining = 0
	}

	if !oldestRequest.IsZero() {
		resetTime = oldestRequest.Add(rl.window)
	} else {
		resetTime = now.Add(rl.window)
	}

	blocked = client.blocked && now.Before(client.blockTime.Add(rl.window))

	return remaining, resetTime, blocked
}
