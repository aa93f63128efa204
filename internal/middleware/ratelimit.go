package middleware

import (
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

type RateLimitConfig struct {
	RequestsPerSecond int
	BurstSize         int
	CleanupInterval   time.Duration
}

// IPRateLimiter keeps one token bucket per client IP.
type IPRateLimiter struct {
	limiters map[string]*rate.Limiter
	mu       sync.RWMutex
	config   RateLimitConfig
}

func NewIPRateLimiter(config RateLimitConfig) *IPRateLimiter {
	limiter := &IPRateLimiter{
		limiters: make(map[string]*rate.Limiter),
		config:   config,
	}

	go limiter.cleanupRoutine()

	return limiter
}

func (i *IPRateLimiter) GetLimiter(ip string) *rate.Limiter {
	i.mu.Lock()
	defer i.mu.Unlock()

	limiter, exists := i.limiters[ip]
	if !exists {
		limiter = rate.NewLimiter(rate.Limit(i.config.RequestsPerSecond), i.config.BurstSize)
		i.limiters[ip] = limiter
	}

	return limiter
}

// cleanupRoutine drops buckets that have fully refilled, i.e. idle clients.
func (i *IPRateLimiter) cleanupRoutine() {
	ticker := time.NewTicker(i.config.CleanupInterval)
	defer ticker.Stop()

	for range ticker.C {
		i.mu.Lock()
		for ip, limiter := range i.limiters {
			if limiter.Tokens() == float64(i.config.BurstSize) {
				delete(i.limiters, ip)
			}
		}
		i.mu.Unlock()
	}
}

func getClientIP(c *gin.Context) string {
	forwarded := c.GetHeader("X-Forwarded-For")
	if forwarded != "" {
		ip := forwarded
		for idx := 0; idx < len(forwarded); idx++ {
			if forwarded[idx] == ',' {
				ip = forwarded[:idx]
				break
			}
		}
		if parsedIP := net.ParseIP(ip); parsedIP != nil {
			return ip
		}
	}

	realIP := c.GetHeader("X-Real-IP")
	if realIP != "" {
		if parsedIP := net.ParseIP(realIP); parsedIP != nil {
			return realIP
		}
	}

	ip, _, err := net.SplitHostPort(c.Request.RemoteAddr)
	if err != nil {
		return c.Request.RemoteAddr
	}
	return ip
}

func RateLimitMiddleware(limiter *IPRateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		clientIP := getClientIP(c)
		rateLimiter := limiter.GetLimiter(clientIP)

		if !rateLimiter.Allow() {
			c.Header("Retry-After", "1")
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":   "Rate limit exceeded",
				"message": "Too many requests. Please slow down.",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}

var (
	// StrictRateLimit for authentication endpoints.
	StrictRateLimit = RateLimitConfig{
		RequestsPerSecond: 5,
		BurstSize:         10,
		CleanupInterval:   5 * time.Minute,
	}

	// StandardRateLimit for general API endpoints.
	StandardRateLimit = RateLimitConfig{
		RequestsPerSecond: 30,
		BurstSize:         50,
		CleanupInterval:   5 * time.Minute,
	}
)
