package security

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// Policy 保存可在运行时重新加载的 CORS 白名单和限流参数
type Policy struct {
	mu          sync.RWMutex
	origins     map[string]bool
	maxRequests int
	window      time.Duration
	// 限流参数变化时递增，旧的 visitor 随之失效
	generation int
}

func NewPolicy(allowedOrigins []string, maxRequests int, window time.Duration) *Policy {
	p := &Policy{}
	p.Update(allowedOrigins, maxRequests, window)
	return p
}

func (p *Policy) Update(allowedOrigins []string, maxRequests int, window time.Duration) {
	originSet := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		originSet[o] = true
	}
	if maxRequests <= 0 {
		maxRequests = 1
	}
	if window <= 0 {
		window = time.Minute
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.origins = originSet
	if p.maxRequests != maxRequests || p.window != window {
		p.maxRequests = maxRequests
		p.window = window
		p.generation++
	}
}

func (p *Policy) AllowOrigin(origin string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.origins["*"] || p.origins[origin]
}

func (p *Policy) limits() (rate.Limit, int, int) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return rate.Every(p.window / time.Duration(p.maxRequests)), p.maxRequests, p.generation
}

// CORS 仅允许白名单中的 Origin，支持 Credentials
func CORS(p *Policy) gin.HandlerFunc {
	return cors.New(cors.Config{
		AllowOriginFunc:  p.AllowOrigin,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Content-Length", "Accept", "Authorization", "X-Requested-With", "Cache-Control"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	})
}

// Secure 中间件
func Secure() gin.HandlerFunc {
	return func(c *gin.Context) {
		// 防止MIME嗅探
		c.Header("X-Content-Type-Options", "nosniff")
		// 防止点击劫持
		c.Header("X-Frame-Options", "DENY")
		if c.Request.TLS != nil {
			c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}

		c.Next()
	}
}

// visitor 包装限流器和最后活跃时间，用于定期清理
type visitor struct {
	limiter    *rate.Limiter
	generation int
	lastSeen   time.Time
}

// RateLimiter 按 IP 限流，自动清理过期条目
func RateLimiter(p *Policy) gin.HandlerFunc {
	store := make(map[string]*visitor)
	var mu sync.Mutex

	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for range ticker.C {
			p.mu.RLock()
			expiry := p.window * 3
			p.mu.RUnlock()
			if expiry < time.Minute {
				expiry = time.Minute
			}
			mu.Lock()
			for ip, v := range store {
				if time.Since(v.lastSeen) > expiry {
					delete(store, ip)
				}
			}
			mu.Unlock()
		}
	}()

	return func(c *gin.Context) {
		key := c.ClientIP()
		r, burst, gen := p.limits()

		mu.Lock()
		v, exists := store[key]
		if !exists || v.generation != gen {
			v = &visitor{
				limiter:    rate.NewLimiter(r, burst),
				generation: gen,
			}
			store[key] = v
		}
		v.lastSeen = time.Now()
		mu.Unlock()

		if !v.limiter.Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"code": http.StatusTooManyRequests, "message": "too many requests"})
			return
		}

		c.Next()
	}
}
