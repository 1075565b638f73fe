package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/oksasatya/greenloop/pkg/response"
)

// KeyFunc picks the bucket a request counts against.
type KeyFunc func(c *gin.Context) string

// AllowFunc returns true to skip the limit for a request.
type AllowFunc func(*gin.Context) bool

// Policy is one fixed-window limit.
type Policy struct {
	Name   string
	Max    int
	Window time.Duration
	Key    KeyFunc
}

// Route policies. Model-backed routes get the tightest budgets.
var (
	PolicyRegister = Policy{Name: "register", Max: 5, Window: time.Minute, Key: KeyByIP()}
	PolicyLogin    = Policy{Name: "login", Max: 10, Window: time.Minute, Key: KeyByIP()}
	PolicyRefresh  = Policy{Name: "refresh", Max: 60, Window: time.Minute, Key: KeyByIP()}
	PolicyPublic   = Policy{Name: "public", Max: 120, Window: time.Minute, Key: KeyByIP()}
	PolicyLedger   = Policy{Name: "ledger", Max: 120, Window: time.Minute, Key: KeyByUserID()}
	PolicyProfile  = Policy{Name: "profile", Max: 120, Window: time.Minute, Key: KeyByUserID()}
	PolicyUpload   = Policy{Name: "upload", Max: 20, Window: time.Minute, Key: KeyByUserID()}
	PolicyModel    = Policy{Name: "model", Max: 30, Window: time.Minute, Key: KeyByUserID()}
)

func ipFromCtx(c *gin.Context) string {
	if ip := c.GetString(RealIPKey); ip != "" {
		return ip
	}
	if ip := c.ClientIP(); ip != "" {
		return ip
	}
	return "unknown"
}

// KeyByIP buckets by client address.
func KeyByIP() KeyFunc {
	return func(c *gin.Context) string { return "ip:" + ipFromCtx(c) }
}

// KeyByUserID buckets authenticated callers by user, anonymous ones by IP.
func KeyByUserID() KeyFunc {
	return func(c *gin.Context) string {
		if uid := c.GetString(CtxUserIDKey); uid != "" {
			return "user:" + uid
		}
		return "anon:" + ipFromCtx(c)
	}
}

// INCR and PEXPIRE on first hit; returns {count, pttl} in one round trip.
var windowScript = redis.NewScript(`
local n = redis.call("INCR", KEYS[1])
if n == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return {n, redis.call("PTTL", KEYS[1])}
`)

// RateLimit enforces p in Redis and sets the X-RateLimit-* headers. Without
// Redis it is a no-op; Redis errors fail open. OPTIONS is never counted.
func RateLimit(rdb *redis.Client, p Policy, allow AllowFunc) gin.HandlerFunc {
	if rdb == nil || p.Max <= 0 || p.Window <= 0 || p.Key == nil {
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions || (allow != nil && allow(c)) {
			c.Next()
			return
		}

		key := "gl:rl:" + p.Name + ":" + p.Key(c)
		res, err := windowScript.Run(c.Request.Context(), rdb, []string{key}, p.Window.Milliseconds()).Int64Slice()
		if err != nil || len(res) != 2 {
			c.Next()
			return
		}
		count := int(res[0])
		reset := resetSeconds(res[1])

		c.Header("X-RateLimit-Limit", strconv.Itoa(p.Max))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining(p.Max, count)))
		c.Header("X-RateLimit-Reset", strconv.Itoa(reset))

		if count > p.Max {
			if reset > 0 {
				c.Header("Retry-After", strconv.Itoa(reset))
			}
			response.Abort(c, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		c.Next()
	}
}

func resetSeconds(pttl int64) int {
	if pttl <= 0 {
		return 0
	}
	return int((pttl + 999) / 1000)
}

func remaining(max, count int) int {
	if count >= max {
		return 0
	}
	return max - count
}
