package middleware

import (
	"fmt"
	"net/http"

	"github.com/redis/go-redis/v9"
	"github.com/ulule/limiter/v3"
	stdlibmw "github.com/ulule/limiter/v3/drivers/middleware/stdlib"
	memorystore "github.com/ulule/limiter/v3/drivers/store/memory"
	redisstore "github.com/ulule/limiter/v3/drivers/store/redis"

	"github.com/socialsuit/Backend-Socialsuit/internal/request"
)

const defaultAuthRate = "5-M"

// AuthRateLimit returns a strict per-client limiter for auth-sensitive route
// groups (login, wallet connect, OAuth callbacks), layered on top of the
// platform-wide quota. rate uses the "<count>-<period>" format, e.g. "5-M".
// With a nil redis client the limiter counts in process memory.
func AuthRateLimit(redisClient *redis.Client, rate string) (func(http.Handler) http.Handler, error) {
	if rate == "" {
		rate = defaultAuthRate
	}
	parsed, err := limiter.NewRateFromFormatted(rate)
	if err != nil {
		return nil, fmt.Errorf("parse auth rate limit: %w", err)
	}

	var store limiter.Store
	if redisClient != nil {
		store, err = redisstore.NewStore(redisClient)
		if err != nil {
			return nil, fmt.Errorf("create redis store for auth rate limit: %w", err)
		}
	} else {
		store = memorystore.NewStore()
	}

	instance := limiter.New(store, parsed)
	mw := stdlibmw.NewMiddleware(instance, stdlibmw.WithKeyGetter(func(r *http.Request) string {
		return request.Identity(r)
	}))
	return mw.Handler, nil
}
