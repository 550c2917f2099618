package common

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"time"

	redis "github.com/redis/go-redis/v9"
)

const idempotencyHeader = "Idempotency-Key"

// Idem rejects replays of write requests that carry the same Idempotency-Key
// within TTL. Requests without the header pass through untouched.
type Idem struct {
	R   *redis.Client
	TTL time.Duration
}

func (i Idem) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := r.Header.Get(idempotencyHeader)
		if raw == "" || i.R == nil {
			next.ServeHTTP(w, r)
			return
		}

		sum := sha256.Sum256([]byte(raw))
		key := "idem:" + hex.EncodeToString(sum[:])

		acquired, err := i.R.SetNX(r.Context(), key, "locked", i.TTL).Result()
		if err != nil {
			JSONError(w, http.StatusInternalServerError, CodeStore, "idempotency store error", nil)
			return
		}
		if !acquired {
			JSONError(w, http.StatusConflict, "IDEMPOTENT_REPLAY", "duplicate request", nil)
			return
		}
		// Re-arm the TTL on the way out so a panicking handler cannot pin
		// the key forever.
		defer func() {
			_ = i.R.Expire(context.Background(), key, i.TTL).Err()
		}()
		next.ServeHTTP(w, r)
	})
}
