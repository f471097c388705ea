package httpgin

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	redisrepo "github.com/kirinyoku/livechain-go/internal/repository/redis"
)

const idemLockTTL = 60 * time.Second

// requestFingerprint identifies a request by its decoded content, so two
// bodies that differ only in formatting or field order match.
func requestFingerprint(parts ...any) string {
	b, _ := json.Marshal(parts)
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// withIdempotency runs fn once per (user, Idempotency-Key). A stored success
// is replayed verbatim; a key whose first request is still running gets 409;
// a key reused for a different request gets 422. Failed attempts release the
// key so the client can retry. Without a store or a key, fn simply runs.
func withIdempotency(
	c *gin.Context,
	idem *redisrepo.IdempotencyStore,
	userID string,
	fingerprint string,
	fn func() (int, any, error),
) {
	ctx := c.Request.Context()

	idemKey := strings.TrimSpace(c.GetHeader("Idempotency-Key"))
	var storageKey string
	if idem != nil && idemKey != "" {
		storageKey = redisrepo.KeyIdemAcquire(userID, idemKey)

		if entry, ok, _ := idem.Get(ctx, storageKey); ok {
			answerClaimed(c, idemKey, fingerprint, entry)
			return
		}

		locked, err := idem.AcquireLock(ctx, storageKey, fingerprint, idemLockTTL)
		if err != nil {
			respondErr(c, err)
			return
		}
		if !locked {
			entry, ok, _ := idem.Get(ctx, storageKey)
			if !ok {
				entry = redisrepo.IdempotencyEntry{Fingerprint: fingerprint}
			}
			answerClaimed(c, idemKey, fingerprint, entry)
			return
		}
	}

	status, resp, err := fn()
	if err != nil {
		if storageKey != "" {
			_ = idem.Release(ctx, storageKey)
		}
		respondErr(c, err)
		return
	}

	if storageKey != "" {
		b, _ := json.Marshal(resp)
		_ = idem.SaveResult(ctx, storageKey, fingerprint, string(b))
		c.Header("Idempotency-Key", idemKey)
	}

	c.JSON(status, resp)
}

// answerClaimed responds to a request whose key is already taken.
func answerClaimed(c *gin.Context, idemKey, fingerprint string, entry redisrepo.IdempotencyEntry) {
	switch {
	case entry.Fingerprint != fingerprint:
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Error: "idempotency key reused with a different request"})
	case entry.Done:
		c.Header("Idempotency-Key", idemKey)
		c.Data(http.StatusCreated, "application/json; charset=utf-8", []byte(entry.Payload))
	default:
		c.Header("Retry-After", "1")
		c.JSON(http.StatusConflict, ErrorResponse{Error: "idempotency key in progress"})
	}
}
