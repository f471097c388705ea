package httpgin

import (
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kirinyoku/livechain-go/internal/service"
)

const defaultStreamKeepAlive = 25 * time.Second

// @Summary   Stream a user's new NFTs as server-sent events
// @Param     userId  path  string  true  "User ID"
// @Produce   text/event-stream
// @Success   200  {object}  redisrepo.CollectionEvent  "one nft_acquired event per acquisition"
// @Failure   503  {object}  ErrorResponse
// @Router    /users/{userId}/nfts/events [get]
func handleCollectionEvents(svcs *service.Services, keepAlive time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		feed := svcs.Collection.Feed()
		if feed == nil {
			c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "event stream unavailable"})
			return
		}

		events, stop := feed.Subscribe(c.Param("userId"))
		defer stop()

		c.Header("Content-Type", "text/event-stream")
		c.Header("Cache-Control", "no-cache")
		c.Header("Connection", "keep-alive")
		c.Status(http.StatusOK)
		c.Writer.Flush()

		ticker := time.NewTicker(keepAlive)
		defer ticker.Stop()

		ctx := c.Request.Context()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-events:
				if !ok {
					return
				}
				c.SSEvent(ev.Type, ev)
				c.Writer.Flush()
			case <-ticker.C:
				if _, err := io.WriteString(c.Writer, ": keep-alive\n\n"); err != nil {
					return
				}
				c.Writer.Flush()
			}
		}
	}
}
