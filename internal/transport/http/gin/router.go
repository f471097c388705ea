package httpgin

import (
	"errors"
	"io"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	redisrepo "github.com/kirinyoku/livechain-go/internal/repository/redis"
	"github.com/kirinyoku/livechain-go/internal/service"
	"github.com/kirinyoku/livechain-go/internal/service/collection"
	"github.com/kirinyoku/livechain-go/internal/service/places"
)

type RouterConfig struct {
	StaticDir    string
	StaticPrefix string
	// StreamKeepAlive spaces the comment lines sent on idle event streams.
	StreamKeepAlive time.Duration
}

func NewRouter(
	svcs *service.Services,
	idem *redisrepo.IdempotencyStore,
	logger zerolog.Logger,
	cfg RouterConfig,
	middlewares ...gin.HandlerFunc,
) *gin.Engine {
	if cfg.StreamKeepAlive <= 0 {
		cfg.StreamKeepAlive = defaultStreamKeepAlive
	}

	r := gin.New()

	r.Use(gin.Recovery(), RequestIDMiddleware(), LoggingMiddleware(logger), CORS())
	for _, m := range middlewares {
		if m != nil {
			r.Use(m)
		}
	}

	// Swagger UI
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// health
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	if cfg.StaticDir != "" {
		r.Static(cfg.StaticPrefix, cfg.StaticDir)
	}

	r.GET("/places", handleListPlaces(svcs))
	r.GET("/places/:id", handleGetPlace(svcs))
	r.POST("/places/:id/tickets", handlePurchaseTicket(svcs))

	r.GET("/markers", handleMarkers(svcs))

	users := r.Group("/users/:userId")
	{
		users.GET("/nfts", handleListUserNFTs(svcs))
		users.GET("/nfts/events", handleCollectionEvents(svcs, cfg.StreamKeepAlive))
		users.POST("/acquire-nft", handleAcquireNFT(svcs, idem))
		users.POST("/scan", handleScan(svcs))
	}

	return r
}

// @Summary  List places
// @Success  200  {array}   domain.Place
// @Failure  500  {object}  ErrorResponse
// @Router   /places [get]
func handleListPlaces(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		ps, err := svcs.Places.ListPlaces(c.Request.Context())
		if err != nil {
			respondErr(c, err)
			return
		}
		writeJSONWithCache(c, http.StatusOK, ps, "public, max-age=60", true)
	}
}

// @Summary  Get place
// @Param    id  path  string  true  "Place ID"
// @Success  200  {object}  domain.Place
// @Failure  404  {object}  ErrorResponse
// @Failure  500  {object}  ErrorResponse
// @Router   /places/{id} [get]
func handleGetPlace(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, err := svcs.Places.GetPlace(c.Request.Context(), c.Param("id"))
		if err != nil {
			respondErr(c, err)
			return
		}
		writeJSONWithCache(c, http.StatusOK, p, "public, max-age=60", true)
	}
}

// @Summary  Buy a ticket (not available yet)
// @Param    id  path  string  true  "Place ID"
// @Failure  404  {object}  ErrorResponse
// @Failure  409  {object}  ErrorResponse  "place has no ticket"
// @Failure  501  {object}  TicketStubResponse
// @Router   /places/{id}/tickets [post]
func handlePurchaseTicket(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		q, err := svcs.Places.QuoteTicket(c.Request.Context(), c.Param("id"))
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusNotImplemented, TicketStubResponse{
			PlaceID:     q.PlaceID,
			TicketPrice: q.TicketPrice,
			Message:     "in-app ticket purchase is not available yet",
		})
	}
}

// @Summary  Marker presentation for a map viewport
// @Param    latitudeDelta  query  number  true   "visible latitude span"
// @Param    selected       query  string  false  "selected place id"
// @Success  200  {object}  viewport.Frame
// @Failure  400  {object}  ErrorResponse
// @Router   /markers [get]
func handleMarkers(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		var q MarkersQuery
		if err := c.ShouldBindQuery(&q); err != nil {
			badRequest(c, "latitudeDelta is required and must be a number")
			return
		}
		if math.IsNaN(*q.LatitudeDelta) || math.IsInf(*q.LatitudeDelta, 0) {
			badRequest(c, "latitudeDelta must be finite")
			return
		}

		f, err := svcs.Markers.Frame(c.Request.Context(), *q.LatitudeDelta, q.Selected)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, f)
	}
}

// @Summary  List a user's NFTs, newest first
// @Param    userId  path  string  true  "User ID"
// @Success  200  {array}   domain.CollectionEntry
// @Failure  500  {object}  ErrorResponse
// @Router   /users/{userId}/nfts [get]
func handleListUserNFTs(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		entries, err := svcs.Collection.ListUserCollection(c.Request.Context(), c.Param("userId"))
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, entries)
	}
}

// @Summary  Acquire an NFT (idempotent with Idempotency-Key)
// @Param    userId  path  string             true  "User ID"
// @Param    req     body  AcquireNFTRequest  true  "payload"
// @Header   201 {string} Idempotency-Key "echo"
// @Success  201  {object}  AcquireNFTResponse
// @Failure  400  {object}  ErrorResponse
// @Failure  409  {object}  ErrorResponse  "idempotency key in progress"
// @Failure  422  {object}  ErrorResponse  "idempotency key reused with a different request"
// @Failure  429  {object}  ErrorResponse  "rate limited"
// @Failure  500  {object}  ErrorResponse
// @Router   /users/{userId}/acquire-nft [post]
func handleAcquireNFT(
	svcs *service.Services,
	idem *redisrepo.IdempotencyStore,
) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.Param("userId")

		var req AcquireNFTRequest
		if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
			badRequest(c, "invalid JSON body")
			return
		}

		withIdempotency(c, idem, userID, requestFingerprint(userID, req), func() (int, any, error) {
			rec, err := svcs.Collection.Acquire(c.Request.Context(), collection.AcquireRequest{
				UserID:   userID,
				PlaceID:  req.PlaceID,
				Label:    req.NftName,
				ImageURL: req.ImageURL,
			})
			if err != nil {
				return 0, nil, err
			}
			return http.StatusCreated, AcquireNFTResponse{
				Success: true,
				NftID:   rec.ID,
				Message: "NFT acquired",
			}, nil
		})
	}
}

// @Summary  Acquire the NFT of a scanned place code
// @Param    userId  path  string       true  "User ID"
// @Param    req     body  ScanRequest  true  "payload"
// @Success  201  {object}  AcquireNFTResponse
// @Failure  400  {object}  ErrorResponse
// @Failure  404  {object}  ErrorResponse
// @Failure  429  {object}  ErrorResponse  "rate limited"
// @Router   /users/{userId}/scan [post]
func handleScan(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ScanRequest
		if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
			badRequest(c, "invalid JSON body")
			return
		}

		rec, err := svcs.Collection.AcquireByScan(c.Request.Context(), c.Param("userId"), req.PlaceID)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusCreated, AcquireNFTResponse{
			Success: true,
			NftID:   rec.ID,
			Message: "NFT acquired: " + rec.Label,
		})
	}
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: msg})
}

func respondErr(c *gin.Context, err error) {
	var (
		verr collection.ValidationError
		rl   collection.RateLimitError
	)

	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: verr.Error()})
	case errors.Is(err, places.ErrPlaceNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: places.ErrPlaceNotFound.Error()})
	case errors.As(err, &rl):
		c.Header("Retry-After", retryAfterSeconds(rl.RetryAfter))
		c.JSON(http.StatusTooManyRequests, ErrorResponse{Error: collection.ErrRateLimited.Error()})
	case errors.Is(err, places.ErrNotPurchasable):
		c.JSON(http.StatusConflict, ErrorResponse{Error: places.ErrNotPurchasable.Error()})
	default:
		// Referential failures on acquire land here too: they are reported
		// as a server error without echoing storage details.
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
	}
}

func retryAfterSeconds(d time.Duration) string {
	secs := int64(math.Ceil(d.Seconds()))
	if secs < 1 {
		secs = 1
	}
	return strconv.FormatInt(secs, 10)
}
