package redisrepo

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// CollectionEvent announces a newly acquired NFT.
type CollectionEvent struct {
	Type    string `json:"type"`
	UserID  string `json:"user_id"`
	PlaceID string `json:"place_id"`
	NftID   string `json:"nft_id"`
	TsUnix  int64  `json:"ts_unix"`
}

const eventNftAcquired = "nft_acquired"

// AcquiredEvent describes one acquisition.
func AcquiredEvent(userID, placeID, nftID string, at time.Time) CollectionEvent {
	return CollectionEvent{
		Type:    eventNftAcquired,
		UserID:  userID,
		PlaceID: placeID,
		NftID:   nftID,
		TsUnix:  at.Unix(),
	}
}

type CollectionPubSub struct {
	rdb     *redis.Client
	channel string
}

func NewCollectionPubSub(rdb *redis.Client) *CollectionPubSub {
	return &CollectionPubSub{
		rdb:     rdb,
		channel: ChannelCollectionChanged(),
	}
}

func (p *CollectionPubSub) Publish(ctx context.Context, ev CollectionEvent) error {
	b, err := json.Marshal(ev)
	if err != nil {
		return err
	}

	return p.rdb.Publish(ctx, p.channel, b).Err()
}

// Subscribe blocks, calling handler for every well-formed event until ctx is
// done or the subscription closes.
func (p *CollectionPubSub) Subscribe(ctx context.Context, handler func(ctx context.Context, ev CollectionEvent)) error {
	sub := p.rdb.Subscribe(ctx, p.channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return err
	}

	ch := sub.Channel(redis.WithChannelSize(256))
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case m, ok := <-ch:
			if !ok {
				return nil
			}
			var ev CollectionEvent
			if err := json.Unmarshal([]byte(m.Payload), &ev); err == nil &&
				ev.Type == eventNftAcquired && ev.UserID != "" {
				handler(ctx, ev)
			}
		}
	}
}
