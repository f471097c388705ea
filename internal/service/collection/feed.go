package collection

import (
	"sync"

	redisrepo "github.com/kirinyoku/livechain-go/internal/repository/redis"
)

const feedBuffer = 16

// Feed fans acquisition events out to the streams open on this instance.
type Feed struct {
	mu   sync.Mutex
	subs map[string]map[chan redisrepo.CollectionEvent]struct{}
}

func NewFeed() *Feed {
	return &Feed{subs: make(map[string]map[chan redisrepo.CollectionEvent]struct{})}
}

// Subscribe registers a stream for userID. The returned func ends it and
// closes the channel.
func (f *Feed) Subscribe(userID string) (<-chan redisrepo.CollectionEvent, func()) {
	ch := make(chan redisrepo.CollectionEvent, feedBuffer)

	f.mu.Lock()
	if f.subs[userID] == nil {
		f.subs[userID] = make(map[chan redisrepo.CollectionEvent]struct{})
	}
	f.subs[userID][ch] = struct{}{}
	f.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			f.mu.Lock()
			defer f.mu.Unlock()
			delete(f.subs[userID], ch)
			if len(f.subs[userID]) == 0 {
				delete(f.subs, userID)
			}
			close(ch)
		})
	}
}

// Publish hands ev to every stream of its user. A stream whose buffer is full
// misses the event.
func (f *Feed) Publish(ev redisrepo.CollectionEvent) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for ch := range f.subs[ev.UserID] {
		select {
		case ch <- ev:
		default:
		}
	}
}

// Subscribers counts the open streams of userID.
func (f *Feed) Subscribers(userID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs[userID])
}
