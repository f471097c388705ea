package redisrepo

import "fmt"

const ns = "livechain:v1"

func KeyPlaces() string {
	return ns + ":places"
}

func KeyPlace(placeID string) string {
	return fmt.Sprintf("%s:place:%s", ns, placeID)
}

// KeyUserCollection names one generation of a user's cached collection.
func KeyUserCollection(userID string, gen int64) string {
	return fmt.Sprintf("%s:user:%s:nfts:%d", ns, userID, gen)
}

func KeyUserCollectionGen(userID string) string {
	return fmt.Sprintf("%s:user:%s:nfts:gen", ns, userID)
}

func KeyIdemAcquire(userID, idemKey string) string {
	return fmt.Sprintf("%s:idem:acquire:%s:%s", ns, userID, idemKey)
}

func ChannelCollectionChanged() string {
	return ns + ":collections:changed"
}
