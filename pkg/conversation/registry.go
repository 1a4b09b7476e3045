package conversation

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Registry keeps live conversations in memory with a TTL, so an idle chat
// surface can be resumed within the hour and reaped afterwards.
type Registry struct {
	cache *gocache.Cache
}

func NewRegistry() *Registry {
	// Default expiration of 1 hour, expired entries purged every 10 minutes.
	return &Registry{cache: gocache.New(1*time.Hour, 10*time.Minute)}
}

func (r *Registry) Save(c *Conversation) {
	r.cache.Set(c.ID.String(), c, gocache.DefaultExpiration)
}

func (r *Registry) Get(id string) (*Conversation, bool) {
	if x, found := r.cache.Get(id); found {
		return x.(*Conversation), true
	}
	return nil, false
}

func (r *Registry) Delete(id string) {
	r.cache.Delete(id)
}
