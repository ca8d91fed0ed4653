package reg

import (
	"context"
	"sort"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/iamwavecut/pquota/internal/db"
)

type restrictionStore interface {
	AddRestrictedChannel(ctx context.Context, key db.RestrictionKey) error
	RemoveRestrictedChannel(ctx context.Context, key db.RestrictionKey) error
	ListRestrictedChannels(ctx context.Context) ([]db.RestrictionKey, error)
}

// Registry mirrors the durable set of restricted channels in memory.
// The cache is only written after the store accepted the change. Writers are
// serialized across the store call and the cache update; readers only take mutex.
type Registry struct {
	store restrictionStore

	writeMutex sync.Mutex

	mutex sync.RWMutex
	cache map[int64]map[int64]struct{}
	size  int

	onChange func(size int)
}

func New(store restrictionStore) *Registry {
	return &Registry{
		store: store,
		cache: map[int64]map[int64]struct{}{},
	}
}

// OnChange registers a callback invoked with the number of restricted channels
// after every successful mutation.
func (r *Registry) OnChange(fn func(size int)) {
	r.mutex.Lock()
	r.onChange = fn
	r.mutex.Unlock()
}

func (r *Registry) IsRestricted(communityID, channelID int64) bool {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	_, ok := r.cache[communityID][channelID]
	return ok
}

func (r *Registry) Add(ctx context.Context, communityID, channelID int64) error {
	r.writeMutex.Lock()
	defer r.writeMutex.Unlock()

	if err := r.store.AddRestrictedChannel(ctx, db.RestrictionKey{CommunityID: communityID, ChannelID: channelID}); err != nil {
		return err
	}

	r.mutex.Lock()
	channels, ok := r.cache[communityID]
	if !ok {
		channels = map[int64]struct{}{}
		r.cache[communityID] = channels
	}
	if _, exists := channels[channelID]; !exists {
		channels[channelID] = struct{}{}
		r.size++
	}
	size, onChange := r.size, r.onChange
	r.mutex.Unlock()

	r.getLogEntry().WithFields(log.Fields{
		"method":     "Add",
		"chat_id":    communityID,
		"channel_id": channelID,
	}).Info("channel restricted")
	notify(onChange, size)
	return nil
}

func (r *Registry) Remove(ctx context.Context, communityID, channelID int64) error {
	r.writeMutex.Lock()
	defer r.writeMutex.Unlock()

	if err := r.store.RemoveRestrictedChannel(ctx, db.RestrictionKey{CommunityID: communityID, ChannelID: channelID}); err != nil {
		return err
	}

	r.mutex.Lock()
	if channels, ok := r.cache[communityID]; ok {
		if _, exists := channels[channelID]; exists {
			delete(channels, channelID)
			r.size--
		}
		if len(channels) == 0 {
			delete(r.cache, communityID)
		}
	}
	size, onChange := r.size, r.onChange
	r.mutex.Unlock()

	r.getLogEntry().WithFields(log.Fields{
		"method":     "Remove",
		"chat_id":    communityID,
		"channel_id": channelID,
	}).Info("channel unrestricted")
	notify(onChange, size)
	return nil
}

// Reload replaces the cache with the store contents. On error the previous cache is kept.
func (r *Registry) Reload(ctx context.Context) error {
	r.writeMutex.Lock()
	defer r.writeMutex.Unlock()

	keys, err := r.store.ListRestrictedChannels(ctx)
	if err != nil {
		return err
	}

	fresh := make(map[int64]map[int64]struct{}, len(keys))
	size := 0
	for _, key := range keys {
		channels, ok := fresh[key.CommunityID]
		if !ok {
			channels = map[int64]struct{}{}
			fresh[key.CommunityID] = channels
		}
		if _, exists := channels[key.ChannelID]; !exists {
			channels[key.ChannelID] = struct{}{}
			size++
		}
	}

	r.mutex.Lock()
	r.cache = fresh
	r.size = size
	onChange := r.onChange
	r.mutex.Unlock()

	r.getLogEntry().WithField("count", size).Info("restricted channels loaded")
	notify(onChange, size)
	return nil
}

func (r *Registry) Len() int {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	return r.size
}

// List returns the restricted channels of a community in ascending order.
func (r *Registry) List(communityID int64) []int64 {
	r.mutex.RLock()
	channels := make([]int64, 0, len(r.cache[communityID]))
	for channelID := range r.cache[communityID] {
		channels = append(channels, channelID)
	}
	r.mutex.RUnlock()

	sort.Slice(channels, func(i, j int) bool { return channels[i] < channels[j] })
	return channels
}

func (r *Registry) getLogEntry() *log.Entry {
	return log.WithField("object", "Registry")
}

func notify(fn func(int), size int) {
	if fn != nil {
		fn(size)
	}
}
