package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/platinummonkey/roster/pkg/kvstore"
	"github.com/platinummonkey/roster/pkg/model"
)

// DefaultKeyPrefix is prepended to every document key
const DefaultKeyPrefix = "roster:"

// Collection names one of the persisted documents
type Collection string

const (
	CollectionUsers        Collection = "users"
	CollectionGroups       Collection = "groups"
	CollectionChannels     Collection = "channels"
	CollectionJoinRequests Collection = "join_requests"
)

// AllCollections lists the collections in lock order
var AllCollections = []Collection{
	CollectionUsers,
	CollectionGroups,
	CollectionChannels,
	CollectionJoinRequests,
}

// Repository loads and saves the typed collections. It performs no validation;
// the membership service is its only writer.
type Repository struct {
	store  kvstore.Store
	prefix string
}

// New creates a repository over store. An empty prefix selects DefaultKeyPrefix.
func New(store kvstore.Store, prefix string) *Repository {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return &Repository{store: store, prefix: prefix}
}

// Key returns the store key of a collection
func (r *Repository) Key(c Collection) string {
	return r.prefix + string(c)
}

// Store returns the underlying key-value store
func (r *Repository) Store() kvstore.Store {
	return r.store
}

func (r *Repository) load(ctx context.Context, c Collection, v interface{}) (bool, error) {
	data, found, err := r.store.Get(ctx, r.Key(c))
	if err != nil {
		return false, fmt.Errorf("failed to load %s: %w", c, err)
	}
	if !found {
		return false, nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("failed to decode %s: %w", c, err)
	}
	return true, nil
}

func (r *Repository) save(ctx context.Context, c Collection, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", c, err)
	}
	if err := r.store.Put(ctx, r.Key(c), data); err != nil {
		return fmt.Errorf("failed to save %s: %w", c, err)
	}
	return nil
}

// LoadUsers returns all users, or the demo accounts when none have been stored
func (r *Repository) LoadUsers(ctx context.Context) ([]*model.User, error) {
	var users []*model.User
	found, err := r.load(ctx, CollectionUsers, &users)
	if err != nil {
		return nil, err
	}
	if !found {
		return DefaultUsers(), nil
	}
	return normalizeUsers(users), nil
}

// SaveUsers replaces the stored users
func (r *Repository) SaveUsers(ctx context.Context, users []*model.User) error {
	return r.save(ctx, CollectionUsers, nonNil(users))
}

// LoadGroups returns all groups
func (r *Repository) LoadGroups(ctx context.Context) ([]*model.Group, error) {
	var groups []*model.Group
	if _, err := r.load(ctx, CollectionGroups, &groups); err != nil {
		return nil, err
	}
	return normalizeGroups(groups), nil
}

// SaveGroups replaces the stored groups
func (r *Repository) SaveGroups(ctx context.Context, groups []*model.Group) error {
	return r.save(ctx, CollectionGroups, nonNil(groups))
}

// LoadChannels returns all channels
func (r *Repository) LoadChannels(ctx context.Context) ([]*model.Channel, error) {
	var channels []*model.Channel
	if _, err := r.load(ctx, CollectionChannels, &channels); err != nil {
		return nil, err
	}
	return normalizeChannels(channels), nil
}

// SaveChannels replaces the stored channels
func (r *Repository) SaveChannels(ctx context.Context, channels []*model.Channel) error {
	return r.save(ctx, CollectionChannels, nonNil(channels))
}

// LoadJoinRequests returns the join request log
func (r *Repository) LoadJoinRequests(ctx context.Context) ([]*model.JoinRequest, error) {
	var requests []*model.JoinRequest
	if _, err := r.load(ctx, CollectionJoinRequests, &requests); err != nil {
		return nil, err
	}
	if requests == nil {
		requests = []*model.JoinRequest{}
	}
	return requests, nil
}

// SaveJoinRequests replaces the stored join request log
func (r *Repository) SaveJoinRequests(ctx context.Context, requests []*model.JoinRequest) error {
	return r.save(ctx, CollectionJoinRequests, nonNil(requests))
}

// LoadSnapshot loads the four collections concurrently
func (r *Repository) LoadSnapshot(ctx context.Context) (*Snapshot, error) {
	snap := &Snapshot{}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		users, err := r.LoadUsers(gctx)
		snap.Users = users
		return err
	})
	g.Go(func() error {
		groups, err := r.LoadGroups(gctx)
		snap.Groups = groups
		return err
	})
	g.Go(func() error {
		channels, err := r.LoadChannels(gctx)
		snap.Channels = channels
		return err
	})
	g.Go(func() error {
		requests, err := r.LoadJoinRequests(gctx)
		snap.JoinRequests = requests
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return snap, nil
}

// SaveBatch persists the named collections of snap together. Stores that
// implement kvstore.BatchPutter write them atomically; other stores write them
// one at a time and restore earlier documents if a later write fails.
func (r *Repository) SaveBatch(ctx context.Context, snap *Snapshot, collections ...Collection) error {
	if len(collections) == 0 {
		return nil
	}
	docs := make(map[string][]byte, len(collections))
	for _, c := range collections {
		var v interface{}
		switch c {
		case CollectionUsers:
			v = nonNil(snap.Users)
		case CollectionGroups:
			v = nonNil(snap.Groups)
		case CollectionChannels:
			v = nonNil(snap.Channels)
		case CollectionJoinRequests:
			v = nonNil(snap.JoinRequests)
		default:
			return fmt.Errorf("unknown collection %q", c)
		}
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("failed to encode %s: %w", c, err)
		}
		docs[r.Key(c)] = data
	}
	if err := kvstore.PutMany(ctx, r.store, docs); err != nil {
		return fmt.Errorf("failed to save collections: %w", err)
	}
	return nil
}

// nonNil makes an empty collection encode as [] rather than null
func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}

func normalizeUsers(users []*model.User) []*model.User {
	out := make([]*model.User, 0, len(users))
	for _, u := range users {
		if u == nil {
			continue
		}
		if u.Groups == nil {
			u.Groups = []string{}
		}
		out = append(out, u)
	}
	return out
}

func normalizeGroups(groups []*model.Group) []*model.Group {
	out := make([]*model.Group, 0, len(groups))
	for _, g := range groups {
		if g == nil {
			continue
		}
		if g.Admins == nil {
			g.Admins = []string{}
		}
		if g.Members == nil {
			g.Members = []string{}
		}
		if g.Channels == nil {
			g.Channels = []string{}
		}
		out = append(out, g)
	}
	return out
}

func normalizeChannels(channels []*model.Channel) []*model.Channel {
	out := make([]*model.Channel, 0, len(channels))
	for _, c := range channels {
		if c == nil {
			continue
		}
		if c.Members == nil {
			c.Members = []string{}
		}
		if c.BannedUsers == nil {
			c.BannedUsers = []string{}
		}
		out = append(out, c)
	}
	return out
}
