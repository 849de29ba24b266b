package usecases

import (
	"context"
	"sync"
	"time"

	"ispagents/internal/entities"
)

// ProfileReader is the persistence dependency of the profile provider.
type ProfileReader interface {
	GetProfile(ctx context.Context, userID int) (*entities.Profile, error)
}

// ProfileSource provides read-only, reactive profile snapshots to the
// access gates. Subscribe registers a change listener and returns its
// cancel function; listeners fire after any snapshot transition.
type ProfileSource interface {
	Snapshot(userID int) ProfileState
	Subscribe(fn func(userID int)) (cancel func())
}

const (
	profileFetchRetries = 2
	profileRetryDelay   = 250 * time.Millisecond
)

// ProfileProvider caches profiles and refreshes them asynchronously.
// While a fetch (or retry) is in flight the snapshot reports loading;
// once retries are exhausted the error snapshot is final and the gate
// falls back to its not-onboarded path. The provider never mutates
// profiles, it only reads them.
type ProfileProvider struct {
	repo ProfileReader

	mu        sync.RWMutex
	states    map[int]ProfileState
	inflight  map[int]bool
	gens      map[int]int
	listeners map[int]func(userID int)
	nextSub   int
}

func NewProfileProvider(repo ProfileReader) *ProfileProvider {
	return &ProfileProvider{
		repo:      repo,
		states:    make(map[int]ProfileState),
		inflight:  make(map[int]bool),
		gens:      make(map[int]int),
		listeners: make(map[int]func(userID int)),
	}
}

// Snapshot returns the current state for a user, kicking off a fetch if
// none has happened yet.
func (p *ProfileProvider) Snapshot(userID int) ProfileState {
	p.mu.Lock()
	state, ok := p.states[userID]
	if !ok && !p.inflight[userID] {
		p.inflight[userID] = true
		state = ProfileState{IsLoading: true}
		p.states[userID] = state
		go p.fetch(userID, p.gens[userID])
	}
	p.mu.Unlock()
	return state
}

// Subscribe registers a listener for snapshot changes.
func (p *ProfileProvider) Subscribe(fn func(userID int)) (cancel func()) {
	p.mu.Lock()
	id := p.nextSub
	p.nextSub++
	p.listeners[id] = fn
	p.mu.Unlock()

	return func() {
		p.mu.Lock()
		delete(p.listeners, id)
		p.mu.Unlock()
	}
}

// Invalidate drops the cached snapshot so the next read refetches.
// Called after profile updates. Bumping the generation orphans any
// fetch still in flight: its result would predate the invalidation.
func (p *ProfileProvider) Invalidate(userID int) {
	p.mu.Lock()
	delete(p.states, userID)
	delete(p.inflight, userID)
	p.gens[userID]++
	p.mu.Unlock()
	p.notify(userID)
}

// WaitReady blocks until the user's snapshot leaves the loading state
// or ctx expires, whichever comes first. On timeout the last snapshot
// is returned as-is; a still-loading result is the caller's signal to
// answer with a retryable status.
func (p *ProfileProvider) WaitReady(ctx context.Context, userID int) ProfileState {
	state := p.Snapshot(userID)
	if !state.IsLoading {
		return state
	}

	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return p.Snapshot(userID)
		case <-ticker.C:
			if state = p.Snapshot(userID); !state.IsLoading {
				return state
			}
		}
	}
}

func (p *ProfileProvider) fetch(userID int, gen int) {
	var profile *entities.Profile
	var err error

	for attempt := 0; ; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		profile, err = p.repo.GetProfile(ctx, userID)
		cancel()
		if err == nil || attempt >= profileFetchRetries {
			break
		}
		time.Sleep(profileRetryDelay)
	}

	p.mu.Lock()
	if p.gens[userID] != gen {
		// Invalidated while fetching. Discard the stale result; a fresh
		// fetch owns (or will own) the inflight flag.
		p.mu.Unlock()
		return
	}
	delete(p.inflight, userID)
	if err != nil {
		// Final: no profile, not loading. The gate treats this the same
		// as an incomplete onboarding rather than granting access.
		p.states[userID] = ProfileState{Err: err}
	} else {
		p.states[userID] = ProfileState{Profile: profile}
	}
	p.mu.Unlock()

	p.notify(userID)
}

func (p *ProfileProvider) notify(userID int) {
	p.mu.RLock()
	fns := make([]func(int), 0, len(p.listeners))
	for _, fn := range p.listeners {
		fns = append(fns, fn)
	}
	p.mu.RUnlock()

	for _, fn := range fns {
		fn(userID)
	}
}
