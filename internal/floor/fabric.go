package floor

import (
	"sync"
	"time"

	"github.com/crosstalk-io/crosstalk/internal/agent"
	"github.com/crosstalk-io/crosstalk/internal/errors"
	"github.com/crosstalk-io/crosstalk/internal/event"
)

// Flags is one agent's publicly visible intent state.
type Flags struct {
	Wants bool // declared intent to acquire the floor
	Holds bool // currently holds the floor
}

// flagSet is the fabric-internal record per agent. Invariant maintained by
// every mutation: holds implies not wants.
type flagSet struct {
	wants bool
	holds bool
	grant *Grant // active grant while holds is true
}

// Fabric is the coordination state shared by all floor controllers: a mapping
// from agent id to its {wants_floor, holds_floor} pair. Every
// read-peers-then-claim sequence runs under one mutex, so two simultaneous
// claims can never both decide "I win" or both decide "I yield" — this
// atomicity is what makes the tie-break safe without negotiation rounds.
//
// Callers never mutate flags directly; the API is Join, DeclareIntent,
// ClearIntent, Claim, and the read-only accessors. Releases go through the
// Grant issued by Claim.
type Fabric struct {
	mu    sync.Mutex
	flags map[agent.ID]*flagSet
	bus   *event.Bus
}

// NewFabric creates an empty fabric. Telemetry for collisions and releases is
// published on bus.
func NewFabric(bus *event.Bus) *Fabric {
	return &Fabric{
		flags: make(map[agent.ID]*flagSet),
		bus:   bus,
	}
}

// Join registers an agent with the fabric. Joining twice is a no-op; flags
// start cleared.
func (f *Fabric) Join(id agent.ID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.flags[id]; !ok {
		f.flags[id] = &flagSet{}
	}
}

// DeclareIntent sets wants_floor for id. A no-op while the agent holds the
// floor (holds implies not wants) or if the agent never joined.
func (f *Fabric) DeclareIntent(id agent.ID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fl, ok := f.flags[id]
	if !ok || fl.holds {
		return
	}
	fl.wants = true
}

// ClearIntent clears wants_floor for id.
func (f *Fabric) ClearIntent(id agent.ID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if fl, ok := f.flags[id]; ok {
		fl.wants = false
	}
}

// Claim runs the read-peers-then-claim sequence for id atomically and either
// grants the floor for the given tenure or denies it. A denial returns
// (nil, nil): the caller lost the tie-break and should yield. Whatever the
// outcome, id's wants_floor is cleared before Claim returns.
//
// Grant rules, evaluated under the fabric mutex:
//   - No peer holds or wants the floor: granted.
//   - A peer wants the floor and its identity beats id: denied; a
//     floor.collision event names the winner.
//   - A peer holds the floor and its identity beats id: denied.
//   - A peer holds the floor and id beats it: granted by interruption — the
//     holder's grant is revoked in place and its holds_floor cleared inside
//     the same critical section, so no instant has two holders.
//
// A peer that wants the floor but loses to id does not block the claim; it
// discovers the loss on its own Claim call.
func (f *Fabric) Claim(id agent.ID, tenure time.Duration) (*Grant, error) {
	g, events, err := f.claim(id, tenure)
	// Handlers run on this goroutine; publish outside the fabric mutex so a
	// subscriber reading the fabric cannot deadlock.
	for _, e := range events {
		f.bus.Publish(e)
	}
	return g, err
}

func (f *Fabric) claim(id agent.ID, tenure time.Duration) (*Grant, []event.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	self, ok := f.flags[id]
	if !ok {
		return nil, nil, errors.NewFloorError("claim rejected", errors.ErrUnknownAgent).WithAgent(id.String())
	}
	if self.holds && self.grant != nil && !self.grant.isEnded() {
		// Claims are not reentrant; hand back the live grant.
		self.wants = false
		return self.grant, nil, nil
	}

	// Read every peer. A peer whose grant already ended no longer counts as a
	// holder even if its release hasn't reached the fabric yet; retire its
	// stale flags here so no snapshot ever shows two holders.
	var holder agent.ID
	var holderFlags *flagSet
	var wanter agent.ID
	for peer, fl := range f.flags {
		if peer == id {
			continue
		}
		if fl.holds {
			if fl.grant != nil && !fl.grant.isEnded() {
				holder = peer
				holderFlags = fl
			} else {
				fl.holds = false
				fl.grant = nil
			}
		}
		if fl.wants && peer.Wins(id) && (wanter == "" || peer.Wins(wanter)) {
			wanter = peer
		}
	}

	if holder != "" && !id.Wins(holder) {
		self.wants = false
		return nil, []event.Event{event.NewFloorCollisionEvent(holder.String(), id.String())}, nil
	}
	if wanter != "" {
		self.wants = false
		return nil, []event.Event{event.NewFloorCollisionEvent(wanter.String(), id.String())}, nil
	}

	var events []event.Event
	interrupt := false
	if holder != "" {
		// id wins the tie-break against a talking peer: preempt it here, in
		// the same critical section, so the single-holder invariant holds at
		// every instant.
		if holderFlags.grant.revoke() {
			events = append(events, event.NewFloorReleasedEvent(holder.String(), ReasonInterrupted))
		}
		holderFlags.holds = false
		holderFlags.grant = nil
		interrupt = true
	}

	self.wants = false
	self.holds = true
	g := &Grant{
		fabric:    f,
		owner:     id,
		deadline:  time.Now().Add(tenure),
		interrupt: interrupt,
	}
	self.grant = g
	return g, events, nil
}

// release clears holds_floor for the tenure g ended and publishes the
// release. Called by Grant.Release after the grant has marked itself ended.
// Flags are matched on the grant, not the agent id: Release runs in two
// steps, and a slow second step must not clobber a tenure the owner started
// in the window between them.
func (f *Fabric) release(g *Grant, reason string) {
	f.mu.Lock()
	fl, ok := f.flags[g.owner]
	if ok && fl.grant == g {
		fl.holds = false
		fl.grant = nil
	}
	f.mu.Unlock()

	if ok {
		f.bus.Publish(event.NewFloorReleasedEvent(g.owner.String(), reason))
	}
}

// Holds reports whether id currently holds the floor. An unknown id reads as
// not holding.
func (f *Fabric) Holds(id agent.ID) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	fl, ok := f.flags[id]
	return ok && fl.holds
}

// Holder returns the current floor holder, if any.
func (f *Fabric) Holder() (agent.ID, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, fl := range f.flags {
		if fl.holds {
			return id, true
		}
	}
	return "", false
}

// Snapshot returns a copy of every agent's flags.
func (f *Fabric) Snapshot() map[agent.ID]Flags {
	f.mu.Lock()
	defer f.mu.Unlock()
	snap := make(map[agent.ID]Flags, len(f.flags))
	for id, fl := range f.flags {
		snap[id] = Flags{Wants: fl.wants, Holds: fl.holds}
	}
	return snap
}
