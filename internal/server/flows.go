package server

import (
	"context"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"authx-console/internal/security"
	"authx-console/internal/signup"
)

// FlowCookie carries the signed session id of the browser's signup flow.
const FlowCookie = "authx_flow"

// FlowFactory builds the flow for a new session.
type FlowFactory func(sessionID string) *signup.Flow

type flowEntry struct {
	flow     *signup.Flow
	lastSeen time.Time
}

// FlowRegistry keeps one signup flow per browser session. Flows idle for longer than the
// token TTL are closed by Sweep.
type FlowRegistry struct {
	tokens  *security.FlowTokenProvider
	factory FlowFactory
	nowF    func() time.Time

	mu    sync.Mutex
	flows map[string]*flowEntry
}

// NewFlowRegistry returns an empty registry issuing cookies with tokens.
func NewFlowRegistry(tokens *security.FlowTokenProvider, factory FlowFactory) *FlowRegistry {
	return &FlowRegistry{
		tokens:  tokens,
		factory: factory,
		nowF:    func() time.Time { return time.Now().UTC() },
		flows:   make(map[string]*flowEntry),
	}
}

// Lookup returns the flow named by the request's cookie, if it is valid and still registered.
func (g *FlowRegistry) Lookup(r *http.Request) (*signup.Flow, bool) {
	c, err := r.Cookie(FlowCookie)
	if err != nil || c.Value == "" {
		return nil, false
	}
	sid, err := g.tokens.Parse(c.Value)
	if err != nil {
		return nil, false
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	e, ok := g.flows[sid]
	if !ok {
		return nil, false
	}
	e.lastSeen = g.nowF()
	return e.flow, true
}

// Ensure returns the request's flow, starting a new one (and setting its cookie) when there is none.
func (g *FlowRegistry) Ensure(w http.ResponseWriter, r *http.Request) (*signup.Flow, error) {
	if f, ok := g.Lookup(r); ok {
		return f, nil
	}
	sid := uuid.New().String()
	token, expires, err := g.tokens.Issue(sid)
	if err != nil {
		return nil, err
	}
	f := g.factory(sid)
	g.mu.Lock()
	g.flows[sid] = &flowEntry{flow: f, lastSeen: g.nowF()}
	g.mu.Unlock()

	http.SetCookie(w, &http.Cookie{
		Name:     FlowCookie,
		Value:    token,
		Path:     "/api/signup",
		Expires:  expires,
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
	return f, nil
}

// Len returns the number of live flows.
func (g *FlowRegistry) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.flows)
}

// Sweep closes and forgets flows idle for longer than the token TTL. It returns how many were removed.
func (g *FlowRegistry) Sweep() int {
	cutoff := g.nowF().Add(-g.tokens.TTL())
	g.mu.Lock()
	var expired []*signup.Flow
	for sid, e := range g.flows {
		if e.lastSeen.Before(cutoff) {
			expired = append(expired, e.flow)
			delete(g.flows, sid)
		}
	}
	g.mu.Unlock()
	for _, f := range expired {
		f.Close()
	}
	return len(expired)
}

// Run sweeps every interval until ctx is done, then closes every flow.
func (g *FlowRegistry) Run(ctx context.Context, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			g.Close()
			return
		case <-t.C:
			if n := g.Sweep(); n > 0 {
				log.Printf("server: expired %d signup flows", n)
			}
		}
	}
}

// Close closes every flow and empties the registry.
func (g *FlowRegistry) Close() {
	g.mu.Lock()
	flows := g.flows
	g.flows = make(map[string]*flowEntry)
	g.mu.Unlock()
	for _, e := range flows {
		e.flow.Close()
	}
}
