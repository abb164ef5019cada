package signup

import (
	"context"
	"log"
	"strconv"
	"sync"

	"authx-console/internal/authapi"
	"authx-console/internal/security"
	"authx-console/internal/telemetry"
	"authx-console/internal/throttle"
)

// API is the part of the authentication service the flow calls.
type API interface {
	Signup(ctx context.Context, req authapi.SignupRequest) (string, error)
	VerifyEmail(ctx context.Context, otp, token string) error
}

// Options configures a Flow. Every field is optional.
type Options struct {
	// SessionID tags telemetry events.
	SessionID    string
	Placeholders *Placeholders
	// Limiter throttles resends per email address. Nil never throttles.
	Limiter throttle.Limiter
	Emitter telemetry.EventEmitter
	// Outcomes counts resends refused by Limiter. API call outcomes are counted by the client.
	Outcomes *telemetry.Outcomes
	// OnChange receives every new state. It runs with the flow locked and must not call back into the Flow.
	OnChange func(State)
	// OnNavigate is called once when the address is verified.
	OnNavigate func(to string)
}

// Flow runs one signup attempt: it serializes events through Machine.Reduce and performs the
// resulting requests in the background. Safe for concurrent use.
type Flow struct {
	api     API
	machine Machine
	opts    Options

	ctx    context.Context
	cancel context.CancelFunc

	mu    sync.Mutex
	state State
	// inflight counts started requests whose answer has not been dispatched yet. Guarded by mu.
	inflight int
	idle     *sync.Cond
}

// NewFlow returns an idle flow. Close it to abandon in-flight requests.
func NewFlow(api API, opts Options) *Flow {
	ctx, cancel := context.WithCancel(context.Background())
	f := &Flow{
		api:     api,
		machine: Machine{Placeholders: opts.Placeholders},
		opts:    opts,
		ctx:     ctx,
		cancel:  cancel,
	}
	f.idle = sync.NewCond(&f.mu)
	return f
}

// State returns the current snapshot.
func (f *Flow) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Submit handles the credential form.
func (f *Flow) Submit(form Form) State {
	return f.Dispatch(Submit{Form: form})
}

// SetOTP handles an edit of the code field.
func (f *Flow) SetOTP(code string) State {
	return f.Dispatch(OTPChanged{Code: code})
}

// DismissNotice hides the notice.
func (f *Flow) DismissNotice() State {
	return f.Dispatch(DismissNotice{})
}

// Resend asks for a new verification email, subject to the limiter. Limiter errors are logged
// and the resend goes ahead.
func (f *Flow) Resend(ctx context.Context) State {
	s := f.State()
	if !CanResend(s) {
		return s
	}
	if f.opts.Limiter != nil {
		ok, err := f.opts.Limiter.Allow(ctx, security.Fingerprint(s.Request.Username))
		if err != nil {
			log.Printf("signup: resend limiter: %v", err)
		} else if !ok {
			f.opts.Outcomes.Record(ctx, "resend", "throttled")
			return f.Dispatch(ResendThrottled{})
		}
	}
	return f.Dispatch(Resend{})
}

// Dispatch feeds ev through the reducer, starts the resulting effects and returns the new state.
// Events arriving after Close are ignored.
func (f *Flow) Dispatch(ev Event) State {
	f.mu.Lock()
	if f.ctx.Err() != nil {
		s := f.state
		f.mu.Unlock()
		return s
	}
	before := f.state
	next, effects := f.machine.Reduce(before, ev)
	f.state = next
	for _, eff := range effects {
		switch eff.(type) {
		case IssueSignup, IssueVerify:
			f.inflight++
		}
	}
	if f.opts.OnChange != nil {
		f.opts.OnChange(next)
	}
	f.mu.Unlock()

	f.observe(before, next, ev)
	for _, eff := range effects {
		f.run(eff)
	}
	return next
}

// Wait blocks until no request is in flight. Requests started by other goroutines while Wait
// is blocked are waited for too.
func (f *Flow) Wait() {
	f.mu.Lock()
	for f.inflight > 0 {
		f.idle.Wait()
	}
	f.mu.Unlock()
}

// settled marks one request as answered, after its answer has been dispatched.
func (f *Flow) settled() {
	f.mu.Lock()
	f.inflight--
	if f.inflight == 0 {
		f.idle.Broadcast()
	}
	f.mu.Unlock()
}

// Close abandons in-flight requests. Their answers are dropped and Loading stays as it was.
func (f *Flow) Close() {
	f.cancel()
}

func (f *Flow) run(eff Effect) {
	switch eff := eff.(type) {
	case IssueSignup:
		go func() {
			defer f.settled()
			token, err := f.api.Signup(f.ctx, eff.Request)
			f.Dispatch(signupResult(eff.ID, token, err))
		}()
	case IssueVerify:
		go func() {
			defer f.settled()
			err := f.api.VerifyEmail(f.ctx, eff.OTP, eff.Token)
			f.Dispatch(verifyResult(eff.ID, err))
		}()
	case Navigate:
		if f.opts.OnNavigate != nil {
			f.opts.OnNavigate(eff.To)
		}
	}
}

func signupResult(id uint64, token string, err error) Event {
	if err == nil {
		return SignupResolved{ID: id, Token: token}
	}
	if detail, ok := authapi.IsDetail(err); ok {
		return SignupRejected{ID: id, Detail: detail}
	}
	log.Printf("signup: signup request %d failed: %v", id, err)
	return RequestFailed{ID: id, Err: err}
}

func verifyResult(id uint64, err error) Event {
	if err == nil {
		return Verified{ID: id}
	}
	if detail, ok := authapi.IsDetail(err); ok {
		return VerifyRejected{ID: id, Detail: detail}
	}
	log.Printf("signup: verify request %d failed: %v", id, err)
	return RequestFailed{ID: id, Err: err}
}

// observe emits a telemetry event for transitions worth recording. Stale answers emit nothing.
func (f *Flow) observe(before, after State, ev Event) {
	if f.opts.Emitter == nil {
		return
	}
	var eventType string
	switch ev.(type) {
	case Submit:
		if after.Pending == PendingSignup && after.RequestID != before.RequestID {
			eventType = telemetry.EventSignupSubmitted
		}
	case Resend:
		if after.RequestID != before.RequestID {
			eventType = telemetry.EventResendRequested
		}
	case ResendThrottled:
		if after.Notice != before.Notice {
			eventType = telemetry.EventResendThrottled
		}
	case SignupResolved:
		if before.Pending != PendingNone && after.Pending == PendingNone {
			eventType = telemetry.EventChallengeIssued
		}
	case SignupRejected:
		if before.Pending != PendingNone && after.Pending == PendingNone {
			eventType = telemetry.EventSignupRejected
		}
	case VerifyRejected:
		if before.Pending != PendingNone && after.Pending == PendingNone {
			eventType = telemetry.EventVerifyRejected
		}
	case RequestFailed:
		if before.Pending != PendingNone && after.Pending == PendingNone {
			eventType = telemetry.EventTransportFailure
		}
	case Verified:
		if after.Phase == PhaseVerified && before.Phase != PhaseVerified {
			eventType = telemetry.EventVerified
		}
	}
	if eventType == "" {
		return
	}
	fp := ""
	if after.Request != nil {
		fp = security.Fingerprint(after.Request.Username)
	}
	telemetry.EmitAsync(f.opts.Emitter, f.ctx, &telemetry.Event{
		Type:             eventType,
		Source:           "signup",
		SessionID:        f.opts.SessionID,
		EmailFingerprint: fp,
		Attributes: map[string]string{
			"phase":      after.Phase.String(),
			"request_id": strconv.FormatUint(after.RequestID, 10),
		},
	})
}
