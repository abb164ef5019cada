// Package signup implements the account signup and email verification flow as a finite-state
// machine. Machine.Reduce is the only place state changes; Flow feeds it user input and the
// answers of the authentication service.
package signup

import (
	"authx-console/internal/authapi"
)

// OTPLength is the length of the emailed one-time code.
const OTPLength = 8

// Phase is the stage of the flow.
type Phase int

const (
	// PhaseIdle: the credential form is shown and nothing has been sent.
	PhaseIdle Phase = iota
	// PhaseAwaitingToken: a signup (or resend) request is in flight.
	PhaseAwaitingToken
	// PhaseOtpPending: a challenge token is held and the code entry is open.
	PhaseOtpPending
	// PhaseVerified is terminal.
	PhaseVerified
	// PhaseFailed: the last signup attempt was rejected or never answered; the form may be resubmitted.
	PhaseFailed
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseAwaitingToken:
		return "awaiting_token"
	case PhaseOtpPending:
		return "otp_pending"
	case PhaseVerified:
		return "verified"
	case PhaseFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Pending names the request the flow is waiting on.
type Pending int

const (
	PendingNone Pending = iota
	PendingSignup
	PendingResend
	PendingVerify
)

// Form is the raw credential form as typed by the user.
type Form struct {
	Username   string
	Password   string
	ReferralID string
	AgreeTerms bool
}

// Placeholders are the fixed signup payload fields required by the service's contract.
type Placeholders struct {
	FullName string
	IsPool   bool
	Link     bool
	Ref      string
	Types    string
}

// DefaultPlaceholders are the values the service expects from the public signup page.
var DefaultPlaceholders = Placeholders{
	FullName: "Test User",
	IsPool:   true,
	Link:     true,
	Ref:      "string",
	Types:    "string",
}

// Notice is the single user-facing alert slot.
type Notice struct {
	Message string
	Visible bool
}

// State is a snapshot of the flow. Values are never mutated in place by Reduce; maps and the
// Request pointer are replaced instead, so a copied State stays valid.
type State struct {
	Phase Phase
	// Request is the last accepted signup payload. Resend sends it again unchanged.
	Request *authapi.SignupRequest
	// Token is the live challenge token; empty until the first signup succeeds.
	Token       string
	OTP         string
	Notice      Notice
	Loading     bool
	FieldErrors map[string]string
	// RequestID identifies the newest request. Answers carrying another id are stale.
	RequestID uint64
	Pending   Pending
	// Redirect is set once the address is verified.
	Redirect string
}

// OTPOpen reports whether the code entry surface is shown.
func (s State) OTPOpen() bool {
	return s.Token != "" && (s.Phase == PhaseOtpPending || (s.Phase == PhaseAwaitingToken && s.Pending == PendingResend))
}

// Event is an input to Machine.Reduce.
type Event interface {
	isEvent()
}

// Submit is the user submitting the credential form.
type Submit struct{ Form Form }

// SignupResolved is a signup or resend answer carrying a challenge token.
type SignupResolved struct {
	ID    uint64
	Token string
}

// SignupRejected is a signup or resend answer carrying a detail message.
type SignupRejected struct {
	ID     uint64
	Detail string
}

// RequestFailed is any request that ended without a usable answer.
type RequestFailed struct {
	ID  uint64
	Err error
}

// OTPChanged is the user editing the code field.
type OTPChanged struct{ Code string }

// Verified is a successful verification answer.
type Verified struct{ ID uint64 }

// VerifyRejected is a verification answer carrying a detail message.
type VerifyRejected struct {
	ID     uint64
	Detail string
}

// Resend asks for a new verification email using the stored request.
type Resend struct{}

// ResendThrottled reports that a resend was refused by the cooldown.
type ResendThrottled struct{}

// DismissNotice hides the notice.
type DismissNotice struct{}

func (Submit) isEvent()          {}
func (SignupResolved) isEvent()  {}
func (SignupRejected) isEvent()  {}
func (RequestFailed) isEvent()   {}
func (OTPChanged) isEvent()      {}
func (Verified) isEvent()        {}
func (VerifyRejected) isEvent()  {}
func (Resend) isEvent()          {}
func (ResendThrottled) isEvent() {}
func (DismissNotice) isEvent()   {}

// Effect is work requested by Reduce and carried out by the Flow.
type Effect interface {
	isEffect()
}

// IssueSignup sends Request to the signup endpoint.
type IssueSignup struct {
	ID      uint64
	Request authapi.SignupRequest
	Resend  bool
}

// IssueVerify sends the code and token to the verification endpoint.
type IssueVerify struct {
	ID    uint64
	OTP   string
	Token string
}

// Navigate moves the user to To. Emitted once, on verification.
type Navigate struct{ To string }

func (IssueSignup) isEffect() {}
func (IssueVerify) isEffect() {}
func (Navigate) isEffect()    {}
