package signup

import (
	"unicode/utf8"
)

// Machine holds the configuration Reduce needs. The zero value uses DefaultPlaceholders.
type Machine struct {
	Placeholders *Placeholders
	// RootPath is where a verified user is sent; "/" when empty.
	RootPath string
}

func (m Machine) placeholders() Placeholders {
	if m.Placeholders != nil {
		return *m.Placeholders
	}
	return DefaultPlaceholders
}

func (m Machine) root() string {
	if m.RootPath != "" {
		return m.RootPath
	}
	return "/"
}

// Reduce applies ev to s and returns the next state and the effects to run.
// It is pure: the same inputs always give the same outputs.
func (m Machine) Reduce(s State, ev Event) (State, []Effect) {
	if s.Phase == PhaseVerified {
		return s, nil
	}
	switch ev := ev.(type) {
	case Submit:
		return m.submit(s, ev.Form)
	case SignupResolved:
		if !current(s, ev.ID, PendingSignup, PendingResend) {
			return s, nil
		}
		s = settle(s)
		s.Token = ev.Token
		s.OTP = ""
		s.Phase = PhaseOtpPending
		return s, nil
	case SignupRejected:
		if !current(s, ev.ID, PendingSignup, PendingResend) {
			return s, nil
		}
		s = afterSignupFailure(settle(s))
		s.Notice = showNotice(ev.Detail)
		return s, nil
	case RequestFailed:
		if !current(s, ev.ID, PendingSignup, PendingResend, PendingVerify) {
			return s, nil
		}
		wasVerify := s.Pending == PendingVerify
		s = settle(s)
		if wasVerify {
			s.Phase = PhaseOtpPending
		} else {
			s = afterSignupFailure(s)
		}
		s.Notice = showNotice(NoticeNetwork)
		return s, nil
	case OTPChanged:
		return m.otpChanged(s, ev.Code)
	case Verified:
		if !current(s, ev.ID, PendingVerify) {
			return s, nil
		}
		s = settle(s)
		s.Phase = PhaseVerified
		s.Redirect = m.root()
		return s, []Effect{Navigate{To: s.Redirect}}
	case VerifyRejected:
		if !current(s, ev.ID, PendingVerify) {
			return s, nil
		}
		s = settle(s)
		s.Phase = PhaseOtpPending
		s.Notice = showNotice(ev.Detail)
		return s, nil
	case Resend:
		if !CanResend(s) {
			return s, nil
		}
		s = begin(s, PendingResend)
		s.Phase = PhaseAwaitingToken
		return s, []Effect{IssueSignup{ID: s.RequestID, Request: *s.Request, Resend: true}}
	case ResendThrottled:
		if !CanResend(s) {
			return s, nil
		}
		s.Notice = showNotice(NoticeResendThrottled)
		return s, nil
	case DismissNotice:
		s.Notice = Notice{}
		return s, nil
	}
	return s, nil
}

// CanResend reports whether a Resend would be accepted in s.
func CanResend(s State) bool {
	return !s.Loading && s.Phase == PhaseOtpPending && s.Request != nil
}

func (m Machine) submit(s State, form Form) (State, []Effect) {
	if s.Loading {
		return s, nil
	}
	s.Notice = Notice{}
	req, fieldErrs, notice := Collect(form, m.placeholders())
	s.FieldErrors = fieldErrs
	if notice != "" {
		s.Notice = showNotice(notice)
		return s, nil
	}
	if len(fieldErrs) > 0 {
		return s, nil
	}
	s = begin(s, PendingSignup)
	s.Phase = PhaseAwaitingToken
	s.Request = &req
	s.Token = ""
	s.OTP = ""
	return s, []Effect{IssueSignup{ID: s.RequestID, Request: req}}
}

func (m Machine) otpChanged(s State, code string) (State, []Effect) {
	if s.Loading || s.Phase != PhaseOtpPending {
		return s, nil
	}
	if utf8.RuneCountInString(code) > OTPLength || code == s.OTP {
		return s, nil
	}
	s.OTP = code
	if utf8.RuneCountInString(code) != OTPLength {
		return s, nil
	}
	s = begin(s, PendingVerify)
	return s, []Effect{IssueVerify{ID: s.RequestID, OTP: code, Token: s.Token}}
}

// begin starts a request: a fresh id, the busy flag and an empty notice.
func begin(s State, p Pending) State {
	s.RequestID++
	s.Pending = p
	s.Loading = true
	s.Notice = Notice{}
	return s
}

// settle ends the current request.
func settle(s State) State {
	s.Pending = PendingNone
	s.Loading = false
	return s
}

// afterSignupFailure picks the phase after a failed signup or resend. A resend keeps the
// previous token, so the code entry stays open.
func afterSignupFailure(s State) State {
	if s.Token != "" {
		s.Phase = PhaseOtpPending
	} else {
		s.Phase = PhaseFailed
	}
	return s
}

// current is the stale-answer guard: only an answer to the newest request of an expected kind counts.
func current(s State, id uint64, kinds ...Pending) bool {
	if id != s.RequestID {
		return false
	}
	for _, k := range kinds {
		if s.Pending == k {
			return true
		}
	}
	return false
}
