package server

import (
	"context"
	"log"
	"net/http"

	"authx-console/internal/signup"
)

// SignupView is the browser's view of a flow. The challenge token never leaves the server.
type SignupView struct {
	Phase       string            `json:"phase"`
	OTPOpen     bool              `json:"otp_open"`
	OTP         string            `json:"otp"`
	Loading     bool              `json:"loading"`
	Notice      NoticeView        `json:"notice"`
	FieldErrors map[string]string `json:"field_errors,omitempty"`
	CanResend   bool              `json:"can_resend"`
	Redirect    string            `json:"redirect,omitempty"`
}

type NoticeView struct {
	Message string `json:"message"`
	Visible bool   `json:"visible"`
}

func viewOf(s signup.State) SignupView {
	return SignupView{
		Phase:       s.Phase.String(),
		OTPOpen:     s.OTPOpen(),
		OTP:         s.OTP,
		Loading:     s.Loading,
		Notice:      NoticeView{Message: s.Notice.Message, Visible: s.Notice.Visible},
		FieldErrors: s.FieldErrors,
		CanResend:   signup.CanResend(s),
		Redirect:    s.Redirect,
	}
}

type signupForm struct {
	Username   string `json:"username"`
	Password   string `json:"password"`
	ReferralID string `json:"referral_id"`
	AgreeTerms bool   `json:"agree_terms"`
}

type otpBody struct {
	OTP string `json:"otp"`
}

type signupHandler struct {
	flows *FlowRegistry
}

// submit accepts the credential form. With ?wait=1 the response is sent once the signup call settles.
func (h *signupHandler) submit(w http.ResponseWriter, r *http.Request) {
	var body signupForm
	if !decodeJSON(w, r, &body) {
		return
	}
	f, err := h.flows.Ensure(w, r)
	if err != nil {
		log.Printf("server: start signup flow: %v", err)
		writeDetail(w, http.StatusInternalServerError, "could not start signup")
		return
	}
	s := f.Submit(signup.Form{
		Username:   body.Username,
		Password:   body.Password,
		ReferralID: body.ReferralID,
		AgreeTerms: body.AgreeTerms,
	})
	h.respond(w, r, f, s)
}

func (h *signupHandler) otp(w http.ResponseWriter, r *http.Request) {
	f, ok := h.flows.Lookup(r)
	if !ok {
		writeDetail(w, http.StatusNotFound, "no signup in progress")
		return
	}
	var body otpBody
	if !decodeJSON(w, r, &body) {
		return
	}
	h.respond(w, r, f, f.SetOTP(body.OTP))
}

func (h *signupHandler) resend(w http.ResponseWriter, r *http.Request) {
	f, ok := h.flows.Lookup(r)
	if !ok {
		writeDetail(w, http.StatusNotFound, "no signup in progress")
		return
	}
	h.respond(w, r, f, f.Resend(r.Context()))
}

func (h *signupHandler) dismiss(w http.ResponseWriter, r *http.Request) {
	f, ok := h.flows.Lookup(r)
	if !ok {
		writeDetail(w, http.StatusNotFound, "no signup in progress")
		return
	}
	writeJSON(w, http.StatusOK, viewOf(f.DismissNotice()))
}

func (h *signupHandler) state(w http.ResponseWriter, r *http.Request) {
	f, ok := h.flows.Lookup(r)
	if !ok {
		writeJSON(w, http.StatusOK, viewOf(signup.State{}))
		return
	}
	writeJSON(w, http.StatusOK, viewOf(f.State()))
}

func (h *signupHandler) respond(w http.ResponseWriter, r *http.Request, f *signup.Flow, s signup.State) {
	if r.URL.Query().Get("wait") == "1" && s.Loading {
		if waitFlow(r.Context(), f) {
			s = f.State()
		}
	}
	status := http.StatusOK
	if s.Loading {
		status = http.StatusAccepted
	}
	writeJSON(w, status, viewOf(s))
}

// waitFlow blocks until f has no request in flight or ctx is done. It reports whether f settled.
func waitFlow(ctx context.Context, f *signup.Flow) bool {
	done := make(chan struct{})
	go func() {
		f.Wait()
		close(done)
	}()
	select {
	case <-done:
		return true
	case <-ctx.Done():
		return false
	}
}
