// signup registers an account from the terminal: it asks for credentials, sends the signup,
// then reads the emailed 8-character code. Type "r" at the code prompt to resend the email.
package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"strings"
	"unicode/utf8"

	"authx-console/internal/authapi"
	"authx-console/internal/config"
	"authx-console/internal/signup"
	"authx-console/internal/throttle"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	placeholders := signup.Placeholders{
		FullName: cfg.SignupFullName,
		IsPool:   cfg.SignupIsPool,
		Link:     cfg.SignupLink,
		Ref:      cfg.SignupRef,
		Types:    cfg.SignupTypes,
	}
	flow := signup.NewFlow(authapi.NewClient(cfg.AuthAPIBaseURL, cfg.APITimeout()), signup.Options{
		Placeholders: &placeholders,
		Limiter:      throttle.NewMemoryLimiter(cfg.Cooldown()),
	})
	defer flow.Close()
	go func() {
		<-ctx.Done()
		flow.Close()
	}()

	if run(flow, bufio.NewReader(os.Stdin), os.Stdout) {
		return
	}
	os.Exit(1)
}

// run drives flow from in until the address is verified (true) or input ends (false).
func run(flow *signup.Flow, in *bufio.Reader, out io.Writer) bool {
	for !flow.State().OTPOpen() {
		form, ok := readForm(in, out)
		if !ok {
			return false
		}
		flow.Submit(form)
		flow.Wait()
		report(out, flow.State())
	}

	for {
		s := flow.State()
		if s.Phase == signup.PhaseVerified {
			fmt.Fprintf(out, "Email verified. Continue at %s\n", s.Redirect)
			return true
		}
		line, ok := prompt(in, out, "Verification code (r to resend): ")
		if !ok {
			return false
		}
		if strings.EqualFold(line, "r") {
			flow.Resend(context.Background())
		} else if after := flow.SetOTP(line); after.RequestID == s.RequestID {
			fmt.Fprintf(out, "  %s\n", codeHint(s, line))
			continue
		}
		flow.Wait()
		report(out, flow.State())
	}
}

func readForm(in *bufio.Reader, out io.Writer) (signup.Form, bool) {
	var f signup.Form
	var ok bool
	if f.Username, ok = prompt(in, out, "Email: "); !ok {
		return f, false
	}
	if f.Password, ok = prompt(in, out, "Password: "); !ok {
		return f, false
	}
	if f.ReferralID, ok = prompt(in, out, "Referral ID (optional): "); !ok {
		return f, false
	}
	agree, ok := prompt(in, out, "Accept the Terms of Service and Privacy Policy? [y/N]: ")
	if !ok {
		return f, false
	}
	f.AgreeTerms = strings.EqualFold(agree, "y") || strings.EqualFold(agree, "yes")
	return f, true
}

func prompt(in *bufio.Reader, out io.Writer, label string) (string, bool) {
	fmt.Fprint(out, label)
	line, err := in.ReadString('\n')
	if err != nil && line == "" {
		fmt.Fprintln(out)
		return "", false
	}
	return strings.TrimSpace(line), true
}

// codeHint explains why code did not start a verification from state s.
func codeHint(s signup.State, code string) string {
	n := utf8.RuneCountInString(code)
	if n == signup.OTPLength && code == s.OTP {
		return "that code was already tried; enter another or r to resend"
	}
	return fmt.Sprintf("the code has %d characters, got %d", signup.OTPLength, n)
}

func report(out io.Writer, s signup.State) {
	fields := make([]string, 0, len(s.FieldErrors))
	for k := range s.FieldErrors {
		fields = append(fields, k)
	}
	sort.Strings(fields)
	for _, k := range fields {
		fmt.Fprintf(out, "  %s: %s\n", k, s.FieldErrors[k])
	}
	if s.Notice.Visible {
		fmt.Fprintf(out, "! %s\n", s.Notice.Message)
	}
}
