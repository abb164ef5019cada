// Package authapi is the HTTP client for the remote authentication service: account signup,
// email verification and publishing of the login widget.
package authapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"authx-console/internal/telemetry"
)

// DefaultBaseURL is the production authentication service.
const DefaultBaseURL = "https://api.trustauthx.com"

const (
	signupPath       = "/signup"
	verifyEmailPath  = "/verify_email/false"
	updateWidgetPath = "/update_widget"

	// maxResponseBytes bounds how much of a response body is read.
	maxResponseBytes = 1 << 20
)

// SignupRequest is the body of POST /signup. Only Username and Password come from the user;
// the rest are fixed values required by the service.
type SignupRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
	IsPool   bool   `json:"is_pool"`
	Link     bool   `json:"link"`
	Ref      string `json:"ref"`
	Types    string `json:"types"`
}

// VerifyRequest is the body of POST /verify_email/false.
type VerifyRequest struct {
	OTP   string `json:"otp"`
	Add   string `json:"add"`
	Types string `json:"types"`
}

// Client calls the authentication service. The zero HTTP timeout means a call can wait forever;
// cancel the context to abandon it.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	// Outcomes, when set, counts each call by operation and outcome.
	Outcomes *telemetry.Outcomes

	tracer trace.Tracer
}

// NewClient returns a client for baseURL (DefaultBaseURL when empty). timeout 0 disables the per-call limit.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{Timeout: timeout},
		tracer:     otel.Tracer("authx-console/authapi"),
	}
}

// Signup creates the account and returns the challenge token used to verify the emailed code.
// A {"detail"} answer is returned as *DetailError.
func (c *Client) Signup(ctx context.Context, req SignupRequest) (string, error) {
	var token string
	err := c.call(ctx, "signup", signupPath, "", req, func(status int, data []byte) error {
		var out struct {
			Msg    string          `json:"msg"`
			Detail json.RawMessage `json:"detail"`
		}
		if err := json.Unmarshal(data, &out); err != nil {
			return fmt.Errorf("%w: decode signup response (status=%d): %v", ErrTransport, status, err)
		}
		if out.Msg != "" {
			token = out.Msg
			return nil
		}
		if d, ok := detailText(out.Detail); ok {
			return &DetailError{Detail: d}
		}
		return fmt.Errorf("%w: signup response has neither msg nor detail", ErrTransport)
	})
	if err != nil {
		return "", err
	}
	return token, nil
}

// VerifyEmail submits the emailed one-time code together with the challenge token from Signup.
// Success requires {"status":200,"is_ok":true}.
func (c *Client) VerifyEmail(ctx context.Context, otp, token string) error {
	body := VerifyRequest{OTP: otp, Add: token, Types: "email"}
	return c.call(ctx, "verify", verifyEmailPath, "", body, func(status int, data []byte) error {
		var out struct {
			Status int             `json:"status"`
			IsOK   bool            `json:"is_ok"`
			Detail json.RawMessage `json:"detail"`
		}
		if err := json.Unmarshal(data, &out); err != nil {
			return fmt.Errorf("%w: decode verify response (status=%d): %v", ErrTransport, status, err)
		}
		if out.Status == http.StatusOK && out.IsOK {
			return nil
		}
		if d, ok := detailText(out.Detail); ok {
			return &DetailError{Detail: d}
		}
		return fmt.Errorf("%w: verify response has neither success nor detail", ErrTransport)
	})
}

// UpdateWidget publishes a widget payload on behalf of the operator identified by bearer.
// Any 2xx is success.
func (c *Client) UpdateWidget(ctx context.Context, bearer string, payload any) error {
	return c.call(ctx, "update_widget", updateWidgetPath, bearer, payload, func(status int, data []byte) error {
		if status >= 200 && status < 300 {
			return nil
		}
		var out struct {
			Detail json.RawMessage `json:"detail"`
		}
		if json.Unmarshal(data, &out) == nil {
			if d, ok := detailText(out.Detail); ok {
				return &DetailError{Detail: d}
			}
		}
		return fmt.Errorf("%w: update_widget status=%d", ErrTransport, status)
	})
}

// call POSTs body as JSON and hands the status and raw answer to interpret.
// The service answers business errors with a detail body, sometimes under a 2xx status,
// so the status alone never decides.
func (c *Client) call(ctx context.Context, op, path, bearer string, body any, interpret func(status int, data []byte) error) (err error) {
	ctx, span := c.startSpan(ctx, op, path)
	defer func() {
		c.Outcomes.Record(ctx, op, outcomeOf(err))
		if err != nil {
			span.RecordError(err)
			if _, ok := IsDetail(err); !ok {
				span.SetStatus(codes.Error, err.Error())
			}
		}
		span.End()
	}()

	raw, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("authapi: encode %s: %w", op, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTransport, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTransport, err)
	}
	defer resp.Body.Close()
	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("%w: read %s response: %v", ErrTransport, op, err)
	}
	return interpret(resp.StatusCode, data)
}

func (c *Client) startSpan(ctx context.Context, op, path string) (context.Context, trace.Span) {
	tracer := c.tracer
	if tracer == nil {
		tracer = otel.Tracer("authx-console/authapi")
	}
	return tracer.Start(ctx, "authapi."+op,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", http.MethodPost),
			attribute.String("url.path", path),
		),
	)
}

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return http.DefaultClient
}

func outcomeOf(err error) string {
	if err == nil {
		return "ok"
	}
	if _, ok := IsDetail(err); ok {
		return "rejected"
	}
	return "transport_error"
}
