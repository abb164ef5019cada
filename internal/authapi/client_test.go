package authapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func newTestServer(t *testing.T, wantPath string, status int, response string, inspect func(r *http.Request, body []byte)) (*httptest.Server, *int32) {
	t.Helper()
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		if r.Method != http.MethodPost {
			t.Errorf("method = %q, want %q", r.Method, http.MethodPost)
		}
		if r.URL.Path != wantPath {
			t.Errorf("path = %q, want %q", r.URL.Path, wantPath)
		}
		if r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("Content-Type = %q, want application/json", r.Header.Get("Content-Type"))
		}
		body, _ := io.ReadAll(r.Body)
		if inspect != nil {
			inspect(r, body)
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(response))
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

var testSignup = SignupRequest{
	Username: "a@b.co",
	Password: "secret123",
	FullName: "Test User",
	IsPool:   true,
	Link:     true,
	Ref:      "string",
	Types:    "string",
}

func TestNewClient_Defaults(t *testing.T) {
	client := NewClient("", 0)
	if client.BaseURL != DefaultBaseURL {
		t.Errorf("BaseURL = %q, want %q", client.BaseURL, DefaultBaseURL)
	}
	if client.HTTPClient == nil {
		t.Fatal("HTTPClient should be set")
	}
	if client.HTTPClient.Timeout != 0 {
		t.Errorf("HTTPClient.Timeout = %v, want 0", client.HTTPClient.Timeout)
	}

	client = NewClient("http://localhost:4000/", 5*time.Second)
	if client.BaseURL != "http://localhost:4000" {
		t.Errorf("BaseURL = %q, want trailing slash trimmed", client.BaseURL)
	}
	if client.HTTPClient.Timeout != 5*time.Second {
		t.Errorf("HTTPClient.Timeout = %v, want 5s", client.HTTPClient.Timeout)
	}
}

func TestSignup_Token(t *testing.T) {
	srv, calls := newTestServer(t, "/signup", http.StatusOK, `{"msg":"tok-123"}`, func(r *http.Request, body []byte) {
		want := `{"username":"a@b.co","password":"secret123","full_name":"Test User","is_pool":true,"link":true,"ref":"string","types":"string"}`
		if string(body) != want {
			t.Errorf("body = %s, want %s", body, want)
		}
	})
	client := NewClient(srv.URL, 0)

	token, err := client.Signup(context.Background(), testSignup)
	if err != nil {
		t.Fatalf("Signup: %v", err)
	}
	if token != "tok-123" {
		t.Errorf("token = %q, want %q", token, "tok-123")
	}
	if n := atomic.LoadInt32(calls); n != 1 {
		t.Errorf("calls = %d, want 1", n)
	}
}

func TestSignup_Detail(t *testing.T) {
	testCases := []struct {
		name     string
		status   int
		response string
		want     string
	}{
		{"string detail", http.StatusBadRequest, `{"detail":"User already exists"}`, "User already exists"},
		{"string detail with 200", http.StatusOK, `{"detail":"User already exists"}`, "User already exists"},
		{"validation list", http.StatusUnprocessableEntity, `{"detail":[{"loc":["body","username"],"msg":"field required"},{"loc":["body","password"],"msg":"too short"}]}`, "field required; too short"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			srv, _ := newTestServer(t, "/signup", tc.status, tc.response, nil)
			_, err := NewClient(srv.URL, 0).Signup(context.Background(), testSignup)
			detail, ok := IsDetail(err)
			if !ok {
				t.Fatalf("err = %v, want *DetailError", err)
			}
			if detail != tc.want {
				t.Errorf("detail = %q, want %q", detail, tc.want)
			}
			if errors.Is(err, ErrTransport) {
				t.Error("detail error should not be a transport error")
			}
		})
	}
}

func TestSignup_Malformed(t *testing.T) {
	testCases := []struct {
		name     string
		response string
	}{
		{"not json", `<html>bad gateway</html>`},
		{"neither field", `{"ok":true}`},
		{"empty msg", `{"msg":""}`},
		{"null detail", `{"detail":null}`},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			srv, _ := newTestServer(t, "/signup", http.StatusOK, tc.response, nil)
			_, err := NewClient(srv.URL, 0).Signup(context.Background(), testSignup)
			if !errors.Is(err, ErrTransport) {
				t.Errorf("err = %v, want ErrTransport", err)
			}
		})
	}
}

func TestSignup_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := NewClient(url, 0).Signup(context.Background(), testSignup)
	if !errors.Is(err, ErrTransport) {
		t.Errorf("err = %v, want ErrTransport", err)
	}
}

func TestSignup_ContextCancel(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := NewClient(srv.URL, 0).Signup(ctx, testSignup)
		done <- err
	}()

	select {
	case err := <-done:
		t.Fatalf("Signup returned before cancel: %v", err)
	case <-time.After(50 * time.Millisecond):
	}
	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, ErrTransport) {
			t.Errorf("err = %v, want ErrTransport", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Signup did not return after cancel")
	}
}

func TestVerifyEmail_Success(t *testing.T) {
	srv, _ := newTestServer(t, "/verify_email/false", http.StatusOK, `{"status":200,"is_ok":true}`, func(r *http.Request, body []byte) {
		var got VerifyRequest
		if err := json.Unmarshal(body, &got); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		want := VerifyRequest{OTP: "AB12CD34", Add: "tok-123", Types: "email"}
		if got != want {
			t.Errorf("body = %+v, want %+v", got, want)
		}
	})
	if err := NewClient(srv.URL, 0).VerifyEmail(context.Background(), "AB12CD34", "tok-123"); err != nil {
		t.Errorf("VerifyEmail: %v", err)
	}
}

func TestVerifyEmail_Failures(t *testing.T) {
	testCases := []struct {
		name       string
		response   string
		wantDetail string
	}{
		{"detail", `{"detail":"Invalid OTP"}`, "Invalid OTP"},
		{"ok flag false", `{"status":200,"is_ok":false}`, ""},
		{"wrong status", `{"status":400,"is_ok":true}`, ""},
		{"not json", `oops`, ""},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			srv, _ := newTestServer(t, "/verify_email/false", http.StatusOK, tc.response, nil)
			err := NewClient(srv.URL, 0).VerifyEmail(context.Background(), "AB12CD34", "tok")
			if err == nil {
				t.Fatal("VerifyEmail should fail")
			}
			detail, ok := IsDetail(err)
			if tc.wantDetail != "" {
				if !ok || detail != tc.wantDetail {
					t.Errorf("detail = %q (ok=%v), want %q", detail, ok, tc.wantDetail)
				}
				return
			}
			if !errors.Is(err, ErrTransport) {
				t.Errorf("err = %v, want ErrTransport", err)
			}
		})
	}
}

func TestUpdateWidget(t *testing.T) {
	payload := map[string]any{"widget": map[string]any{"name": "Flitchcoin"}}

	srv, _ := newTestServer(t, "/update_widget", http.StatusOK, `{}`, func(r *http.Request, body []byte) {
		if got := r.Header.Get("Authorization"); got != "Bearer op-token" {
			t.Errorf("Authorization = %q, want %q", got, "Bearer op-token")
		}
		if string(body) != `{"widget":{"name":"Flitchcoin"}}` {
			t.Errorf("body = %s", body)
		}
	})
	if err := NewClient(srv.URL, 0).UpdateWidget(context.Background(), "op-token", payload); err != nil {
		t.Errorf("UpdateWidget: %v", err)
	}

	rejected, _ := newTestServer(t, "/update_widget", http.StatusForbidden, `{"detail":"Not allowed"}`, nil)
	err := NewClient(rejected.URL, 0).UpdateWidget(context.Background(), "op-token", payload)
	if detail, ok := IsDetail(err); !ok || detail != "Not allowed" {
		t.Errorf("err = %v, want detail %q", err, "Not allowed")
	}

	broken, _ := newTestServer(t, "/update_widget", http.StatusBadGateway, `upstream down`, nil)
	err = NewClient(broken.URL, 0).UpdateWidget(context.Background(), "", payload)
	if !errors.Is(err, ErrTransport) {
		t.Errorf("err = %v, want ErrTransport", err)
	}
}

func TestUpdateWidget_EncodeError(t *testing.T) {
	client := NewClient("http://127.0.0.1:1", 0)
	err := client.UpdateWidget(context.Background(), "", map[string]any{"bad": make(chan int)})
	if err == nil {
		t.Fatal("UpdateWidget with unencodable payload should fail")
	}
	if errors.Is(err, ErrTransport) {
		t.Error("encode failure should not be classified as transport")
	}
}

func TestDetailText(t *testing.T) {
	testCases := []struct {
		raw    string
		want   string
		wantOK bool
	}{
		{``, "", false},
		{`null`, "", false},
		{`""`, "", false},
		{`"Nope"`, "Nope", true},
		{`[{"msg":"a"},{"msg":""},{"msg":"b"}]`, "a; b", true},
		{`[]`, "", false},
		{`{"code":7}`, `{"code":7}`, true},
	}
	for _, tc := range testCases {
		got, ok := detailText(json.RawMessage(tc.raw))
		if got != tc.want || ok != tc.wantOK {
			t.Errorf("detailText(%s) = %q, %v; want %q, %v", tc.raw, got, ok, tc.want, tc.wantOK)
		}
	}
}

func TestOutcomeOf(t *testing.T) {
	if got := outcomeOf(nil); got != "ok" {
		t.Errorf("outcomeOf(nil) = %q, want ok", got)
	}
	if got := outcomeOf(&DetailError{Detail: "x"}); got != "rejected" {
		t.Errorf("outcomeOf(detail) = %q, want rejected", got)
	}
	if got := outcomeOf(ErrTransport); got != "transport_error" {
		t.Errorf("outcomeOf(transport) = %q, want transport_error", got)
	}
}
