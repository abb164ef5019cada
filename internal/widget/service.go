package widget

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"authx-console/internal/audit"
	"authx-console/internal/telemetry"
	"authx-console/internal/widget/social"
)

// MaxLogoBytes is the largest logo UploadLogo accepts.
const MaxLogoBytes = 1 << 20

var (
	// ErrMissingBearer is returned by Publish without an operator token.
	ErrMissingBearer = errors.New("widget: bearer token required to publish")
	// ErrLogoTooLarge is returned by UploadLogo for a logo over MaxLogoBytes.
	ErrLogoTooLarge = errors.New("widget: logo exceeds 1 MiB")
	// ErrLogoType is returned by UploadLogo for content that is not an accepted image type.
	ErrLogoType = errors.New("widget: logo must be png, jpeg or webp")
	// ErrMissingOrg is returned for a blank organisation id.
	ErrMissingOrg = errors.New("widget: organisation id required")
)

// logoExtensions are the accepted logo types. SVG is excluded: it can carry script and logos are
// served from the console origin.
var logoExtensions = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/webp": ".webp",
}

// IsLogoType reports whether contentType is an accepted logo image type.
func IsLogoType(contentType string) bool {
	_, ok := logoExtensions[contentType]
	return ok
}

// ViolationsError lists every policy rule a configuration breaks.
type ViolationsError struct {
	Violations []string
}

func (e *ViolationsError) Error() string {
	return "widget: invalid configuration: " + strings.Join(e.Violations, "; ")
}

// Validator checks a configuration and returns the violated rules, if any.
type Validator interface {
	Validate(ctx context.Context, cfg Config) ([]string, error)
}

// Publisher sends the published widget to the authentication service.
type Publisher interface {
	UpdateWidget(ctx context.Context, bearer string, payload any) error
}

// ServiceOptions configures NewService. Repo and Logos are required; the rest may be nil.
type ServiceOptions struct {
	Repo      Repository
	Logos     LogoStore
	Validator Validator
	Publisher Publisher
	Audit     audit.AuditLogger
	Emitter   telemetry.EventEmitter
	// LogoBaseURL prefixes stored logo keys to form Branding.LogoURL (e.g. "/logos").
	LogoBaseURL string
}

// Service is the dashboard's widget editor.
type Service struct {
	repo        Repository
	logos       LogoStore
	validator   Validator
	publisher   Publisher
	audit       audit.AuditLogger
	emitter     telemetry.EventEmitter
	logoBaseURL string
	nowF        func() time.Time
}

// NewService builds a Service from opts.
func NewService(opts ServiceOptions) *Service {
	return &Service{
		repo:        opts.Repo,
		logos:       opts.Logos,
		validator:   opts.Validator,
		publisher:   opts.Publisher,
		audit:       opts.Audit,
		emitter:     opts.Emitter,
		logoBaseURL: strings.TrimSuffix(opts.LogoBaseURL, "/"),
		nowF:        func() time.Time { return time.Now().UTC() },
	}
}

// Get returns the organisation's draft. An organisation that never saved gets the defaults at version 0.
func (s *Service) Get(ctx context.Context, orgID string) (*Draft, error) {
	if strings.TrimSpace(orgID) == "" {
		return nil, ErrMissingOrg
	}
	d, err := s.repo.Get(ctx, orgID)
	if errors.Is(err, ErrNotFound) {
		return &Draft{OrgID: orgID, Config: Defaults()}, nil
	}
	return d, err
}

// Save normalizes and validates cfg, then stores it as the organisation's draft.
// A configuration that breaks the policy returns *ViolationsError and is not stored.
func (s *Service) Save(ctx context.Context, orgID, actor string, cfg Config) (*Draft, error) {
	if strings.TrimSpace(orgID) == "" {
		return nil, ErrMissingOrg
	}
	cfg = cfg.Normalize()
	if err := s.validate(ctx, cfg); err != nil {
		return nil, err
	}
	d, err := s.repo.Upsert(ctx, orgID, cfg, s.nowF())
	if err != nil {
		return nil, err
	}
	s.record(ctx, orgID, actor, audit.ActionWidgetSaved, fmt.Sprintf("version=%d", d.Version))
	s.emit(ctx, telemetry.EventWidgetSaved, orgID, map[string]string{"version": fmt.Sprint(d.Version)})
	return d, nil
}

// Reset restores one tab to its defaults and stores the result.
func (s *Service) Reset(ctx context.Context, orgID, actor string, tab Tab) (*Draft, error) {
	cur, err := s.Get(ctx, orgID)
	if err != nil {
		return nil, err
	}
	cfg, err := cur.Config.Reset(tab)
	if err != nil {
		return nil, err
	}
	d, err := s.repo.Upsert(ctx, orgID, cfg.Normalize(), s.nowF())
	if err != nil {
		return nil, err
	}
	s.record(ctx, orgID, actor, audit.ActionWidgetReset, "tab="+string(tab))
	return d, nil
}

// UploadLogo stores data as the organisation's logo and points the draft's Branding.LogoURL at it.
// The image type is sniffed from data; a client-declared type is never trusted.
func (s *Service) UploadLogo(ctx context.Context, orgID, actor string, data []byte) (*Draft, error) {
	cur, err := s.Get(ctx, orgID)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 || len(data) > MaxLogoBytes {
		return nil, ErrLogoTooLarge
	}
	contentType := http.DetectContentType(data)
	ext, ok := logoExtensions[contentType]
	if !ok {
		return nil, ErrLogoType
	}
	key := path.Join(orgID, uuid.New().String()+ext)
	if err := s.logos.Put(ctx, key, data, contentType); err != nil {
		return nil, fmt.Errorf("widget: store logo: %w", err)
	}

	cfg := cur.Config
	cfg.Branding.LogoURL = s.logoBaseURL + "/" + key
	d, err := s.repo.Upsert(ctx, orgID, cfg.Normalize(), s.nowF())
	if err != nil {
		return nil, err
	}
	s.record(ctx, orgID, actor, audit.ActionLogoUploaded, "key="+key)
	return d, nil
}

// Logo returns a stored logo by key.
func (s *Service) Logo(ctx context.Context, key string) ([]byte, string, error) {
	return s.logos.Get(ctx, key)
}

// Publish validates the saved draft and sends its payload to the authentication service with the
// operator's bearer token. Social providers get an authorization URL each, with orgID as OAuth state.
func (s *Service) Publish(ctx context.Context, orgID, actor, bearer string) (*Payload, error) {
	if strings.TrimSpace(bearer) == "" {
		return nil, ErrMissingBearer
	}
	if strings.TrimSpace(orgID) == "" {
		return nil, ErrMissingOrg
	}
	d, err := s.repo.Get(ctx, orgID)
	if err != nil {
		return nil, err
	}
	cfg := d.Config.Normalize()
	if err := s.validate(ctx, cfg); err != nil {
		return nil, err
	}

	urls := social.AuthURLs(cfg.EnabledProviders(), cfg.DevSettings.ClientIDs, cfg.DevSettings.CallbackURL, orgID)
	payload := cfg.Payload(urls)
	if s.publisher == nil {
		return nil, errors.New("widget: no publisher configured")
	}
	if err := s.publisher.UpdateWidget(ctx, bearer, payload); err != nil {
		return nil, err
	}

	if err := s.repo.MarkPublished(ctx, orgID, s.nowF()); err != nil {
		log.Printf("widget: published %s but could not record it: %v", orgID, err)
	}
	s.record(ctx, orgID, actor, audit.ActionWidgetPublished, fmt.Sprintf("version=%d", d.Version))
	s.emit(ctx, telemetry.EventWidgetPublished, orgID, map[string]string{
		"version": fmt.Sprint(d.Version),
		"social":  strings.Join(cfg.EnabledProviders(), ","),
	})
	return &payload, nil
}

func (s *Service) validate(ctx context.Context, cfg Config) error {
	if s.validator == nil {
		return nil
	}
	violations, err := s.validator.Validate(ctx, cfg)
	if err != nil {
		return fmt.Errorf("widget: policy: %w", err)
	}
	if len(violations) > 0 {
		return &ViolationsError{Violations: violations}
	}
	return nil
}

func (s *Service) record(ctx context.Context, orgID, actor, action, metadata string) {
	if s.audit == nil {
		return
	}
	s.audit.LogEvent(ctx, orgID, actor, action, audit.ResourceWidget, metadata)
}

func (s *Service) emit(ctx context.Context, typ, orgID string, attrs map[string]string) {
	telemetry.EmitAsync(s.emitter, ctx, &telemetry.Event{
		Type:       typ,
		Source:     "widget",
		OrgID:      orgID,
		Attributes: attrs,
	})
}
