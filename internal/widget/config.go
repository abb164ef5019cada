// Package widget manages an organisation's embeddable login widget: its configuration draft,
// validation, logo storage and publication to the authentication service.
package widget

import (
	"errors"
	"strings"
)

// Tab identifies one section of the widget editor.
type Tab string

const (
	TabConsent       Tab = "consent"
	TabBranding      Tab = "branding"
	TabCustomization Tab = "customization"
	TabDevSettings   Tab = "dev_settings"
)

// Tabs lists the editor tabs in display order.
var Tabs = []Tab{TabConsent, TabBranding, TabCustomization, TabDevSettings}

// ErrUnknownTab is returned by Reset for a tab that is not in Tabs.
var ErrUnknownTab = errors.New("widget: unknown tab")

// ParseTab returns the tab named s.
func ParseTab(s string) (Tab, error) {
	for _, t := range Tabs {
		if string(t) == s {
			return t, nil
		}
	}
	return "", ErrUnknownTab
}

// Social providers offered by the widget, in display order.
var Providers = []string{"github", "microsoft", "google", "apple", "whatsapp", "tiktok", "facebook", "linkedin", "twitter"}

const (
	DefaultDisplayName = "Flitchcoin"
	DefaultGreeting    = "Continue to Log in to Flitchcoin"
	DefaultLogoURL     = "/flitchcoin-logo.svg"
	DefaultFont        = "Inter"
)

// Branding is what the widget says and shows.
type Branding struct {
	DisplayName string `json:"display_name"`
	Greeting    string `json:"greeting"`
	LogoURL     string `json:"logo_url"`
	Font        string `json:"font"`
}

// Customization is the widget's look. Colors are #RRGGBB.
type Customization struct {
	WidgetBgColor     string `json:"widget_bg_color"`
	WidgetColor       string `json:"widget_color"`
	WidgetBorderColor string `json:"widget_border_color"`
	WidgetBoxRadius   int    `json:"widget_box_radius"`
	WidgetBorderWidth int    `json:"widget_border_width"`
	InputBorderColor  string `json:"input_border_color"`
	InputBoxRadius    int    `json:"input_box_radius"`
	ButtonColor       string `json:"button_color"`
	TextColor         string `json:"text_color"`
	LinkColor         string `json:"link_color"`
}

// Consent holds the legal links shown under the form.
type Consent struct {
	TermsURL   string `json:"terms_url"`
	PrivacyURL string `json:"privacy_url"`
}

// DevSettings wires the widget into the customer's application.
type DevSettings struct {
	HostURL     string          `json:"host_url"`
	CallbackURL string          `json:"callback_url"`
	RedirectURL string          `json:"redirect_url"`
	Social      map[string]bool `json:"social"`
	// ClientIDs holds the OAuth client id per enabled social provider.
	ClientIDs map[string]string `json:"client_ids,omitempty"`
}

// Config is the full editable widget configuration of one organisation.
type Config struct {
	Branding      Branding      `json:"branding"`
	Customization Customization `json:"customization"`
	Consent       Consent       `json:"consent"`
	DevSettings   DevSettings   `json:"dev_settings"`
}

// Defaults returns a fresh configuration with every tab at its default.
func Defaults() Config {
	return Config{
		Branding:      defaultBranding(),
		Customization: defaultCustomization(),
		Consent:       Consent{},
		DevSettings:   defaultDevSettings(),
	}
}

func defaultBranding() Branding {
	return Branding{
		DisplayName: DefaultDisplayName,
		Greeting:    DefaultGreeting,
		LogoURL:     DefaultLogoURL,
		Font:        DefaultFont,
	}
}

func defaultCustomization() Customization {
	return Customization{
		WidgetBgColor:     "#EEF5F1",
		WidgetColor:       "#FFFFFF",
		WidgetBorderColor: "#FFFFFF",
		WidgetBoxRadius:   8,
		WidgetBorderWidth: 1,
		InputBorderColor:  "#121212",
		InputBoxRadius:    6,
		ButtonColor:       "#121212",
		TextColor:         "#121212",
		LinkColor:         "#121212",
	}
}

func defaultDevSettings() DevSettings {
	social := make(map[string]bool, len(Providers))
	for _, p := range Providers {
		social[p] = false
	}
	return DevSettings{Social: social}
}

// Reset returns c with tab restored to its defaults. Other tabs are untouched.
func (c Config) Reset(tab Tab) (Config, error) {
	switch tab {
	case TabConsent:
		c.Consent = Consent{}
	case TabBranding:
		c.Branding = defaultBranding()
	case TabCustomization:
		c.Customization = defaultCustomization()
	case TabDevSettings:
		c.DevSettings = defaultDevSettings()
	default:
		return c, ErrUnknownTab
	}
	return c, nil
}

// Normalize fills blank text with defaults, trims URLs, uppercases colors and makes sure
// every known provider has a toggle. Unknown providers are dropped.
func (c Config) Normalize() Config {
	b := &c.Branding
	b.DisplayName = strings.TrimSpace(b.DisplayName)
	if b.DisplayName == "" {
		b.DisplayName = DefaultDisplayName
	}
	b.Greeting = strings.TrimSpace(b.Greeting)
	if b.Greeting == "" {
		b.Greeting = DefaultGreeting
	}
	if strings.TrimSpace(b.LogoURL) == "" {
		b.LogoURL = DefaultLogoURL
	}
	if strings.TrimSpace(b.Font) == "" {
		b.Font = DefaultFont
	}

	cu := &c.Customization
	for _, p := range []*string{&cu.WidgetBgColor, &cu.WidgetColor, &cu.WidgetBorderColor, &cu.InputBorderColor, &cu.ButtonColor, &cu.TextColor, &cu.LinkColor} {
		*p = strings.ToUpper(strings.TrimSpace(*p))
	}

	c.Consent.TermsURL = strings.TrimSpace(c.Consent.TermsURL)
	c.Consent.PrivacyURL = strings.TrimSpace(c.Consent.PrivacyURL)

	d := &c.DevSettings
	d.HostURL = strings.TrimSpace(d.HostURL)
	d.CallbackURL = strings.TrimSpace(d.CallbackURL)
	d.RedirectURL = strings.TrimSpace(d.RedirectURL)
	social := make(map[string]bool, len(Providers))
	for _, p := range Providers {
		social[p] = d.Social[p]
	}
	d.Social = social
	if len(d.ClientIDs) > 0 {
		ids := make(map[string]string, len(d.ClientIDs))
		for k, v := range d.ClientIDs {
			if _, known := social[k]; known && strings.TrimSpace(v) != "" {
				ids[k] = strings.TrimSpace(v)
			}
		}
		d.ClientIDs = ids
	}
	return c
}

// EnabledProviders returns the providers switched on, in display order.
func (c Config) EnabledProviders() []string {
	var out []string
	for _, p := range Providers {
		if c.DevSettings.Social[p] {
			out = append(out, p)
		}
	}
	return out
}
