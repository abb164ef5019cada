// Package social builds the OAuth2 authorization URLs the login widget links its social buttons to.
package social

import (
	"sort"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/facebook"
	"golang.org/x/oauth2/github"
	"golang.org/x/oauth2/google"
	"golang.org/x/oauth2/linkedin"
	"golang.org/x/oauth2/microsoft"
)

type provider struct {
	endpoint oauth2.Endpoint
	scopes   []string
}

// providers maps widget provider names to their OAuth2 endpoints. Providers x/oauth2 does not
// ship are declared inline.
var providers = map[string]provider{
	"github": {
		endpoint: github.Endpoint,
		scopes:   []string{"read:user", "user:email"},
	},
	"google": {
		endpoint: google.Endpoint,
		scopes:   []string{"openid", "email", "profile"},
	},
	"microsoft": {
		endpoint: microsoft.AzureADEndpoint("common"),
		scopes:   []string{"openid", "email", "User.Read"},
	},
	"facebook": {
		endpoint: facebook.Endpoint,
		scopes:   []string{"email", "public_profile"},
	},
	"linkedin": {
		endpoint: linkedin.Endpoint,
		scopes:   []string{"openid", "email", "profile"},
	},
	"apple": {
		endpoint: oauth2.Endpoint{
			AuthURL:  "https://appleid.apple.com/auth/authorize",
			TokenURL: "https://appleid.apple.com/auth/token",
		},
		scopes: []string{"name", "email"},
	},
	"twitter": {
		endpoint: oauth2.Endpoint{
			AuthURL:  "https://twitter.com/i/oauth2/authorize",
			TokenURL: "https://api.twitter.com/2/oauth2/token",
		},
		scopes: []string{"users.read", "tweet.read"},
	},
	"tiktok": {
		endpoint: oauth2.Endpoint{
			AuthURL:  "https://www.tiktok.com/v2/auth/authorize/",
			TokenURL: "https://open.tiktokapis.com/v2/oauth/token/",
		},
		scopes: []string{"user.info.basic"},
	},
	// WhatsApp sign-in goes through Meta's login dialog.
	"whatsapp": {
		endpoint: facebook.Endpoint,
		scopes:   []string{"whatsapp_business_management"},
	},
}

// Supported returns the provider names this package can build URLs for, sorted.
func Supported() []string {
	out := make([]string, 0, len(providers))
	for name := range providers {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Config returns the OAuth2 config for name with the widget's callback URL, or false when
// name is unknown.
func Config(name, clientID, callbackURL string) (*oauth2.Config, bool) {
	p, ok := providers[name]
	if !ok {
		return nil, false
	}
	return &oauth2.Config{
		ClientID:    clientID,
		RedirectURL: callbackURL,
		Scopes:      p.scopes,
		Endpoint:    p.endpoint,
	}, true
}

// AuthURLs returns an authorization URL per enabled provider. Providers without a client id,
// and unknown providers, are skipped.
func AuthURLs(enabled []string, clientIDs map[string]string, callbackURL, state string) map[string]string {
	out := make(map[string]string, len(enabled))
	for _, name := range enabled {
		id := clientIDs[name]
		if id == "" {
			continue
		}
		cfg, ok := Config(name, id, callbackURL)
		if !ok {
			continue
		}
		out[name] = cfg.AuthCodeURL(state, oauth2.AccessTypeOnline)
	}
	return out
}
