// Package policy validates widget configurations with an OPA Rego policy.
package policy

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/open-policy-agent/opa/v1/rego"

	"authx-console/internal/widget"
)

const denyQuery = "data.authx.widget.deny"

// DefaultPolicy is the built-in widget policy. Each deny message names the offending field.
const DefaultPolicy = `package authx.widget

color_fields := [
	"widget_bg_color",
	"widget_color",
	"widget_border_color",
	"input_border_color",
	"button_color",
	"text_color",
	"link_color",
]

radius_fields := ["widget_box_radius", "input_box_radius"]

between(x, lo, hi) if {
	x >= lo
	x <= hi
}

deny contains msg if {
	some f in color_fields
	v := input.customization[f]
	not regex.match("^#[0-9A-Fa-f]{6}$", v)
	msg := sprintf("customization.%s must be a #RRGGBB color", [f])
}

deny contains msg if {
	some f in radius_fields
	r := input.customization[f]
	not between(r, 0, 64)
	msg := sprintf("customization.%s must be between 0 and 64", [f])
}

deny contains msg if {
	w := input.customization.widget_border_width
	not between(w, 0, 16)
	msg := "customization.widget_border_width must be between 0 and 16"
}

url_fields := {
	"consent.terms_url": input.consent.terms_url,
	"consent.privacy_url": input.consent.privacy_url,
	"dev_settings.host_url": input.dev_settings.host_url,
	"dev_settings.callback_url": input.dev_settings.callback_url,
	"dev_settings.redirect_url": input.dev_settings.redirect_url,
}

absolute_http(u) if {
	regex.match("^https?://[A-Za-z0-9.-]+(:[0-9]+)?(/[^ ]*)?$", u)
}

deny contains msg if {
	some name, u in url_fields
	u != ""
	not absolute_http(u)
	msg := sprintf("%s must be an absolute http(s) URL", [name])
}

social_enabled if {
	some p
	input.dev_settings.social[p] == true
}

deny contains "dev_settings.redirect_url is required when a social provider is enabled" if {
	social_enabled
	input.dev_settings.redirect_url == ""
}

deny contains "dev_settings.callback_url is required when a social provider is enabled" if {
	social_enabled
	input.dev_settings.callback_url == ""
}
`

// Evaluator checks configurations against a compiled policy.
type Evaluator struct {
	query rego.PreparedEvalQuery
}

// New compiles module (DefaultPolicy when empty). The module must define data.authx.widget.deny.
func New(ctx context.Context, module string) (*Evaluator, error) {
	if module == "" {
		module = DefaultPolicy
	}
	q, err := rego.New(
		rego.Query(denyQuery),
		rego.Module("widget.rego", module),
	).PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("policy: compile: %w", err)
	}
	return &Evaluator{query: q}, nil
}

// Validate returns the sorted policy violations of cfg; empty when cfg is acceptable.
func (e *Evaluator) Validate(ctx context.Context, cfg widget.Config) ([]string, error) {
	input, err := toInput(cfg)
	if err != nil {
		return nil, err
	}
	rs, err := e.query.Eval(ctx, rego.EvalInput(input))
	if err != nil {
		return nil, fmt.Errorf("policy: eval: %w", err)
	}
	if len(rs) == 0 || len(rs[0].Expressions) == 0 {
		return nil, nil
	}
	raw, ok := rs[0].Expressions[0].Value.([]interface{})
	if !ok {
		return nil, fmt.Errorf("policy: deny is %T, want a set", rs[0].Expressions[0].Value)
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	sort.Strings(out)
	return out, nil
}

// toInput converts cfg to plain JSON values so the policy sees the JSON field names.
func toInput(cfg widget.Config) (map[string]interface{}, error) {
	b, err := json.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("policy: encode input: %w", err)
	}
	var input map[string]interface{}
	if err := json.Unmarshal(b, &input); err != nil {
		return nil, fmt.Errorf("policy: decode input: %w", err)
	}
	return input, nil
}
