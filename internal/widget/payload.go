package widget

// Border is the input or widget border in the published payload.
type Border struct {
	Style  *int   `json:"style,omitempty"`
	Radius int    `json:"radius"`
	Color  string `json:"color"`
}

// PayloadWidget is the object the authentication service stores for the widget.
type PayloadWidget struct {
	Name         string            `json:"name"`
	LogoURL      string            `json:"logo_url"`
	Font         string            `json:"font"`
	Greeting     string            `json:"greeting"`
	InputBorder  Border            `json:"input_border"`
	WidgetBorder Border            `json:"widget_border"`
	Color0       string            `json:"color0"`
	Color1       string            `json:"color1"`
	Color2       string            `json:"color2"`
	Color3       string            `json:"color3"`
	Color4       string            `json:"color4"`
	Color5       string            `json:"color5"`
	Color6       string            `json:"color6"`
	Social       map[string]string `json:"social"`
	RedirectURL  string            `json:"redirect_url"`
}

// Payload is the body of the update-widget call.
type Payload struct {
	Widget PayloadWidget `json:"widget"`
}

// Payload builds the update-widget body. authURLs maps each enabled provider to its
// authorization URL; providers without one are left out.
//
// Palette: color0 background, color1 widget, color2 widget border, color3 input border,
// color4 button, color5 text, color6 link.
func (c Config) Payload(authURLs map[string]string) Payload {
	c = c.Normalize()
	cu := c.Customization
	width := cu.WidgetBorderWidth
	social := make(map[string]string)
	for _, p := range c.EnabledProviders() {
		if u := authURLs[p]; u != "" {
			social[p] = u
		}
	}
	return Payload{Widget: PayloadWidget{
		Name:         c.Branding.DisplayName,
		LogoURL:      c.Branding.LogoURL,
		Font:         c.Branding.Font,
		Greeting:     c.Branding.Greeting,
		InputBorder:  Border{Radius: cu.InputBoxRadius, Color: cu.InputBorderColor},
		WidgetBorder: Border{Style: &width, Radius: cu.WidgetBoxRadius, Color: cu.WidgetBorderColor},
		Color0:       cu.WidgetBgColor,
		Color1:       cu.WidgetColor,
		Color2:       cu.WidgetBorderColor,
		Color3:       cu.InputBorderColor,
		Color4:       cu.ButtonColor,
		Color5:       cu.TextColor,
		Color6:       cu.LinkColor,
		Social:       social,
		RedirectURL:  c.DevSettings.RedirectURL,
	}}
}
