// Package outreach sends the opening message to new leads and marks them
// contacted.
package outreach

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"text/template"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/xRamax/scrapper-violet-wave/internal/config"
	"github.com/xRamax/scrapper-violet-wave/internal/model"
	"github.com/xRamax/scrapper-violet-wave/pkg/anthropic"
)

// DefaultTemplate is the opening message used when none is configured.
const DefaultTemplate = "Hola {{.Name}}, soy {{.Agent}} de {{.Company}}. " +
	"Trabajamos con {{.Niche}} para que ningún paciente se quede sin respuesta. " +
	"¿Te puedo contar en dos minutos cómo lo hacemos?"

// Identity is who the messages come from.
type Identity struct {
	AgentName   string
	CompanyName string
	Niche       string
}

// IdentityFromConfig reads the sender identity from outreach config.
func IdentityFromConfig(c config.OutreachConfig) Identity {
	return Identity{AgentName: c.AgentName, CompanyName: c.CompanyName, Niche: c.Niche}
}

type templateData struct {
	Name    string
	Notes   string
	Agent   string
	Company string
	Niche   string
}

// Composer writes the opening message for a lead.
type Composer struct {
	identity Identity
	tmpl     *template.Template

	ai        anthropic.Client
	model     string
	maxTokens int64
}

// ComposerOption configures a Composer.
type ComposerOption func(*Composer)

// WithAI personalizes messages with an Anthropic model. The template is used
// whenever the model call fails or returns nothing.
func WithAI(client anthropic.Client, model string, maxTokens int64) ComposerOption {
	return func(c *Composer) {
		c.ai = client
		c.model = model
		c.maxTokens = maxTokens
	}
}

// NewComposer parses tmpl (DefaultTemplate when empty).
func NewComposer(identity Identity, tmpl string, opts ...ComposerOption) (*Composer, error) {
	if strings.TrimSpace(tmpl) == "" {
		tmpl = DefaultTemplate
	}
	t, err := template.New("outreach").Option("missingkey=error").Parse(tmpl)
	if err != nil {
		return nil, eris.Wrap(err, "outreach: parse template")
	}

	c := &Composer{identity: identity, tmpl: t, maxTokens: 300}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

// Compose returns the message for lead.
func (c *Composer) Compose(ctx context.Context, lead model.Lead) (string, error) {
	fallback, err := c.render(lead)
	if err != nil {
		return "", err
	}
	if c.ai == nil {
		return fallback, nil
	}

	resp, err := c.ai.CreateMessage(ctx, anthropic.MessageRequest{
		Model:     c.model,
		MaxTokens: c.maxTokens,
		System:    c.systemPrompt(),
		Messages:  []anthropic.Message{{Role: "user", Content: c.userPrompt(lead, fallback)}},
	})
	if err != nil {
		zap.L().Warn("outreach: personalization failed, using template",
			zap.String("lead", lead.Name),
			zap.Error(err),
		)
		return fallback, nil
	}
	resp.Usage.LogCost(c.model, "outreach")

	text := resp.Text()
	if text == "" {
		return fallback, nil
	}
	return text, nil
}

func (c *Composer) render(lead model.Lead) (string, error) {
	var buf bytes.Buffer
	err := c.tmpl.Execute(&buf, templateData{
		Name:    lead.Name,
		Notes:   lead.Notes,
		Agent:   c.identity.AgentName,
		Company: c.identity.CompanyName,
		Niche:   c.identity.Niche,
	})
	if err != nil {
		return "", eris.Wrap(err, "outreach: render template")
	}
	return strings.TrimSpace(buf.String()), nil
}

func (c *Composer) systemPrompt() string {
	return fmt.Sprintf(
		"You are %s from %s, writing a first WhatsApp/SMS message to a business in the %s niche. "+
			"Write in the same language as the example message. At most 3 sentences, friendly, no links, no emojis. "+
			"Reply with the message text only.",
		c.identity.AgentName, c.identity.CompanyName, c.identity.Niche,
	)
}

func (c *Composer) userPrompt(lead model.Lead, example string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Business: %s\n", lead.Name)
	if lead.Notes != "" {
		fmt.Fprintf(&b, "Details: %s\n", lead.Notes)
	}
	fmt.Fprintf(&b, "Example message:\n%s", example)
	return b.String()
}
