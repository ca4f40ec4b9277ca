package skill

import (
	"bytes"
	"context"
	"fmt"
	"text/template"
	"time"
)

// Result is what a handler reports back to the caller.
type Result struct {
	Intent      string `json:"intent"`
	Message     string `json:"message"`
	Placeholder bool   `json:"placeholder,omitempty"`
}

// Handler is the single entry point every skill exposes.
type Handler interface {
	Run(ctx context.Context, text string) (Result, error)
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, text string) (Result, error)

// Run calls f.
func (f HandlerFunc) Run(ctx context.Context, text string) (Result, error) { return f(ctx, text) }

// Placeholder stands in for an intent nobody implemented yet. It identifies
// itself and echoes the input so operators notice.
type Placeholder struct {
	Intent string
}

// PlaceholderMessage formats the marker line a placeholder reports.
func PlaceholderMessage(intent, text string) string {
	return fmt.Sprintf("Placeholder skill executed for intent: %s. Input: %s", intent, text)
}

func (p Placeholder) Run(_ context.Context, text string) (Result, error) {
	return Result{Intent: p.Intent, Message: PlaceholderMessage(p.Intent, text), Placeholder: true}, nil
}

// Reply renders a text/template with .Intent and .Text.
type Reply struct {
	Intent string
	tmpl   *template.Template
}

// NewReply parses tmpl once; parse errors surface at discovery.
func NewReply(intent, tmpl string) (*Reply, error) {
	t, err := template.New(intent).Option("missingkey=error").Parse(tmpl)
	if err != nil {
		return nil, err
	}
	return &Reply{Intent: intent, tmpl: t}, nil
}

func (r *Reply) Run(_ context.Context, text string) (Result, error) {
	var buf bytes.Buffer
	data := map[string]string{"Intent": r.Intent, "Text": text}
	if err := r.tmpl.Execute(&buf, data); err != nil {
		return Result{}, err
	}
	return Result{Intent: r.Intent, Message: buf.String()}, nil
}

// Clock reports the current local time.
type Clock struct {
	Intent string
	Layout string
	Now    func() time.Time
}

func (c Clock) Run(_ context.Context, _ string) (Result, error) {
	now := time.Now
	if c.Now != nil {
		now = c.Now
	}
	layout := c.Layout
	if layout == "" {
		layout = "15:04"
	}
	return Result{Intent: c.Intent, Message: "It is " + now().Format(layout) + "."}, nil
}
