package digest

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
)

const defaultEmailTemplate = `<html>
  <body>
    <h1>{{ .Subject }}</h1>
    {{ .HTML }}
    <p style="color:#888;font-size:small">Generated {{ .GeneratedAt.Format "2006-01-02 15:04 MST" }} by {{ .Agent }}</p>
  </body>
</html>`

// emailData is what an email template can reference.
type emailData struct {
	Subject     string
	Prompt      string
	Agent       string
	RunID       string
	Markdown    string
	HTML        template.HTML
	GeneratedAt time.Time
}

func newMarkdownConverter() goldmark.Markdown {
	return goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithParserOptions(parser.WithAutoHeadingID()),
	)
}

func renderMarkdown(converter goldmark.Markdown, input string) (string, error) {
	var buf bytes.Buffer
	if err := converter.Convert([]byte(input), &buf); err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return buf.String(), nil
}

func parseEmailTemplate(text string) (*template.Template, error) {
	if strings.TrimSpace(text) == "" {
		text = defaultEmailTemplate
	}
	tmpl, err := template.New("email").Parse(text)
	if err != nil {
		return nil, fmt.Errorf("parse email template: %w", err)
	}
	return tmpl, nil
}

func renderEmail(tmpl *template.Template, data emailData) (string, error) {
	var builder strings.Builder
	if err := tmpl.Execute(&builder, data); err != nil {
		return "", fmt.Errorf("execute email template: %w", err)
	}
	return builder.String(), nil
}
