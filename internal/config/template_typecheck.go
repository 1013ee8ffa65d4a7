package config

import (
	"bytes"
	htmltmpl "html/template"
	"text/template"
	"time"
)

// validateTemplateTypes executes the document's templates against sample
// data shaped like what the agent and digest pass at run time.
func (d *ScoutDocument) validateTemplateTypes() error {
	instruction := struct {
		Name             string
		DefaultSubreddit string
		ToolNames        []string
	}{
		Name:             d.Agent.Name,
		DefaultSubreddit: d.Agent.DefaultSubreddit,
		ToolNames:        []string{"get_reddit_news"},
	}
	if err := typeCheckTextTemplate("agent.instruction", d.Agent.Instruction, instruction); err != nil {
		return err
	}

	if d.Digest.Email == nil || d.Digest.Email.Template == "" {
		return nil
	}
	email := struct {
		Subject     string
		Prompt      string
		Agent       string
		RunID       string
		Markdown    string
		HTML        htmltmpl.HTML
		GeneratedAt time.Time
	}{
		Subject:     d.Digest.Email.Subject,
		Prompt:      d.Digest.Prompt,
		Agent:       d.Agent.Name,
		RunID:       "run-0",
		Markdown:    "- title",
		HTML:        htmltmpl.HTML("<ul><li>title</li></ul>"),
		GeneratedAt: time.Unix(0, 0).UTC(),
	}
	return typeCheckHTMLTemplate("digest.email.template", d.Digest.Email.Template, email)
}

func typeCheckTextTemplate(name, templateText string, data any) error {
	tmpl, err := template.New(name).Option("missingkey=error").Parse(templateText)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	return tmpl.Execute(&buf, data)
}

func typeCheckHTMLTemplate(name, templateText string, data any) error {
	tmpl, err := htmltmpl.New(name).Option("missingkey=error").Parse(templateText)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	return tmpl.Execute(&buf, data)
}
