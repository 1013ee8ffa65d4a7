package agent

import (
	"fmt"
	"strings"
	"text/template"
)

// instructionData is what an instruction template can reference.
type instructionData struct {
	Name             string
	DefaultSubreddit string
	ToolNames        []string
}

func parseInstruction(name, text string) (*template.Template, error) {
	if name == "" {
		name = "instruction"
	}
	tmpl, err := template.New(name).Option("missingkey=error").Parse(text)
	if err != nil {
		return nil, fmt.Errorf("parse instruction template: %w", err)
	}
	return tmpl, nil
}

func renderInstruction(tmpl *template.Template, data instructionData) (string, error) {
	builder := &strings.Builder{}
	if err := tmpl.Execute(builder, data); err != nil {
		return "", fmt.Errorf("render instruction: %w", err)
	}
	return builder.String(), nil
}
