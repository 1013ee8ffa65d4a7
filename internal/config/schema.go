package config

import (
	"fmt"
	"net/mail"
	"os"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"github.com/bakkerme/reddit-scout/internal/headlines"
)

const (
	DefaultAgentName        = "spring_ai_developer_scout"
	DefaultDefaultSubreddit = "springboot"
	DefaultMaxTurns         = 5
)

const defaultAgentDescription = "A Spring AI Developer Scout specializing in Spring Boot, Spring Cloud, and AI integration topics."

// defaultInstruction is a text/template. It is rendered with the agent's
// default subreddit and the names of its registered tools.
const defaultInstruction = `You are the Spring AI Developer Scout. Your task is to fetch and summarize Spring-related AI development news from Reddit.
1. **Identify Intent:** Determine if the user asks about Spring Boot, Spring Cloud, or Spring AI integration.
2. **Determine Subreddit:** Identify which subreddit(s) to check or default to '{{ .DefaultSubreddit }}' if none are provided.
3. **Synthesize Output:** Take the exact list of titles returned by the tool.
4. **Format Response:** Present the information as a concise, bulleted list. Clearly state which subreddit(s) the information came from. If the tool indicates an error or an unknown subreddit, report that message directly.
5. **MUST CALL TOOL:** You **MUST** call the {{ range $i, $name := .ToolNames }}{{ if $i }}, {{ end }}` + "`{{ $name }}`" + `{{ end }} tool with the identified subreddit(s). Do NOT generate summaries without calling the tool first.`

// ScoutDocument represents the top-level structure of a scout.yaml file
type ScoutDocument struct {
	Agent  AgentConfig  `yaml:"agent"`
	Tool   ToolConfig   `yaml:"tool"`
	Digest DigestConfig `yaml:"digest,omitempty"`
}

// AgentConfig describes the orchestrating agent
type AgentConfig struct {
	Name             string   `yaml:"name"`
	Description      string   `yaml:"description"`
	Model            string   `yaml:"model,omitempty"`
	Temperature      *float64 `yaml:"temperature,omitempty"`
	Instruction      string   `yaml:"instruction"`
	DefaultSubreddit string   `yaml:"default_subreddit"`
	MaxTurns         int      `yaml:"max_turns,omitempty"`
	RequireToolCall  *bool    `yaml:"require_tool_call,omitempty"`
	// LLMAttempts bounds how often a failed chat completion is attempted.
	LLMAttempts int `yaml:"llm_attempts,omitempty"`
}

// ToolConfig configures the get_reddit_news tool
type ToolConfig struct {
	DefaultLimit int `yaml:"default_limit,omitempty"`
	// Exclude is an optional boolean expression; posts it matches are dropped.
	Exclude string `yaml:"exclude,omitempty"`
}

// DigestConfig configures the scheduled digest
type DigestConfig struct {
	Prompt   string       `yaml:"prompt,omitempty"`
	Schedule string       `yaml:"schedule,omitempty"`
	Timezone string       `yaml:"timezone,omitempty"`
	Email    *EmailOutput `yaml:"email,omitempty"`
}

// EmailOutput defines email delivery configuration
type EmailOutput struct {
	To           string `yaml:"to"`
	From         string `yaml:"from,omitempty"`
	Subject      string `yaml:"subject"`
	SMTPHost     string `yaml:"smtp_host,omitempty"`
	SMTPPort     int    `yaml:"smtp_port,omitempty"`
	SMTPUser     string `yaml:"smtp_user,omitempty"`
	SMTPPassword string `yaml:"smtp_password,omitempty"`
	TLSMode      string `yaml:"tls_mode,omitempty"`
	// Template is an optional html/template for the message body. It
	// receives the digest's rendered HTML as .HTML.
	Template string `yaml:"template,omitempty"`
}

// DefaultDocument returns the built-in scout definition.
func DefaultDocument() *ScoutDocument {
	requireTool := true
	return &ScoutDocument{
		Agent: AgentConfig{
			Name:             DefaultAgentName,
			Description:      defaultAgentDescription,
			Instruction:      defaultInstruction,
			DefaultSubreddit: DefaultDefaultSubreddit,
			MaxTurns:         DefaultMaxTurns,
			RequireToolCall:  &requireTool,
			LLMAttempts:      1,
		},
		Tool: ToolConfig{
			DefaultLimit: headlines.DefaultLimit,
		},
	}
}

// LoadDocument reads a scout document from path. Fields the file leaves out
// keep their built-in defaults. An empty path yields DefaultDocument.
func LoadDocument(path string) (*ScoutDocument, error) {
	doc := DefaultDocument()
	if strings.TrimSpace(path) != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(data, doc); err != nil {
			return nil, fmt.Errorf("parse scout document: %w", err)
		}
	}
	doc.applyDefaults()
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return doc, nil
}

func (d *ScoutDocument) applyDefaults() {
	if strings.TrimSpace(d.Agent.Name) == "" {
		d.Agent.Name = DefaultAgentName
	}
	if strings.TrimSpace(d.Agent.Instruction) == "" {
		d.Agent.Instruction = defaultInstruction
	}
	if strings.TrimSpace(d.Agent.DefaultSubreddit) == "" {
		d.Agent.DefaultSubreddit = DefaultDefaultSubreddit
	}
	d.Agent.DefaultSubreddit = strings.TrimPrefix(strings.TrimSpace(d.Agent.DefaultSubreddit), "r/")
	if d.Agent.LLMAttempts == 0 {
		d.Agent.LLMAttempts = 1
	}
	if d.Agent.MaxTurns == 0 {
		d.Agent.MaxTurns = DefaultMaxTurns
	}
	if d.Tool.DefaultLimit == 0 {
		d.Tool.DefaultLimit = headlines.DefaultLimit
	}
}

// RequiresToolCall reports whether the agent must invoke a tool before answering.
func (a AgentConfig) RequiresToolCall() bool {
	return a.RequireToolCall == nil || *a.RequireToolCall
}

// Validate performs validation on the scout document
func (d *ScoutDocument) Validate() error {
	if d.Agent.Name == "" {
		return fmt.Errorf("agent name is required")
	}
	if d.Agent.MaxTurns < 1 {
		return fmt.Errorf("agent max_turns must be >= 1")
	}
	if d.Agent.LLMAttempts < 1 {
		return fmt.Errorf("agent llm_attempts must be >= 1")
	}
	if d.Agent.Temperature != nil && (*d.Agent.Temperature < 0 || *d.Agent.Temperature > 2) {
		return fmt.Errorf("agent temperature must be between 0 and 2")
	}
	if d.Tool.DefaultLimit < 1 {
		return fmt.Errorf("tool default_limit must be >= 1")
	}
	if d.Tool.Exclude != "" {
		if _, err := headlines.CompileExclusion(d.Tool.Exclude); err != nil {
			return fmt.Errorf("tool exclude: %w", err)
		}
	}

	if err := d.Digest.validate(); err != nil {
		return err
	}
	if err := d.validateTemplateTypes(); err != nil {
		return fmt.Errorf("template type check failed: %w", err)
	}
	return nil
}

func (c DigestConfig) validate() error {
	if c.Schedule != "" && strings.TrimSpace(c.Prompt) == "" {
		return fmt.Errorf("digest: prompt is required when a schedule is set")
	}
	if c.Schedule != "" {
		if _, err := cron.ParseStandard(c.Schedule); err != nil {
			return fmt.Errorf("digest: invalid schedule: %w", err)
		}
	}
	if c.Timezone != "" {
		if _, err := time.LoadLocation(c.Timezone); err != nil {
			return fmt.Errorf("digest: invalid timezone: %w", err)
		}
	}
	if c.Email == nil {
		return nil
	}
	requiredFields := map[string]string{
		"to":      c.Email.To,
		"subject": c.Email.Subject,
	}
	for field, value := range requiredFields {
		if value == "" {
			return fmt.Errorf("digest email: '%s' field is required", field)
		}
	}
	if _, err := mail.ParseAddressList(c.Email.To); err != nil {
		return fmt.Errorf("digest email: invalid to address")
	}
	if c.Email.From != "" { // From is optional, but if provided must be valid
		if _, err := mail.ParseAddress(c.Email.From); err != nil {
			return fmt.Errorf("digest email: invalid from address")
		}
	}
	return nil
}

// MergeSMTP fills connection settings the document leaves empty from env defaults.
func (e EmailOutput) MergeSMTP(defaults SMTPEnvConfig) EmailOutput {
	merged := e
	if merged.SMTPHost == "" {
		merged.SMTPHost = defaults.Host
	}
	if merged.SMTPPort == 0 {
		merged.SMTPPort = defaults.Port
	}
	if merged.SMTPUser == "" {
		merged.SMTPUser = defaults.User
	}
	if merged.SMTPPassword == "" {
		merged.SMTPPassword = defaults.Password
	}
	if merged.TLSMode == "" {
		merged.TLSMode = defaults.TLSMode
	}
	return merged
}
