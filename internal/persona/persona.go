// Package persona holds the reviewer persona: its prompts and generation
// parameters. The default pack is embedded; PERSONA_FILE may replace it.
package persona

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"persona-review/internal/llm"
)

//go:embed persona.yaml
var defaultPack []byte

const truncationMarker = "..."

// Generation holds per-call completion parameters.
type Generation struct {
	Temperature  float64 `yaml:"temperature"`
	MaxTokens    int     `yaml:"max_tokens"`
	HistoryTurns int     `yaml:"history_turns"`
}

// Prompts are the persona's templates. Analysis must contain {text};
// ChatContext must contain {analysis} and {message}.
type Prompts struct {
	System      string `yaml:"system"`
	Analysis    string `yaml:"analysis"`
	Chat        string `yaml:"chat"`
	ChatContext string `yaml:"chat_context"`
}

type Persona struct {
	Name          string     `yaml:"name"`
	MaxInputChars int        `yaml:"max_input_chars"`
	Analysis      Generation `yaml:"analysis"`
	Chat          Generation `yaml:"chat"`
	Prompts       Prompts    `yaml:"prompts"`
}

// Default returns the embedded persona.
func Default() *Persona {
	p, err := Parse(defaultPack)
	if err != nil {
		panic(fmt.Sprintf("embedded persona invalid: %v", err))
	}
	return p
}

// Load reads a persona file; an empty path yields the embedded default.
func Load(path string) (*Persona, error) {
	if strings.TrimSpace(path) == "" {
		return Default(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read persona %s: %w", path, err)
	}
	p, err := Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("persona %s: %w", path, err)
	}
	return p, nil
}

// Parse decodes and validates a YAML persona pack.
func Parse(raw []byte) (*Persona, error) {
	var p Persona
	if err := yaml.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("decode persona: %w", err)
	}
	if err := p.validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

func (p *Persona) validate() error {
	var errs []error
	if strings.TrimSpace(p.Name) == "" {
		errs = append(errs, errors.New("name is required"))
	}
	if strings.TrimSpace(p.Prompts.System) == "" || strings.TrimSpace(p.Prompts.Chat) == "" {
		errs = append(errs, errors.New("system and chat prompts are required"))
	}
	if !strings.Contains(p.Prompts.Analysis, "{text}") {
		errs = append(errs, errors.New("analysis prompt must contain {text}"))
	}
	if !strings.Contains(p.Prompts.ChatContext, "{analysis}") || !strings.Contains(p.Prompts.ChatContext, "{message}") {
		errs = append(errs, errors.New("chat_context prompt must contain {analysis} and {message}"))
	}
	if p.MaxInputChars <= 0 {
		errs = append(errs, errors.New("max_input_chars must be positive"))
	}
	if p.Chat.HistoryTurns < 0 {
		errs = append(errs, errors.New("chat.history_turns must not be negative"))
	}
	return errors.Join(errs...)
}

// Truncate caps text at MaxInputChars characters and appends "..." when cut.
func (p *Persona) Truncate(text string) string {
	runes := []rune(text)
	if len(runes) <= p.MaxInputChars {
		return text
	}
	return string(runes[:p.MaxInputChars]) + truncationMarker
}

// AnalysisMessages builds the two-message prompt for a document critique.
func (p *Persona) AnalysisMessages(text string) []llm.Message {
	prompt := strings.ReplaceAll(p.Prompts.Analysis, "{text}", p.Truncate(text))
	return []llm.Message{
		llm.System(p.Prompts.System),
		llm.User(prompt),
	}
}

// ChatContext fills the context template. analysisJSON is "null" for general chat.
func (p *Persona) ChatContext(analysisJSON, message string) string {
	return strings.NewReplacer("{analysis}", analysisJSON, "{message}", message).Replace(p.Prompts.ChatContext)
}

// AnalysisParams and ChatParams convert the generation settings for llm.Client.
func (p *Persona) AnalysisParams() llm.Params {
	return llm.Params{Temperature: llm.Temperature(p.Analysis.Temperature), MaxTokens: p.Analysis.MaxTokens}
}

func (p *Persona) ChatParams() llm.Params {
	return llm.Params{Temperature: llm.Temperature(p.Chat.Temperature), MaxTokens: p.Chat.MaxTokens}
}
