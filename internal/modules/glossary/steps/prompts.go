package steps

import (
	"bytes"
	"embed"
	"fmt"
	"os"
	"strings"
	"text/template"

	"gopkg.in/yaml.v3"
)

// PromptsEnv names the variable holding an optional prompts YAML path.
const PromptsEnv = "GLOSSARY_PROMPTS_YAML"

//go:embed prompts.yaml
var promptsFS embed.FS

type PromptName string

const (
	PromptExtractTerms     PromptName = "extract_terms"
	PromptDraftDefinition  PromptName = "draft_definition"
	PromptReviewEntry      PromptName = "review_entry"
	PromptRefineDefinition PromptName = "refine_definition"
)

var promptSchemas = map[PromptName]func() map[string]any{
	PromptExtractTerms:     termsSchema,
	PromptDraftDefinition:  definitionSchema,
	PromptReviewEntry:      reviewSchema,
	PromptRefineDefinition: definitionSchema,
}

// Input is the data a prompt template may reference.
type Input struct {
	Project    string
	Document   string
	Text       string
	Term       string
	Category   string
	Definition string
	Snippets   []string
	Issues     []IssueInput
}

type IssueInput struct {
	Type        string
	Description string
}

// Prompt is ready to pass into openai.GenerateJSON.
type Prompt struct {
	Name       PromptName
	SchemaName string
	Schema     map[string]any
	System     string
	User       string
}

type yamlPromptFile struct {
	Version int                       `yaml:"version"`
	Prompts map[string]yamlPromptSpec `yaml:"prompts"`
}

type yamlPromptSpec struct {
	SchemaName string `yaml:"schema_name"`
	System     string `yaml:"system"`
	User       string `yaml:"user"`
}

type compiledPrompt struct {
	schemaName string
	system     *template.Template
	user       *template.Template
}

type Prompts struct {
	byName map[PromptName]compiledPrompt
}

// LoadPrompts compiles the embedded prompt set, or the file at overridePath
// when it is non-empty.
func LoadPrompts(overridePath string) (*Prompts, error) {
	var (
		data []byte
		err  error
	)
	if p := strings.TrimSpace(overridePath); p != "" {
		data, err = os.ReadFile(p)
	} else {
		data, err = promptsFS.ReadFile("prompts.yaml")
	}
	if err != nil {
		return nil, fmt.Errorf("read prompts: %w", err)
	}
	return parsePrompts(data)
}

func parsePrompts(data []byte) (*Prompts, error) {
	var file yamlPromptFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse prompts: %w", err)
	}
	if file.Version <= 0 {
		return nil, fmt.Errorf("prompts: invalid version %d", file.Version)
	}
	out := &Prompts{byName: make(map[PromptName]compiledPrompt, len(promptSchemas))}
	for name := range promptSchemas {
		spec, ok := file.Prompts[string(name)]
		if !ok {
			return nil, fmt.Errorf("prompts: missing %s", name)
		}
		if strings.TrimSpace(spec.SchemaName) == "" {
			return nil, fmt.Errorf("prompts: %s missing schema_name", name)
		}
		sysT, err := template.New("system").Option("missingkey=zero").Parse(spec.System)
		if err != nil {
			return nil, fmt.Errorf("%s system template parse: %w", name, err)
		}
		userT, err := template.New("user").Option("missingkey=zero").Parse(spec.User)
		if err != nil {
			return nil, fmt.Errorf("%s user template parse: %w", name, err)
		}
		out.byName[name] = compiledPrompt{schemaName: strings.TrimSpace(spec.SchemaName), system: sysT, user: userT}
	}
	return out, nil
}

func (p *Prompts) Build(name PromptName, in Input) (Prompt, error) {
	c, ok := p.byName[name]
	if !ok {
		return Prompt{}, fmt.Errorf("unknown prompt: %s", name)
	}
	system, err := render(c.system, in)
	if err != nil {
		return Prompt{}, fmt.Errorf("%s system: %w", name, err)
	}
	user, err := render(c.user, in)
	if err != nil {
		return Prompt{}, fmt.Errorf("%s user: %w", name, err)
	}
	return Prompt{
		Name:       name,
		SchemaName: c.schemaName,
		Schema:     promptSchemas[name](),
		System:     system,
		User:       user,
	}, nil
}

func render(t *template.Template, in Input) (string, error) {
	var b bytes.Buffer
	if err := t.Execute(&b, in); err != nil {
		return "", err
	}
	return strings.TrimSpace(b.String()), nil
}
