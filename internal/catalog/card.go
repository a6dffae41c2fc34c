package catalog

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
)

// Kind selects the adapter a card runs through.
type Kind string

const (
	KindSimulate      Kind = "simulate"
	KindVision        Kind = "vision"
	KindSearch        Kind = "search"
	KindMaps          Kind = "maps"
	KindMarket        Kind = "market"
	KindSiteAudit     Kind = "site_audit"
	KindClinicalAudit Kind = "clinical_audit"
	KindTranslate     Kind = "translate"
	KindSentiment     Kind = "sentiment"
	KindQA            Kind = "qa"
)

const (
	InputText  = "text"
	InputImage = "image"
)

const (
	GroupLab   = "lab"
	GroupTools = "tools"
)

// Card is one independently runnable unit on the dashboard.
type Card struct {
	ID            string `yaml:"id"`
	Name          string `yaml:"name"`
	Description   string `yaml:"description"`
	Group         string `yaml:"group"`
	Kind          Kind   `yaml:"kind"`
	InputType     string `yaml:"input_type"`
	DefaultInput  string `yaml:"default_input"`
	APIName       string `yaml:"api_name"`
	InputTemplate string `yaml:"input_template"`
	Prompt        string `yaml:"prompt"`
	TargetLang    string `yaml:"target_lang"`

	tmpl *template.Template
}

// FileConfig maps a catalog document.
type FileConfig struct {
	Cards []Card `yaml:"cards"`
}

// RenderInput applies the card's input template, if any, to the raw input.
func (c Card) RenderInput(input string) (string, error) {
	if c.tmpl == nil {
		return input, nil
	}
	var buf bytes.Buffer
	if err := c.tmpl.Execute(&buf, struct{ Input string }{Input: input}); err != nil {
		return "", fmt.Errorf("render input for %s: %w", c.ID, err)
	}
	return buf.String(), nil
}

func (c Card) IsImage() bool { return c.InputType == InputImage }

func normalizeCard(c Card) (Card, error) {
	c.ID = strings.TrimSpace(c.ID)
	c.Name = strings.TrimSpace(c.Name)
	c.Description = strings.TrimSpace(c.Description)
	c.APIName = strings.TrimSpace(c.APIName)
	if c.Group == "" {
		c.Group = GroupLab
	}
	if c.InputType == "" {
		c.InputType = InputText
	}
	if c.APIName == "" && c.Kind == KindSimulate {
		c.APIName = c.Name
	}
	c.tmpl = nil
	if tpl := strings.TrimSpace(c.InputTemplate); tpl != "" {
		parsed, err := template.New(c.ID).Option("missingkey=error").Parse(c.InputTemplate)
		if err != nil {
			return Card{}, fmt.Errorf("card %s: parse input_template: %w", c.ID, err)
		}
		c.tmpl = parsed
	}
	return c, nil
}
