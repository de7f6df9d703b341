// Package flow loads declarative automation flows from YAML and compiles them
// into action blocks ready for execution.
package flow

import (
	"fmt"
	"os"
	"strings"
	"time"

	yaml "gopkg.in/yaml.v2"

	"github.com/TeoEchavarria/sura-automatization-reschedule/pipeline"
)

// ActionSpec is the YAML shape of one declarative action.
type ActionSpec struct {
	Kind        string `yaml:"kind"`
	Description string `yaml:"description"`
	By          string `yaml:"by"`
	Path        string `yaml:"path"`
	// TimeoutSec overrides the dispatcher's default wait bound.
	TimeoutSec int    `yaml:"timeout_sec"`
	Payload    string `yaml:"payload"`
}

// BlockSpec groups actions into one retry unit with its own bounds.
type BlockSpec struct {
	Name     string       `yaml:"name"`
	Attempts int          `yaml:"attempts"`
	DelaySec int          `yaml:"delay_sec"`
	Actions  []ActionSpec `yaml:"actions"`
}

// Definition is a complete named flow.
type Definition struct {
	Name        string      `yaml:"name"`
	Description string      `yaml:"description"`
	URL         string      `yaml:"url"`
	Blocks      []BlockSpec `yaml:"blocks"`
}

// Load reads a flow definition from a YAML file and validates it.
func Load(path string) (*Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read flow %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes a YAML flow definition and validates it. Malformed flows fail
// here, never during a browser run.
func Parse(data []byte) (*Definition, error) {
	var def Definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("decode flow: %w", err)
	}
	if err := def.validate(); err != nil {
		return nil, err
	}
	return &def, nil
}

func (d *Definition) validate() error {
	if d.Name == "" {
		return fmt.Errorf("flow has no name")
	}
	if len(d.Blocks) == 0 {
		return fmt.Errorf("flow %q has no blocks", d.Name)
	}
	for bi, b := range d.Blocks {
		if len(b.Actions) == 0 {
			return fmt.Errorf("flow %q block %d (%s) has no actions", d.Name, bi, b.Name)
		}
		for ai, a := range b.Actions {
			if !pipeline.KnownActionKind(pipeline.ActionKind(a.Kind)) {
				return fmt.Errorf("flow %q block %s action %d: unknown kind %q",
					d.Name, b.Name, ai, a.Kind)
			}
			if !pipeline.KnownStrategy(pipeline.Strategy(a.By)) {
				return fmt.Errorf("flow %q block %s action %d: unknown locator strategy %q",
					d.Name, b.Name, ai, a.By)
			}
			if a.Path == "" {
				return fmt.Errorf("flow %q block %s action %d: empty locator path",
					d.Name, b.Name, ai)
			}
		}
	}
	return nil
}

// Block is a compiled retry unit.
type Block struct {
	Name    string
	Actions []pipeline.Action
	Options pipeline.BlockOptions
}

// Build compiles the definition into executable blocks, interpolating
// ${param} placeholders in locator paths and payloads. An unresolved
// placeholder is a construction error.
func (d *Definition) Build(params map[string]string) ([]Block, error) {
	blocks := make([]Block, 0, len(d.Blocks))
	for _, bs := range d.Blocks {
		actions := make([]pipeline.Action, 0, len(bs.Actions))
		for ai, as := range bs.Actions {
			path := interpolate(as.Path, params)
			payload := interpolate(as.Payload, params)
			if leftover := unresolved(path); leftover != "" {
				return nil, fmt.Errorf("flow %q block %s action %d: unresolved parameter %s",
					d.Name, bs.Name, ai, leftover)
			}
			if leftover := unresolved(payload); leftover != "" {
				return nil, fmt.Errorf("flow %q block %s action %d: unresolved parameter %s",
					d.Name, bs.Name, ai, leftover)
			}
			actions = append(actions, pipeline.Action{
				Kind:        pipeline.ActionKind(as.Kind),
				Description: as.Description,
				Locator:     pipeline.Locator{By: pipeline.Strategy(as.By), Path: path},
				Timeout:     time.Duration(as.TimeoutSec) * time.Second,
				Payload:     payload,
			})
		}
		blocks = append(blocks, Block{
			Name:    bs.Name,
			Actions: actions,
			Options: pipeline.BlockOptions{
				Attempts: bs.Attempts,
				Delay:    time.Duration(bs.DelaySec) * time.Second,
			},
		})
	}
	return blocks, nil
}

func interpolate(s string, params map[string]string) string {
	result := s
	for key, value := range params {
		placeholder := "${" + key + "}"
		result = strings.ReplaceAll(result, placeholder, value)
	}
	return result
}

// unresolved returns the first remaining ${...} placeholder, if any. The
// composite press template %s is not a parameter and passes through.
func unresolved(s string) string {
	start := strings.Index(s, "${")
	if start < 0 {
		return ""
	}
	end := strings.Index(s[start:], "}")
	if end < 0 {
		return s[start:]
	}
	return s[start : start+end+1]
}
