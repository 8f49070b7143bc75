package ruleset

import (
	"bytes"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

func (m ExprMap) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range m.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		vb, err := json.Marshal(m.values[k])
		if err != nil {
			return nil, err
		}
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (m *ExprMap) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("ruleset: expected JSON object for output map")
	}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, _ := keyTok.(string)
		var val string
		if err := dec.Decode(&val); err != nil {
			return fmt.Errorf("ruleset: output value for %q must be a string: %w", key, err)
		}
		m.Set(key, val)
	}
	_, err = dec.Token() // consume '}'
	return err
}

func (m ExprMap) MarshalYAML() (interface{}, error) {
	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, k := range m.keys {
		keyNode := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: k}
		valNode := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: m.values[k]}
		node.Content = append(node.Content, keyNode, valNode)
	}
	return node, nil
}

func (m *ExprMap) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("ruleset: expected a YAML mapping for output map")
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		var key, val string
		if err := node.Content[i].Decode(&key); err != nil {
			return err
		}
		if err := node.Content[i+1].Decode(&val); err != nil {
			return err
		}
		m.Set(key, val)
	}
	return nil
}

// stepWire is the JSON/YAML wire shape of Step: it carries the "type"
// discriminant field absent from Step itself (Step.Kind is derived from
// it during decode and is never serialized as a separate "type" key
// distinct from what ParseStepKind produces).
type stepWire struct {
	ID          string          `json:"id" yaml:"id"`
	Name        string          `json:"name,omitempty" yaml:"name,omitempty"`
	Type        string          `json:"type" yaml:"type"`
	Branches    []Branch        `json:"branches,omitempty" yaml:"branches,omitempty"`
	DefaultNext string          `json:"default_next,omitempty" yaml:"default_next,omitempty"`
	Assignments []Assignment    `json:"assignments,omitempty" yaml:"assignments,omitempty"`
	NextStep    string          `json:"next_step,omitempty" yaml:"next_step,omitempty"`
	Result      *TerminalResult `json:"result,omitempty" yaml:"result,omitempty"`
}

// ParseStepKind parses the wire "type" field.
func ParseStepKind(s string) (StepKind, error) {
	switch s {
	case "decision":
		return KindDecision, nil
	case "action":
		return KindAction, nil
	case "terminal":
		return KindTerminal, nil
	default:
		return 0, fmt.Errorf("ruleset: unknown step type %q", s)
	}
}

func (s Step) toWire() stepWire {
	return stepWire{
		ID:          s.ID,
		Name:        s.Name,
		Type:        s.Kind.String(),
		Branches:    s.Branches,
		DefaultNext: s.DefaultNext,
		Assignments: s.Assignments,
		NextStep:    s.NextStep,
		Result:      s.Result,
	}
}

func (w stepWire) toStep() (Step, error) {
	kind, err := ParseStepKind(w.Type)
	if err != nil {
		return Step{}, err
	}
	return Step{
		ID:          w.ID,
		Name:        w.Name,
		Kind:        kind,
		Branches:    w.Branches,
		DefaultNext: w.DefaultNext,
		Assignments: w.Assignments,
		NextStep:    w.NextStep,
		Result:      w.Result,
	}, nil
}

func (s Step) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.toWire())
}

func (s *Step) UnmarshalJSON(data []byte) error {
	var w stepWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	step, err := w.toStep()
	if err != nil {
		return err
	}
	*s = step
	return nil
}

func (s Step) MarshalYAML() (interface{}, error) {
	return s.toWire(), nil
}

func (s *Step) UnmarshalYAML(node *yaml.Node) error {
	var w stepWire
	if err := node.Decode(&w); err != nil {
		return err
	}
	step, err := w.toStep()
	if err != nil {
		return err
	}
	*s = step
	return nil
}

// FromJSON parses a ruleset document per the authoritative JSON schema
// (spec.md §6).
func FromJSON(data []byte) (*RuleSet, error) {
	var r RuleSet
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("ruleset: invalid JSON: %w", err)
	}
	return &r, nil
}

// FromYAML parses a ruleset document in the YAML dialect of the same
// schema.
func FromYAML(data []byte) (*RuleSet, error) {
	var r RuleSet
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("ruleset: invalid YAML: %w", err)
	}
	return &r, nil
}

// ToJSON renders the ruleset as indented JSON (for CLI/debug output; the
// CRC/signature-covered canonical form lives in pkg/container).
func (r *RuleSet) ToJSON() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}

// ToYAML renders the ruleset as YAML.
func (r *RuleSet) ToYAML() ([]byte, error) {
	return yaml.Marshal(r)
}
