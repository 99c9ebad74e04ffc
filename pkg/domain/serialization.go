package domain

import (
	"encoding/json"
	"fmt"
	"math"
	"time"
)

// IntentEnvelope is the tagged wire form of an Intent shared by JSON and YAML encoders.
type IntentEnvelope struct {
	Kind   Kind           `json:"kind" yaml:"kind"`
	Params map[string]any `json:"params,omitempty" yaml:"params,omitempty"`
}

// ToEnvelope converts an intent into its tagged wire form.
func ToEnvelope(i Intent) IntentEnvelope {
	env := IntentEnvelope{Kind: i.Kind()}
	switch v := i.(type) {
	case LoadPatient:
		env.Params = map[string]any{"identifier": v.Identifier}
	case ShowSection:
		env.Params = map[string]any{"section": string(v.Section)}
	case SwitchTarget:
		env.Params = map[string]any{"target": v.Target}
	case ActivateAssistant:
		if v.Query != "" {
			env.Params = map[string]any{"query": v.Query}
		}
	case Order:
		env.Params = map[string]any{"type": string(v.Type), "details": v.Details}
	case CheckIn:
		env.Params = map[string]any{"index": v.Index}
	case CreateMacro:
		env.Params = map[string]any{"trigger": v.Trigger, "actions": ToEnvelopes(v.Actions)}
	case Unknown:
		env.Params = map[string]any{"raw_text": v.RawText}
	}
	return env
}

// ToEnvelopes converts a list of intents.
func ToEnvelopes(in []Intent) []IntentEnvelope {
	out := make([]IntentEnvelope, len(in))
	for i, it := range in {
		out[i] = ToEnvelope(it)
	}
	return out
}

// FromEnvelope rebuilds an intent from its wire form.
func FromEnvelope(env IntentEnvelope) (Intent, error) {
	p := env.Params
	switch env.Kind {
	case KindLoadPatient:
		return LoadPatient{Identifier: paramString(p, "identifier")}, nil
	case KindShowSection:
		return ShowSection{Section: Section(paramString(p, "section"))}, nil
	case KindSwitchTarget:
		return SwitchTarget{Target: paramString(p, "target")}, nil
	case KindActivateAssistant:
		return ActivateAssistant{Query: paramString(p, "query")}, nil
	case KindOrder:
		return Order{Type: OrderType(paramString(p, "type")), Details: paramString(p, "details")}, nil
	case KindShowWorklist:
		return ShowWorklist{}, nil
	case KindCheckIn:
		idx, err := paramInt(p, "index")
		if err != nil {
			return nil, fmt.Errorf("check_in: %w", err)
		}
		return CheckIn{Index: idx}, nil
	case KindStartCapture:
		return StartCapture{}, nil
	case KindStopCapture:
		return StopCapture{}, nil
	case KindGenerateNote:
		return GenerateNote{}, nil
	case KindCreateMacro:
		actions, err := paramIntents(p, "actions")
		if err != nil {
			return nil, fmt.Errorf("create_macro: %w", err)
		}
		return CreateMacro{Trigger: paramString(p, "trigger"), Actions: actions}, nil
	case KindShowHelp:
		return ShowHelp{}, nil
	case KindUnknown:
		return Unknown{RawText: paramString(p, "raw_text")}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownIntentKind, env.Kind)
	}
}

// FromEnvelopes rebuilds a list of intents.
func FromEnvelopes(in []IntentEnvelope) ([]Intent, error) {
	out := make([]Intent, 0, len(in))
	for i, env := range in {
		it, err := FromEnvelope(env)
		if err != nil {
			return nil, fmt.Errorf("intent %d: %w", i, err)
		}
		out = append(out, it)
	}
	return out, nil
}

// EncodeIntents marshals intents as a JSON array of envelopes.
func EncodeIntents(in []Intent) ([]byte, error) {
	return json.Marshal(ToEnvelopes(in))
}

// DecodeIntents unmarshals a JSON array of envelopes.
func DecodeIntents(data []byte) ([]Intent, error) {
	var envs []IntentEnvelope
	if err := json.Unmarshal(data, &envs); err != nil {
		return nil, fmt.Errorf("failed to unmarshal intents: %w", err)
	}
	return FromEnvelopes(envs)
}

type macroJSON struct {
	Trigger   string           `json:"trigger"`
	Actions   []IntentEnvelope `json:"actions"`
	CreatedAt time.Time        `json:"created_at"`
}

// MarshalJSON encodes the macro with tagged actions.
func (m Macro) MarshalJSON() ([]byte, error) {
	return json.Marshal(macroJSON{Trigger: m.Trigger, Actions: ToEnvelopes(m.Actions), CreatedAt: m.CreatedAt})
}

// UnmarshalJSON decodes a macro with tagged actions.
func (m *Macro) UnmarshalJSON(data []byte) error {
	var raw macroJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	actions, err := FromEnvelopes(raw.Actions)
	if err != nil {
		return fmt.Errorf("macro %q: %w", raw.Trigger, err)
	}
	*m = Macro{Trigger: raw.Trigger, Actions: actions, CreatedAt: raw.CreatedAt}
	return nil
}

type parsedCommandJSON struct {
	Intents        []IntentEnvelope `json:"intents"`
	NormalizedText string           `json:"normalized_text"`
	OriginalText   string           `json:"original_text"`
	Language       string           `json:"language,omitempty"`
}

// MarshalJSON encodes the command with tagged intents.
func (c ParsedCommand) MarshalJSON() ([]byte, error) {
	return json.Marshal(parsedCommandJSON{
		Intents:        ToEnvelopes(c.Intents),
		NormalizedText: c.NormalizedText,
		OriginalText:   c.OriginalText,
		Language:       c.Language,
	})
}

// UnmarshalJSON decodes a command with tagged intents.
func (c *ParsedCommand) UnmarshalJSON(data []byte) error {
	var raw parsedCommandJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	intents, err := FromEnvelopes(raw.Intents)
	if err != nil {
		return err
	}
	*c = ParsedCommand{
		Intents:        intents,
		NormalizedText: raw.NormalizedText,
		OriginalText:   raw.OriginalText,
		Language:       raw.Language,
	}
	return nil
}

func paramString(p map[string]any, key string) string {
	if v, ok := p[key].(string); ok {
		return v
	}
	return ""
}

func paramInt(p map[string]any, key string) (int, error) {
	switch v := p[key].(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		if v != math.Trunc(v) {
			return 0, fmt.Errorf("%s: %v is not an integer", key, v)
		}
		return int(v), nil
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return 0, fmt.Errorf("%s: %w", key, err)
		}
		return int(n), nil
	case nil:
		return 0, fmt.Errorf("%s: missing", key)
	default:
		return 0, fmt.Errorf("%s: unexpected type %T", key, v)
	}
}

// paramIntents accepts already-typed envelopes (in-process round trips) and
// generic maps (JSON or YAML decoding).
func paramIntents(p map[string]any, key string) ([]Intent, error) {
	switch v := p[key].(type) {
	case nil:
		return nil, nil
	case []IntentEnvelope:
		return FromEnvelopes(v)
	case []any:
		envs := make([]IntentEnvelope, 0, len(v))
		for i, item := range v {
			m, ok := item.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("%s[%d]: unexpected type %T", key, i, item)
			}
			kind, _ := m["kind"].(string)
			params, _ := m["params"].(map[string]any)
			envs = append(envs, IntentEnvelope{Kind: Kind(kind), Params: params})
		}
		return FromEnvelopes(envs)
	default:
		return nil, fmt.Errorf("%s: unexpected type %T", key, v)
	}
}
