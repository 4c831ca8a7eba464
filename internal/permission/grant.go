package permission

import (
	"bytes"
	"encoding/json"
	"slices"
)

// GrantKind tags the stored shape of a module's permissions.
type GrantKind int

const (
	// KindInvalid is any shape other than a list or an object. It always denies.
	KindInvalid GrantKind = iota
	// KindActions is a list of allowed action names: ["view","edit"].
	KindActions
	// KindFlags is an object of action to flag: {"view":true,"edit":false}.
	KindFlags
)

func (k GrantKind) String() string {
	switch k {
	case KindActions:
		return "actions"
	case KindFlags:
		return "flags"
	default:
		return "invalid"
	}
}

// Grant is the permission entry for one module.
type Grant struct {
	kind    GrantKind
	actions []string
	flags   map[string]bool
	raw     json.RawMessage
}

// Actions builds a list-shaped grant.
func Actions(actions ...string) Grant {
	return Grant{kind: KindActions, actions: slices.Clone(actions)}
}

// Flags builds an object-shaped grant.
func Flags(flags map[string]bool) Grant {
	cp := make(map[string]bool, len(flags))
	for k, v := range flags {
		cp[k] = v
	}
	return Grant{kind: KindFlags, flags: cp}
}

func (g Grant) Kind() GrantKind { return g.kind }

// Allows reports whether action is granted by g.
func (g Grant) Allows(action string) bool {
	switch g.kind {
	case KindActions:
		return slices.Contains(g.actions, action)
	case KindFlags:
		return g.flags[action]
	case KindInvalid:
		return false
	default:
		return false
	}
}

func (g *Grant) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	*g = Grant{}
	if len(trimmed) == 0 {
		return nil
	}

	switch trimmed[0] {
	case '[':
		var items []any
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return err
		}
		actions := make([]string, 0, len(items))
		for _, it := range items {
			if s, ok := it.(string); ok {
				actions = append(actions, s)
			}
		}
		g.kind = KindActions
		g.actions = actions
	case '{':
		var obj map[string]any
		if err := json.Unmarshal(trimmed, &obj); err != nil {
			return err
		}
		flags := make(map[string]bool, len(obj))
		for k, v := range obj {
			flags[k] = truthy(v)
		}
		g.kind = KindFlags
		g.flags = flags
	default:
		g.kind = KindInvalid
		g.raw = append(json.RawMessage(nil), trimmed...)
	}
	return nil
}

func (g Grant) MarshalJSON() ([]byte, error) {
	switch g.kind {
	case KindActions:
		if g.actions == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(g.actions)
	case KindFlags:
		if g.flags == nil {
			return []byte("{}"), nil
		}
		return json.Marshal(g.flags)
	default:
		if len(g.raw) > 0 {
			return g.raw, nil
		}
		return []byte("null"), nil
	}
}

// truthy follows the loose truthiness stored flag values were written with.
func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case float64:
		return t != 0
	case string:
		return t != ""
	default:
		return true
	}
}
