// Package fields filters and type-checks client-supplied update payloads
// against a per-resource table of allowed fields.
package fields

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"userservice-backend/internal/models"
)

// ErrNoValidFields is returned when nothing is left to write after filtering
var ErrNoValidFields = errors.New("no valid fields to update")

// Kind is the JSON shape a field value must have
type Kind int

const (
	String Kind = iota + 1
	Integer
	Sequence
	Boolean
	Mapping
)

func (k Kind) String() string {
	switch k {
	case String:
		return "string"
	case Integer:
		return "integer"
	case Sequence:
		return "sequence"
	case Boolean:
		return "boolean"
	case Mapping:
		return "mapping"
	}
	return "unknown"
}

// TypeError reports a listed field whose value has the wrong shape
type TypeError struct {
	Field string
	Want  Kind
}

func (e *TypeError) Error() string {
	return fmt.Sprintf("invalid type for %s", e.Field)
}

// Rule describes one allowed field. Elem, when set, constrains every element
// of a Sequence. Normalize runs after the type check.
type Rule struct {
	Kind      Kind
	Elem      Kind
	Normalize func(any) any
}

// Policy is an allow-list of fields with their expected shapes
type Policy struct {
	name  string
	rules map[string]Rule
	order []string
}

// New creates a policy from a field table
func New(name string, rules map[string]Rule) *Policy {
	order := make([]string, 0, len(rules))
	for field := range rules {
		order = append(order, field)
	}
	sort.Strings(order)

	return &Policy{name: name, rules: rules, order: order}
}

// Name identifies the policy in logs
func (p *Policy) Name() string {
	return p.name
}

// Allows reports whether field is on the allow-list
func (p *Policy) Allows(field string) bool {
	_, ok := p.rules[field]
	return ok
}

// Filter keeps only listed fields. Unlisted fields are dropped silently; a
// listed field with the wrong shape rejects the whole payload.
func (p *Policy) Filter(payload map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(p.rules))
	for _, field := range p.order {
		value, ok := payload[field]
		if !ok {
			continue
		}
		rule := p.rules[field]
		v, ok := check(rule.Kind, value)
		if !ok {
			return nil, &TypeError{Field: field, Want: rule.Kind}
		}
		if rule.Kind == Sequence && rule.Elem != 0 {
			items := v.([]any)
			for i, item := range items {
				iv, ok := check(rule.Elem, item)
				if !ok {
					return nil, &TypeError{Field: field, Want: rule.Kind}
				}
				items[i] = iv
			}
		}
		if rule.Normalize != nil {
			v = rule.Normalize(v)
		}
		out[field] = v
	}
	return out, nil
}

// Apply filters payload, rejects an empty result and stamps updated_at.
func (p *Policy) Apply(payload map[string]any, now time.Time) (map[string]any, error) {
	update, err := p.Filter(payload)
	if err != nil {
		return nil, err
	}
	if len(update) == 0 {
		return nil, ErrNoValidFields
	}
	update[models.FieldUpdatedAt] = now
	return update, nil
}

// check validates value against kind and returns it converted to plain Go
// values (json.Number becomes int64 or float64, recursively).
func check(kind Kind, value any) (any, bool) {
	switch kind {
	case String:
		s, ok := value.(string)
		return s, ok
	case Boolean:
		b, ok := value.(bool)
		return b, ok
	case Integer:
		switch n := value.(type) {
		case json.Number:
			i, err := n.Int64()
			return i, err == nil
		case int:
			return int64(n), true
		case int64:
			return n, true
		}
		return nil, false
	case Sequence:
		items, ok := value.([]any)
		if !ok {
			return nil, false
		}
		return plain(items), true
	case Mapping:
		m, ok := value.(map[string]any)
		if !ok {
			return nil, false
		}
		return plain(m), true
	}
	return nil, false
}

func plain(value any) any {
	switch v := value.(type) {
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return i
		}
		f, _ := v.Float64()
		return f
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, item := range v {
			out[k] = plain(item)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = plain(item)
		}
		return out
	}
	return value
}
