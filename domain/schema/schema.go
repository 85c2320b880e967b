// Package schema validates decoded engine configuration fragments against
// fixed per-section rules.
//
// 规则是编译期常量表（见 rules.go），不是用户数据；校验是
// (section, value, engineVersion) 的纯函数。未声明的多余字段一律放行，
// 以兼容引擎自身的可选字段。
package schema

import (
	"math"

	"github.com/qiyun-labs/realityconf/domain/version"
	"github.com/qiyun-labs/realityconf/pkg/rcerrors"
)

// Recognized section names.
const (
	SectionInbound  = "inbound"
	SectionOutbound = "outbound"
	SectionDNS      = "dns"
	SectionRoute    = "route"
	SectionReality  = "reality"
)

// FieldKind declares the runtime shape a configuration field must have.
type FieldKind int

const (
	KindString FieldKind = iota
	KindNumber
	KindBool
	KindArray
	KindObject
	KindPort
	KindStringArray
	KindStringEnum
)

func (k FieldKind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBool:
		return "boolean"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	case KindPort:
		return "port number"
	case KindStringArray:
		return "array of strings"
	case KindStringEnum:
		return "enum string"
	default:
		return "unknown"
	}
}

// Field is one declarative field rule inside a section rule. A non-empty
// MinVersion gates the whole rule: below that engine version both the
// requiredness and the kind check are skipped.
type Field struct {
	Name       string
	Kind       FieldKind
	Required   bool
	Enum       []string
	MinVersion string
}

// Rule describes one configuration section. Fields are held as an ordered
// slice so the first offending field is deterministic across runs.
type Rule struct {
	Section string
	Fields  []Field
}

// Options carries the validation context.
type Options struct {
	// EngineVersion is the installed engine version. Empty or unparseable
	// means every version-gated rule is skipped.
	EngineVersion string
}

// Sections returns the recognized section names in stable order.
func Sections() []string {
	return []string{SectionInbound, SectionOutbound, SectionDNS, SectionRoute, SectionReality}
}

// Validate checks value against the rule for section. A nil return means the
// fragment is valid; a non-nil return is a Kind-tagged error naming the
// offending field. Validation is all-or-nothing per call.
func Validate(section string, value any, opts Options) error {
	if section == SectionReality {
		return validateReality(value, opts)
	}
	rule, ok := rules[section]
	if !ok {
		return rcerrors.Newf(rcerrors.KindInternal, "unknown configuration section %q", section)
	}
	obj, ok := value.(map[string]any)
	if !ok {
		return rcerrors.Newf(rcerrors.KindInvalidFieldType,
			"Invalid type for section '%s': expected object", section)
	}
	return applyRule(rule, obj, opts)
}

func applyRule(rule Rule, obj map[string]any, opts Options) error {
	for _, field := range rule.Fields {
		if field.MinVersion != "" && !version.MeetsMinimum(opts.EngineVersion, field.MinVersion) {
			continue
		}
		raw, present := obj[field.Name]
		if !present {
			if field.Required {
				return missingField(field.Name)
			}
			continue
		}
		if !matchesKind(raw, field) {
			return invalidFieldType(field.Name, field)
		}
	}
	return nil
}

func missingField(name string) error {
	return rcerrors.Newf(rcerrors.KindMissingField, "Missing field '%s'", name)
}

func invalidFieldType(name string, field Field) error {
	return rcerrors.Newf(rcerrors.KindInvalidFieldType,
		"Invalid type for field '%s': expected %s", name, field.Kind)
}

func matchesKind(value any, field Field) bool {
	switch field.Kind {
	case KindString:
		_, ok := value.(string)
		return ok
	case KindNumber:
		return numeric(value)
	case KindBool:
		_, ok := value.(bool)
		return ok
	case KindArray:
		_, ok := value.([]any)
		return ok
	case KindObject:
		_, ok := value.(map[string]any)
		return ok
	case KindPort:
		n, ok := integral(value)
		return ok && n >= 1 && n <= 65535
	case KindStringArray:
		items, ok := value.([]any)
		if !ok {
			return false
		}
		for _, item := range items {
			if _, ok := item.(string); !ok {
				return false
			}
		}
		return true
	case KindStringEnum:
		s, ok := value.(string)
		if !ok {
			return false
		}
		for _, candidate := range field.Enum {
			if s == candidate {
				return true
			}
		}
		return false
	default:
		return false
	}
}

// numeric accepts the number representations a JSON decoder may produce.
func numeric(value any) bool {
	switch value.(type) {
	case float64, float32, int, int64, int32:
		return true
	}
	return false
}

func integral(value any) (int64, bool) {
	switch n := value.(type) {
	case float64:
		if n != math.Trunc(n) {
			return 0, false
		}
		return int64(n), true
	case float32:
		f := float64(n)
		if f != math.Trunc(f) {
			return 0, false
		}
		return int64(f), true
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	}
	return 0, false
}
