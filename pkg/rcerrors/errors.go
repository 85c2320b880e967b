package rcerrors

import (
	"errors"
	"fmt"
)

// Kind identifies the high level class of an error surfaced by realityconf.
type Kind string

const (
	// KindUnexpectedKey indicates a client-info key outside the allow-list.
	KindUnexpectedKey Kind = "unexpected_key"
	// KindSuspiciousValue 表示值中含有可用于命令注入的字符。
	KindSuspiciousValue Kind = "suspicious_value"
	// KindInvalidFormat 表示整行不符合 KEY=value / KEY="value" 形态。
	KindInvalidFormat Kind = "invalid_format"
	// KindInvalidEntry indicates an unquoted value containing forbidden characters.
	KindInvalidEntry Kind = "invalid_entry"
	// KindMissingField indicates a required schema field is absent.
	KindMissingField Kind = "missing_field"
	// KindInvalidFieldType 表示字段类型与 schema 声明不符。
	KindInvalidFieldType Kind = "invalid_field_type"
	// KindParse indicates input (JSON, version string, link) 无法解析。
	KindParse Kind = "parse"
	// KindRender 表示配置渲染失败。
	KindRender Kind = "render"
	// KindInternal 表示未知或内部错误。
	KindInternal Kind = "internal"
)

// Error 包装底层错误并附加 Kind，方便调用方根据类型处理。
type Error struct {
	Kind Kind
	Err  error
}

// Error 实现 error 接口。
func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err == nil {
		return string(e.Kind)
	}
	return e.Err.Error()
}

// Unwrap 允许 errors.Is/As 访问底层错误。
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// New 创建指定 Kind 的错误。
func New(kind Kind, err error) error {
	if err == nil {
		err = errors.New(string(kind))
	}
	return &Error{Kind: kind, Err: err}
}

// Newf is shorthand for New(kind, fmt.Errorf(...)).
func Newf(kind Kind, format string, args ...any) error {
	return &Error{Kind: kind, Err: fmt.Errorf(format, args...)}
}

// KindOf returns the Kind attached to err, or KindInternal when err carries none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// IsKind reports whether err carries the given Kind.
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
