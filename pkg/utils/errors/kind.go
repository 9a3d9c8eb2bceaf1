package errors

import stderrors "errors"

// Kind 错误大类，调用方据此区分输入、供应商、存储和配置问题。
type Kind string

const (
	KindInput     Kind = "InputError"
	KindProvider  Kind = "ProviderError"
	KindStore     Kind = "StoreError"
	KindConfig    Kind = "ConfigError"
	KindNoContext Kind = "NoContext"
	KindInternal  Kind = "InternalError"
)

func kindOfCategory(category int) Kind {
	switch category {
	case CategoryRequest:
		return KindInput
	case CategoryNetwork, CategoryTimeout:
		return KindProvider
	case CategoryDatabase:
		return KindStore
	case CategoryConfig:
		return KindConfig
	case CategoryResource:
		return KindNoContext
	default:
		return KindInternal
	}
}

// KindOf 返回错误链中第一个 Errno 的类别，非 Errno 错误归为 KindInternal。
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var e *Errno
	if stderrors.As(err, &e) {
		return e.Kind()
	}
	return KindInternal
}

// IsInputError reports whether err is an InputError.
func IsInputError(err error) bool { return KindOf(err) == KindInput }

// IsProviderError reports whether err is a ProviderError.
func IsProviderError(err error) bool { return KindOf(err) == KindProvider }

// IsStoreError reports whether err is a StoreError.
func IsStoreError(err error) bool { return KindOf(err) == KindStore }

// IsConfigError reports whether err is a ConfigError.
func IsConfigError(err error) bool { return KindOf(err) == KindConfig }
