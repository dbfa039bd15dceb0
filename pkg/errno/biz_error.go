package errno

import (
	"errors"
	"fmt"
)

// BizError 业务错误，携带错误码与底层原因
type BizError struct {
	Errno  *Errno
	Detail string
	Cause  error
}

// NewBizError 用错误码包装底层错误
func NewBizError(code *Errno, cause error) *BizError {
	return &BizError{Errno: code, Cause: cause}
}

// NewBizErrorf 使用自定义描述创建业务错误，描述会直接返回给调用方
func NewBizErrorf(code *Errno, format string, args ...interface{}) *BizError {
	return &BizError{Errno: code, Detail: fmt.Sprintf(format, args...)}
}

func (e *BizError) Error() string {
	msg := e.Errno.Message
	if e.Detail != "" {
		msg = e.Detail
	}
	if e.Cause != nil {
		return msg + ": " + e.Cause.Error()
	}
	return msg
}

func (e *BizError) Unwrap() error {
	return e.Cause
}

// Is 让 errors.Is(err, errno.ErrNotFound) 按错误码匹配
func (e *BizError) Is(target error) bool {
	t, ok := target.(*Errno)
	if !ok {
		return false
	}
	return e.Errno == t || e.Errno.Code == t.Code
}

// PublicMessage 返回可以暴露给客户端的描述
func (e *BizError) PublicMessage() string {
	if e.Detail != "" {
		return e.Detail
	}
	return e.Errno.Message
}

// Code 解析错误对应的错误码，非业务错误统一为 500
func Code(err error) *Errno {
	if err == nil {
		return OK
	}
	var biz *BizError
	if errors.As(err, &biz) {
		return biz.Errno
	}
	var no *Errno
	if errors.As(err, &no) {
		return no
	}
	return ErrInternalServer
}

// NotFound 资源不存在
func NotFound(format string, args ...interface{}) error {
	return NewBizErrorf(ErrNotFound, format, args...)
}

// InvalidRequest 请求不合法
func InvalidRequest(format string, args ...interface{}) error {
	return NewBizErrorf(ErrInvalidParam, format, args...)
}

// Forbidden 无权访问，reason 会原样返回给调用方
func Forbidden(reason string) error {
	return &BizError{Errno: ErrForbidden, Detail: reason}
}

// Upstream 外部服务异常
func Upstream(cause error) error {
	return NewBizError(ErrUpstream, cause)
}

func IsNotFound(err error) bool  { return Code(err).Code == ErrNotFound.Code }
func IsForbidden(err error) bool { return Code(err).Code == ErrForbidden.Code }
func IsInvalid(err error) bool   { return Code(err).Code == ErrInvalidParam.Code }
func IsUpstream(err error) bool  { return Code(err).Code == ErrUpstream.Code }
