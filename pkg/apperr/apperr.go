package apperr

import (
	"errors"
	"fmt"
)

// Kind 错误类别
// 服务端据此映射HTTP状态码，客户端据此反向还原
type Kind int

const (
	KindInternal   Kind = iota // 内部错误
	KindValidation             // 校验失败（缺少收件人/主题/正文等）
	KindNotFound               // 消息不存在或不属于当前用户
	KindUpload                 // 附件大小/类型受限或上传失败
	KindNetwork                // 网络传输失败（仅客户端产生）
)

// Error 带类别的业务错误
type Error struct {
	Kind Kind
	Msg  string
	Err  error // 底层原因，可为空
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

// New 创建指定类别的错误
func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

// Wrap 包装底层错误
func Wrap(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// Validation 校验错误
func Validation(msg string) *Error { return New(KindValidation, msg) }

// NotFound 未找到错误
func NotFound(msg string) *Error { return New(KindNotFound, msg) }

// Upload 上传错误
func Upload(msg string) *Error { return New(KindUpload, msg) }

// Network 网络错误
func Network(msg string, err error) *Error { return Wrap(KindNetwork, msg, err) }

// Internal 内部错误
func Internal(msg string, err error) *Error { return Wrap(KindInternal, msg, err) }

// KindOf 提取错误类别，非本包错误一律视为内部错误
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// IsValidation 是否为校验错误
func IsValidation(err error) bool { return KindOf(err) == KindValidation }

// IsNotFound 是否为未找到错误
func IsNotFound(err error) bool { return KindOf(err) == KindNotFound }

// IsUpload 是否为上传错误
func IsUpload(err error) bool { return KindOf(err) == KindUpload }

// IsNetwork 是否为网络错误
func IsNetwork(err error) bool { return KindOf(err) == KindNetwork }
