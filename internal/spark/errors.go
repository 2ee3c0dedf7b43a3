package spark

import (
	"errors"
	"fmt"
)

var (
	// ErrConnect 在连接超时内未能建立WebSocket连接
	ErrConnect = errors.New("spark: failed to establish connection")
	// ErrResponseTimeout 在响应超时内未收到终止帧，已累积的片段被丢弃
	ErrResponseTimeout = errors.New("spark: response timeout")
	// ErrConnClosed 聚合过程中连接被对端关闭或出错
	ErrConnClosed = errors.New("spark: connection closed")
)

// ProviderError 模型服务端在流中返回的错误，对当前请求是致命的
type ProviderError struct {
	Code    int
	Message string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("spark: provider error %d: %s", e.Code, e.Message)
}
