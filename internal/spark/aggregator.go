package spark

import (
	"fmt"
	"strings"
	"time"
)

// aggregate 从事件通道收集响应片段，直到终止帧或超时
// 服务端错误立即短路返回，不携带任何已累积的部分文本；
// 超时同样丢弃部分结果。
func aggregate(events <-chan event, timeout time.Duration) (*Response, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	var text strings.Builder
	resp := &Response{}

	for {
		select {
		case <-timer.C:
			return nil, ErrResponseTimeout

		case ev, ok := <-events:
			if !ok {
				return nil, ErrConnClosed
			}
			switch ev.kind {
			case eventClosed, eventErrored:
				return nil, fmt.Errorf("%w: %v", ErrConnClosed, ev.err)
			case eventFrame:
				frame := ev.frame
				if frame.Header.Code != 0 {
					return nil, &ProviderError{Code: frame.Header.Code, Message: frame.Header.Message}
				}
				for _, item := range frame.Payload.Choices.Text {
					text.WriteString(item.Content)
				}
				if info := frame.Payload.SearchInfo; len(info) > 0 && string(info) != "null" {
					resp.RefInfo = append(resp.RefInfo, info)
				}
				if frame.Header.Status == statusFinished {
					resp.Text = text.String()
					resp.IsFinished = true
					return resp, nil
				}
			}
		}
	}
}
