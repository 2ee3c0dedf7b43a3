package spark

import "encoding/json"

// Message 发送给模型的一条上下文消息
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Options 单次请求的采样参数
type Options struct {
	Domain      string
	Temperature float64
	TopK        int
	MaxTokens   int
	ChatID      string
}

// requestFrame 出站帧，结构与星辰MaaS接口对齐
type requestFrame struct {
	Header    requestHeader    `json:"header"`
	Parameter requestParameter `json:"parameter"`
	Payload   requestPayload   `json:"payload"`
}

type requestHeader struct {
	AppID string `json:"app_id"`
	UID   string `json:"uid"`
}

type requestParameter struct {
	Chat chatParameter `json:"chat"`
}

type chatParameter struct {
	Domain         string  `json:"domain"`
	Temperature    float64 `json:"temperature"`
	TopK           int     `json:"top_k"`
	MaxTokens      int     `json:"max_tokens"`
	ChatID         *string `json:"chat_id"`
	SearchDisable  bool    `json:"search_disable"`
	ShowRefLabel   bool    `json:"show_ref_label"`
	EnableThinking bool    `json:"enable_thinking"`
}

type requestPayload struct {
	Message requestMessage `json:"message"`
}

type requestMessage struct {
	Text []Message `json:"text"`
}

// responseFrame 入站帧
// header.code非零表示服务端错误，header.status==2表示流结束
type responseFrame struct {
	Header struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  int    `json:"status"`
	} `json:"header"`
	Payload struct {
		Choices struct {
			Text []struct {
				Content string `json:"content"`
			} `json:"text"`
		} `json:"choices"`
		SearchInfo json.RawMessage `json:"search_info"`
	} `json:"payload"`
}

const statusFinished = 2

// Response 聚合后的完整模型回复
type Response struct {
	Text       string            `json:"text"`
	RefInfo    []json.RawMessage `json:"ref_info"`
	IsFinished bool              `json:"is_finished"`
}
