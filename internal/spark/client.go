package spark

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Client 星辰模型客户端，封装连接、签名与响应聚合
// 整条连接上的入站帧没有请求标识，无法按请求分流，
// 因此同一Client同时只允许一个在途请求，由互斥锁串行化。
type Client struct {
	conn            *Conn
	appID           string
	defaults        Options
	responseTimeout time.Duration

	mu sync.Mutex
}

func NewClient(creds Credentials, host, path string, defaults Options,
	connectTimeout, responseTimeout time.Duration) (*Client, error) {
	if err := creds.Validate(); err != nil {
		return nil, err
	}
	rawURL := fmt.Sprintf("wss://%s%s", host, path)
	return &Client{
		conn:            NewConn(NewSigner(creds), rawURL, connectTimeout),
		appID:           creds.AppID,
		defaults:        defaults,
		responseTimeout: responseTimeout,
	}, nil
}

// Chat 发送完整上下文并阻塞等待聚合后的回复
func (c *Client) Chat(ctx context.Context, messages []Message) (*Response, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.conn.Connect(ctx); err != nil {
		return nil, err
	}

	// 丢弃上一次超时请求遗留的过期帧
	drain(c.conn.Events())

	if err := c.conn.Send(ctx, c.buildRequest(messages)); err != nil {
		return nil, err
	}
	return aggregate(c.conn.Events(), c.responseTimeout)
}

func (c *Client) buildRequest(messages []Message) *requestFrame {
	uid := c.defaults.ChatID
	if uid == "" {
		uid = fmt.Sprintf("user_%d", time.Now().Unix())
	}
	var chatID *string
	if c.defaults.ChatID != "" {
		id := c.defaults.ChatID
		chatID = &id
	}
	return &requestFrame{
		Header: requestHeader{AppID: c.appID, UID: uid},
		Parameter: requestParameter{
			Chat: chatParameter{
				Domain:         c.defaults.Domain,
				Temperature:    c.defaults.Temperature,
				TopK:           c.defaults.TopK,
				MaxTokens:      c.defaults.MaxTokens,
				ChatID:         chatID,
				SearchDisable:  false,
				ShowRefLabel:   true,
				EnableThinking: true,
			},
		},
		Payload: requestPayload{Message: requestMessage{Text: messages}},
	}
}

// IsConnected 诊断用
func (c *Client) IsConnected() bool {
	return c.conn.IsConnected()
}

// Close 关闭底层连接
func (c *Client) Close() error {
	return c.conn.Close()
}

// drain 非阻塞清空事件通道
func drain(events <-chan event) {
	for {
		select {
		case _, ok := <-events:
			if !ok {
				return
			}
		default:
			return
		}
	}
}
