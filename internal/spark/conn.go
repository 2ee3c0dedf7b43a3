package spark

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// State 连接状态
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
	StateClosed
	StateErrored
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateClosed:
		return "closed"
	case StateErrored:
		return "errored"
	default:
		return "disconnected"
	}
}

type eventKind int

const (
	eventFrame eventKind = iota
	eventClosed
	eventErrored
)

// event 后台接收协程发往消费方的类型化事件
type event struct {
	kind  eventKind
	frame *responseFrame
	err   error
}

// Conn 持有一条到模型服务的WebSocket连接
// 接收在后台协程进行，入站帧通过事件通道交给聚合方。
// 连接失败或对端关闭后不自动重连，下一次Send会重新建连。
type Conn struct {
	signer         *Signer
	rawURL         string
	connectTimeout time.Duration

	mu     sync.Mutex
	ws     *websocket.Conn
	state  State
	events chan event
}

// NewConn rawURL形如 wss://host/path，鉴权参数连接时追加
func NewConn(signer *Signer, rawURL string, connectTimeout time.Duration) *Conn {
	return &Conn{
		signer:         signer,
		rawURL:         rawURL,
		connectTimeout: connectTimeout,
	}
}

func (c *Conn) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Conn) IsConnected() bool {
	return c.State() == StateConnected
}

// Connect 建立WebSocket连接，已连接时为空操作
// 鉴权URL绑定时间戳，每次尝试都重新生成。
func (c *Conn) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateConnected {
		return nil
	}
	c.state = StateConnecting

	authURL, err := c.signer.AuthURL(c.rawURL)
	if err != nil {
		c.state = StateErrored
		return err
	}
	dialer := websocket.Dialer{HandshakeTimeout: c.connectTimeout}
	ws, resp, err := dialer.DialContext(ctx, authURL, nil)
	if err != nil {
		c.state = StateErrored
		if resp != nil {
			return fmt.Errorf("%w: handshake rejected with %s: %v", ErrConnect, resp.Status, err)
		}
		return fmt.Errorf("%w: %v", ErrConnect, err)
	}

	c.ws = ws
	c.state = StateConnected
	c.events = make(chan event, 64)
	go c.readLoop(ws, c.events)
	return nil
}

// readLoop 解码入站帧并推送事件，连接断开后发出终止事件并退出
func (c *Conn) readLoop(ws *websocket.Conn, events chan<- event) {
	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			normal := websocket.IsCloseError(err,
				websocket.CloseNormalClosure, websocket.CloseGoingAway)

			c.mu.Lock()
			if c.ws == ws {
				c.ws = nil
				if normal {
					c.state = StateClosed
				} else {
					c.state = StateErrored
				}
			}
			c.mu.Unlock()

			if normal {
				events <- event{kind: eventClosed, err: err}
			} else {
				events <- event{kind: eventErrored, err: err}
			}
			close(events)
			return
		}

		var frame responseFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			// 单帧解码失败不致命，丢弃该帧继续接收
			log.Printf("解析模型响应帧失败: %v", err)
			continue
		}
		events <- event{kind: eventFrame, frame: &frame}
	}
}

// Send 序列化并写出请求帧，未连接时先隐式建连
func (c *Conn) Send(ctx context.Context, frame *requestFrame) error {
	if err := c.Connect(ctx); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateConnected || c.ws == nil {
		return ErrConnClosed
	}

	data, err := json.Marshal(frame)
	if err != nil {
		return fmt.Errorf("spark: encode request: %w", err)
	}
	if err := c.ws.WriteMessage(websocket.TextMessage, data); err != nil {
		c.ws.Close()
		c.ws = nil
		c.state = StateErrored
		return fmt.Errorf("spark: write request: %w", err)
	}
	return nil
}

// Events 返回当前连接的入站事件通道，未连接时为nil
func (c *Conn) Events() <-chan event {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.events
}

// Close 主动关闭连接
func (c *Conn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ws == nil {
		c.state = StateClosed
		return nil
	}
	err := c.ws.Close()
	c.ws = nil
	c.state = StateClosed
	return err
}
