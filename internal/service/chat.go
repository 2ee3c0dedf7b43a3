package service

import (
	"context"

	"github.com/Cang-Fang/xingchen-dialogue/internal/domain"
	"github.com/Cang-Fang/xingchen-dialogue/internal/session"
	"github.com/Cang-Fang/xingchen-dialogue/internal/spark"
)

// ModelService 模型调用接口
type ModelService interface {
	Chat(ctx context.Context, messages []spark.Message) (*spark.Response, error)
}

// ChatService 编排一轮对话：记录用户消息、取上下文、
// 调用模型、记录模型回复
type ChatService struct {
	store *session.Store
	model ModelService
}

func NewChatService(store *session.Store, model ModelService) *ChatService {
	return &ChatService{store: store, model: model}
}

// Chat 完整的一轮对话流程
// 模型调用失败（超时、服务端错误、连接失败）原样上抛，
// 不重试，也不会把失败的回复写进会话历史。
func (s *ChatService) Chat(ctx context.Context, sessionID, userText string) (*spark.Response, error) {
	s.store.AddMessage(ctx, sessionID, domain.RoleUser, userText)

	history := s.store.GetContext(ctx, sessionID)
	messages := make([]spark.Message, 0, len(history))
	for _, m := range history {
		messages = append(messages, spark.Message{Role: m.Role, Content: m.Content})
	}

	resp, err := s.model.Chat(ctx, messages)
	if err != nil {
		return nil, err
	}

	s.store.AddMessage(ctx, sessionID, domain.RoleAssistant, resp.Text)
	return resp, nil
}

// ClearSession 删除会话的内存与持久化历史
func (s *ChatService) ClearSession(ctx context.Context, sessionID string) {
	s.store.Delete(ctx, sessionID)
}

// SessionCount 当前驻留的会话数量
func (s *ChatService) SessionCount() int {
	return s.store.Count()
}
