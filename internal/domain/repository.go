package domain

import "context"

// ConversationStore 定义对话历史的持久化接口
// 不关心具体实现是文件还是redis
type ConversationStore interface {
	Save(ctx context.Context, sessionID string, messages []Message) error
	// Load returns the stored history in insertion order, or an empty
	// slice when the session has no durable copy.
	Load(ctx context.Context, sessionID string) ([]Message, error)
	Delete(ctx context.Context, sessionID string) (bool, error)
}
