package session

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/Cang-Fang/xingchen-dialogue/internal/domain"
)

type entry struct {
	messages   []domain.Message
	lastActive time.Time
}

// Store 内存会话上下文存储
// 每个会话保留最近maxHistory条消息，空闲超过expireTime后
// 内存中的历史被视为过期（持久化副本不受影响）。
// 所有访问都经过读写锁，定期清理与请求处理可以并发。
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*entry

	maxHistory int
	expireTime time.Duration
	storage    domain.ConversationStore
}

func NewStore(maxHistory int, expireTime time.Duration, storage domain.ConversationStore) *Store {
	return &Store{
		sessions:   make(map[string]*entry),
		maxHistory: maxHistory,
		expireTime: expireTime,
		storage:    storage,
	}
}

// Ensure 会话不存在时创建空会话
func (s *Store) Ensure(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureLocked(sessionID)
}

func (s *Store) ensureLocked(sessionID string) *entry {
	e, ok := s.sessions[sessionID]
	if !ok {
		e = &entry{lastActive: time.Now()}
		s.sessions[sessionID] = e
	}
	return e
}

// AddMessage 追加一条消息并写透到持久化存储
// 超出历史上限时最旧的消息先被淘汰。
func (s *Store) AddMessage(ctx context.Context, sessionID string, role domain.Role, content string) {
	s.mu.Lock()
	e := s.ensureLocked(sessionID)
	e.messages = append(e.messages, domain.Message{
		Role:      role,
		Content:   content,
		Timestamp: time.Now(),
	})
	e.lastActive = time.Now()
	if len(e.messages) > s.maxHistory {
		e.messages = e.messages[len(e.messages)-s.maxHistory:]
	}
	snapshot := make([]domain.Message, len(e.messages))
	copy(snapshot, e.messages)
	s.mu.Unlock()

	// 持久化失败不影响本次对话，降级为仅内存
	if err := s.storage.Save(ctx, sessionID, snapshot); err != nil {
		log.Printf("保存会话 %s 历史失败: %v", sessionID, err)
	}
}

// GetContext 返回会话的{role, content}上下文，按插入顺序
// 首次访问时从持久化存储懒加载；空闲超过expireTime的历史
// 视为过期，重置为空后返回（持久化副本保留）。
func (s *Store) GetContext(ctx context.Context, sessionID string) []domain.ChatMessage {
	s.mu.Lock()
	e, ok := s.sessions[sessionID]
	if !ok {
		saved, err := s.storage.Load(ctx, sessionID)
		if err != nil {
			log.Printf("加载会话 %s 历史失败: %v", sessionID, err)
			saved = nil
		}
		e = &entry{messages: saved, lastActive: time.Now()}
		s.sessions[sessionID] = e
	}

	if time.Since(e.lastActive) > s.expireTime {
		e.messages = nil
		e.lastActive = time.Now()
	}

	history := make([]domain.ChatMessage, 0, len(e.messages))
	for _, msg := range e.messages {
		history = append(history, domain.ChatMessage{
			Role:    string(msg.Role),
			Content: msg.Content,
		})
	}
	s.mu.Unlock()
	return history
}

// SweepExpired 清除内存中所有过期会话，返回清除数量
func (s *Store) SweepExpired() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for id, e := range s.sessions {
		if time.Since(e.lastActive) > s.expireTime {
			delete(s.sessions, id)
			count++
		}
	}
	return count
}

// Delete 同时删除内存与持久化副本
func (s *Store) Delete(ctx context.Context, sessionID string) {
	s.mu.Lock()
	delete(s.sessions, sessionID)
	s.mu.Unlock()

	if _, err := s.storage.Delete(ctx, sessionID); err != nil {
		log.Printf("删除会话 %s 持久化历史失败: %v", sessionID, err)
	}
}

// Count 当前驻留内存的会话数量，仅用于诊断
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
