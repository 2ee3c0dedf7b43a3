package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Cang-Fang/xingchen-dialogue/internal/domain"
)

type conversation struct {
	Messages  []domain.Message `json:"messages"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// FileStore 以单个JSON文档保存全部对话历史
// 文档是 session_id -> conversation 的映射，读改写整个文件，
// 由互斥锁串行化。
type FileStore struct {
	mu   sync.Mutex
	path string
}

func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	s := &FileStore{path: filepath.Join(dir, "conversations.json")}
	if _, err := os.Stat(s.path); os.IsNotExist(err) {
		if err := s.writeAll(map[string]conversation{}); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *FileStore) readAll() (map[string]conversation, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]conversation{}, nil
		}
		return nil, fmt.Errorf("read conversations: %w", err)
	}
	all := map[string]conversation{}
	if err := json.Unmarshal(data, &all); err != nil {
		// 文件损坏按空库处理，后续写入会覆盖
		return map[string]conversation{}, nil
	}
	return all, nil
}

func (s *FileStore) writeAll(all map[string]conversation) error {
	data, err := json.MarshalIndent(all, "", "  ")
	if err != nil {
		return fmt.Errorf("encode conversations: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("write conversations: %w", err)
	}
	return nil
}

func (s *FileStore) Save(ctx context.Context, sessionID string, messages []domain.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.readAll()
	if err != nil {
		return err
	}
	all[sessionID] = conversation{Messages: messages, UpdatedAt: time.Now()}
	return s.writeAll(all)
}

func (s *FileStore) Load(ctx context.Context, sessionID string) ([]domain.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.readAll()
	if err != nil {
		return nil, err
	}
	return all[sessionID].Messages, nil
}

func (s *FileStore) Delete(ctx context.Context, sessionID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.readAll()
	if err != nil {
		return false, err
	}
	if _, ok := all[sessionID]; !ok {
		return false, nil
	}
	delete(all, sessionID)
	return true, s.writeAll(all)
}

// CleanOld 清理最后更新时间早于保留期的对话，返回清理数量
func (s *FileStore) CleanOld(olderThan time.Duration) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.readAll()
	if err != nil {
		return 0, err
	}
	cutoff := time.Now().Add(-olderThan)
	count := 0
	for id, conv := range all {
		if conv.UpdatedAt.Before(cutoff) {
			delete(all, id)
			count++
		}
	}
	if count == 0 {
		return 0, nil
	}
	return count, s.writeAll(all)
}

// Count 持久化的对话数量
func (s *FileStore) Count() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.readAll()
	if err != nil {
		return 0, err
	}
	return len(all), nil
}

// Export 导出全部对话历史，支持json和txt两种格式
func (s *FileStore) Export(format string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.readAll()
	if err != nil {
		return "", err
	}

	switch format {
	case "json":
		data, err := json.MarshalIndent(all, "", "  ")
		if err != nil {
			return "", fmt.Errorf("encode export: %w", err)
		}
		return string(data), nil
	case "txt":
		ids := make([]string, 0, len(all))
		for id := range all {
			ids = append(ids, id)
		}
		sort.Strings(ids)

		var b strings.Builder
		for _, id := range ids {
			conv := all[id]
			fmt.Fprintf(&b, "=== 会话 %s ===\n", id)
			fmt.Fprintf(&b, "最后更新: %s\n\n", conv.UpdatedAt.Format(time.RFC3339))
			for _, msg := range conv.Messages {
				fmt.Fprintf(&b, "[%s] %s\n\n", msg.Role, msg.Content)
			}
			b.WriteString("\n")
		}
		return b.String(), nil
	default:
		return "", fmt.Errorf("unsupported export format: %s", format)
	}
}
