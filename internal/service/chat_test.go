package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Cang-Fang/xingchen-dialogue/internal/domain"
	"github.com/Cang-Fang/xingchen-dialogue/internal/session"
	"github.com/Cang-Fang/xingchen-dialogue/internal/spark"
)

type memStorage struct {
	saved map[string][]domain.Message
}

func newMemStorage() *memStorage {
	return &memStorage{saved: make(map[string][]domain.Message)}
}

func (m *memStorage) Save(ctx context.Context, id string, msgs []domain.Message) error {
	m.saved[id] = append([]domain.Message(nil), msgs...)
	return nil
}

func (m *memStorage) Load(ctx context.Context, id string) ([]domain.Message, error) {
	return m.saved[id], nil
}

func (m *memStorage) Delete(ctx context.Context, id string) (bool, error) {
	_, ok := m.saved[id]
	delete(m.saved, id)
	return ok, nil
}

// fakeModel 记录收到的上下文并返回预设结果
type fakeModel struct {
	gotMessages []spark.Message
	resp        *spark.Response
	err         error
}

func (f *fakeModel) Chat(ctx context.Context, messages []spark.Message) (*spark.Response, error) {
	f.gotMessages = messages
	if f.err != nil {
		return nil, f.err
	}
	return f.resp, nil
}

func newTestService(model *fakeModel) (*ChatService, *session.Store) {
	store := session.NewStore(10, time.Hour, newMemStorage())
	return NewChatService(store, model), store
}

func TestChatService_FullTurn(t *testing.T) {
	model := &fakeModel{resp: &spark.Response{Text: "你好！", IsFinished: true}}
	svc, store := newTestService(model)
	ctx := context.Background()

	resp, err := svc.Chat(ctx, "s1", "你好")
	if err != nil {
		t.Fatalf("Chat() error = %v", err)
	}
	if resp.Text != "你好！" {
		t.Errorf("response text = %q", resp.Text)
	}

	// 模型收到的上下文应包含刚追加的用户消息
	if len(model.gotMessages) != 1 || model.gotMessages[0].Role != "user" || model.gotMessages[0].Content != "你好" {
		t.Errorf("model received %+v", model.gotMessages)
	}

	// 用户消息和模型回复都进入历史
	got := store.GetContext(ctx, "s1")
	if len(got) != 2 {
		t.Fatalf("context length = %d, want 2", len(got))
	}
	if got[1].Role != "assistant" || got[1].Content != "你好！" {
		t.Errorf("assistant message = %+v", got[1])
	}
}

func TestChatService_MultiTurnContext(t *testing.T) {
	model := &fakeModel{resp: &spark.Response{Text: "answer", IsFinished: true}}
	svc, _ := newTestService(model)
	ctx := context.Background()

	if _, err := svc.Chat(ctx, "s1", "first"); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Chat(ctx, "s1", "second"); err != nil {
		t.Fatal(err)
	}

	// 第二轮应带上第一轮的问答
	if len(model.gotMessages) != 3 {
		t.Fatalf("model received %d messages, want 3", len(model.gotMessages))
	}
	wantRoles := []string{"user", "assistant", "user"}
	for i, m := range model.gotMessages {
		if m.Role != wantRoles[i] {
			t.Errorf("message[%d] role = %s, want %s", i, m.Role, wantRoles[i])
		}
	}
}

func TestChatService_TimeoutDiscardsReply(t *testing.T) {
	model := &fakeModel{err: spark.ErrResponseTimeout}
	svc, store := newTestService(model)
	ctx := context.Background()

	_, err := svc.Chat(ctx, "s1", "hello")
	if !errors.Is(err, spark.ErrResponseTimeout) {
		t.Fatalf("error = %v, want ErrResponseTimeout", err)
	}

	// 超时后不追加assistant消息，历史里只有用户消息
	got := store.GetContext(ctx, "s1")
	if len(got) != 1 || got[0].Role != "user" {
		t.Errorf("context after timeout = %+v", got)
	}
}

func TestChatService_ProviderErrorPropagates(t *testing.T) {
	model := &fakeModel{err: &spark.ProviderError{Code: 10003, Message: "invalid request"}}
	svc, store := newTestService(model)

	_, err := svc.Chat(context.Background(), "s1", "hello")
	var provErr *spark.ProviderError
	if !errors.As(err, &provErr) || provErr.Code != 10003 {
		t.Fatalf("error = %v, want ProviderError 10003", err)
	}
	if got := store.GetContext(context.Background(), "s1"); len(got) != 1 {
		t.Errorf("context length = %d, want 1", len(got))
	}
}

func TestChatService_ClearSession(t *testing.T) {
	model := &fakeModel{resp: &spark.Response{Text: "hi", IsFinished: true}}
	svc, store := newTestService(model)
	ctx := context.Background()

	svc.Chat(ctx, "s1", "hello")
	svc.ClearSession(ctx, "s1")

	if got := store.GetContext(ctx, "s1"); len(got) != 0 {
		t.Errorf("context after clear = %+v", got)
	}
}
