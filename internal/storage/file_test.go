package storage

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/Cang-Fang/xingchen-dialogue/internal/domain"
)

func sampleMessages() []domain.Message {
	base := time.Date(2024, 3, 15, 8, 0, 0, 0, time.UTC)
	return []domain.Message{
		{Role: domain.RoleUser, Content: "你好", Timestamp: base},
		{Role: domain.RoleAssistant, Content: "你好！有什么可以帮你？", Timestamp: base.Add(2 * time.Second)},
		{Role: domain.RoleUser, Content: "再见", Timestamp: base.Add(10 * time.Second)},
	}
}

func TestFileStore_RoundTrip(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	want := sampleMessages()
	if err := store.Save(ctx, "s1", want); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, err := store.Load(ctx, "s1")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(got) != len(want) {
		t.Fatalf("loaded %d messages, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i].Role != want[i].Role || got[i].Content != want[i].Content {
			t.Errorf("message[%d] = %+v, want %+v", i, got[i], want[i])
		}
		if !got[i].Timestamp.Equal(want[i].Timestamp) {
			t.Errorf("message[%d] timestamp = %v, want %v", i, got[i].Timestamp, want[i].Timestamp)
		}
	}
}

func TestFileStore_LoadMissingIsEmpty(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	got, err := store.Load(context.Background(), "nope")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(got) != 0 {
		t.Errorf("missing session returned %d messages", len(got))
	}
}

func TestFileStore_Delete(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	store.Save(ctx, "s1", sampleMessages())

	ok, err := store.Delete(ctx, "s1")
	if err != nil || !ok {
		t.Fatalf("Delete() = %v, %v; want true, nil", ok, err)
	}
	ok, err = store.Delete(ctx, "s1")
	if err != nil || ok {
		t.Fatalf("second Delete() = %v, %v; want false, nil", ok, err)
	}
	if got, _ := store.Load(ctx, "s1"); len(got) != 0 {
		t.Errorf("deleted session still has %d messages", len(got))
	}
}

func TestFileStore_SurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	first, err := NewFileStore(dir)
	if err != nil {
		t.Fatal(err)
	}
	first.Save(ctx, "s1", sampleMessages())

	second, err := NewFileStore(dir)
	if err != nil {
		t.Fatal(err)
	}
	got, err := second.Load(ctx, "s1")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 3 {
		t.Errorf("reopened store returned %d messages, want 3", len(got))
	}
}

func TestFileStore_CleanOld(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	store.Save(ctx, "old", sampleMessages())
	store.Save(ctx, "fresh", sampleMessages())

	// 把old的更新时间改到保留期之外
	store.mu.Lock()
	all, _ := store.readAll()
	conv := all["old"]
	conv.UpdatedAt = time.Now().Add(-8 * 24 * time.Hour)
	all["old"] = conv
	store.writeAll(all)
	store.mu.Unlock()

	n, err := store.CleanOld(7 * 24 * time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("CleanOld() = %d, want 1", n)
	}
	if count, _ := store.Count(); count != 1 {
		t.Errorf("Count() = %d, want 1", count)
	}
	if got, _ := store.Load(ctx, "fresh"); len(got) != 3 {
		t.Error("fresh conversation was cleaned")
	}
}

func TestFileStore_Export(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	store.Save(context.Background(), "s1", sampleMessages())

	jsonOut, err := store.Export("json")
	if err != nil {
		t.Fatalf("Export(json) error = %v", err)
	}
	if !strings.Contains(jsonOut, `"s1"`) || !strings.Contains(jsonOut, "你好") {
		t.Errorf("json export missing content: %s", jsonOut)
	}

	txtOut, err := store.Export("txt")
	if err != nil {
		t.Fatalf("Export(txt) error = %v", err)
	}
	if !strings.Contains(txtOut, "=== 会话 s1 ===") || !strings.Contains(txtOut, "[assistant]") {
		t.Errorf("txt export missing content: %s", txtOut)
	}

	if _, err := store.Export("xml"); err == nil {
		t.Error("unsupported format accepted")
	}
}
