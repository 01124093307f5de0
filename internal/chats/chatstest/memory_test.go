package chatstest

import (
	"testing"

	"github.com/edgard/hisword/internal/chats"
)

func TestMemoryStore(t *testing.T) {
	RunStoreTests(t, func(t *testing.T) chats.Store {
		return NewMemoryStore()
	})
}
