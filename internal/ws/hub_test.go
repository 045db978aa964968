package ws

import (
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/knostfin/knost-backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockClient is a test double for Client that captures sent messages
type mockClient struct {
	id       string
	userID   uuid.UUID
	messages [][]byte
	mu       sync.Mutex
	closed   bool
}

func newMockClient(id string, userID uuid.UUID) *mockClient {
	return &mockClient{
		id:       id,
		userID:   userID,
		messages: make([][]byte, 0),
	}
}

func (m *mockClient) ID() string {
	return m.id
}

func (m *mockClient) UserID() uuid.UUID {
	return m.userID
}

func (m *mockClient) Send(data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClientClosed
	}
	m.messages = append(m.messages, data)
	return nil
}

func (m *mockClient) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

func (m *mockClient) GetMessages() [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := make([][]byte, len(m.messages))
	copy(copied, m.messages)
	return copied
}

func TestHub_RegisterUnregister(t *testing.T) {
	hub := NewHub()

	userA := uuid.New()
	userB := uuid.New()

	client1 := newMockClient("client-1", userA)
	client2 := newMockClient("client-2", userA)
	client3 := newMockClient("client-3", userB)

	hub.Register(client1)
	hub.Register(client2)
	hub.Register(client3)

	assert.Equal(t, 2, hub.ClientCount(userA))
	assert.Equal(t, 1, hub.ClientCount(userB))
	assert.Equal(t, 0, hub.ClientCount(uuid.New()))

	hub.Unregister(client1)
	assert.Equal(t, 1, hub.ClientCount(userA))

	hub.Unregister(client2)
	hub.Unregister(client3)
	assert.Equal(t, 0, hub.ClientCount(userA))
	assert.Equal(t, 0, hub.ClientCount(userB))
}

func TestHub_Broadcast_UserIsolation(t *testing.T) {
	hub := NewHub()

	userA := uuid.New()
	userB := uuid.New()

	client1a := newMockClient("client-1a", userA)
	client1b := newMockClient("client-1b", userA)
	client2 := newMockClient("client-2", userB)

	hub.Register(client1a)
	hub.Register(client1b)
	hub.Register(client2)

	evt := LoanCreated(&domain.Loan{ID: 42, Name: "Car loan"})
	hub.Broadcast(userA, evt)

	// Give goroutines time to process
	time.Sleep(10 * time.Millisecond)

	assert.Len(t, client1a.GetMessages(), 1, "client1a should receive 1 message")
	assert.Len(t, client1b.GetMessages(), 1, "client1b should receive 1 message")
	assert.Len(t, client2.GetMessages(), 0, "client2 should not receive another user's event")
}

func TestHub_Broadcast_MultipleFanOut(t *testing.T) {
	hub := NewHub()
	userID := uuid.New()

	clients := make([]*mockClient, 5)
	for i := 0; i < 5; i++ {
		clients[i] = newMockClient("client-"+string(rune('a'+i)), userID)
		hub.Register(clients[i])
	}

	evt := InstallmentPaid(&domain.Installment{ID: 1, LoanID: 42})
	hub.Broadcast(userID, evt)

	// Give goroutines time to process
	time.Sleep(10 * time.Millisecond)

	for i, c := range clients {
		assert.Len(t, c.GetMessages(), 1, "client %d should receive message", i)
	}
}

func TestHub_ConcurrentAccess(t *testing.T) {
	hub := NewHub()

	var wg sync.WaitGroup
	clientCount := 50

	users := make([]uuid.UUID, 5)
	for i := range users {
		users[i] = uuid.New()
	}

	clients := make([]*mockClient, clientCount)
	for i := 0; i < clientCount; i++ {
		clients[i] = newMockClient("client-"+string(rune(i)), users[i%5])
	}

	for i := 0; i < clientCount; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			hub.Register(clients[idx])
		}(i)
	}

	wg.Wait()

	total := 0
	for _, u := range users {
		total += hub.ClientCount(u)
	}
	assert.Equal(t, clientCount, total)

	for i := 0; i < clientCount; i++ {
		wg.Add(2)
		go func(idx int) {
			defer wg.Done()
			evt := LoanDeleted(int32(idx), 0)
			hub.Broadcast(users[idx%5], evt)
		}(i)
		go func(idx int) {
			defer wg.Done()
			hub.Unregister(clients[idx])
		}(i)
	}

	wg.Wait()

	for _, u := range users {
		assert.Equal(t, 0, hub.ClientCount(u))
	}
}

func TestHub_UnregisterNonexistent(t *testing.T) {
	hub := NewHub()

	client := newMockClient("client-1", uuid.New())

	require.NotPanics(t, func() {
		hub.Unregister(client)
	})
}

func TestHub_BroadcastToUnknownUser(t *testing.T) {
	hub := NewHub()

	require.NotPanics(t, func() {
		evt := LoanCreated(&domain.Loan{ID: 1})
		hub.Broadcast(uuid.New(), evt)
	})
}
