package mocks

import (
    "sync"
)

type MockDecryptor struct {
    DecryptSegmentFunc func(data []byte, key []byte) ([]byte, error)

    mu    sync.Mutex
    calls [][]byte
}

// NewMockDecryptor returns a decryptor that passes segments through unchanged.
func NewMockDecryptor() *MockDecryptor {
    return &MockDecryptor{
        DecryptSegmentFunc: func(data []byte, key []byte) ([]byte, error) {
            return data, nil
        },
    }
}

func (m *MockDecryptor) DecryptSegment(data []byte, key []byte) ([]byte, error) {
    m.mu.Lock()
    m.calls = append(m.calls, append([]byte(nil), data...))
    m.mu.Unlock()
    return m.DecryptSegmentFunc(data, key)
}

// Calls returns a copy of every segment passed to DecryptSegment, in order.
func (m *MockDecryptor) Calls() [][]byte {
    m.mu.Lock()
    defer m.mu.Unlock()
    return append([][]byte(nil), m.calls...)
}
