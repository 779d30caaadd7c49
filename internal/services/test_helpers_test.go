package services

import (
	"github.com/stretchr/testify/mock"
)

// MockClientCounter is a mock for the websocket hub's ClientCounter
type MockClientCounter struct {
	mock.Mock
}

func (m *MockClientCounter) ClientCount() int {
	return m.Called().Int(0)
}
