package testutils

import (
	"github.com/pomclinic/intake/services/auth"
	"github.com/stretchr/testify/mock"
)

type MockMailService struct {
	mock.Mock
}

func (m *MockMailService) SendPasswordResetRequested(notification auth.ResetNotification) error {
	args := m.Called(notification)
	return args.Error(0)
}

func (m *MockMailService) SendPasswordResetCompleted(notification auth.ResetNotification) error {
	args := m.Called(notification)
	return args.Error(0)
}
