package mocks

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"
)

type UserStore struct{ mock.Mock }

func (m *UserStore) Initialize(ctx context.Context) error { return m.Called(ctx).Error(0) }

func (m *UserStore) AddUser(ctx context.Context, username, email, password string) (bool, error) {
	args := m.Called(ctx, username, email, password)
	return args.Bool(0), args.Error(1)
}

func (m *UserStore) Authenticate(ctx context.Context, username, password string) (bool, error) {
	args := m.Called(ctx, username, password)
	return args.Bool(0), args.Error(1)
}

func (m *UserStore) DisplayUsers(ctx context.Context, w io.Writer) error {
	return m.Called(ctx, w).Error(0)
}
