// Package dbtest provides testify mocks for db.SQLExecutor.
package dbtest

import (
	"context"
	"database/sql"

	"bizdash/pkg/db"

	"github.com/stretchr/testify/mock"
)

var _ db.SQLExecutor = (*MockSQLExecutor)(nil)

type MockSQLExecutor struct {
	mock.Mock
}

func (m *MockSQLExecutor) ExecContext(ctx context.Context, query string, queryArgs ...any) (sql.Result, error) {
	args := m.Called(ctx, query, queryArgs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(sql.Result), args.Error(1)
}

func (m *MockSQLExecutor) QueryContext(ctx context.Context, query string, queryArgs ...any) (*sql.Rows, error) {
	args := m.Called(ctx, query, queryArgs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*sql.Rows), args.Error(1)
}

func (m *MockSQLExecutor) QueryRowContext(ctx context.Context, query string, queryArgs ...any) *sql.Row {
	args := m.Called(ctx, query, queryArgs)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).(*sql.Row)
}

// MockResult is a mock implementation of sql.Result
type MockResult struct {
	mock.Mock
}

func (m *MockResult) LastInsertId() (int64, error) {
	args := m.Called()
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockResult) RowsAffected() (int64, error) {
	args := m.Called()
	return args.Get(0).(int64), args.Error(1)
}
