// internal/mocks/mocks.go
package mocks

import (
	"context"
	"time"

	"github.com/damon-houk/fxconvert/internal/domain/entity"
	"github.com/damon-houk/fxconvert/internal/infrastructure/logger"
	"github.com/stretchr/testify/mock"
)

// MockRateStore mocks the RateStore interface
type MockRateStore struct {
	mock.Mock
}

func (m *MockRateStore) MostRecentOnOrBefore(ctx context.Context, currency string, date time.Time) (*entity.RateSnapshot, error) {
	args := m.Called(ctx, currency, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.RateSnapshot), args.Error(1)
}

func (m *MockRateStore) Exists(ctx context.Context, currency, pivot string, date time.Time) (bool, error) {
	args := m.Called(ctx, currency, pivot, date)
	return args.Bool(0), args.Error(1)
}

func (m *MockRateStore) InsertMany(ctx context.Context, snapshots []entity.RateSnapshot) (int, error) {
	args := m.Called(ctx, snapshots)
	return args.Int(0), args.Error(1)
}

func (m *MockRateStore) ListKnownCurrencies(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockRateStore) Provision(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// MockRateFeed mocks the RateFeed interface
type MockRateFeed struct {
	mock.Mock
}

func (m *MockRateFeed) FetchSnapshots(ctx context.Context) ([]entity.RateSnapshot, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.RateSnapshot), args.Error(1)
}

// MockLogger mocks the logger interface
type MockLogger struct {
	mock.Mock
}

func (m *MockLogger) Debug(msg string, fields map[string]interface{}) {
	m.Called(msg, fields)
}

func (m *MockLogger) Info(msg string, fields map[string]interface{}) {
	m.Called(msg, fields)
}

func (m *MockLogger) Warn(msg string, fields map[string]interface{}) {
	m.Called(msg, fields)
}

func (m *MockLogger) Error(msg string, fields map[string]interface{}) {
	m.Called(msg, fields)
}

func (m *MockLogger) Fatal(msg string, fields map[string]interface{}) {
	m.Called(msg, fields)
}

func (m *MockLogger) WithField(key string, value interface{}) logger.Logger {
	args := m.Called(key, value)
	return args.Get(0).(logger.Logger)
}

func (m *MockLogger) WithFields(fields map[string]interface{}) logger.Logger {
	args := m.Called(fields)
	return args.Get(0).(logger.Logger)
}
