// Package mocks provides test doubles for the sheets client.
package mocks

import (
	"context"

	mock "github.com/stretchr/testify/mock"

	sheets "github.com/xRamax/scrapper-violet-wave/pkg/sheets"
)

// MockClient is a mock type for the Client interface.
type MockClient struct {
	mock.Mock
}

// GetValues provides a mock function with given fields: ctx, spreadsheetID, rng
func (_m *MockClient) GetValues(ctx context.Context, spreadsheetID string, rng string) ([][]string, error) {
	ret := _m.Called(ctx, spreadsheetID, rng)

	if len(ret) == 0 {
		panic("no return value specified for GetValues")
	}

	var r0 [][]string
	if rf, ok := ret.Get(0).(func(context.Context, string, string) [][]string); ok {
		r0 = rf(ctx, spreadsheetID, rng)
	} else if ret.Get(0) != nil {
		r0 = ret.Get(0).([][]string)
	}

	return r0, ret.Error(1)
}

// GetColumn provides a mock function with given fields: ctx, spreadsheetID, rng
func (_m *MockClient) GetColumn(ctx context.Context, spreadsheetID string, rng string) ([]string, error) {
	ret := _m.Called(ctx, spreadsheetID, rng)

	if len(ret) == 0 {
		panic("no return value specified for GetColumn")
	}

	var r0 []string
	if rf, ok := ret.Get(0).(func(context.Context, string, string) []string); ok {
		r0 = rf(ctx, spreadsheetID, rng)
	} else if ret.Get(0) != nil {
		r0 = ret.Get(0).([]string)
	}

	return r0, ret.Error(1)
}

// AppendValues provides a mock function with given fields: ctx, spreadsheetID, rng, rows
func (_m *MockClient) AppendValues(ctx context.Context, spreadsheetID string, rng string, rows [][]string) error {
	ret := _m.Called(ctx, spreadsheetID, rng, rows)

	if len(ret) == 0 {
		panic("no return value specified for AppendValues")
	}

	if rf, ok := ret.Get(0).(func(context.Context, string, string, [][]string) error); ok {
		return rf(ctx, spreadsheetID, rng, rows)
	}
	return ret.Error(0)
}

// UpdateValues provides a mock function with given fields: ctx, spreadsheetID, rng, rows
func (_m *MockClient) UpdateValues(ctx context.Context, spreadsheetID string, rng string, rows [][]string) error {
	ret := _m.Called(ctx, spreadsheetID, rng, rows)

	if len(ret) == 0 {
		panic("no return value specified for UpdateValues")
	}

	if rf, ok := ret.Get(0).(func(context.Context, string, string, [][]string) error); ok {
		return rf(ctx, spreadsheetID, rng, rows)
	}
	return ret.Error(0)
}

// Spreadsheet provides a mock function with given fields: ctx, spreadsheetID
func (_m *MockClient) Spreadsheet(ctx context.Context, spreadsheetID string) (*sheets.Spreadsheet, error) {
	ret := _m.Called(ctx, spreadsheetID)

	if len(ret) == 0 {
		panic("no return value specified for Spreadsheet")
	}

	var r0 *sheets.Spreadsheet
	if rf, ok := ret.Get(0).(func(context.Context, string) *sheets.Spreadsheet); ok {
		r0 = rf(ctx, spreadsheetID)
	} else if ret.Get(0) != nil {
		r0 = ret.Get(0).(*sheets.Spreadsheet)
	}

	return r0, ret.Error(1)
}

// FindSpreadsheet provides a mock function with given fields: ctx, name
func (_m *MockClient) FindSpreadsheet(ctx context.Context, name string) (string, error) {
	ret := _m.Called(ctx, name)

	if len(ret) == 0 {
		panic("no return value specified for FindSpreadsheet")
	}

	var r0 string
	if rf, ok := ret.Get(0).(func(context.Context, string) string); ok {
		r0 = rf(ctx, name)
	} else {
		r0 = ret.String(0)
	}

	return r0, ret.Error(1)
}

// NewMockClient creates a new instance of MockClient.
func NewMockClient(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockClient {
	m := &MockClient{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}
