// Package mocks provides test doubles for the twilio client.
package mocks

import (
	"context"

	mock "github.com/stretchr/testify/mock"

	twilio "github.com/xRamax/scrapper-violet-wave/pkg/twilio"
)

// MockClient is a mock type for the Client interface.
type MockClient struct {
	mock.Mock
}

// SendMessage provides a mock function with given fields: ctx, to, body
func (_m *MockClient) SendMessage(ctx context.Context, to string, body string) (*twilio.Message, error) {
	ret := _m.Called(ctx, to, body)

	if len(ret) == 0 {
		panic("no return value specified for SendMessage")
	}

	var r0 *twilio.Message
	var r1 error
	if rf, ok := ret.Get(0).(func(context.Context, string, string) (*twilio.Message, error)); ok {
		return rf(ctx, to, body)
	}
	if rf, ok := ret.Get(0).(func(context.Context, string, string) *twilio.Message); ok {
		r0 = rf(ctx, to, body)
	} else {
		if ret.Get(0) != nil {
			r0 = ret.Get(0).(*twilio.Message)
		}
	}

	if rf, ok := ret.Get(1).(func(context.Context, string, string) error); ok {
		r1 = rf(ctx, to, body)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
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
