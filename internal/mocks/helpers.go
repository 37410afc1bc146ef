package mocks

import (
	"testing"

	"go.uber.org/mock/gomock"
)

// NewMockQuerierForTest creates a new mock Querier for testing
func NewMockQuerierForTest(t *testing.T) *MockQuerier {
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)
	return NewMockQuerier(ctrl)
}

// NewMockSignerForTest creates a new mock Signer for testing
func NewMockSignerForTest(t *testing.T) *MockSigner {
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)
	return NewMockSigner(ctrl)
}

// NewMockSQSAPIForTest creates a new mock SQSAPI for testing
func NewMockSQSAPIForTest(t *testing.T) *MockSQSAPI {
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)
	return NewMockSQSAPI(ctrl)
}

// NewMockSecretsAPIForTest creates a new mock SecretsAPI for testing
func NewMockSecretsAPIForTest(t *testing.T) *MockSecretsAPI {
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)
	return NewMockSecretsAPI(ctrl)
}
