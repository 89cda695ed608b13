package usecase_test

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/kvn3toj/beforenostr-sub004/domain/model"
)

type MockDurationSource struct {
	mock.Mock
}

func (m *MockDurationSource) FetchDuration(ctx context.Context, externalID string) (int, error) {
	args := m.Called(ctx, externalID)
	return args.Int(0), args.Error(1)
}

type MockLightMetadata struct {
	mock.Mock
}

func (m *MockLightMetadata) FetchMetadata(ctx context.Context, externalID string) (*model.LightMetadata, error) {
	args := m.Called(ctx, externalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.LightMetadata), args.Error(1)
}

type MockExistenceProbe struct {
	mock.Mock
}

func (m *MockExistenceProbe) Exists(ctx context.Context, externalID string) (bool, error) {
	args := m.Called(ctx, externalID)
	return args.Bool(0), args.Error(1)
}

type MockVideoContent struct {
	mock.Mock
}

func (m *MockVideoContent) ListVideoContents(ctx context.Context) ([]model.VideoContent, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.VideoContent), args.Error(1)
}

func (m *MockVideoContent) GetVideoContent(ctx context.Context, id string) (*model.VideoContent, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.VideoContent), args.Error(1)
}

func (m *MockVideoContent) UpdateDuration(ctx context.Context, id string, seconds int, source model.ConfidenceTier) error {
	args := m.Called(ctx, id, seconds, source)
	return args.Error(0)
}

type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) PublishDurationChanged(ctx context.Context, event model.DurationChangedEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

type MockRecalculationAudit struct {
	mock.Mock
}

func (m *MockRecalculationAudit) SaveRun(ctx context.Context, summary *model.RecalculationSummary) error {
	args := m.Called(ctx, summary)
	return args.Error(0)
}

func (m *MockRecalculationAudit) ListRuns(ctx context.Context, limit int) ([]model.RecalculationSummary, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.RecalculationSummary), args.Error(1)
}

func intPtr(n int) *int {
	return &n
}
