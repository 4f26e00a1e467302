package services

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/zatekoja/notefhir/internal/domain/entities"
	"github.com/zatekoja/notefhir/internal/domain/repositories"
)

// Mocks

type MockAnnotator struct {
	mock.Mock
}

func (m *MockAnnotator) Annotate(ctx context.Context, text string) ([]entities.OntologyAnnotation, error) {
	args := m.Called(ctx, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entities.OntologyAnnotation), args.Error(1)
}

// scriptedChat replies with the queued responses in order and records every request.
type scriptedChat struct {
	mu        sync.Mutex
	responses []*entities.ChatResponse
	errs      []error
	requests  []*entities.ChatRequest
}

func (c *scriptedChat) Name() string { return "scripted" }

func (c *scriptedChat) Complete(ctx context.Context, req *entities.ChatRequest) (*entities.ChatResponse, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	clone := *req
	clone.Messages = append([]entities.Message(nil), req.Messages...)
	c.requests = append(c.requests, &clone)
	i := len(c.requests) - 1
	if i < len(c.errs) && c.errs[i] != nil {
		return nil, c.errs[i]
	}
	if i >= len(c.responses) {
		return &entities.ChatResponse{Message: entities.Message{Role: entities.RoleAssistant}}, nil
	}
	return c.responses[i], nil
}

type MockResourceRepo struct {
	mock.Mock
}

func (m *MockResourceRepo) Save(ctx context.Context, record *entities.ResourceRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *MockResourceRepo) GetByID(ctx context.Context, id string) (*entities.ResourceRecord, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.ResourceRecord), args.Error(1)
}

func (m *MockResourceRepo) List(ctx context.Context, filter repositories.ResourceFilter) ([]*entities.ResourceRecord, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.ResourceRecord), args.Error(1)
}

type MockSearchRepo struct {
	mock.Mock
}

func (m *MockSearchRepo) Index(ctx context.Context, record *entities.ResourceRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *MockSearchRepo) Search(ctx context.Context, params repositories.ResourceSearchParams) ([]*repositories.ResourceSearchHit, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*repositories.ResourceSearchHit), args.Error(1)
}

type MockEventBus struct {
	mock.Mock
}

func (m *MockEventBus) Publish(ctx context.Context, channel string, event *entities.ResourceEvent) error {
	args := m.Called(ctx, channel, event)
	return args.Error(0)
}

func (m *MockEventBus) Subscribe(ctx context.Context, channel string) (<-chan *entities.ResourceEvent, error) {
	args := m.Called(ctx, channel)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(<-chan *entities.ResourceEvent), args.Error(1)
}

func (m *MockEventBus) Close() error {
	return nil
}

type MockWriter struct {
	mock.Mock
}

func (m *MockWriter) Write(ctx context.Context, record *entities.ResourceRecord) (string, error) {
	args := m.Called(ctx, record)
	return args.String(0), args.Error(1)
}

func chestPain() []entities.OntologyAnnotation {
	return []entities.OntologyAnnotation{
		{OboID: "snomedct:29857009", Label: "Chest pain"},
		{OboID: "snomedct:102588006", Label: "Chest wall pain"},
	}
}
