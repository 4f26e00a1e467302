package providers

import (
	"context"
	"errors"

	"github.com/zatekoja/notefhir/internal/domain/entities"
)

// ErrChatUnauthorized is wrapped by providers when the model API rejects the credentials.
var ErrChatUnauthorized = errors.New("chat provider unauthorized")

// ChatProvider sends one exchange to a chat model with optional tools.
type ChatProvider interface {
	Complete(ctx context.Context, req *entities.ChatRequest) (*entities.ChatResponse, error)
	// Name identifies the provider in logs and metrics.
	Name() string
}
