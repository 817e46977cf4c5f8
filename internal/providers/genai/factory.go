package genai

import (
	"context"
	"fmt"

	"logoanimator/internal/infra"
)

// NewService builds the backend selected by name (see infra.Backend*).
func NewService(ctx context.Context, backend string, opts Options) (Service, error) {
	switch backend {
	case infra.BackendREST, "":
		return NewClient(opts)
	case infra.BackendSDK:
		return NewSDKClient(ctx, opts)
	case infra.BackendSynthetic:
		return NewSynthetic(opts), nil
	default:
		return nil, fmt.Errorf("genai: unsupported backend %q", backend)
	}
}
