package llm

import (
	"os"

	"go.uber.org/zap"
)

const (
	// EnvFixyMode is the environment variable name for mode selection.
	EnvFixyMode = "FIXY_MODE"
	// ModeMock indicates mock mode should be used.
	ModeMock = "MOCK"
)

// NewLLMClient creates an LLM client based on the FIXY_MODE environment variable.
// If FIXY_MODE=MOCK, returns a MockClient; otherwise returns a GroqClient.
func NewLLMClient(cfg GroqConfig, logger *zap.Logger) LLMClient {
	if os.Getenv(EnvFixyMode) == ModeMock {
		if logger != nil {
			logger.Info("FIXY_MODE=MOCK detected, using mock LLM client")
		}
		return NewMockClient()
	}
	return NewGroqClient(cfg, logger)
}
