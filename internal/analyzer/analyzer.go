// Package analyzer generates natural-language descriptions of stored frames
// with an ollama vision model.
package analyzer

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"

	"github.com/agent-api/core"
	"github.com/agent-api/core/agent"
	"github.com/agent-api/core/agent/bootstrap"
	"github.com/agent-api/ollama"
	"github.com/go-logr/logr"
)

const describePrompt = "What is happening in this image? Be specific and detailed. " +
	"List and describe the items shown in the frame."

// Describer wraps a vision agent that can describe a frame image.
type Describer struct {
	agent  *agent.Agent
	logger *slog.Logger
}

// New initializes a vision agent against the given ollama endpoint and model.
func New(ctx context.Context, baseURL, model string, logger *slog.Logger) (*Describer, error) {
	host, port, err := splitEndpoint(baseURL)
	if err != nil {
		return nil, err
	}

	logrLogger := logr.FromSlogHandler(logger.Handler())
	provider := ollama.NewProvider(&ollama.ProviderOpts{
		Logger:  &logrLogger,
		BaseURL: host,
		Port:    port,
	})
	provider.UseModel(ctx, &core.Model{ID: model})

	visionAgent, err := agent.NewAgent(
		bootstrap.WithProvider(provider),
		bootstrap.WithLogger(&logrLogger),
		bootstrap.WithSystemPrompt("You are a visual analysis assistant specialized in detailed "+
			"image descriptions. If there is a person in the image describe what "+
			"they are doing in step by step format."),
	)
	if err != nil {
		return nil, err
	}

	return &Describer{agent: visionAgent, logger: logger}, nil
}

// Describe returns a description of the image at path.
func (d *Describer) Describe(ctx context.Context, imagePath string) (string, error) {
	response, err := d.agent.Run(
		ctx,
		agent.WithInput(describePrompt),
		agent.WithImagePath(imagePath),
	)
	if err != nil {
		return "", fmt.Errorf("vision agent failed: %w", err)
	}
	if len(response.Messages) == 0 {
		return "", fmt.Errorf("no response messages received from model")
	}
	return response.Messages[len(response.Messages)-1].Content, nil
}

// splitEndpoint separates an ollama base URL into the scheme+host form and
// port the provider options expect.
func splitEndpoint(baseURL string) (string, int, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", 0, fmt.Errorf("invalid ollama base URL %q: %w", baseURL, err)
	}
	port := 11434
	if p := u.Port(); p != "" {
		port, err = strconv.Atoi(p)
		if err != nil {
			return "", 0, fmt.Errorf("invalid port in ollama base URL %q", baseURL)
		}
	}
	host := u.Scheme + "://" + u.Hostname()
	return host, port, nil
}
