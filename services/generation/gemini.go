package generation

import (
	"context"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"google.golang.org/genai"

	"github.com/customeros/outflow/config"
	"github.com/customeros/outflow/dto"
	"github.com/customeros/outflow/interfaces"
)

// geminiProvider calls the Gemini API. Clients are cached per API key since
// targets may carry different credentials.
type geminiProvider struct {
	mu      sync.Mutex
	clients map[string]*genai.Client
}

func NewGeminiProvider() interfaces.GenerationProvider {
	return &geminiProvider{
		clients: make(map[string]*genai.Client),
	}
}

func (p *geminiProvider) clientFor(ctx context.Context, apiKey string) (*genai.Client, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if client, ok := p.clients[apiKey]; ok {
		return client, nil
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: apiKey,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create genai client")
	}
	p.clients[apiKey] = client
	return client, nil
}

func (p *geminiProvider) Call(ctx context.Context, target config.ModelTarget, request dto.GenerationRequest) (string, error) {
	client, err := p.clientFor(ctx, target.APIKey)
	if err != nil {
		return "", err
	}

	cfg := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(request.Temperature),
	}
	if request.Instruction != "" {
		cfg.SystemInstruction = genai.NewContentFromText(request.Instruction, genai.RoleUser)
	}

	result, err := client.Models.GenerateContent(ctx, target.Model, genai.Text(request.Prompt), cfg)
	if err != nil {
		return "", errors.Wrapf(err, "generate failed on %s", target.Key())
	}

	text := strings.TrimSpace(result.Text())
	if text == "" {
		return "", errors.Errorf("empty response from %s", target.Key())
	}
	return text, nil
}
