package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"cloud.google.com/go/vertexai/genai"
	"github.com/raphaelgruber/regextract/internal/config"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// VertexProvider calls Gemini models on Vertex AI.
type VertexProvider struct {
	client      *genai.Client
	model       string
	temperature float32
}

// Compile-time check that VertexProvider implements Provider.
var _ Provider = (*VertexProvider)(nil)

// NewVertexProvider creates a Vertex AI client. credentialsFile is optional;
// without it Application Default Credentials are used.
func NewVertexProvider(ctx context.Context, projectID, region, model, credentialsFile string, temperature float64) (*VertexProvider, error) {
	if projectID == "" || region == "" {
		return nil, fmt.Errorf("vertex: projectID and region cannot be empty")
	}

	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	client, err := genai.NewClient(ctx, projectID, region, opts...)
	if err != nil {
		return nil, fmt.Errorf("genai.NewClient: %w", err)
	}

	return &VertexProvider{
		client:      client,
		model:       model,
		temperature: float32(temperature),
	}, nil
}

// Complete runs one GenerateContent call with the system message as system
// instruction.
func (p *VertexProvider) Complete(ctx context.Context, system, user string) (Completion, error) {
	model := p.client.GenerativeModel(p.model)
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(system)},
	}
	model.GenerationConfig = genai.GenerationConfig{
		Temperature: genai.Ptr(p.temperature),
	}

	resp, err := model.GenerateContent(ctx, genai.Text(user))
	if err != nil {
		return Completion{}, providerError(p.Name(), grpcHTTPStatus(err), "", fmt.Errorf("generate content: %w", err))
	}

	text, ok := candidateText(resp)
	if !ok {
		return Completion{}, providerError(p.Name(), 0, "", errors.New("response has no text candidates"))
	}

	c := Completion{Text: text}
	if resp.UsageMetadata != nil {
		c.InputTokens = int64(resp.UsageMetadata.PromptTokenCount)
		c.OutputTokens = int64(resp.UsageMetadata.CandidatesTokenCount)
	}
	return c, nil
}

// candidateText joins the text parts of the first candidate.
func candidateText(resp *genai.GenerateContentResponse) (string, bool) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", false
	}
	var b strings.Builder
	found := false
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			b.WriteString(string(txt))
			found = true
		}
	}
	return b.String(), found
}

// grpcHTTPStatus maps auth and quota gRPC codes to HTTP statuses.
func grpcHTTPStatus(err error) int {
	st, ok := status.FromError(err)
	if !ok {
		return 0
	}
	switch st.Code() {
	case codes.Unauthenticated:
		return http.StatusUnauthorized
	case codes.PermissionDenied:
		return http.StatusForbidden
	case codes.ResourceExhausted:
		return http.StatusTooManyRequests
	case codes.DeadlineExceeded:
		return http.StatusGatewayTimeout
	}
	return 0
}

// Close releases the underlying client.
func (p *VertexProvider) Close() error {
	return p.client.Close()
}

// Name returns the provider variant.
func (p *VertexProvider) Name() string {
	return string(config.ProviderVertex)
}

// Model returns the Gemini model name.
func (p *VertexProvider) Model() string {
	return p.model
}
