package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
	"github.com/raphaelgruber/regextract/internal/config"
)

// converseAPI is the subset of the Bedrock runtime client used here.
type converseAPI interface {
	Converse(ctx context.Context, params *bedrockruntime.ConverseInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error)
}

// BedrockProvider calls models hosted on AWS Bedrock through the Converse API.
// Credentials come from the default AWS chain.
type BedrockProvider struct {
	client      converseAPI
	model       string
	temperature float32
}

// Compile-time check that BedrockProvider implements Provider.
var _ Provider = (*BedrockProvider)(nil)

// NewBedrockProvider loads the AWS configuration for region and creates a client.
func NewBedrockProvider(ctx context.Context, region, model string, temperature float64) (*BedrockProvider, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return &BedrockProvider{
		client:      bedrockruntime.NewFromConfig(awsCfg),
		model:       model,
		temperature: float32(temperature),
	}, nil
}

// Complete sends one Converse request.
func (p *BedrockProvider) Complete(ctx context.Context, system, user string) (Completion, error) {
	out, err := p.client.Converse(ctx, &bedrockruntime.ConverseInput{
		ModelId: aws.String(p.model),
		System: []types.SystemContentBlock{
			&types.SystemContentBlockMemberText{Value: system},
		},
		Messages: []types.Message{{
			Role:    types.ConversationRoleUser,
			Content: []types.ContentBlock{&types.ContentBlockMemberText{Value: user}},
		}},
		InferenceConfig: &types.InferenceConfiguration{
			Temperature: aws.Float32(p.temperature),
		},
	})
	if err != nil {
		status := 0
		var respErr *awshttp.ResponseError
		if errors.As(err, &respErr) {
			status = respErr.HTTPStatusCode()
		}
		return Completion{}, providerError(p.Name(), status, "", fmt.Errorf("converse: %w", err))
	}

	text, ok := converseText(out)
	if !ok {
		return Completion{}, providerError(p.Name(), 0, "", errors.New("response has no text content"))
	}

	c := Completion{Text: text}
	if out.Usage != nil {
		c.InputTokens = int64(aws.ToInt32(out.Usage.InputTokens))
		c.OutputTokens = int64(aws.ToInt32(out.Usage.OutputTokens))
	}
	return c, nil
}

// converseText concatenates the text blocks of a Converse reply.
func converseText(out *bedrockruntime.ConverseOutput) (string, bool) {
	if out == nil {
		return "", false
	}
	msg, ok := out.Output.(*types.ConverseOutputMemberMessage)
	if !ok {
		return "", false
	}
	var b strings.Builder
	found := false
	for _, block := range msg.Value.Content {
		if t, ok := block.(*types.ContentBlockMemberText); ok {
			b.WriteString(t.Value)
			found = true
		}
	}
	return b.String(), found
}

// Name returns the provider variant.
func (p *BedrockProvider) Name() string {
	return string(config.ProviderVendorSDK)
}

// Model returns the Bedrock model id.
func (p *BedrockProvider) Model() string {
	return p.model
}
