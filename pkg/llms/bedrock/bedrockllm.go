package bedrock

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/smithy-go"
	"github.com/cockroachdb/errors"
	"github.com/effective-security/llmrelay/pkg/llms"
	"github.com/effective-security/llmrelay/pkg/llms/bedrock/internal/bedrockclient"
)

// DefaultRegion is used when neither the option nor the AWS config has a region.
const DefaultRegion = "us-east-1"

// LLM is a Bedrock LLM implementation.
type LLM struct {
	modelID string
	client  *bedrockclient.Client
}

var _ llms.Model = (*LLM)(nil)

// New creates a new Bedrock LLM implementation.
// AWS SDK retries are disabled, retries are owned by the HTTP client.
func New(ctx context.Context, opts ...Option) (*LLM, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	if o.client == nil {
		api, err := newRuntimeClient(ctx, o)
		if err != nil {
			return nil, err
		}
		o.client = api
	}

	return &LLM{
		client:  bedrockclient.NewClient(o.client),
		modelID: o.modelID,
	}, nil
}

func newRuntimeClient(ctx context.Context, o *options) (*bedrockruntime.Client, error) {
	cfgOpts := []func(*config.LoadOptions) error{
		config.WithRetryer(func() aws.Retryer { return aws.NopRetryer{} }),
	}
	if o.region != "" {
		cfgOpts = append(cfgOpts, config.WithRegion(o.region))
	}
	if o.accessKeyID != "" {
		cfgOpts = append(cfgOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(o.accessKeyID, o.secretAccessKey, o.sessionToken)))
	}
	if o.httpClient != nil {
		cfgOpts = append(cfgOpts, config.WithHTTPClient(o.httpClient))
	}

	cfg, err := config.LoadDefaultConfig(ctx, cfgOpts...)
	if err != nil {
		return nil, errors.Wrap(err, "bedrock: unable to load AWS config")
	}
	if cfg.Region == "" {
		cfg.Region = DefaultRegion
	}
	return bedrockruntime.NewFromConfig(cfg), nil
}

// GetName implements the Model interface.
func (l *LLM) GetName() string {
	return l.modelID
}

// GetProviderType implements the Model interface.
func (l *LLM) GetProviderType() llms.ProviderType {
	return llms.ProviderBedrock
}

// GenerateContent implements llms.Model.
func (l *LLM) GenerateContent(ctx context.Context, messages []llms.Message, options ...llms.CallOption) (*llms.ContentResponse, error) {
	opts := llms.NewCallOptions(llms.CallOptions{Model: l.modelID}, options...)
	if pe := opts.Check(llms.ProviderBedrock); pe != nil {
		return nil, pe
	}

	m := make([]bedrockclient.Message, 0, len(messages))
	for _, msg := range messages {
		m = append(m, bedrockclient.Message{
			Role:    msg.Role,
			Content: msg.GetContent(),
		})
	}

	res, err := l.client.CreateCompletion(ctx, opts.Model, m, opts)
	if err != nil {
		return nil, normalizeError(opts.Model, err)
	}
	return res, nil
}

func normalizeError(model string, err error) *llms.ProviderError {
	if errors.Is(err, bedrockclient.ErrNoResults) {
		return llms.NewProviderError(llms.ProviderBedrock, model, 0, "", "", err).
			WithKind(llms.FailureMalformedResponse)
	}

	status := 0
	var respErr *awshttp.ResponseError
	if errors.As(err, &respErr) {
		status = respErr.HTTPStatusCode()
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return llms.NewProviderError(llms.ProviderBedrock, model, status, apiErr.ErrorCode(), apiErr.ErrorMessage(), err)
	}
	return llms.NewProviderError(llms.ProviderBedrock, model, status, "", "", err)
}
