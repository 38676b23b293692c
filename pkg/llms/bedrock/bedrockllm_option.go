package bedrock

import (
	"net/http"

	"github.com/effective-security/llmrelay/pkg/llms/bedrock/internal/bedrockclient"
)

// InvokeModelAPI is the subset of the Bedrock runtime client used by LLM.
type InvokeModelAPI = bedrockclient.InvokeModelAPI

type options struct {
	modelID         string
	region          string
	accessKeyID     string
	secretAccessKey string
	sessionToken    string
	httpClient      *http.Client
	client          InvokeModelAPI
}

// Option is an option for the Bedrock LLM.
type Option func(*options)

// WithModel sets the default model ID.
func WithModel(modelID string) Option {
	return func(o *options) {
		o.modelID = modelID
	}
}

// WithRegion sets the AWS region, otherwise the default AWS config chain is used.
func WithRegion(region string) Option {
	return func(o *options) {
		o.region = region
	}
}

// WithStaticCredentials sets static AWS credentials,
// otherwise the default AWS credentials chain is used.
func WithStaticCredentials(accessKeyID, secretAccessKey, sessionToken string) Option {
	return func(o *options) {
		o.accessKeyID = accessKeyID
		o.secretAccessKey = secretAccessKey
		o.sessionToken = sessionToken
	}
}

// WithHTTPClient sets the HTTP client used by the AWS SDK.
func WithHTTPClient(client *http.Client) Option {
	return func(o *options) {
		o.httpClient = client
	}
}

// WithClient allows setting a custom Bedrock runtime client.
func WithClient(client InvokeModelAPI) Option {
	return func(o *options) {
		o.client = client
	}
}
