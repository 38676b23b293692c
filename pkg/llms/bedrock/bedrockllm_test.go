package bedrock_test

import (
	"context"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
	"github.com/aws/smithy-go"
	"github.com/cockroachdb/errors"
	"github.com/effective-security/llmrelay/pkg/llms"
	"github.com/effective-security/llmrelay/pkg/llms/bedrock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRuntime struct {
	modelID string
	body    string
	err     error
}

func (f *fakeRuntime) InvokeModel(_ context.Context, params *bedrockruntime.InvokeModelInput, _ ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error) {
	f.modelID = *params.ModelId
	if f.err != nil {
		return nil, f.err
	}
	return &bedrockruntime.InvokeModelOutput{Body: []byte(f.body)}, nil
}

var ping = []llms.Message{llms.MessageFromTextParts(llms.RoleHuman, "ping")}

func TestNew_StaticCredentials(t *testing.T) {
	llm, err := bedrock.New(context.Background(),
		bedrock.WithRegion("us-west-2"),
		bedrock.WithStaticCredentials("AKIDEXAMPLE", "secret", ""),
		bedrock.WithModel("anthropic.claude-3-haiku-20240307-v1:0"),
	)
	require.NoError(t, err)
	assert.Equal(t, llms.ProviderBedrock, llm.GetProviderType())
	assert.Equal(t, "anthropic.claude-3-haiku-20240307-v1:0", llm.GetName())
}

func TestGenerateContent(t *testing.T) {
	rt := &fakeRuntime{body: `{"content":[{"type":"text","text":"OK"}],"stop_reason":"end_turn","usage":{"input_tokens":3,"output_tokens":1}}`}
	llm, err := bedrock.New(context.Background(), bedrock.WithClient(rt))
	require.NoError(t, err)

	_, err = llm.GenerateContent(context.Background(), ping)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model is required")

	resp, err := llm.GenerateContent(context.Background(), ping,
		llms.WithModel("us.anthropic.claude-3-5-sonnet-20241022-v2:0"))
	require.NoError(t, err)
	assert.Equal(t, "OK", resp.Choices[0].Content)
	assert.Equal(t, "us.anthropic.claude-3-5-sonnet-20241022-v2:0", rt.modelID)
}

func TestGenerateContent_Errors(t *testing.T) {
	tcases := []struct {
		name string
		err  error
		body string
		kind llms.FailureKind
		code string
	}{
		{
			name: "throttled",
			err:  &types.ThrottlingException{Message: ptr("Too many requests, please wait before trying again.")},
			kind: llms.FailureThrottled,
			code: "ThrottlingException",
		},
		{
			name: "access denied",
			err:  &types.AccessDeniedException{Message: ptr("You don't have access to the model")},
			kind: llms.FailureAuth,
			code: "AccessDeniedException",
		},
		{
			name: "generic api",
			err:  &smithy.GenericAPIError{Code: "ModelNotReadyException", Message: "not ready"},
			kind: llms.FailureUnknown,
			code: "ModelNotReadyException",
		},
		{
			name: "empty",
			body: `{"content":[],"stop_reason":"end_turn"}`,
			kind: llms.FailureMalformedResponse,
		},
	}
	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			llm, err := bedrock.New(context.Background(),
				bedrock.WithClient(&fakeRuntime{err: tc.err, body: tc.body}),
				bedrock.WithModel("anthropic.claude-3-haiku-20240307-v1:0"))
			require.NoError(t, err)

			_, err = llm.GenerateContent(context.Background(), ping)
			var pe *llms.ProviderError
			require.True(t, errors.As(err, &pe))
			assert.Equal(t, llms.ProviderBedrock, pe.Provider)
			assert.Equal(t, tc.kind, pe.Kind)
			assert.Equal(t, tc.code, pe.Code)
		})
	}
}

func ptr[T any](v T) *T {
	return &v
}
