package planner

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	brtypes "github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeConverse struct {
	input *bedrockruntime.ConverseInput
	out   *bedrockruntime.ConverseOutput
	err   error
}

func (f *fakeConverse) Converse(_ context.Context, in *bedrockruntime.ConverseInput, _ ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error) {
	f.input = in
	return f.out, f.err
}

func textOutput(text string) *bedrockruntime.ConverseOutput {
	return &bedrockruntime.ConverseOutput{
		Output: &brtypes.ConverseOutputMemberMessage{Value: brtypes.Message{
			Role:    brtypes.ConversationRoleAssistant,
			Content: []brtypes.ContentBlock{&brtypes.ContentBlockMemberText{Value: text}},
		}},
	}
}

func blockText(t *testing.T, block brtypes.ContentBlock) string {
	t.Helper()
	text, ok := block.(*brtypes.ContentBlockMemberText)
	require.True(t, ok, "expected text block, got %T", block)
	return text.Value
}

func TestBedrockGeneratorBuildsAlternatingTranscript(t *testing.T) {
	api := &fakeConverse{out: textOutput(`{"action":"ASK","reply":"And your address?"}`)}
	gen := NewBedrockGenerator(api, "")

	raw, err := gen.Generate(context.Background(), "be brief", []Message{
		{Role: RoleAssistant, Text: "Hey there! May I have your name?"},
		{Role: RoleCaller, Text: "Dana"},
		{Role: RoleAssistant, Text: "Thanks Dana."},
		{Role: RoleAssistant, Text: "What can I help with?"},
		{Role: RoleCaller, Text: "  "},
	}, "a kitchen remodel")
	require.NoError(t, err)
	assert.Equal(t, `{"action":"ASK","reply":"And your address?"}`, raw)

	in := api.input
	require.NotNil(t, in)
	assert.Equal(t, DefaultBedrockModel, aws.ToString(in.ModelId))
	require.Len(t, in.System, 1)
	assert.Equal(t, "be brief", in.System[0].(*brtypes.SystemContentBlockMemberText).Value)

	require.Len(t, in.Messages, 5)
	assert.Equal(t, brtypes.ConversationRoleUser, in.Messages[0].Role)
	assert.Equal(t, "(call connected)", blockText(t, in.Messages[0].Content[0]))
	assert.Equal(t, brtypes.ConversationRoleAssistant, in.Messages[3].Role)
	require.Len(t, in.Messages[3].Content, 2)
	assert.Equal(t, "What can I help with?", blockText(t, in.Messages[3].Content[1]))
	assert.Equal(t, brtypes.ConversationRoleUser, in.Messages[4].Role)
	assert.Equal(t, "a kitchen remodel", blockText(t, in.Messages[4].Content[0]))
	assert.Equal(t, int32(512), aws.ToInt32(in.InferenceConfig.MaxTokens))
}

func TestBedrockGeneratorErrors(t *testing.T) {
	boom := errors.New("throttled")
	_, err := NewBedrockGenerator(&fakeConverse{err: boom}, "m").Generate(context.Background(), "s", nil, "hi")
	assert.ErrorIs(t, err, boom)

	_, err = NewBedrockGenerator(&fakeConverse{out: &bedrockruntime.ConverseOutput{}}, "m").Generate(context.Background(), "s", nil, "hi")
	assert.Error(t, err)

	_, err = NewBedrockGenerator(&fakeConverse{out: textOutput("  ")}, "m").Generate(context.Background(), "s", nil, "")
	assert.Error(t, err)
}

func TestBedrockGeneratorFeedsLLMPlanner(t *testing.T) {
	api := &fakeConverse{out: textOutput(`{"action":"ASK_DAY_PREFERENCE","reply":"Which day suits you?"}`)}
	p := NewLLMPlanner(NewBedrockGenerator(api, "anthropic.test"), "Acme", nil)

	plan, err := p.Plan(context.Background(), Request{History: []Message{{Role: RoleCaller, Text: "I'd like a visit"}}})
	require.NoError(t, err)
	assert.Equal(t, ActionAskDayPreference, plan.Action)
	assert.Equal(t, "anthropic.test", aws.ToString(api.input.ModelId))
}
