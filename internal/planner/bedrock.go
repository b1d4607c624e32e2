package planner

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	brtypes "github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
)

// DefaultBedrockModel is used when no model id is configured.
const DefaultBedrockModel = "anthropic.claude-3-haiku-20240307-v1:0"

type bedrockConverseAPI interface {
	Converse(ctx context.Context, params *bedrockruntime.ConverseInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error)
}

// BedrockGenerator implements Generator with the Bedrock Converse API.
type BedrockGenerator struct {
	api       bedrockConverseAPI
	modelID   string
	maxTokens int32
}

// NewBedrockGenerator wraps a Bedrock runtime client.
func NewBedrockGenerator(api bedrockConverseAPI, modelID string) *BedrockGenerator {
	if api == nil {
		panic("planner: bedrock converse client cannot be nil")
	}
	if strings.TrimSpace(modelID) == "" {
		modelID = DefaultBedrockModel
	}
	return &BedrockGenerator{api: api, modelID: modelID, maxTokens: 512}
}

func (g *BedrockGenerator) Generate(ctx context.Context, system string, history []Message, latest string) (string, error) {
	if strings.TrimSpace(latest) == "" {
		latest = "(no speech detected)"
	}
	out, err := g.api.Converse(ctx, &bedrockruntime.ConverseInput{
		ModelId: aws.String(g.modelID),
		System: []brtypes.SystemContentBlock{
			&brtypes.SystemContentBlockMemberText{Value: system},
		},
		Messages: bedrockMessages(history, latest),
		InferenceConfig: &brtypes.InferenceConfiguration{
			MaxTokens:   aws.Int32(g.maxTokens),
			Temperature: aws.Float32(0.3),
		},
	})
	if err != nil {
		return "", fmt.Errorf("planner: bedrock converse failed: %w", err)
	}
	return bedrockOutputText(out)
}

// bedrockMessages builds a transcript Converse accepts: it must open with a
// user turn and roles must alternate, so adjacent lines from the same side
// are joined.
func bedrockMessages(history []Message, latest string) []brtypes.Message {
	lines := make([]Message, 0, len(history)+2)
	for _, msg := range history {
		text := strings.TrimSpace(msg.Text)
		if text == "" {
			continue
		}
		role := RoleCaller
		if msg.Role == RoleAssistant {
			role = RoleAssistant
		}
		lines = append(lines, Message{Role: role, Text: text})
	}
	lines = append(lines, Message{Role: RoleCaller, Text: latest})
	if lines[0].Role == RoleAssistant {
		lines = append([]Message{{Role: RoleCaller, Text: "(call connected)"}}, lines...)
	}

	messages := make([]brtypes.Message, 0, len(lines))
	var prev string
	for _, line := range lines {
		if line.Role == prev {
			last := &messages[len(messages)-1]
			last.Content = append(last.Content, &brtypes.ContentBlockMemberText{Value: line.Text})
			continue
		}
		role := brtypes.ConversationRoleUser
		if line.Role == RoleAssistant {
			role = brtypes.ConversationRoleAssistant
		}
		messages = append(messages, brtypes.Message{
			Role:    role,
			Content: []brtypes.ContentBlock{&brtypes.ContentBlockMemberText{Value: line.Text}},
		})
		prev = line.Role
	}
	return messages
}

func bedrockOutputText(out *bedrockruntime.ConverseOutput) (string, error) {
	if out == nil {
		return "", errors.New("planner: bedrock response is nil")
	}
	msgOut, ok := out.Output.(*brtypes.ConverseOutputMemberMessage)
	if !ok {
		return "", errors.New("planner: bedrock response did not include a message output")
	}
	var builder strings.Builder
	for _, block := range msgOut.Value.Content {
		if text, ok := block.(*brtypes.ContentBlockMemberText); ok {
			builder.WriteString(text.Value)
		}
	}
	if strings.TrimSpace(builder.String()) == "" {
		return "", errors.New("planner: bedrock response contained no text")
	}
	return builder.String(), nil
}
