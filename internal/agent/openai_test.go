package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/schema"

	"github.com/fyrsmithlabs/designd/internal/conversation"
)

func TestNewOpenAIBackend_Validation(t *testing.T) {
	_, err := NewOpenAIBackend(OpenAIConfig{Model: "gpt-3.5-turbo"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "api key")

	_, err = NewOpenAIBackend(OpenAIConfig{APIKey: "sk-test"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model")
}

func TestBuildMessages_RoleMapping(t *testing.T) {
	turns := []conversation.Turn{
		{Speaker: conversation.SpeakerUser, Content: "build a todo app"},
		{Speaker: "architect", Content: "use a layered design"},
		{Speaker: "coder", Content: "package main"},
	}

	messages := buildMessages("You are the architect.", turns)
	require.Len(t, messages, 4)

	assert.Equal(t, schema.ChatMessageTypeSystem, messages[0].Role)
	assert.Equal(t, schema.ChatMessageTypeHuman, messages[1].Role)
	assert.Equal(t, schema.ChatMessageTypeAI, messages[2].Role)
	assert.Equal(t, schema.ChatMessageTypeAI, messages[3].Role)

	assert.Equal(t, "You are the architect.", textOf(t, messages[0]))
	assert.Equal(t, "build a todo app", textOf(t, messages[1]))
	assert.Equal(t, "architect: use a layered design", textOf(t, messages[2]))
	assert.Equal(t, "coder: package main", textOf(t, messages[3]))
}

func TestBuildMessages_SystemOnly(t *testing.T) {
	messages := buildMessages("instruction", nil)
	require.Len(t, messages, 1)
	assert.Equal(t, schema.ChatMessageTypeSystem, messages[0].Role)
}

func textOf(t *testing.T, msg llms.MessageContent) string {
	t.Helper()
	require.Len(t, msg.Parts, 1)
	text, ok := msg.Parts[0].(llms.TextContent)
	require.True(t, ok)
	return text.Text
}
