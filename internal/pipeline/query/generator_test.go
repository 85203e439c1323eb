package query

import (
	"context"
	"testing"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildPrompt(t *testing.T) {
	docs := []*schema.Document{{Content: "Revenue was 10M."}, {Content: "Costs were 4M."}}
	got := BuildPrompt(docs, "What was revenue?")
	want := "Use the following pieces of context to answer the question at the end.\n" +
		"        If you don't know the answer, just say that you don't know, don't try to make up an answer.\n" +
		"        \n" +
		"        Revenue was 10M.\n\nCosts were 4M.\n" +
		"        \n" +
		"        Question: What was revenue?\n" +
		"        Answer:"
	assert.Equal(t, want, got)
}

func TestBuildPrompt_PlaceholderInInput(t *testing.T) {
	got := BuildPrompt([]*schema.Document{{Content: "literal {question} here"}}, "why {context}?")
	assert.Contains(t, got, "literal {question} here")
	assert.Contains(t, got, "Question: why {context}?\n        Answer:")
}

func TestGenerator_Generate(t *testing.T) {
	client := &fakeLLM{answer: "10M"}
	answer, err := NewGenerator(client).Generate(context.Background(), []*schema.Document{{Content: "Revenue was 10M."}}, "revenue?")
	require.NoError(t, err)
	assert.Equal(t, "10M", answer)
	require.Len(t, client.prompts, 1)
	assert.Contains(t, client.prompts[0], "Revenue was 10M.")

	_, err = NewGenerator(nil).Generate(context.Background(), nil, "q")
	assert.Error(t, err)
}
