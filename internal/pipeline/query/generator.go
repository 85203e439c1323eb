package query

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/schema"

	"docqa/internal/model/llm"
)

// promptTemplate 问答提示词，{context} 与 {question} 会被替换；续行保留 8 个空格缩进
const promptTemplate = "Use the following pieces of context to answer the question at the end.\n" +
	"        If you don't know the answer, just say that you don't know, don't try to make up an answer.\n" +
	"        \n" +
	"        {context}\n" +
	"        \n" +
	"        Question: {question}\n" +
	"        Answer:"

// BuildPrompt 按检索顺序以空行拼接切片文本并填入模板
func BuildPrompt(docs []*schema.Document, question string) string {
	parts := make([]string, 0, len(docs))
	for _, d := range docs {
		parts = append(parts, d.Content)
	}
	// 单次替换，避免问题或切片里恰好出现占位符
	r := strings.NewReplacer("{context}", strings.Join(parts, "\n\n"), "{question}", question)
	return r.Replace(promptTemplate)
}

// Generator 基于检索结果调用 LLM 生成回答
type Generator struct {
	client llm.Client
}

// NewGenerator 创建生成器
func NewGenerator(client llm.Client) *Generator {
	return &Generator{client: client}
}

// Generate 返回模型原文，不做后处理
func (g *Generator) Generate(ctx context.Context, docs []*schema.Document, question string) (string, error) {
	if g.client == nil {
		return "", fmt.Errorf("generator: llm client not initialized")
	}
	return g.client.Generate(ctx, BuildPrompt(docs, question))
}
