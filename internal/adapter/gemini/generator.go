package gemini

import (
	"context"
	"fmt"
	"log"
	"strings"
	"unicode/utf8"

	"github.com/yebeai/yebeai.github.io/internal/domain"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// Generator 实现了 port.Generator 接口 (Gemini 后端)
// Gemini 走自己的免费额度，不和 GitHub Models 共用，也没有模型轮换
type Generator struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

// NewGenerator 初始化 Gemini 生成器
func NewGenerator(ctx context.Context, apiKey string) (*Generator, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}

	model := client.GenerativeModel("gemini-2.5-flash-lite")

	return &Generator{
		client: client,
		model:  model,
	}, nil
}

// Name 生成来源标签
func (g *Generator) Name() string {
	return "gemini"
}

// Generate 调 Gemini 生成简介；失败或质量不过关返回空串，调用方兜底
func (g *Generator) Generate(ctx context.Context, repo *domain.Repo, enrich *domain.Enrichment) (string, error) {
	prompt := buildPrompt(repo, enrich)

	resp, err := g.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("AI 调用失败: %w", err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("AI 返回内容为空")
	}

	part := resp.Candidates[0].Content.Parts[0]
	text, ok := part.(genai.Text)
	if !ok {
		return "", fmt.Errorf("AI 返回格式错误")
	}

	content := strings.TrimSpace(string(text))
	if utf8.RuneCountInString(content) <= domain.MinArticleLength {
		log.Printf("⚠️ Gemini 返回内容太短 (%d 字)，弃用", utf8.RuneCountInString(content))
		return "", nil
	}

	return content, nil
}

// buildPrompt 拼生成 Prompt，黑名单短语写进禁用清单
func buildPrompt(repo *domain.Repo, enrich *domain.Enrichment) string {
	var sb strings.Builder

	sb.WriteString("你是一个常年混迹开源社区的技术博主。请为下面这个仓库写一段 100-200 字的中文简介，")
	sb.WriteString("语气自然口语化，讲清楚它是做什么的、适合谁用。只输出简介正文，不要标题和列表。\n\n")

	fmt.Fprintf(&sb, "仓库名称: %s\n", repo.FullName)
	fmt.Fprintf(&sb, "仓库描述: %s\n", repo.Description)
	fmt.Fprintf(&sb, "主要语言: %s\n", repo.Language)
	fmt.Fprintf(&sb, "Star 数: %d\n", repo.Stars)
	if len(repo.Topics) > 0 {
		fmt.Fprintf(&sb, "Topics: %s\n", strings.Join(repo.Topics, ", "))
	}
	if repo.Type == domain.TypeFork && repo.Parent != nil {
		fmt.Fprintf(&sb, "注意: 这是从 %s fork 出来的仓库，简介里要提到上游\n", repo.Parent.Name)
	}

	if enrich != nil && enrich.Readme != "" {
		fmt.Fprintf(&sb, "\nREADME 摘录:\n%s\n", enrich.Readme)
	}
	if enrich != nil && len(enrich.Files) > 0 {
		fmt.Fprintf(&sb, "\n文件列表 (截断):\n%s\n", strings.Join(enrich.Files, "\n"))
	}

	sb.WriteString("\n禁止使用以下短语或类似的套话:\n")
	for _, phrase := range domain.BannedPhrases() {
		fmt.Fprintf(&sb, "- %s\n", phrase)
	}

	return sb.String()
}
