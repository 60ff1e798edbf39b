package completion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/yebeai/yebeai.github.io/internal/domain"
)

// GitHub Models 的推理端点，用 GITHUB_TOKEN 就能调
const defaultEndpoint = "https://models.github.ai/inference/chat/completions"

// defaultModels 候选模型清单，按优先级排列
// 免费额度按模型分别计算，一个被限流就轮换到下一个
var defaultModels = []string{
	"openai/gpt-4o",
	"openai/gpt-4o-mini",
	"meta/Llama-3.3-70B-Instruct",
}

// Generator 实现了 port.Generator 接口
// exhausted 记录已被限流的模型，同一个实例内不再尝试；
// 每次运行都新建 Generator，限流标记不跨运行
type Generator struct {
	token     string
	endpoint  string
	models    []string
	exhausted map[string]bool
	client    *http.Client
}

// NewGenerator 初始化远程生成器
func NewGenerator(token string) *Generator {
	return &Generator{
		token:     token,
		endpoint:  defaultEndpoint,
		models:    defaultModels,
		exhausted: make(map[string]bool),
		client:    &http.Client{Timeout: 60 * time.Second},
	}
}

// Name 生成来源标签
func (g *Generator) Name() string {
	return "github-models"
}

// chat completion 的请求/响应结构，只声明用得到的字段
type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Generate 按候选顺序轮询模型生成简介
// 429 把当前模型标记为耗尽换下一个；其他非 2xx 直接放弃 (调用方兜底)；
// 全部耗尽或结果太短返回空串。显式循环，没有递归
func (g *Generator) Generate(ctx context.Context, repo *domain.Repo, enrich *domain.Enrichment) (string, error) {
	if g.token == "" {
		return "", fmt.Errorf("访问令牌为空，无法调用远程模型")
	}

	prompt := BuildPrompt(repo, enrich)

	for _, model := range g.models {
		if g.exhausted[model] {
			continue
		}

		content, status, err := g.call(ctx, model, prompt)
		if err != nil {
			return "", fmt.Errorf("调用模型 %s 失败: %w", model, err)
		}

		if status == http.StatusTooManyRequests {
			log.Printf("⚠️ 模型 %s 被限流，本次运行不再使用，轮换下一个", model)
			g.exhausted[model] = true
			continue
		}
		if status < 200 || status >= 300 {
			return "", fmt.Errorf("模型 %s 返回状态码 %d", model, status)
		}

		content = strings.TrimSpace(content)
		if utf8.RuneCountInString(content) <= domain.MinArticleLength {
			log.Printf("⚠️ 模型 %s 返回内容太短 (%d 字)，弃用", model, utf8.RuneCountInString(content))
			return "", nil
		}
		return content, nil
	}

	// 候选模型全军覆没
	log.Println("⚠️ 所有候选模型都已被限流，本次改用本地模板")
	return "", nil
}

// call 发一次 chat completion 请求，返回内容和状态码
func (g *Generator) call(ctx context.Context, model, prompt string) (string, int, error) {
	payload := chatRequest{
		Model: model,
		Messages: []chatMessage{
			{Role: "user", Content: prompt},
		},
		Temperature: 0.7,
		MaxTokens:   400,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", 0, fmt.Errorf("序列化请求失败: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint, bytes.NewBuffer(body))
	if err != nil {
		return "", 0, fmt.Errorf("构造请求失败: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.token)

	resp, err := g.client.Do(req)
	if err != nil {
		return "", 0, fmt.Errorf("发送请求失败: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", resp.StatusCode, nil
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", resp.StatusCode, fmt.Errorf("读取响应失败: %w", err)
	}

	var res chatResponse
	if err := json.Unmarshal(raw, &res); err != nil {
		return "", resp.StatusCode, fmt.Errorf("解析响应失败: %w", err)
	}
	if len(res.Choices) == 0 {
		return "", resp.StatusCode, fmt.Errorf("模型返回内容为空")
	}

	return res.Choices[0].Message.Content, resp.StatusCode, nil
}

// BuildPrompt 用仓库信息和补充上下文拼生成 Prompt
// 黑名单短语直接写进禁用清单，从源头减少 AI 套话
func BuildPrompt(repo *domain.Repo, enrich *domain.Enrichment) string {
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
