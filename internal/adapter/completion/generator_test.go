package completion

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/yebeai/yebeai.github.io/internal/domain"

	"github.com/stretchr/testify/assert"
)

// 一段够长的"好简介"，过得了长度门槛
var longContent = strings.Repeat("这个项目实现了一个轻量的命令行工具。", 5)

// mockCompletionServer 创建模拟的 chat completion 服务器
// respond 按模型名决定返回什么
func mockCompletionServer(t *testing.T, respond func(model string) (int, string)) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))

		var req chatRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		status, content := respond(req.Model)
		w.WriteHeader(status)
		if status == http.StatusOK {
			json.NewEncoder(w).Encode(map[string]interface{}{
				"choices": []map[string]interface{}{
					{"message": map[string]string{"role": "assistant", "content": content}},
				},
			})
		}
	}))
	t.Cleanup(server.Close)
	return server
}

// newTestGenerator 指向测试服务器的生成器
func newTestGenerator(serverURL string, models []string) *Generator {
	return &Generator{
		token:     "test-token",
		endpoint:  serverURL,
		models:    models,
		exhausted: make(map[string]bool),
		client:    &http.Client{Timeout: 5 * time.Second},
	}
}

func testRepo() *domain.Repo {
	return &domain.Repo{
		ID:          1,
		Name:        "tool",
		FullName:    "yebeai/tool",
		Description: "A tiny tool",
		Language:    "Go",
		Stars:       42,
		Topics:      []string{"cli"},
	}
}

func TestGenerator_Generate(t *testing.T) {
	server := mockCompletionServer(t, func(model string) (int, string) {
		return http.StatusOK, longContent
	})

	g := newTestGenerator(server.URL, []string{"model-a", "model-b"})
	content, err := g.Generate(context.Background(), testRepo(), nil)

	assert.NoError(t, err)
	assert.Equal(t, longContent, content)
}

func TestGenerator_Generate_RateLimitRotation(t *testing.T) {
	var calls []string
	server := mockCompletionServer(t, func(model string) (int, string) {
		calls = append(calls, model)
		if model == "model-a" {
			return http.StatusTooManyRequests, ""
		}
		return http.StatusOK, longContent
	})

	g := newTestGenerator(server.URL, []string{"model-a", "model-b"})

	// 第一次：model-a 被限流，轮换到 model-b
	content, err := g.Generate(context.Background(), testRepo(), nil)
	assert.NoError(t, err)
	assert.Equal(t, longContent, content)
	assert.Equal(t, []string{"model-a", "model-b"}, calls)

	// 第二次：model-a 本次运行内不再被尝试
	calls = nil
	content, err = g.Generate(context.Background(), testRepo(), nil)
	assert.NoError(t, err)
	assert.Equal(t, longContent, content)
	assert.Equal(t, []string{"model-b"}, calls)
}

func TestGenerator_Generate_FreshInstanceRetriesRecoveredModel(t *testing.T) {
	// model-a 只在第一轮被限流，第二轮恢复
	limited := true
	var calls []string
	server := mockCompletionServer(t, func(model string) (int, string) {
		calls = append(calls, model)
		if model == "model-a" && limited {
			return http.StatusTooManyRequests, ""
		}
		return http.StatusOK, longContent
	})

	// 第一轮：model-a 被限流，轮换到 model-b
	run1 := newTestGenerator(server.URL, []string{"model-a", "model-b"})
	content, err := run1.Generate(context.Background(), testRepo(), nil)
	assert.NoError(t, err)
	assert.Equal(t, longContent, content)
	assert.Equal(t, []string{"model-a", "model-b"}, calls)

	// 第二轮是全新的生成器 (每次运行都新建)，恢复后的 model-a 要被重试
	limited = false
	calls = nil
	run2 := newTestGenerator(server.URL, []string{"model-a", "model-b"})
	content, err = run2.Generate(context.Background(), testRepo(), nil)
	assert.NoError(t, err)
	assert.Equal(t, longContent, content)
	assert.Equal(t, []string{"model-a"}, calls)
}

func TestGenerator_Generate_AllModelsExhausted(t *testing.T) {
	server := mockCompletionServer(t, func(model string) (int, string) {
		return http.StatusTooManyRequests, ""
	})

	g := newTestGenerator(server.URL, []string{"model-a", "model-b"})
	content, err := g.Generate(context.Background(), testRepo(), nil)

	// 全军覆没返回空串而不是错误，调用方兜底
	assert.NoError(t, err)
	assert.Equal(t, "", content)
	assert.True(t, g.exhausted["model-a"])
	assert.True(t, g.exhausted["model-b"])
}

func TestGenerator_Generate_NonRateLimitError(t *testing.T) {
	var calls int
	server := mockCompletionServer(t, func(model string) (int, string) {
		calls++
		return http.StatusInternalServerError, ""
	})

	g := newTestGenerator(server.URL, []string{"model-a", "model-b"})
	content, err := g.Generate(context.Background(), testRepo(), nil)

	// 非限流错误直接放弃，不消耗后面的候选模型
	assert.Error(t, err)
	assert.Equal(t, "", content)
	assert.Equal(t, 1, calls)
	assert.False(t, g.exhausted["model-a"])
}

func TestGenerator_Generate_TooShort(t *testing.T) {
	server := mockCompletionServer(t, func(model string) (int, string) {
		return http.StatusOK, "太短了"
	})

	g := newTestGenerator(server.URL, []string{"model-a"})
	content, err := g.Generate(context.Background(), testRepo(), nil)

	// 结果太短被弃用，返回空串让调用方兜底
	assert.NoError(t, err)
	assert.Equal(t, "", content)
}

func TestGenerator_Generate_EmptyToken(t *testing.T) {
	g := NewGenerator("")
	content, err := g.Generate(context.Background(), testRepo(), nil)

	assert.Error(t, err)
	assert.Equal(t, "", content)
}

func TestGenerator_Name(t *testing.T) {
	assert.Equal(t, "github-models", NewGenerator("x").Name())
}

func TestBuildPrompt(t *testing.T) {
	repo := testRepo()
	repo.Type = domain.TypeFork
	repo.Parent = &domain.ParentRepo{Name: "upstream/tool", URL: "https://github.com/upstream/tool", Stars: 999}

	enrich := &domain.Enrichment{
		Readme: "README 开头的内容",
		Files:  []string{"main.go", "go.mod"},
	}

	prompt := BuildPrompt(repo, enrich)

	// 仓库字段都要进 Prompt
	assert.Contains(t, prompt, "yebeai/tool")
	assert.Contains(t, prompt, "A tiny tool")
	assert.Contains(t, prompt, "Go")
	assert.Contains(t, prompt, "cli")
	// fork 要带上游
	assert.Contains(t, prompt, "upstream/tool")
	// 补充上下文
	assert.Contains(t, prompt, "README 开头的内容")
	assert.Contains(t, prompt, "main.go")
	// 黑名单全部进禁用清单
	for _, phrase := range domain.BannedPhrases() {
		assert.Contains(t, prompt, phrase)
	}
}

func TestBuildPrompt_NoEnrichment(t *testing.T) {
	prompt := BuildPrompt(testRepo(), nil)

	assert.Contains(t, prompt, "yebeai/tool")
	assert.NotContains(t, prompt, "README 摘录")
	assert.NotContains(t, prompt, "文件列表")
}
