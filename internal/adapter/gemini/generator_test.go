package gemini

import (
	"testing"

	"github.com/yebeai/yebeai.github.io/internal/domain"

	"github.com/stretchr/testify/assert"
)

func TestBuildPrompt(t *testing.T) {
	tests := []struct {
		name   string
		repo   *domain.Repo
		enrich *domain.Enrichment
		verify func(*testing.T, string)
	}{
		{
			name: "基础字段都进 Prompt",
			repo: &domain.Repo{
				FullName:    "yebeai/tool",
				Description: "A tiny tool",
				Language:    "Go",
				Stars:       42,
				Topics:      []string{"cli", "tooling"},
			},
			verify: func(t *testing.T, prompt string) {
				assert.Contains(t, prompt, "yebeai/tool")
				assert.Contains(t, prompt, "A tiny tool")
				assert.Contains(t, prompt, "cli, tooling")
			},
		},
		{
			name: "fork 仓库提到上游",
			repo: &domain.Repo{
				FullName: "yebeai/borrowed",
				Type:     domain.TypeFork,
				Parent:   &domain.ParentRepo{Name: "upstream/original"},
			},
			verify: func(t *testing.T, prompt string) {
				assert.Contains(t, prompt, "upstream/original")
			},
		},
		{
			name: "补充上下文拼进去",
			repo: &domain.Repo{FullName: "yebeai/tool"},
			enrich: &domain.Enrichment{
				Readme: "README 开头",
				Files:  []string{"main.go"},
			},
			verify: func(t *testing.T, prompt string) {
				assert.Contains(t, prompt, "README 开头")
				assert.Contains(t, prompt, "main.go")
			},
		},
		{
			name: "黑名单全部进禁用清单",
			repo: &domain.Repo{FullName: "yebeai/tool"},
			verify: func(t *testing.T, prompt string) {
				for _, phrase := range domain.BannedPhrases() {
					assert.Contains(t, prompt, phrase)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.verify(t, buildPrompt(tt.repo, tt.enrich))
		})
	}
}
