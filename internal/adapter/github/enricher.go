package github

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/yebeai/yebeai.github.io/internal/domain"

	"github.com/google/go-github/v53/github"
)

// README 摘录上限 (字符数)，再长 Prompt 就该爆了
const maxReadmeRunes = 1500

// 文件列表上限 (条数)
const maxTreeEntries = 30

// Enricher 实现了 port.Enricher 接口
type Enricher struct {
	client *github.Client
}

// NewEnricher 初始化仓库补全员
func NewEnricher(token string) *Enricher {
	return &Enricher{client: newClient(token)}
}

// FetchDetail 调详情接口补全 topics 和上游 fork 元数据
// 失败由调用方记日志后继续，不影响主流程
func (e *Enricher) FetchDetail(ctx context.Context, repo *domain.Repo) error {
	owner, name, err := splitFullName(repo.FullName)
	if err != nil {
		return err
	}

	detail, _, err := e.client.Repositories.Get(ctx, owner, name)
	if err != nil {
		return fmt.Errorf("获取仓库 %s 详情失败: %w", repo.FullName, err)
	}

	if len(detail.Topics) > 0 {
		repo.Topics = detail.Topics
	}
	if detail.GetFork() && detail.Parent != nil {
		repo.Parent = &domain.ParentRepo{
			Name:  detail.Parent.GetFullName(),
			URL:   detail.Parent.GetHTMLURL(),
			Stars: detail.Parent.GetStargazersCount(),
		}
	}
	return nil
}

// FetchContext 拉 README 摘录和文件列表，喂给生成器当上下文
// 两个请求各自失败各自认，拿到多少算多少，从不返回错误
func (e *Enricher) FetchContext(ctx context.Context, repo *domain.Repo) (*domain.Enrichment, error) {
	enrich := &domain.Enrichment{}

	owner, name, err := splitFullName(repo.FullName)
	if err != nil {
		log.Printf("⚠️ 无法解析仓库全名 %s: %v", repo.FullName, err)
		return enrich, nil
	}

	readme, _, err := e.client.Repositories.GetReadme(ctx, owner, name, nil)
	if err != nil {
		log.Printf("⚠️ 获取 %s 的 README 失败: %v", repo.FullName, err)
	} else if content, decErr := readme.GetContent(); decErr != nil {
		log.Printf("⚠️ 解码 %s 的 README 失败: %v", repo.FullName, decErr)
	} else {
		enrich.Readme = truncateRunes(content, maxReadmeRunes)
	}

	branch := repo.DefaultBranch
	if branch == "" {
		branch = "HEAD"
	}
	tree, _, err := e.client.Git.GetTree(ctx, owner, name, branch, true)
	if err != nil {
		log.Printf("⚠️ 获取 %s 的文件树失败: %v", repo.FullName, err)
	} else {
		enrich.Files = collectFiles(tree, maxTreeEntries)
	}

	return enrich, nil
}

// splitFullName 把 "owner/repo" 拆开
func splitFullName(fullName string) (string, string, error) {
	parts := strings.SplitN(fullName, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("仓库全名格式不正确: %q", fullName)
	}
	return parts[0], parts[1], nil
}

// collectFiles 从文件树里收集前 limit 个文件路径 (只要 blob，目录不算)
func collectFiles(tree *github.Tree, limit int) []string {
	var files []string
	for _, entry := range tree.Entries {
		if entry.GetType() != "blob" {
			continue
		}
		files = append(files, entry.GetPath())
		if len(files) >= limit {
			break
		}
	}
	return files
}

// truncateRunes 按字符数截断，避免把多字节字符剁一半
func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
