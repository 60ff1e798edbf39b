package github

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/yebeai/yebeai.github.io/internal/domain"

	"github.com/google/go-github/v53/github"
	"golang.org/x/oauth2"
)

// 每页条数，返回不足一页说明翻到底了
const pageSize = 100

// 站点仓库命名特征，feed 不收录站点自己
const sitePattern = ".github.io"

// newClient 初始化 GitHub 客户端
// token 为空就是匿名访问 (限制 60次/小时)，列仓库够用
func newClient(token string) *github.Client {
	if token == "" {
		return github.NewClient(nil)
	}
	ctx := context.Background()
	ts := oauth2.StaticTokenSource(
		&oauth2.Token{AccessToken: token},
	)
	tc := oauth2.NewClient(ctx, ts)
	return github.NewClient(tc)
}

// Lister 实现了 port.Lister 接口
type Lister struct {
	client *github.Client
}

// NewLister 初始化仓库清单员
func NewLister(token string) *Lister {
	return &Lister{client: newClient(token)}
}

// ListRepos 分页拉取账号下全部仓库，过滤、打标签、按更新时间倒序
// 列表接口失败是致命的：没有完整清单，这次运行没法做增量决策
func (l *Lister) ListRepos(ctx context.Context, user string) ([]*domain.Repo, error) {
	opts := &github.RepositoryListOptions{
		Type: "owner",
		ListOptions: github.ListOptions{
			PerPage: pageSize,
			Page:    1,
		},
	}

	var items []*github.Repository
	for {
		page, _, err := l.client.Repositories.List(ctx, user, opts)
		if err != nil {
			return nil, fmt.Errorf("GitHub API 调用失败: %w", err)
		}
		items = append(items, page...)

		// 不足一页就是最后一页
		if len(page) < pageSize {
			break
		}
		opts.Page++
	}

	repos := convertAndFilter(items)
	sortByUpdated(repos)
	return repos, nil
}

// convertAndFilter 把 GitHub 的数据结构转换为 Domain 实体 (DTO 转换)
// 同时剔除归档仓库和站点仓库
func convertAndFilter(items []*github.Repository) []*domain.Repo {
	repos := make([]*domain.Repo, 0, len(items))
	for _, item := range items {
		if item.GetArchived() {
			continue
		}
		if strings.Contains(strings.ToLower(item.GetName()), sitePattern) {
			continue
		}
		repos = append(repos, convertRepo(item))
	}
	return repos
}

// convertRepo 单个仓库的 DTO 转换
func convertRepo(item *github.Repository) *domain.Repo {
	repoType := domain.TypeOriginal
	if item.GetFork() {
		repoType = domain.TypeFork
	}

	return &domain.Repo{
		ID:            item.GetID(),
		Name:          item.GetName(),
		FullName:      item.GetFullName(),
		URL:           item.GetHTMLURL(),
		Description:   item.GetDescription(),
		Language:      item.GetLanguage(),
		Stars:         item.GetStargazersCount(),
		Forks:         item.GetForksCount(),
		Topics:        item.Topics,
		CreatedAt:     item.GetCreatedAt().Time,
		UpdatedAt:     item.GetUpdatedAt().Time,
		Type:          repoType,
		DefaultBranch: item.GetDefaultBranch(),
	}
}

// sortByUpdated 按最近更新时间倒序，站点上新鲜的排前面
func sortByUpdated(repos []*domain.Repo) {
	sort.SliceStable(repos, func(i, j int) bool {
		return repos[i].UpdatedAt.After(repos[j].UpdatedAt)
	})
}
