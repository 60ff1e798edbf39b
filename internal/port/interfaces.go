package port

import (
	"context"

	"github.com/yebeai/yebeai.github.io/internal/domain"
)

// Lister (清单员): 负责从 GitHub 拉取账号下的全部仓库
// 返回的列表已经过滤掉归档仓库和站点仓库，并按更新时间倒序
type Lister interface {
	ListRepos(ctx context.Context, user string) ([]*domain.Repo, error)
}

// Enricher (补全员): 负责逐仓库的二次请求
// 这些请求失败都不致命，调用方记日志后继续
type Enricher interface {
	// FetchDetail 补全 topics 和上游 fork 元数据 (就地修改 repo)
	FetchDetail(ctx context.Context, repo *domain.Repo) error

	// FetchContext 拉取 README 摘录和文件列表，供生成 Prompt 使用
	// 局部失败时对应字段为空，不返回错误
	FetchContext(ctx context.Context, repo *domain.Repo) (*domain.Enrichment, error)
}

// Generator (写手): 负责调用远程模型生成仓库简介
// 返回空字符串表示这次生成不可用 (限流耗尽/质量不过关)，调用方回退到本地模板
type Generator interface {
	Generate(ctx context.Context, repo *domain.Repo, enrich *domain.Enrichment) (string, error)

	// Name 生成来源标签，写进 feed 的 generatedBy 字段
	Name() string
}

// Synthesizer (兜底写手): 本地模板合成简介，永不失败
// 远程生成不可用、被禁用或结果不合格时用它
type Synthesizer interface {
	Render(repo *domain.Repo) string
}

// FeedStore (档案员): 负责 feed 文档的读写
// feed 文件既是本次输出，也是下次增量运行的基线
type FeedStore interface {
	// Load 读取已有 feed；文件不存在时返回空 Feed，不算错误
	Load(ctx context.Context) (*domain.Feed, error)

	// Save 整体重写 feed 文档 (一次运行只在结尾写一次)
	Save(ctx context.Context, feed *domain.Feed) error
}
