package domain

import (
	"strings"
	"time"
	"unicode/utf8"
)

// 仓库来源标签
const (
	TypeFork     = "fork"
	TypeOriginal = "original"
)

// 简介生成来源
const (
	SourceAI       = "ai"
	SourceFallback = "fallback"
)

// MinArticleLength 简介最短长度（按字符数算，中英文都公平）
// 不超过这个长度的内容一律视为不合格，下次运行会重新生成
const MinArticleLength = 60

// ParentRepo 上游仓库信息 (仅 fork 仓库有)
type ParentRepo struct {
	Name  string `json:"name"` // 例如 "gohugoio/hugo"
	URL   string `json:"url"`
	Stars int    `json:"stars"`
}

// Repo 代表一个要展示在站点上的仓库
type Repo struct {
	// 基础信息 (来自 GitHub)
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	FullName    string    `json:"fullName"` // 例如 "yebeai/awesome-tool"
	URL         string    `json:"url"`
	Description string    `json:"description"`
	Language    string    `json:"language"`
	Stars       int       `json:"stars"`
	Forks       int       `json:"forks"`
	Topics      []string  `json:"topics"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`

	// fork / original 标签，站点按这个分栏展示
	Type string `json:"type"`

	// 上游仓库 (仅 fork 有，详情接口补全)
	Parent *ParentRepo `json:"parent,omitempty"`

	// 默认分支，拉文件树时用，不输出到 feed
	DefaultBranch string `json:"-"`
}

// Article 挂在仓库上的一段人话简介
// Source 标记它是 AI 生成的还是本地模板兜底的
type Article struct {
	Content string `json:"content"`
	Source  string `json:"source,omitempty"`
}

// bannedPhrases 质量黑名单：AI 味太重的套话 + 兜底模板的特征句式
// 命中任何一条就认为这段简介不合格，排队重新生成
// 注意：兜底模板必须包含其中至少一条，否则兜底内容永远不会被替换掉
var bannedPhrases = []string{
	// 兜底模板特征
	"这是一个",
	"暂时还没有写描述",
	// 中文 AI 套话
	"赋能",
	"一站式",
	"强大而灵活",
	"不可多得",
	// 英文 AI 套话
	"delve into",
	"dive into",
	"cutting-edge",
	"seamlessly",
	"game-changing",
	"revolutionize",
	"in today's fast-paced",
	"comprehensive solution",
	"empowers developers",
	"unlock the power",
}

// BannedPhrases 返回黑名单的副本，生成 Prompt 时也要把它们列进禁用清单
func BannedPhrases() []string {
	out := make([]string, len(bannedPhrases))
	copy(out, bannedPhrases)
	return out
}

// IsAcceptable 判断一段简介是否合格：够长，且没踩黑名单
// 这是增量生成的唯一"游标"——合格的简介跨运行保留，不合格的排队重做
func (a *Article) IsAcceptable() bool {
	if a == nil {
		return false
	}
	content := strings.TrimSpace(a.Content)
	if utf8.RuneCountInString(content) <= MinArticleLength {
		return false
	}
	lower := strings.ToLower(content)
	for _, phrase := range bannedPhrases {
		if strings.Contains(lower, strings.ToLower(phrase)) {
			return false
		}
	}
	return true
}

// Enrichment 给生成器用的补充上下文 (README 摘录 + 文件列表)
// 拉取失败时各字段保持为空，生成照常进行
type Enrichment struct {
	Readme string
	Files  []string
}

// Entry feed 里的一条记录：仓库 + 简介
type Entry struct {
	Repo
	Article Article `json:"article"`
}

// Progress 一次运行的进度统计
type Progress struct {
	AIGenerated int  `json:"aiGenerated"`
	Fallback    int  `json:"fallback"`
	Pending     int  `json:"pending"`
	Complete    bool `json:"complete"`
}

// Feed 最终落盘的 JSON 文档，也是下次增量运行的基线
type Feed struct {
	LastUpdated time.Time `json:"lastUpdated"`
	GeneratedBy string    `json:"generatedBy"`
	Repos       []*Entry  `json:"repos"`
	Progress    *Progress `json:"progress,omitempty"`
}

// ComputeProgress 统计各来源的数量
// Pending 只统计完全没有简介的条目；兜底内容算 Fallback，
// 虽然它下次运行仍会被重新排队
func ComputeProgress(entries []*Entry) *Progress {
	p := &Progress{}
	for _, e := range entries {
		switch {
		case strings.TrimSpace(e.Article.Content) == "":
			p.Pending++
		case e.Article.Source == SourceFallback:
			p.Fallback++
		default:
			p.AIGenerated++
		}
	}
	p.Complete = p.Pending == 0
	return p
}
