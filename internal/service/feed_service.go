package service

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/yebeai/yebeai.github.io/internal/domain"
	"github.com/yebeai/yebeai.github.io/internal/port"
)

// DefaultBatchCap 单次运行最多重新生成的仓库数，控制外部调用量
const DefaultBatchCap = 5

// DefaultDelay 连续两次远程生成之间的固定间隔
const DefaultDelay = 2 * time.Second

// FeedService 处理 feed 生成逻辑
type FeedService struct {
	lister    port.Lister
	enricher  port.Enricher
	generator port.Generator // nil 表示远程生成被禁用，全部走模板
	synth     port.Synthesizer
	store     port.FeedStore

	batchCap int
	delay    time.Duration

	// 便于测试注入
	nowFunc   func() time.Time
	sleepFunc func(time.Duration)
}

// NewFeedService 创建 feed 生成服务
func NewFeedService(
	lister port.Lister,
	enricher port.Enricher,
	generator port.Generator,
	synth port.Synthesizer,
	store port.FeedStore,
	batchCap int,
	delay time.Duration,
) *FeedService {
	if batchCap <= 0 {
		batchCap = DefaultBatchCap
	}
	if delay <= 0 {
		delay = DefaultDelay
	}
	return &FeedService{
		lister:    lister,
		enricher:  enricher,
		generator: generator,
		synth:     synth,
		store:     store,
		batchCap:  batchCap,
		delay:     delay,
		nowFunc:   time.Now,
		sleepFunc: time.Sleep,
	}
}

// Run 执行一次完整的 feed 生成
// 全程单线程顺序执行：拉清单 → 读基线 → 增量决策 → 生成 → 合并落盘
// 只有拉清单和读写 feed 失败是致命的，其余都就地降级
func (s *FeedService) Run(ctx context.Context, user string) error {
	fmt.Printf("🚀 [feed 模式] 开始为 %s 生成仓库 feed...\n", user)

	// 1. 拉取仓库清单
	fmt.Println("📥 正在拉取仓库清单...")
	repos, err := s.lister.ListRepos(ctx, user)
	if err != nil {
		return fmt.Errorf("拉取仓库清单失败: %w", err)
	}
	fmt.Printf("✅ 过滤后共 %d 个仓库\n", len(repos))

	// 2. 读取上次的 feed 作为增量基线
	prev, err := s.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("读取已有 feed 失败: %w", err)
	}
	baseline := make(map[int64]*domain.Entry, len(prev.Repos))
	for _, entry := range prev.Repos {
		baseline[entry.ID] = entry
	}
	fmt.Printf("📂 基线里已有 %d 条记录\n", len(baseline))

	// 3. 逐仓库补全 topics / 上游元数据 (失败不致命)
	for _, repo := range repos {
		if err := s.enricher.FetchDetail(ctx, repo); err != nil {
			log.Printf("⚠️ %v，跳过补全", err)
		}
	}

	// 4. 增量决策：合格的简介原样保留，其余排队重做
	kept, queue, carried := s.splitByQuality(repos, baseline)
	fmt.Printf("🔍 保留 %d 条合格简介，%d 个仓库需要重新生成\n", len(kept), len(queue))

	// 5. 批次上限：完全没有简介的排前面，剩下的延期到下次运行
	sortQueue(queue, carried)
	batch := queue
	if len(batch) > s.batchCap {
		batch = queue[:s.batchCap]
	}
	deferred := queue[len(batch):]
	fmt.Printf("📋 本次处理 %d 个，延期 %d 个\n", len(batch), len(deferred))

	// 6. 生成简介
	entries := kept
	for _, repo := range batch {
		article := s.generateArticle(ctx, repo)
		entries = append(entries, &domain.Entry{Repo: *repo, Article: article})
		fmt.Printf("📝 %s 简介已生成 (来源: %s)\n", repo.FullName, article.Source)
	}

	// 延期的条目带着旧简介(可能为空)进 feed，下次运行会再排队
	for _, repo := range deferred {
		entries = append(entries, &domain.Entry{Repo: *repo, Article: carried[repo.ID]})
	}

	// 7. 合并落盘
	sortEntries(entries)
	progress := domain.ComputeProgress(entries)

	label := domain.SourceFallback
	if s.generator != nil {
		label = s.generator.Name()
	}
	feed := &domain.Feed{
		LastUpdated: s.nowFunc().UTC(),
		GeneratedBy: label,
		Repos:       entries,
		Progress:    progress,
	}
	if err := s.store.Save(ctx, feed); err != nil {
		return fmt.Errorf("写入 feed 失败: %w", err)
	}

	fmt.Printf("🎉 feed 已写入：AI %d / 模板 %d / 待生成 %d\n",
		progress.AIGenerated, progress.Fallback, progress.Pending)
	return nil
}

// splitByQuality 按质量判定拆分：合格的进 kept，其余进 queue
// carried 记录排队仓库携带的旧简介，延期时还要原样带回 feed
func (s *FeedService) splitByQuality(
	repos []*domain.Repo,
	baseline map[int64]*domain.Entry,
) (kept []*domain.Entry, queue []*domain.Repo, carried map[int64]domain.Article) {
	carried = make(map[int64]domain.Article)
	for _, repo := range repos {
		old, ok := baseline[repo.ID]
		if ok && old.Article.IsAcceptable() {
			// 简介原样保留，元数据用这次拉到的新值
			kept = append(kept, &domain.Entry{Repo: *repo, Article: old.Article})
			continue
		}
		queue = append(queue, repo)
		if ok {
			carried[repo.ID] = old.Article
		}
	}
	return kept, queue, carried
}

// sortQueue 把完全没有简介的仓库排到队首
// 这样无论批次上限多小，新仓库总是先拿到内容，兜底内容的重做往后放
func sortQueue(queue []*domain.Repo, carried map[int64]domain.Article) {
	missing := func(repo *domain.Repo) bool {
		return strings.TrimSpace(carried[repo.ID].Content) == ""
	}
	sort.SliceStable(queue, func(i, j int) bool {
		return missing(queue[i]) && !missing(queue[j])
	})
}

// generateArticle 为单个仓库生成简介：先远程，不行就本地模板
func (s *FeedService) generateArticle(ctx context.Context, repo *domain.Repo) domain.Article {
	if s.generator != nil {
		enrich, err := s.enricher.FetchContext(ctx, repo)
		if err != nil {
			log.Printf("⚠️ 获取 %s 的生成上下文失败: %v", repo.FullName, err)
			enrich = nil
		}

		content, err := s.generator.Generate(ctx, repo, enrich)
		// 远程调用之间固定间隔，给外部限流留余地
		s.sleepFunc(s.delay)

		if err != nil {
			log.Printf("❌ 生成 %s 的简介失败: %v，改用本地模板", repo.FullName, err)
		}
		if content != "" {
			return domain.Article{Content: content, Source: domain.SourceAI}
		}
	}

	return domain.Article{
		Content: s.synth.Render(repo),
		Source:  domain.SourceFallback,
	}
}

// sortEntries 按更新时间倒序，和站点展示顺序一致
func sortEntries(entries []*domain.Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].UpdatedAt.After(entries[j].UpdatedAt)
	})
}
