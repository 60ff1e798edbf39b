package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/yebeai/yebeai.github.io/internal/adapter/feedstore"
	"github.com/yebeai/yebeai.github.io/internal/adapter/github"

	"github.com/joho/godotenv"
)

// 调试入口：只拉清单、读基线、打印增量决策，不生成也不写文件
func main() {
	_ = godotenv.Load()

	username := os.Getenv("GITHUB_USERNAME")
	if username == "" {
		log.Fatalln("❌ 请设置 GITHUB_USERNAME")
	}
	outputPath := os.Getenv("OUTPUT_FILE")
	if outputPath == "" {
		outputPath = "data/repos.json"
	}
	token := os.Getenv("GITHUB_TOKEN")

	ctx := context.Background()
	lister := github.NewLister(token)
	enricher := github.NewEnricher(token)
	store := feedstore.NewJSONStore(outputPath)

	fmt.Println("🔍 调试模式：预览本次运行会做什么")

	// 1. 拉清单
	fmt.Printf("📥 正在拉取 %s 的仓库清单...\n", username)
	repos, err := lister.ListRepos(ctx, username)
	if err != nil {
		log.Fatalf("❌ 拉取仓库清单失败: %v", err)
	}
	fmt.Printf("✅ 过滤后共 %d 个仓库\n", len(repos))

	// 2. 读基线
	feed, err := store.Load(ctx)
	if err != nil {
		log.Fatalf("❌ 读取已有 feed 失败: %v", err)
	}
	fmt.Printf("📂 基线里已有 %d 条记录\n", len(feed.Repos))

	baseline := make(map[int64]string, len(feed.Repos))
	for _, entry := range feed.Repos {
		decision := "排队重做"
		if entry.Article.IsAcceptable() {
			decision = "保留"
		} else if entry.Article.Content == "" {
			decision = "排队生成"
		}
		baseline[entry.ID] = decision
	}

	// 3. 逐仓库打印决策，前几个顺便验一下详情接口
	for i, repo := range repos {
		if i < 3 {
			if err := enricher.FetchDetail(ctx, repo); err != nil {
				log.Printf("⚠️ %v", err)
			}
		}

		decision, ok := baseline[repo.ID]
		if !ok {
			decision = "排队生成 (新仓库)"
		}
		fmt.Printf("  [%s] %s ⭐%d (%s) → %s\n",
			repo.Type, repo.FullName, repo.Stars, repo.Language, decision)
		if repo.Parent != nil {
			fmt.Printf("      上游: %s ⭐%d\n", repo.Parent.Name, repo.Parent.Stars)
		}
	}
}
