package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/yebeai/yebeai.github.io/internal/adapter/completion"
	"github.com/yebeai/yebeai.github.io/internal/adapter/fallback"
	"github.com/yebeai/yebeai.github.io/internal/adapter/feedstore"
	"github.com/yebeai/yebeai.github.io/internal/adapter/gemini"
	"github.com/yebeai/yebeai.github.io/internal/adapter/github"
	"github.com/yebeai/yebeai.github.io/internal/port"
	"github.com/yebeai/yebeai.github.io/internal/service"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
)

func main() {
	// .env 是可选的，本地开发用；CI 里直接注入环境变量
	_ = godotenv.Load()

	// 1. 命令行参数
	user := flag.String("user", "", "GitHub 用户名 (默认取 GITHUB_USERNAME)")
	output := flag.String("output", "", "feed 输出路径 (默认取 OUTPUT_FILE 或 data/repos.json)")
	batch := flag.Int("batch", service.DefaultBatchCap, "单次运行最多重新生成的仓库数")
	delay := flag.Duration("delay", service.DefaultDelay, "连续远程生成之间的间隔")
	cronSpec := flag.String("cron", "", "定时执行的 cron 表达式，空表示只执行一次")
	flag.Parse()

	username := *user
	if username == "" {
		username = os.Getenv("GITHUB_USERNAME")
	}
	if username == "" {
		log.Fatalln("❌ 缺少 GitHub 用户名，请用 -user 或 GITHUB_USERNAME 指定")
	}

	outputPath := *output
	if outputPath == "" {
		outputPath = os.Getenv("OUTPUT_FILE")
	}
	if outputPath == "" {
		outputPath = "data/repos.json"
	}

	// 2. 初始化组件
	// GITHUB_TOKEN 可选：没有就匿名拉清单，远程生成整体关闭
	token := os.Getenv("GITHUB_TOKEN")

	// 3. 单次 / 定时分流
	// 定时模式下每轮都重新组装服务：限流标记挂在生成器实例上，
	// 新一轮必须拿到全新的生成器，上一轮被限流的模型才会被重试
	if *cronSpec != "" {
		run := newRunner(func() feedRunner {
			return buildService(token, outputPath, *batch, *delay)
		}, username)
		runScheduled(*cronSpec, run)
		return
	}

	svc := buildService(token, outputPath, *batch, *delay)
	if err := svc.Run(context.Background(), username); err != nil {
		log.Fatalf("❌ feed 生成失败: %v", err)
	}
}

// feedRunner 一次完整的 feed 生成
type feedRunner interface {
	Run(ctx context.Context, user string) error
}

// newRunner 把"每轮新建服务再跑一遍"包成 cron 能用的闭包
// 单轮失败只记日志，不影响后续调度
func newRunner(newService func() feedRunner, username string) func() {
	return func() {
		if err := newService().Run(context.Background(), username); err != nil {
			log.Printf("❌ 本轮 feed 生成失败: %v", err)
		}
	}
}

// buildService 组装一次运行需要的全部组件
func buildService(token, outputPath string, batch int, delay time.Duration) *service.FeedService {
	lister := github.NewLister(token)
	enricher := github.NewEnricher(token)
	store := feedstore.NewJSONStore(outputPath)
	synth := fallback.NewSynthesizer()

	generator := pickGenerator(token)
	if generator == nil {
		fmt.Println("⚠️ 未配置远程模型，所有简介将使用本地模板")
	} else {
		fmt.Printf("🤖 远程生成后端: %s\n", generator.Name())
	}

	return service.NewFeedService(lister, enricher, generator, synth, store, batch, delay)
}

// pickGenerator 选择生成后端：优先 Gemini，其次 GitHub Models，都没有就返回 nil
func pickGenerator(token string) port.Generator {
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		g, err := gemini.NewGenerator(context.Background(), key)
		if err != nil {
			log.Printf("⚠️ Gemini 初始化失败: %v，尝试 GitHub Models", err)
		} else {
			return g
		}
	}
	if token != "" {
		return completion.NewGenerator(token)
	}
	return nil
}

// runScheduled 定时模式：按 cron 表达式反复执行，收到信号优雅退出
func runScheduled(spec string, run func()) {
	c := cron.New()
	if _, err := c.AddFunc(spec, run); err != nil {
		log.Fatalf("❌ cron 表达式不合法 %q: %v", spec, err)
	}

	fmt.Printf("⏰ 定时模式已启动: %s\n", spec)
	fmt.Println("按下 Ctrl+C 可以优雅停止程序")

	// 先立即执行一次，再交给调度器
	run()
	c.Start()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	fmt.Println("\n👋 收到停止信号，正在退出...")
	<-c.Stop().Done()
}
