package fallback

import (
	"fmt"
	"math/rand"
	"strings"

	"github.com/yebeai/yebeai.github.io/internal/domain"
)

// templates 兜底模板集合，随机挑一个用
// 每个模板都以"这是一个"开头——这句在质量黑名单里，
// 保证兜底内容在远程模型恢复后会被重新生成
var templates = []string{
	"这是一个用 %[1]s 编写的开源项目 %[2]s。%[3]s感兴趣的话可以去仓库里翻翻源码。",
	"这是一个名叫 %[2]s 的仓库，主要语言是 %[1]s。%[3]s具体细节请移步项目主页。",
	"这是一个 %[1]s 项目：%[2]s。%[3]s更多内容等 AI 简介生成后再补充。",
}

// fork 仓库专用模板，把上游带出来
var forkTemplates = []string{
	"这是一个从 %[4]s fork 出来的仓库，主要语言是 %[1]s。%[3]s改动细节可以对比上游查看。",
	"这是一个 %[2]s 的 fork 副本 (上游: %[4]s)。%[3]s想了解原版请访问上游仓库。",
}

// Synthesizer 本地模板兜底生成器
// pick 可注入，测试里固定随机数
type Synthesizer struct {
	pick func(n int) int
}

// NewSynthesizer 创建兜底生成器
func NewSynthesizer() *Synthesizer {
	return &Synthesizer{pick: rand.Intn}
}

// Render 用模板合成一段简介，除了模板选择是随机的，其余完全确定
func (s *Synthesizer) Render(repo *domain.Repo) string {
	lang := repo.Language
	if lang == "" {
		lang = "多种语言"
	}

	desc := strings.TrimSpace(repo.Description)
	if desc == "" {
		desc = "作者暂时还没有写描述。"
	} else if !strings.HasSuffix(desc, "。") && !strings.HasSuffix(desc, ".") && !strings.HasSuffix(desc, "!") {
		desc += "。"
	}

	if repo.Type == domain.TypeFork && repo.Parent != nil {
		tpl := forkTemplates[s.pick(len(forkTemplates))]
		return fmt.Sprintf(tpl, lang, repo.Name, desc, repo.Parent.Name)
	}

	tpl := templates[s.pick(len(templates))]
	return fmt.Sprintf(tpl, lang, repo.Name, desc)
}
