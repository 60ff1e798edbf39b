package feedstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/yebeai/yebeai.github.io/internal/domain"
)

// JSONStore 实现了 port.FeedStore 接口
// feed 就是一个扁平 JSON 文件，站点构建时直接读它
type JSONStore struct {
	path string
}

// NewJSONStore 创建 feed 档案员
func NewJSONStore(path string) *JSONStore {
	return &JSONStore{path: path}
}

// Load 读取已有 feed 作为本次增量运行的基线
// 文件不存在等于第一次运行，返回空 Feed；文件损坏则报错，
// 宁可中止也不能把已合格的简介当成不存在重新生成
func (s *JSONStore) Load(ctx context.Context) (*domain.Feed, error) {
	raw, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return &domain.Feed{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("读取 feed 文件失败: %w", err)
	}

	var feed domain.Feed
	if err := json.Unmarshal(raw, &feed); err != nil {
		return nil, fmt.Errorf("解析 feed 文件失败: %w", err)
	}
	return &feed, nil
}

// Save 整体重写 feed 文档，一次运行只在结尾调一次
// 中途崩溃不会碰到旧文件
func (s *JSONStore) Save(ctx context.Context, feed *domain.Feed) error {
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("创建输出目录失败: %w", err)
		}
	}

	raw, err := json.MarshalIndent(feed, "", "  ")
	if err != nil {
		return fmt.Errorf("序列化 feed 失败: %w", err)
	}

	if err := os.WriteFile(s.path, raw, 0o644); err != nil {
		return fmt.Errorf("写入 feed 文件失败: %w", err)
	}
	return nil
}
