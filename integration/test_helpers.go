package integration

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/qiyun-labs/realityconf/pkg/realityconf"
)

// writeTempFile 写入临时文件并返回路径（用于端到端场景）。
func writeTempFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

// mustParseDocument 解析引擎配置 JSON，失败直接终止测试。
func mustParseDocument(t *testing.T, raw string) *realityconf.Document {
	t.Helper()
	doc, err := realityconf.ParseDocument([]byte(raw))
	if err != nil {
		t.Fatalf("parse document: %v", err)
	}
	return doc
}

// fileExists reports whether path exists at all.
func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
