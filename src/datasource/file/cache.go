package file

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"OlistInsight/src/processor"
)

// SnapshotCache 进程内缓存原始表，键为数据文件指纹
// 文件名、大小、修改时间任一变化即重新加载；Invalidate 可强制失效
type SnapshotCache struct {
	root   string
	loader func(string) (processor.Tables, error)

	mu          sync.Mutex
	fingerprint string
	tables      *processor.Tables
	loads       int
}

// NewSnapshotCache 缓存 root 下的原始CSV
func NewSnapshotCache(root string) *SnapshotCache {
	return &SnapshotCache{root: root, loader: LoadRaw}
}

// Get 返回快照的拷贝，第二个返回值表示是否命中缓存
func (c *SnapshotCache) Get() (processor.Tables, bool, error) {
	fp, err := Fingerprint(c.root)
	if err != nil {
		return processor.Tables{}, false, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.tables != nil && c.fingerprint == fp {
		return c.tables.Copy(), true, nil
	}

	tables, err := c.loader(c.root)
	if err != nil {
		return processor.Tables{}, false, err
	}
	c.tables = &tables
	c.fingerprint = fp
	c.loads++
	return tables.Copy(), false, nil
}

// Invalidate 丢弃快照，下次 Get 重新读取
func (c *SnapshotCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tables = nil
	c.fingerprint = ""
}

// Loads 实际读盘次数
func (c *SnapshotCache) Loads() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loads
}

// Fingerprint 九个原始文件的 名称|大小|修改时间 的 md5
func Fingerprint(root string) (string, error) {
	h := md5.New()
	for _, path := range RawPaths(root) {
		info, err := os.Stat(path)
		if err != nil {
			return "", fmt.Errorf("数据文件 %s 不可用: %w", path, err)
		}
		fmt.Fprintf(h, "%s|%d|%d\n", filepath.Base(path), info.Size(), info.ModTime().UnixNano())
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
