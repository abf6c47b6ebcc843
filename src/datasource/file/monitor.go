package file

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
)

// 需要关注的文件事件
const watchOps = fsnotify.Write | fsnotify.Create | fsnotify.Remove | fsnotify.Rename

// FileMonitor 监控原始数据目录，CSV 变化时回调
type FileMonitor struct {
	watchDir string
	watcher  *fsnotify.Watcher
}

func NewFileMonitor(dir string) (*FileMonitor, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return nil, err
	}

	return &FileMonitor{
		watchDir: dir,
		watcher:  watcher,
	}, nil
}

// Watch 阻塞直到 ctx 结束或监控出错；每个 .csv 事件调用一次 handler
func (m *FileMonitor) Watch(ctx context.Context, handler func(string)) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-m.watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&watchOps == 0 {
				continue
			}
			if !strings.EqualFold(filepath.Ext(event.Name), ".csv") {
				continue
			}
			handler(event.Name)
		case err, ok := <-m.watcher.Errors:
			if !ok {
				return nil
			}
			return err
		}
	}
}

// InvalidateOnChange 文件变化时使缓存失效
func (m *FileMonitor) InvalidateOnChange(ctx context.Context, cache *SnapshotCache, onChange func(string)) error {
	return m.Watch(ctx, func(name string) {
		cache.Invalidate()
		if onChange != nil {
			onChange(name)
		}
	})
}

func (m *FileMonitor) Close() error {
	return m.watcher.Close()
}
