package repository

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"unifier_dev_v1_202608/pkg/utils"
)

// ErrCacheIO 记忆表读写失败
// 该错误永远不致命：解析流程在无缓存状态下继续
var ErrCacheIO = errors.New("memory table io error")

// ==================== 记忆表 ====================

// memoryTable 单个 (属性, 语言) 的键值表
type memoryTable struct {
	entries   map[string]string // 原始键 -> 值
	normIndex map[string]string // 规范化键 -> 原始键
	order     []string          // 写入顺序，保证落盘稳定
	loaded    bool
}

func newMemoryTable() *memoryTable {
	return &memoryTable{
		entries:   make(map[string]string),
		normIndex: make(map[string]string),
	}
}

func (t *memoryTable) put(rawKey, value string) {
	if _, ok := t.entries[rawKey]; !ok {
		t.order = append(t.order, rawKey)
	}
	t.entries[rawKey] = value
	t.normIndex[utils.NormalizeKey(rawKey)] = rawKey
}

// ==================== 记忆库 ====================

// MemoryRepo 记忆库：每个 (属性, 语言) 一个 CSV 键值表文件
// 单写入者设计，不支持并发写
type MemoryRepo struct {
	dir    string
	log    *zap.SugaredLogger
	tables map[string]*memoryTable
}

// NewMemoryRepo 创建记忆库
func NewMemoryRepo(dir string, log *zap.SugaredLogger) *MemoryRepo {
	return &MemoryRepo{
		dir:    dir,
		log:    log,
		tables: make(map[string]*memoryTable),
	}
}

// TableName 表命名：语言相关的表带 "_<LANG>" 后缀
func TableName(attribute, language string) string {
	if language == "" {
		return attribute
	}
	return fmt.Sprintf("%s_%s", attribute, strings.ToUpper(language))
}

func (r *MemoryRepo) filePath(name string) string {
	return filepath.Join(r.dir, name+".csv")
}

// table 惰性加载表；文件缺失视为空表，文件损坏记警告后同样视为空表
func (r *MemoryRepo) table(name string) *memoryTable {
	if t, ok := r.tables[name]; ok {
		return t
	}
	t := newMemoryTable()
	r.tables[name] = t

	f, err := os.Open(r.filePath(name))
	if err != nil {
		if !os.IsNotExist(err) {
			r.log.Warnw("记忆表无法读取，按空表处理", "table", name, "err", err)
		}
		t.loaded = true
		return t
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	first := true
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			r.log.Warnw("记忆表行解析失败，跳过剩余内容", "table", name, "err", err)
			break
		}
		if first {
			first = false
			// 表头行 KEY,VALUE
			if len(row) >= 1 && strings.EqualFold(row[0], "KEY") {
				continue
			}
		}
		if len(row) >= 2 {
			t.put(row[0], row[1])
		}
	}
	t.loaded = true
	return t
}

// Lookup 精确查找
func (r *MemoryRepo) Lookup(attribute, language, rawKey string) (string, bool) {
	t := r.table(TableName(attribute, language))
	v, ok := t.entries[rawKey]
	return v, ok
}

// LookupNormalized 规范化查找
// 命中时把精确原始键也写进表 (加宽缓存)，后续同键查找退化为 O(1) 精确命中
func (r *MemoryRepo) LookupNormalized(attribute, language, rawKey string) (string, bool) {
	t := r.table(TableName(attribute, language))
	storedKey, ok := t.normIndex[utils.NormalizeKey(rawKey)]
	if !ok {
		return "", false
	}
	value := t.entries[storedKey]
	if storedKey != rawKey {
		if err := r.Store(attribute, language, rawKey, value); err != nil {
			r.log.Warnw("缓存加宽写入失败", "attribute", attribute, "key", rawKey, "err", err)
		}
	}
	return value, true
}

// Store 写入一条确认过的解析结果
// 读-改-写；每次落盘前把旧文件复制为带时间戳的备份
// 落盘失败返回 ErrCacheIO (非致命)，条目保留在内存中供本次运行使用
func (r *MemoryRepo) Store(attribute, language, rawKey, value string) error {
	name := TableName(attribute, language)
	t := r.table(name)
	t.put(rawKey, value)
	if err := r.persist(name, t); err != nil {
		r.log.Warnw("记忆表写入失败，本条解析不落盘", "table", name, "key", rawKey, "err", err)
		return fmt.Errorf("%w: %v", ErrCacheIO, err)
	}
	return nil
}

func (r *MemoryRepo) persist(name string, t *memoryTable) error {
	path := r.filePath(name)
	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return err
	}

	// 旧文件备份
	if _, err := os.Stat(path); err == nil {
		backup := fmt.Sprintf("%s.%s.csv_old", path, time.Now().Format("2006-01-02_15-04-05"))
		if data, err := os.ReadFile(path); err == nil {
			if err := os.WriteFile(backup, data, 0o644); err != nil {
				r.log.Warnw("记忆表备份失败", "table", name, "err", err)
			}
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"KEY", "VALUE"}); err != nil {
		return err
	}
	for _, key := range t.order {
		if err := w.Write([]string{key, t.entries[key]}); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// Keys 返回表内全部原始键 (写入顺序)，模糊匹配候选来源
func (r *MemoryRepo) Keys(attribute, language string) []string {
	t := r.table(TableName(attribute, language))
	keys := make([]string, len(t.order))
	copy(keys, t.order)
	return keys
}

// Values 返回表内全部值 (写入顺序，去重)，启发式词表来源
func (r *MemoryRepo) Values(attribute, language string) []string {
	t := r.table(TableName(attribute, language))
	seen := make(map[string]struct{}, len(t.order))
	values := make([]string, 0, len(t.order))
	for _, key := range t.order {
		v := t.entries[key]
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		values = append(values, v)
	}
	return values
}

// Snapshot 返回表内容的拷贝
func (r *MemoryRepo) Snapshot(attribute, language string) map[string]string {
	t := r.table(TableName(attribute, language))
	out := make(map[string]string, len(t.entries))
	for k, v := range t.entries {
		out[k] = v
	}
	return out
}

// LoadLines 读取纯文本列表文件 (如类目主列表)，每行一条，空行忽略
func (r *MemoryRepo) LoadLines(name string) []string {
	data, err := os.ReadFile(filepath.Join(r.dir, name))
	if err != nil {
		if !os.IsNotExist(err) {
			r.log.Warnw("列表文件无法读取", "file", name, "err", err)
		}
		return nil
	}
	var lines []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}
