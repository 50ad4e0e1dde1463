package service

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"unifier_dev_v1_202608/internal/model"
)

// ==================== 输入读取 ====================

// 输入 CSV 的固定七列
var sourceHeader = []string{
	"Name", "Short Description", "Description",
	"Main Photo Filepath", "Gallery Filepaths", "Variants", "URL",
}

// SourceService 抓取脚本输出文件的读取
// 无名称的行直接跳过；坏的变体 JSON 记日志后跳过该变体，绝不让整次运行失败
type SourceService struct {
	log *zap.SugaredLogger
}

// NewSourceService 创建输入读取服务
func NewSourceService(log *zap.SugaredLogger) *SourceService {
	return &SourceService{log: log}
}

// LoadFile 读取一个输入 CSV 文件
func (s *SourceService) LoadFile(path string) ([]*model.SourceProduct, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("输入文件无法打开: %w", err)
	}
	defer f.Close()
	return s.Load(f, path)
}

// Load 从 reader 读取输入行
// name 仅用于日志定位
func (s *SourceService) Load(r io.Reader, name string) ([]*model.SourceProduct, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	var products []*model.SourceProduct
	line := 0
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("输入 CSV 解析失败 (%s 第 %d 行): %w", name, line+1, err)
		}
		line++

		// 表头行
		if line == 1 && len(row) > 0 && strings.EqualFold(strings.TrimSpace(row[0]), sourceHeader[0]) {
			continue
		}
		if len(row) < len(sourceHeader) {
			s.log.Warnw("输入行列数不足，跳过", "file", name, "line", line, "columns", len(row))
			continue
		}

		product := &model.SourceProduct{
			Name:              strings.TrimSpace(row[0]),
			ShortDescription:  row[1],
			Description:       row[2],
			MainPhotoFilepath: row[3],
			GalleryFilepaths:  row[4],
			URL:               strings.TrimSpace(row[6]),
		}
		if product.Name == "" {
			s.log.Debugw("无名称输入行，跳过", "file", name, "line", line)
			continue
		}
		product.Variants = s.parseVariants(row[5], name, line)
		products = append(products, product)
	}

	s.log.Infow("输入文件读取完成", "file", name, "products", len(products))
	return products, nil
}

// parseVariants 管道符分隔的 JSON 对象串
// 单个坏对象只丢该变体
func (s *SourceService) parseVariants(field, file string, line int) []model.SourceVariant {
	field = strings.TrimSpace(field)
	if field == "" {
		return nil
	}
	var variants []model.SourceVariant
	for _, raw := range strings.Split(field, "|") {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		variant, err := parseVariant(raw)
		if err != nil {
			s.log.Warnw("变体 JSON 无法解析，跳过该变体", "file", file, "line", line, "err", err)
			continue
		}
		variants = append(variants, variant)
	}
	return variants
}

// parseVariant 解析单个变体对象
// key_value_pairs 用 token 流读取，保持来源里的键顺序
func parseVariant(raw string) (model.SourceVariant, error) {
	var variant model.SourceVariant

	dec := json.NewDecoder(strings.NewReader(raw))
	tok, err := dec.Token()
	if err != nil {
		return variant, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return variant, fmt.Errorf("变体不是 JSON 对象")
	}

	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return variant, err
		}
		key, _ := keyTok.(string)

		switch key {
		case "key_value_pairs":
			pairs, err := parseOrderedPairs(dec)
			if err != nil {
				return variant, err
			}
			variant.Attributes = pairs
		case "current_price":
			price, err := decodeNumber(dec)
			if err != nil {
				return variant, err
			}
			variant.CurrentPrice = price
		case "basic_price":
			price, err := decodeNumber(dec)
			if err != nil {
				return variant, err
			}
			variant.BasicPrice = price
		case "stock_status":
			var status string
			if err := dec.Decode(&status); err != nil {
				return variant, err
			}
			variant.StockStatus = strings.TrimSpace(status)
		default:
			// 未知键的值整体跳过
			var skip json.RawMessage
			if err := dec.Decode(&skip); err != nil {
				return variant, err
			}
		}
	}
	return variant, nil
}

// parseOrderedPairs 按出现顺序读 key_value_pairs 对象
func parseOrderedPairs(dec *json.Decoder) ([]model.AttributePair, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		// null 等价于空对象
		return nil, nil
	}

	var pairs []model.AttributePair
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, _ := keyTok.(string)
		var value string
		if err := dec.Decode(&value); err != nil {
			return nil, err
		}
		pairs = append(pairs, model.AttributePair{
			Name:  strings.TrimSpace(key),
			Value: strings.TrimSpace(value),
		})
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return pairs, nil
}

// decodeNumber 价格字段兼容数字和带引号的数字字符串
func decodeNumber(dec *json.Decoder) (float64, error) {
	var raw json.RawMessage
	if err := dec.Decode(&raw); err != nil {
		return 0, err
	}
	text := strings.Trim(strings.TrimSpace(string(raw)), `"`)
	if text == "" || text == "null" {
		return 0, nil
	}
	// 逗号小数点的来源价格
	text = strings.ReplaceAll(text, ",", ".")
	value, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return 0, fmt.Errorf("价格无法解析: %q", text)
	}
	return value, nil
}
