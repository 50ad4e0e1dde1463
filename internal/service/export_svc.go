package service

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"unifier_dev_v1_202608/internal/model"
	"unifier_dev_v1_202608/internal/repository"
)

// ==================== 导出映射 ====================

// ExportService 规范商品 -> 固定 96 列导出行
// 纯映射：1 个主行 + 每变体 1 行；列顺序由 model.ExportHeader 固定
// DefaultExportProductValues 表可覆盖主行的个别缺省值
type ExportService struct {
	memory  *repository.MemoryRepo
	vatRate float64
	log     *zap.SugaredLogger
}

// NewExportService 创建导出映射服务
// vatRate 已由配置层校验过 (0,1)
func NewExportService(memory *repository.MemoryRepo, vatRate float64, log *zap.SugaredLogger) *ExportService {
	return &ExportService{memory: memory, vatRate: vatRate, log: log}
}

// ComputePrices 从变体列表价推导 (不含税价, 含税价)
// 取 >0 的 basic_price 最大值；无有效价时两者都是 "0"
func (s *ExportService) ComputePrices(variants []model.CanonicalVariant) (string, string) {
	var max float64
	for _, v := range variants {
		if v.BasicPrice > max {
			max = v.BasicPrice
		}
	}
	if max <= 0 {
		return "0", "0"
	}
	withoutVat := max / (1 + s.vatRate)
	return fmt.Sprintf("%.2f", withoutVat), fmt.Sprintf("%.2f", max)
}

// MapProduct 映射为导出行：首行主商品，其后每变体一行
func (s *ExportService) MapProduct(p *model.CanonicalProduct) []*model.ExportRecord {
	records := make([]*model.ExportRecord, 0, 1+len(p.Variants))
	records = append(records, s.mainRecord(p))
	for i := range p.Variants {
		records = append(records, s.variantRecord(p, &p.Variants[i], i+1))
	}
	return records
}

// mainRecord 主商品行
func (s *ExportService) mainRecord(p *model.CanonicalProduct) *model.ExportRecord {
	hasVariants := len(p.Variants) > 0

	// 有变体时库存三列交给变体行，无变体时锁死为 0
	stockField := "0"
	if hasVariants {
		stockField = model.InheritSentinel
	}

	// 有价商品才上架
	zobrazit := "0"
	if p.Price != "" && p.Price != "0" {
		zobrazit = "1"
	}

	// 自有品牌不对外标注生产商
	vyrobce := p.Brand
	if IsHouseBrand(p.Brand) {
		vyrobce = ""
	}

	variantCodes := make([]string, 0, len(p.Variants))
	for _, v := range p.Variants {
		variantCodes = append(variantCodes, v.Code)
	}

	zboziLabels := splitKeywords(p.ZboziKeywords, 2)
	googleLabels := splitKeywords(p.GoogleKeywords, 5)

	r := &model.ExportRecord{
		Typ:        "produkt",
		VariantaID: model.InheritSentinel,

		Varianta1Nazev:   model.InheritSentinel,
		Varianta1Hodnota: model.InheritSentinel,
		Varianta2Nazev:   model.InheritSentinel,
		Varianta2Hodnota: model.InheritSentinel,
		Varianta3Nazev:   model.InheritSentinel,
		Varianta3Hodnota: model.InheritSentinel,
		VariantaStejne:   model.InheritSentinel,

		Zobrazit: zobrazit,
		Archiv:   "0",

		Kod:     p.Code,
		Nazev:   p.Name,
		Vyrobce: vyrobce,

		Cena:      p.Price,
		CenaBezna: p.PriceStandard,
		Dph:       "21",

		Popis:        p.Desc,
		PopisStrucny: p.ShortDesc,

		Kosik:          "1",
		Home:           "0",
		Dostupnost:     stockField,
		DopravaZdarma:  "0",
		DodaciDoba:     model.InheritSentinel,
		DodaciDobaAuto: "1",
		Sklad:          stockField,
		NaSklade:       stockField,

		Jednotka: "ks",
		OdberPo:  "1",
		OdberMin: "1",
		Pocet:    "1",

		Eroticke:        "0",
		ProDospele:      "0",
		SlevovyKupon:    "1",
		DarekObjednavka: "1",
		Priorita:        "0",

		Stitky:      p.ZboziKeywords,
		KategorieID: p.CategoryIDs,
		Variantove:  strings.Join(variantCodes, ","),

		ZboziczSkryt:       "0",
		ZboziczProductname: p.Name,
		ZboziczProduct:     p.Name,
		ZboziczCpc:         "5",
		ZboziczCpcSearch:   "5",
		ZboziczKategorie:   p.ZboziCategory,
		ZboziczStitek0:     zboziLabels[0],
		ZboziczStitek1:     zboziLabels[1],

		HeurekaczSkryt:       "0",
		HeurekaczProductname: p.Name,
		HeurekaczProduct:     p.Name,
		HeurekaczCpc:         "1",
		HeurekaczKategorie:   p.HeurekaCategory,

		GoogleSkryt:     "0",
		GoogleKategorie: p.GoogleCategory,
		GoogleStitek0:   googleLabels[0],
		GoogleStitek1:   googleLabels[1],
		GoogleStitek2:   googleLabels[2],
		GoogleStitek3:   googleLabels[3],
		GoogleStitek4:   googleLabels[4],

		GlamiSkryt:     "0",
		GlamiKategorie: p.GlamiCategory,
		GlamiCpc:       "1",

		SkladUmisteni:  model.InheritSentinel,
		SkladMinimalni: model.InheritSentinel,
		SkladOptimalni: model.InheritSentinel,
		SkladMaximalni: model.InheritSentinel,
	}

	s.applyDefaults(r, false)
	return r
}

// variantRecord 变体行
// "#" 一律表示继承主商品，导出侧原样保留
func (s *ExportService) variantRecord(p *model.CanonicalProduct, v *model.CanonicalVariant, index int) *model.ExportRecord {
	code := v.Code
	if code == "" {
		code = fmt.Sprintf("%s-V%02d", p.Code, index)
	}

	vyrobce := p.Brand
	if IsHouseBrand(p.Brand) {
		vyrobce = ""
	}

	dostupnost := "-"
	if v.StockStatus != "" {
		dostupnost = v.StockStatus
	}

	r := &model.ExportRecord{
		Typ: "varianta",

		VariantaStejne: "1",
		Zobrazit:       model.InheritSentinel,
		Archiv:         "0",

		Kod:     code,
		Isbn:    model.InheritSentinel,
		Nazev:   p.Name,
		Vyrobce: vyrobce,

		Cena:      fmt.Sprintf("%.2f", v.CurrentPrice),
		CenaBezna: fmt.Sprintf("%.2f", v.BasicPrice),
		Dph:       "21",

		Popis:        p.Desc,
		PopisStrucny: p.ShortDesc,

		Kosik:          model.InheritSentinel,
		Home:           model.InheritSentinel,
		Dostupnost:     dostupnost,
		DopravaZdarma:  "0",
		DodaciDoba:     " ",
		DodaciDobaAuto: "0",
		Sklad:          "0",
		NaSklade:       "0",

		Jednotka: model.InheritSentinel,
		OdberPo:  model.InheritSentinel,
		OdberMin: model.InheritSentinel,
		Pocet:    model.InheritSentinel,

		Eroticke:        "0",
		ProDospele:      "0",
		SlevovyKupon:    "1",
		DarekObjednavka: "1",
		Priorita:        "0",

		Stitky:      model.InheritSentinel,
		KategorieID: model.InheritSentinel,
		Variantove:  model.InheritSentinel,

		ZboziczSkryt:       "0",
		ZboziczProductname: model.InheritSentinel,
		ZboziczProduct:     model.InheritSentinel,
		ZboziczCpc:         "5",
		ZboziczCpcSearch:   "5",
		ZboziczKategorie:   model.InheritSentinel,
		ZboziczStitek0:     model.InheritSentinel,
		ZboziczStitek1:     model.InheritSentinel,

		HeurekaczSkryt:       "0",
		HeurekaczProductname: model.InheritSentinel,
		HeurekaczProduct:     model.InheritSentinel,
		HeurekaczCpc:         "1",
		HeurekaczKategorie:   model.InheritSentinel,

		GoogleSkryt:     "0",
		GoogleKategorie: model.InheritSentinel,
		GoogleStitek0:   model.InheritSentinel,
		GoogleStitek1:   model.InheritSentinel,
		GoogleStitek2:   model.InheritSentinel,
		GoogleStitek3:   model.InheritSentinel,
		GoogleStitek4:   model.InheritSentinel,

		GlamiSkryt:     "0",
		GlamiKategorie: model.InheritSentinel,
		GlamiCpc:       "1",

		SkladUmisteni:  model.InheritSentinel,
		SkladMinimalni: model.InheritSentinel,
		SkladOptimalni: model.InheritSentinel,
		SkladMaximalni: model.InheritSentinel,
	}

	// 变体属性对最多 3 个，顺序保留，超出的已在解析阶段丢弃
	for i, pair := range v.Pairs {
		switch i {
		case 0:
			r.Varianta1Nazev, r.Varianta1Hodnota = pair.Name, pair.Value
		case 1:
			r.Varianta2Nazev, r.Varianta2Hodnota = pair.Name, pair.Value
		case 2:
			r.Varianta3Nazev, r.Varianta3Hodnota = pair.Name, pair.Value
		}
	}

	s.applyDefaults(r, true)
	return r
}

// applyDefaults DefaultExportProductValues 表覆盖空缺省值
// 只填还是空串的列；已有值的列 (包括计算出的 "0" 字面量) 和
// 变体行上的 "#"/"." 哨兵列不碰
func (s *ExportService) applyDefaults(r *model.ExportRecord, isVariant bool) {
	overrides := s.memory.Snapshot(TableExportDefaults, "")
	if len(overrides) == 0 {
		return
	}
	fields := recordColumns(r)
	index := headerIndex()
	for column, value := range overrides {
		i, ok := index[column]
		if !ok {
			s.log.Warnw("缺省值表包含未知列", "column", column)
			continue
		}
		current := *fields[i]
		if isVariant && (current == model.InheritSentinel || current == "." || current == "-") {
			continue
		}
		if current == "" {
			*fields[i] = value
		}
	}
}

// recordColumns 按 ExportHeader 顺序返回各列的指针
func recordColumns(r *model.ExportRecord) []*string {
	return []*string{
		&r.ID, &r.Typ, &r.VariantaID,
		&r.Varianta1Nazev, &r.Varianta1Hodnota,
		&r.Varianta2Nazev, &r.Varianta2Hodnota,
		&r.Varianta3Nazev, &r.Varianta3Hodnota,
		&r.VariantaStejne, &r.Zobrazit, &r.Archiv,
		&r.Kod, &r.KodVyrobku, &r.Ean, &r.Isbn, &r.Nazev, &r.Privlastek, &r.Vyrobce, &r.DodavatelID,
		&r.Cena, &r.CenaBezna, &r.CenaNakupni, &r.RecyklacniPoplatek, &r.Dph,
		&r.Sleva, &r.SlevaOd, &r.SlevaDo,
		&r.Popis, &r.PopisStrucny,
		&r.Kosik, &r.Home, &r.Dostupnost, &r.DopravaZdarma, &r.DodaciDoba, &r.DodaciDobaAuto,
		&r.Sklad, &r.NaSklade, &r.Hmotnost, &r.Delka, &r.Jednotka,
		&r.OdberPo, &r.OdberMin, &r.OdberMax, &r.Pocet, &r.Zaruka, &r.MarzeDodavatel,
		&r.SeoTitulek, &r.SeoPopis,
		&r.Eroticke, &r.ProDospele, &r.SlevovyKupon, &r.DarekObjednavka, &r.Priorita,
		&r.Poznamka, &r.DodavatelKod, &r.Stitky, &r.CenaDodavatel,
		&r.KategorieID, &r.Podobne, &r.Prislusenstvi, &r.Variantove, &r.Zdarma, &r.Sluzby, &r.RozsirujiciObsah,
		&r.ZboziczSkryt, &r.ZboziczProductname, &r.ZboziczProduct, &r.ZboziczCpc, &r.ZboziczCpcSearch,
		&r.ZboziczKategorie, &r.ZboziczStitek0, &r.ZboziczStitek1, &r.ZboziczExtra,
		&r.HeurekaczSkryt, &r.HeurekaczProductname, &r.HeurekaczProduct, &r.HeurekaczCpc, &r.HeurekaczKategorie,
		&r.GoogleSkryt, &r.GoogleKategorie,
		&r.GoogleStitek0, &r.GoogleStitek1, &r.GoogleStitek2, &r.GoogleStitek3, &r.GoogleStitek4,
		&r.GlamiSkryt, &r.GlamiKategorie, &r.GlamiCpc, &r.GlamiVoucher, &r.GlamiMaterial, &r.GlamiskMaterial,
		&r.SkladUmisteni, &r.SkladMinimalni, &r.SkladOptimalni, &r.SkladMaximalni,
	}
}

var headerIndexCache map[string]int

func headerIndex() map[string]int {
	if headerIndexCache == nil {
		headerIndexCache = make(map[string]int, len(model.ExportHeader))
		for i, name := range model.ExportHeader {
			headerIndexCache[name] = i
		}
	}
	return headerIndexCache
}

// WriteReport 把全部导出行写成一份带时间戳的报表 CSV
// 文件名 Report-all_<ts>.csv，首行为固定列头
func (s *ExportService) WriteReport(dir string, records []*model.ExportRecord) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("导出目录无法创建: %w", err)
	}
	path := filepath.Join(dir, fmt.Sprintf("Report-all_%s.csv", time.Now().Format("2006-01-02_15-04-05")))

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("报表文件无法创建: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(model.ExportHeader); err != nil {
		return "", err
	}
	for _, record := range records {
		if err := w.Write(record.Row()); err != nil {
			return "", err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}
	s.log.Infow("报表写出完成", "path", path, "rows", len(records))
	return path, nil
}

// splitKeywords 逗号分隔的关键词切成固定 n 个标签槽位，不足补空
func splitKeywords(keywords string, n int) []string {
	out := make([]string, n)
	if strings.TrimSpace(keywords) == "" {
		return out
	}
	parts := strings.Split(keywords, ",")
	for i := 0; i < n && i < len(parts); i++ {
		out[i] = strings.TrimSpace(parts[i])
	}
	return out
}
