package model

// ==================== 导出记录 ====================

// ExportRecord 固定 96 列导出模式的一行
// 列名与顺序是对外兼容契约，由 ExportHeader 固定；所有值按字符串输出
// 变体行上的 "#" 是保留哨兵，含义为"继承主商品行"，必须原样保留
type ExportRecord struct {
	ID                  string
	Typ                 string
	VariantaID          string
	Varianta1Nazev      string
	Varianta1Hodnota    string
	Varianta2Nazev      string
	Varianta2Hodnota    string
	Varianta3Nazev      string
	Varianta3Hodnota    string
	VariantaStejne      string
	Zobrazit            string
	Archiv              string
	Kod                 string
	KodVyrobku          string
	Ean                 string
	Isbn                string
	Nazev               string
	Privlastek          string
	Vyrobce             string
	DodavatelID         string
	Cena                string
	CenaBezna           string
	CenaNakupni         string
	RecyklacniPoplatek  string
	Dph                 string
	Sleva               string
	SlevaOd             string
	SlevaDo             string
	Popis               string
	PopisStrucny        string
	Kosik               string
	Home                string
	Dostupnost          string
	DopravaZdarma       string
	DodaciDoba          string
	DodaciDobaAuto      string
	Sklad               string
	NaSklade            string
	Hmotnost            string
	Delka               string
	Jednotka            string
	OdberPo             string
	OdberMin            string
	OdberMax            string
	Pocet               string
	Zaruka              string
	MarzeDodavatel      string
	SeoTitulek          string
	SeoPopis            string
	Eroticke            string
	ProDospele          string
	SlevovyKupon        string
	DarekObjednavka     string
	Priorita            string
	Poznamka            string
	DodavatelKod        string
	Stitky              string
	CenaDodavatel       string
	KategorieID         string
	Podobne             string
	Prislusenstvi       string
	Variantove          string
	Zdarma              string
	Sluzby              string
	RozsirujiciObsah    string
	ZboziczSkryt        string
	ZboziczProductname  string
	ZboziczProduct      string
	ZboziczCpc          string
	ZboziczCpcSearch    string
	ZboziczKategorie    string
	ZboziczStitek0      string
	ZboziczStitek1      string
	ZboziczExtra        string
	HeurekaczSkryt      string
	HeurekaczProductname string
	HeurekaczProduct    string
	HeurekaczCpc        string
	HeurekaczKategorie  string
	GoogleSkryt         string
	GoogleKategorie     string
	GoogleStitek0       string
	GoogleStitek1       string
	GoogleStitek2       string
	GoogleStitek3       string
	GoogleStitek4       string
	GlamiSkryt          string
	GlamiKategorie      string
	GlamiCpc            string
	GlamiVoucher        string
	GlamiMaterial       string
	GlamiskMaterial     string
	SkladUmisteni       string
	SkladMinimalni      string
	SkladOptimalni      string
	SkladMaximalni      string
}

// InheritSentinel 变体行"继承主商品"哨兵值
const InheritSentinel = "#"

// ExportHeader 导出 CSV 的列名，顺序即契约
var ExportHeader = []string{
	"id", "typ", "varianta_id",
	"varianta1_nazev", "varianta1_hodnota",
	"varianta2_nazev", "varianta2_hodnota",
	"varianta3_nazev", "varianta3_hodnota",
	"varianta_stejne", "zobrazit", "archiv",
	"kod", "kod_vyrobku", "ean", "isbn", "nazev", "privlastek", "vyrobce", "dodavatel_id",
	"cena", "cena_bezna", "cena_nakupni", "recyklacni_poplatek", "dph",
	"sleva", "sleva_od", "sleva_do",
	"popis", "popis_strucny",
	"kosik", "home", "dostupnost", "doprava_zdarma", "dodaci_doba", "dodaci_doba_auto",
	"sklad", "na_sklade", "hmotnost", "delka", "jednotka",
	"odber_po", "odber_min", "odber_max", "pocet", "zaruka", "marze_dodavatel",
	"seo_titulek", "seo_popis",
	"eroticke", "pro_dospele", "slevovy_kupon", "darek_objednavka", "priorita",
	"poznamka", "dodavatel_kod", "stitky", "cena_dodavatel",
	"kategorie_id", "podobne", "prislusenstvi", "variantove", "zdarma", "sluzby", "rozsirujici_obsah",
	"zbozicz_skryt", "zbozicz_productname", "zbozicz_product", "zbozicz_cpc", "zbozicz_cpc_search",
	"zbozicz_kategorie", "zbozicz_stitek_0", "zbozicz_stitek_1", "zbozicz_extra",
	"heurekacz_skryt", "heurekacz_productname", "heurekacz_product", "heurekacz_cpc", "heurekacz_kategorie",
	"google_skryt", "google_kategorie",
	"google_stitek_0", "google_stitek_1", "google_stitek_2", "google_stitek_3", "google_stitek_4",
	"glami_skryt", "glami_kategorie", "glami_cpc", "glami_voucher", "glami_material", "glamisk_material",
	"sklad_umisteni", "sklad_minimalni", "sklad_optimalni", "sklad_maximalni",
}

// Row 按 ExportHeader 的顺序输出所有字段值
func (r *ExportRecord) Row() []string {
	return []string{
		r.ID, r.Typ, r.VariantaID,
		r.Varianta1Nazev, r.Varianta1Hodnota,
		r.Varianta2Nazev, r.Varianta2Hodnota,
		r.Varianta3Nazev, r.Varianta3Hodnota,
		r.VariantaStejne, r.Zobrazit, r.Archiv,
		r.Kod, r.KodVyrobku, r.Ean, r.Isbn, r.Nazev, r.Privlastek, r.Vyrobce, r.DodavatelID,
		r.Cena, r.CenaBezna, r.CenaNakupni, r.RecyklacniPoplatek, r.Dph,
		r.Sleva, r.SlevaOd, r.SlevaDo,
		r.Popis, r.PopisStrucny,
		r.Kosik, r.Home, r.Dostupnost, r.DopravaZdarma, r.DodaciDoba, r.DodaciDobaAuto,
		r.Sklad, r.NaSklade, r.Hmotnost, r.Delka, r.Jednotka,
		r.OdberPo, r.OdberMin, r.OdberMax, r.Pocet, r.Zaruka, r.MarzeDodavatel,
		r.SeoTitulek, r.SeoPopis,
		r.Eroticke, r.ProDospele, r.SlevovyKupon, r.DarekObjednavka, r.Priorita,
		r.Poznamka, r.DodavatelKod, r.Stitky, r.CenaDodavatel,
		r.KategorieID, r.Podobne, r.Prislusenstvi, r.Variantove, r.Zdarma, r.Sluzby, r.RozsirujiciObsah,
		r.ZboziczSkryt, r.ZboziczProductname, r.ZboziczProduct, r.ZboziczCpc, r.ZboziczCpcSearch,
		r.ZboziczKategorie, r.ZboziczStitek0, r.ZboziczStitek1, r.ZboziczExtra,
		r.HeurekaczSkryt, r.HeurekaczProductname, r.HeurekaczProduct, r.HeurekaczCpc, r.HeurekaczKategorie,
		r.GoogleSkryt, r.GoogleKategorie,
		r.GoogleStitek0, r.GoogleStitek1, r.GoogleStitek2, r.GoogleStitek3, r.GoogleStitek4,
		r.GlamiSkryt, r.GlamiKategorie, r.GlamiCpc, r.GlamiVoucher, r.GlamiMaterial, r.GlamiskMaterial,
		r.SkladUmisteni, r.SkladMinimalni, r.SkladOptimalni, r.SkladMaximalni,
	}
}
