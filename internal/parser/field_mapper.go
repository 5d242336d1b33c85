package parser

// fieldPatterns 表头别名（作用于 NormalizeColumnName 之后的列名），按顺序匹配
var fieldPatterns = []struct {
	field   string
	pattern string
}{
	{FieldDocumentNumber, `documentnumber|documentno|docnumber|docno`},
	{FieldLegacyRevision, `legacyversionnumber|legacyrevision(number)?`},
	{FieldLegacyMode, `legacy|legacymode|islegacy`},
	{FieldRevision, `revision|revisionnumber|temprevisionnumber|rev|revno`},
	{FieldSheetNumber, `sheetnumber|sheetno|sheet`},
	{FieldRenditionPath, `renditionpath|rendition`},
	{FieldDocumentName, `documentname|filename|name`},
	{FieldTitle, `title.*|description`},
}

// multiValueFields 允许多列映射到同一字段
var multiValueFields = map[string]bool{
	FieldTitle: true,
}

// FieldMapper 字段映射器
type FieldMapper struct {
	// dateColumns 规范化列名 -> 配置中的日期列名
	dateColumns map[string]string
}

// NewFieldMapper 创建字段映射器；dateColumns 为配置中声明的日期列
func NewFieldMapper(dateColumns []string) *FieldMapper {
	m := &FieldMapper{dateColumns: make(map[string]string, len(dateColumns))}
	for _, col := range dateColumns {
		m.dateColumns[NormalizeColumnName(col)] = col
	}
	return m
}

// Map 映射表头；同一单值字段出现多列时取第一列
func (m *FieldMapper) Map(columnNames []string) map[int]FieldMapping {
	mappings := make(map[int]FieldMapping)
	taken := make(map[string]bool)

	for idx, raw := range columnNames {
		col := NormalizeColumnName(raw)
		if col == "" {
			continue
		}

		// 日期列优先：列名由配置决定
		if name, ok := m.dateColumns[col]; ok {
			mappings[idx] = FieldMapping{ColumnIndex: idx, ColumnName: name, Field: FieldDate}
			continue
		}

		field := MatchField(col)
		if field == "" {
			continue
		}
		if taken[field] && !multiValueFields[field] {
			continue
		}
		taken[field] = true
		mappings[idx] = FieldMapping{ColumnIndex: idx, ColumnName: raw, Field: field}
	}

	return mappings
}

// MatchField 返回规范化列名对应的字段，无匹配返回空串
func MatchField(normalized string) string {
	for _, fp := range fieldPatterns {
		if MatchPattern(normalized, fp.pattern) {
			return fp.field
		}
	}
	return ""
}
