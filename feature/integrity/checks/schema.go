package checks

import (
	"fmt"
	"reflect"
	"strings"

	"infra-inventory/core/database"

	"gorm.io/gorm"
)

// SchemaReport is the result of comparing the live database against the models.
type SchemaReport struct {
	Matched bool                   `json:"matched"`
	Tables  map[string]TableReport `json:"tables"`
	Errors  []string               `json:"errors"`
}

type TableReport struct {
	MissingColumns []string `json:"missing_columns"`
	TypeMismatches []string `json:"type_mismatches"`
	Status         string   `json:"status"` // "ok", "error"
}

// CheckSchema verifies every model's table using the gorm column and type tags
// as the source of truth. Types are compared loosely: the live type must
// contain the tagged type ("int" matches "int(11)" and "bigint").
func CheckSchema(db *gorm.DB, models ...interface{}) (*SchemaReport, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is nil")
	}

	report := &SchemaReport{
		Matched: true,
		Tables:  make(map[string]TableReport),
		Errors:  []string{},
	}

	for _, model := range models {
		typ := reflect.TypeOf(model)
		if typ.Kind() == reflect.Ptr {
			typ = typ.Elem()
		}
		tabler, ok := reflect.New(typ).Interface().(interface{ TableName() string })
		if !ok {
			return nil, fmt.Errorf("model %s does not implement TableName", typ.Name())
		}
		table := tabler.TableName()

		actualCols, err := database.GetTableColumns(db, table)
		if err != nil {
			report.Errors = append(report.Errors, fmt.Sprintf("Failed to inspect table %s: %v", table, err))
			report.Matched = false
			continue
		}
		if len(actualCols) == 0 {
			report.Errors = append(report.Errors, fmt.Sprintf("Table %s does not exist", table))
			report.Matched = false
			continue
		}

		tbl := compareColumns(typ, actualCols)
		if tbl.Status != "ok" {
			report.Matched = false
		}
		report.Tables[table] = tbl
	}

	return report, nil
}

func compareColumns(typ reflect.Type, actualCols []database.ColumnInfo) TableReport {
	tbl := TableReport{
		MissingColumns: []string{},
		TypeMismatches: []string{},
		Status:         "ok",
	}

	actual := make(map[string]database.ColumnInfo, len(actualCols))
	for _, col := range actualCols {
		actual[col.Field] = col
	}

	for i := 0; i < typ.NumField(); i++ {
		tag := typ.Field(i).Tag.Get("gorm")
		col := gormTagValue(tag, "column")
		if col == "" {
			continue
		}

		act, exists := actual[col]
		if !exists {
			tbl.MissingColumns = append(tbl.MissingColumns, col)
			tbl.Status = "error"
			continue
		}

		want := strings.ToLower(gormTagValue(tag, "type"))
		if want == "" || typesCompatible(want, act.Type) {
			continue
		}
		tbl.TypeMismatches = append(tbl.TypeMismatches, fmt.Sprintf("%s: expected %s, got %s", col, want, act.Type))
		tbl.Status = "error"
	}

	return tbl
}

// typesCompatible treats any integer flavour as int and tolerates the
// SQLite integer affinity used for tinyint booleans.
func typesCompatible(want, got string) bool {
	if strings.Contains(got, want) {
		return true
	}
	base, _, _ := strings.Cut(want, "(")
	switch base {
	case "int", "tinyint", "bigint":
		return strings.Contains(got, "int") || got == "numeric"
	}
	return false
}

// gormTagValue returns the value of key in a gorm struct tag.
func gormTagValue(tag, key string) string {
	for _, p := range strings.Split(tag, ";") {
		if v, ok := strings.CutPrefix(p, key+":"); ok {
			return v
		}
	}
	return ""
}

// IndexNames lists the named indexes declared on a model through
// index/uniqueIndex tags.
func IndexNames(model interface{}) []string {
	typ := reflect.TypeOf(model)
	if typ.Kind() == reflect.Ptr {
		typ = typ.Elem()
	}

	seen := map[string]bool{}
	var names []string
	for i := 0; i < typ.NumField(); i++ {
		for _, p := range strings.Split(typ.Field(i).Tag.Get("gorm"), ";") {
			key, val, ok := strings.Cut(p, ":")
			if !ok || (key != "index" && key != "uniqueIndex") {
				continue
			}
			name, _, _ := strings.Cut(val, ",")
			if name != "" && !seen[name] {
				seen[name] = true
				names = append(names, name)
			}
		}
	}
	return names
}
