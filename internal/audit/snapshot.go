package audit

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/google/uuid"

	dbtypes "github.com/jmamani/cooperativa-backend/pkg/db/types"
)

// Capture serializes an entity's persisted fields into a snapshot map. Date
// and time values become RFC3339 strings, primitives pass through, and any
// other value degrades to its string form. A serialization panic produces a
// placeholder snapshot instead of aborting the audit emission.
func Capture(entity any) (snap dbtypes.JSONMap) {
	defer func() {
		if r := recover(); r != nil {
			snap = dbtypes.JSONMap{"error": fmt.Sprintf("snapshot failed: %v", r)}
		}
	}()

	if entity == nil {
		return nil
	}

	value := reflect.ValueOf(entity)
	for value.Kind() == reflect.Pointer {
		if value.IsNil() {
			return nil
		}
		value = value.Elem()
	}
	if value.Kind() != reflect.Struct {
		return dbtypes.JSONMap{"error": fmt.Sprintf("unsupported snapshot type %T", entity)}
	}

	snap = dbtypes.JSONMap{}
	structType := value.Type()
	for i := 0; i < structType.NumField(); i++ {
		field := structType.Field(i)
		if !field.IsExported() {
			continue
		}
		column := columnName(field)
		if column == "" {
			// Fields without a column tag are associations, not persisted state.
			continue
		}
		snap[column] = snapshotValue(value.Field(i))
	}
	return snap
}

func columnName(field reflect.StructField) string {
	tag := field.Tag.Get("gorm")
	for _, part := range strings.Split(tag, ";") {
		if name, ok := strings.CutPrefix(part, "column:"); ok {
			return name
		}
	}
	return ""
}

func snapshotValue(v reflect.Value) any {
	if v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return nil
		}
		v = v.Elem()
	}

	switch typed := v.Interface().(type) {
	case time.Time:
		return typed.UTC().Format(time.RFC3339)
	case uuid.UUID:
		return typed.String()
	}

	switch v.Kind() {
	case reflect.String:
		return v.String()
	case reflect.Bool:
		return v.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return v.Uint()
	case reflect.Float32, reflect.Float64:
		return v.Float()
	default:
		return fmt.Sprintf("%v", v.Interface())
	}
}
