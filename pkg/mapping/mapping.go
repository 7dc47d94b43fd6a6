package mapping

import (
	"database/sql"
	"time"
)

func ValueToSQLNullString(value string) sql.NullString {
	return sql.NullString{String: value, Valid: value != ""}
}

func PointerToSQLNullString(value *string) sql.NullString {
	if value == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *value, Valid: true}
}

func SQLNullStringToPointer(value sql.NullString) *string {
	if !value.Valid {
		return nil
	}
	v := value.String
	return &v
}

func PointerToSQLNullTime(value *time.Time) sql.NullTime {
	if value == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *value, Valid: true}
}

func SQLNullTimeToPointer(value sql.NullTime) *time.Time {
	if !value.Valid {
		return nil
	}
	v := value.Time
	return &v
}

func PointerToSQLNullFloat64(value *float64) sql.NullFloat64 {
	if value == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *value, Valid: true}
}

func SQLNullFloat64ToPointer(value sql.NullFloat64) *float64 {
	if !value.Valid {
		return nil
	}
	v := value.Float64
	return &v
}

// Pointer returns a pointer to v. Handy when building optional fields.
func Pointer[T any](v T) *T {
	return &v
}
