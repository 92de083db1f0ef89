package logging

import "digital.vasic.expectations/pkg/issue"

// LogField creates a Field from a key-value pair.
func LogField(key string, value any) Field {
	return Field{Key: key, Value: value}
}

// StringField creates a Field with a string value.
func StringField(key, value string) Field {
	return Field{Key: key, Value: value}
}

// IntField creates a Field with an integer value.
func IntField(key string, value int) Field {
	return Field{Key: key, Value: value}
}

// Float64Field creates a Field with a float64 value.
func Float64Field(key string, value float64) Field {
	return Field{Key: key, Value: value}
}

// BoolField creates a Field with a boolean value.
func BoolField(key string, value bool) Field {
	return Field{Key: key, Value: value}
}

// ErrorField creates a Field for an error value. If err is nil,
// the value is set to the string "<nil>".
func ErrorField(err error) Field {
	if err == nil {
		return Field{Key: "error", Value: "<nil>"}
	}
	return Field{Key: "error", Value: err.Error()}
}

// TestField tags an entry with the owning test's identity.
func TestField(testID string) Field {
	return Field{Key: "test_id", Value: testID}
}

// IssueFields flattens the loggable parts of an issue.
func IssueFields(i issue.Issue) []Field {
	fields := []Field{
		{Key: "test_id", Value: i.TestID},
		{Key: "seq", Value: i.Seq},
		{Key: "kind", Value: string(i.Kind)},
		{Key: "severity", Value: i.Severity.String()},
		{Key: "known", Value: i.IsKnown},
		{Key: "location", Value: i.Location.String()},
	}
	if i.Comment != "" {
		fields = append(fields, Field{Key: "comment", Value: i.Comment})
	}
	if i.Expression != nil {
		fields = append(fields,
			Field{Key: "expression", Value: i.Expression.String()})
	}
	if i.Confirmation != nil {
		fields = append(fields,
			Field{Key: "expected", Value: i.Confirmation.Expected.String()},
			Field{Key: "actual", Value: i.Confirmation.Actual},
		)
	}
	if i.Error != nil {
		fields = append(fields, ErrorField(i.Error))
	}
	return fields
}
