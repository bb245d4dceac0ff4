package tasks

import (
	"reflect"
	"testing"
)

func TestCanonicalIsFieldOrderStable(t *testing.T) {
	row := Row{"task": "Buy equipment", "cost": 600.0}
	want := "cost=600;task=Buy equipment"
	if got := row.Canonical(); got != want {
		t.Fatalf("canonical: %q, want %q", got, want)
	}
	// Same fields, different construction order.
	other := Row{"cost": 600.0, "task": "Buy equipment"}
	if row.Canonical() != other.Canonical() {
		t.Fatalf("canonical differs for identical rows")
	}
}

func TestFieldValuesSortedByFieldName(t *testing.T) {
	row := Row{"b": "second", "a": "first", "c": 3.0}
	got := row.FieldValues()
	want := []string{"first", "second", "3"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("field values: %v, want %v", got, want)
	}
}
