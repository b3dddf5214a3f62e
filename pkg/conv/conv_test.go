package conv

import (
	"reflect"
	"testing"
)

func TestConfigGetters(t *testing.T) {
	cfg := map[string]any{
		"n_yaml": 3,
		"n_json": float64(4),
		"w_int":  1,
		"w":      0.25,
		"name":   "popular",
		"ids":    []any{"a", float64(12), true},
	}
	tests := []struct {
		name string
		got  any
		want any
	}{
		{name: "yaml int", got: ConfigGetInt(cfg, "n_yaml", 0), want: 3},
		{name: "json number", got: ConfigGetInt(cfg, "n_json", 0), want: 4},
		{name: "missing int", got: ConfigGetInt(cfg, "nope", 7), want: 7},
		{name: "float", got: ConfigGetFloat(cfg, "w", 0), want: 0.25},
		{name: "int as float", got: ConfigGetFloat(cfg, "w_int", 0), want: 1.0},
		{name: "string", got: ConfigGet(cfg, "name", ""), want: "popular"},
		{name: "wrong type", got: ConfigGet(cfg, "w", "x"), want: "x"},
		{name: "nil map", got: ConfigGetInt(nil, "n", 5), want: 5},
		{name: "slice", got: SliceAnyToString(cfg["ids"]), want: []string{"a", "12", "1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !reflect.DeepEqual(tt.got, tt.want) {
				t.Errorf("got %v (%T), want %v (%T)", tt.got, tt.got, tt.want, tt.want)
			}
		})
	}
}

func TestToString(t *testing.T) {
	if s, ok := ToString("x"); !ok || s != "x" {
		t.Errorf("ToString(x) = %q, %v", s, ok)
	}
	if _, ok := ToString(3); ok {
		t.Error("ToString(3) ok = true, want false")
	}
}
