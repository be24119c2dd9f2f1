package service

import (
	"reflect"
	"strings"
	"testing"
)

func TestRedact_sensitiveKeys(t *testing.T) {
	in := map[string]any{
		"username": "root",
		"Password": "hunter2",
		"API_KEY":  "sk-abc",
		"nested":   map[string]any{"token": "xyz", "path": "/admin"},
	}

	got, ok := Redact(in).(map[string]any)
	if !ok {
		t.Fatalf("Redact returned %T", Redact(in))
	}
	if got["Password"] != redactedMark || got["API_KEY"] != redactedMark {
		t.Errorf("sensitive keys not masked: %v", got)
	}
	if got["username"] != "root" {
		t.Errorf("non-sensitive key altered: %v", got["username"])
	}
	nested := got["nested"].(map[string]any)
	if nested["token"] != redactedMark || nested["path"] != "/admin" {
		t.Errorf("nested map not handled: %v", nested)
	}
	// Input must be left untouched.
	if in["Password"] != "hunter2" {
		t.Error("Redact mutated its input")
	}
}

func TestRedact_truncatesLongStrings(t *testing.T) {
	long := strings.Repeat("a", 300)
	got := Redact(map[string]any{"body": long}).(map[string]any)

	s := got["body"].(string)
	if !strings.HasPrefix(s, strings.Repeat("a", maxLogFieldLen)) || len(s) == len(long) {
		t.Errorf("long string not truncated, len=%d", len(s))
	}
}

func TestRedact_capsLists(t *testing.T) {
	list := make([]any, 25)
	for i := range list {
		list[i] = i
	}
	got := Redact(map[string]any{"items": list}).(map[string]any)

	items := got["items"].([]any)
	if len(items) != maxLogListItems+1 {
		t.Fatalf("list length = %d, want %d items plus marker", len(items), maxLogListItems+1)
	}
	if items[maxLogListItems] != truncatedMark {
		t.Errorf("missing truncation marker: %v", items[maxLogListItems])
	}
}

func TestRedact_depthLimit(t *testing.T) {
	deep := map[string]any{"v": "leaf"}
	for i := 0; i < 8; i++ {
		deep = map[string]any{"next": deep}
	}

	out := Redact(deep)
	found := false
	var walk func(v any)
	walk = func(v any) {
		switch m := v.(type) {
		case map[string]any:
			for _, val := range m {
				walk(val)
			}
		case string:
			if m == truncatedMark {
				found = true
			}
		}
	}
	walk(out)
	if !found {
		t.Error("deep nesting not cut off")
	}
}

func TestRedact_passesScalarsThrough(t *testing.T) {
	in := map[string]any{"count": 42, "ratio": 0.5, "flag": true, "none": nil}
	got := Redact(in).(map[string]any)
	if !reflect.DeepEqual(got, in) {
		t.Errorf("scalars altered: %v", got)
	}
}
