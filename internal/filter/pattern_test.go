package filter

import (
	"errors"
	"testing"
)

func TestCompileRuleSet(t *testing.T) {
	tests := []struct {
		name    string
		rules   []string
		wantErr bool
	}{
		{name: "nil rules", rules: nil, wantErr: false},
		{name: "literals only", rules: []string{"sensor.a", "light.b"}, wantErr: false},
		{name: "globs only", rules: []string{"sensor.*", "light.?"}, wantErr: false},
		{name: "mixed", rules: []string{"sensor.a", "sensor.door_*"}, wantErr: false},
		{name: "character class", rules: []string{"sensor.door_[ab]"}, wantErr: false},
		{name: "empty rule", rules: []string{""}, wantErr: true},
		{name: "bad pattern", rules: []string{"sensor.[unterminated"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := compileRuleSet(tt.rules)
			if (err != nil) != tt.wantErr {
				t.Errorf("compileRuleSet(%v) error = %v, wantErr %v", tt.rules, err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidPattern) {
				t.Errorf("compileRuleSet(%v) error = %v, want ErrInvalidPattern", tt.rules, err)
			}
		})
	}
}

func TestRuleSet_Matches(t *testing.T) {
	rs, err := compileRuleSet([]string{"sensor.exact", "sensor.door_*", "light.?"})
	if err != nil {
		t.Fatalf("compileRuleSet() error = %v", err)
	}

	tests := []struct {
		s    string
		want bool
	}{
		{"sensor.exact", true},
		{"sensor.exact_not", false},
		{"sensor.door_front", true},
		{"sensor.door_", true},
		{"sensor.window", false},
		{"light.a", true},
		{"light.ab", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := rs.matches(tt.s); got != tt.want {
			t.Errorf("matches(%q) = %v, want %v", tt.s, got, tt.want)
		}
	}
}

func TestRuleSet_Empty(t *testing.T) {
	empty, err := compileRuleSet(nil)
	if err != nil {
		t.Fatalf("compileRuleSet(nil) error = %v", err)
	}
	if !empty.empty() {
		t.Error("compiled nil rules should be empty")
	}
	if empty.matches("sensor.anything") {
		t.Error("empty rule set should match nothing")
	}

	full, err := compileRuleSet([]string{"sensor.a"})
	if err != nil {
		t.Fatalf("compileRuleSet() error = %v", err)
	}
	if full.empty() {
		t.Error("compiled rules should not be empty")
	}
}
