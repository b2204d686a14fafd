package rules

import (
	"encoding/json"
	"testing"
)

func TestUnmarshalRollout(t *testing.T) {
	var r Rules
	if err := json.Unmarshal([]byte(`{"rolloutPercentage": 30}`), &r); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if !r.Recognized() {
		t.Fatal("expected rollout rule to be recognized")
	}
	if *r.RolloutPercentage != 30 {
		t.Errorf("expected rollout 30, got %v", *r.RolloutPercentage)
	}
	if r.Empty() {
		t.Error("rules with a rollout should not be empty")
	}
}

func TestUnmarshalEmptyObject(t *testing.T) {
	var r Rules
	if err := json.Unmarshal([]byte(`{}`), &r); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if !r.Empty() {
		t.Error("expected empty rules object to be Empty")
	}
	if r.Recognized() {
		t.Error("empty rules should not be recognized")
	}
}

func TestUnknownKeysPreserved(t *testing.T) {
	in := []byte(`{"dateWindow":{"from":"2026-01-01"},"rolloutPercentage":50}`)
	var r Rules
	if err := json.Unmarshal(in, &r); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	out, err := json.Marshal(&r)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var got map[string]any
	if err := json.Unmarshal(out, &got); err != nil {
		t.Fatalf("re-unmarshal: %v", err)
	}
	if got["rolloutPercentage"] != float64(50) {
		t.Errorf("rollout lost on round-trip: %v", got["rolloutPercentage"])
	}
	if _, ok := got["dateWindow"]; !ok {
		t.Error("unknown key dropped on round-trip")
	}
}

func TestUnknownOnlyIsUnrecognized(t *testing.T) {
	var r Rules
	if err := json.Unmarshal([]byte(`{"segment":"beta"}`), &r); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if r.Recognized() {
		t.Error("rules with only unknown keys should not be recognized")
	}
	if r.Empty() {
		t.Error("rules with unknown keys are present, not empty")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		rollout float64
		wantErr bool
	}{
		{"zero", 0, false},
		{"mid", 42.5, false},
		{"hundred", 100, false},
		{"negative", -1, true},
		{"over", 100.5, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewRollout(tt.rollout).Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate(%v) err=%v, wantErr=%v", tt.rollout, err, tt.wantErr)
			}
		})
	}

	var nilRules *Rules
	if err := nilRules.Validate(); err != nil {
		t.Errorf("nil rules should validate: %v", err)
	}
}
