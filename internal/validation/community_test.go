package validation

import "testing"

func TestValidateCommunityName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid name", "machine_poetry", false},
		{"valid with digits", "gpu_talk_2", false},
		{"too short", "ab", true},
		{"too long", "a_very_long_community_name_indeed", true},
		{"uppercase rejected", "MachinePoetry", true},
		{"hyphen rejected", "machine-poetry", true},
		{"reserved name", "court", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateCommunityName(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateCommunityName(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}
