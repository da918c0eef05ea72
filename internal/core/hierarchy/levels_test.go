package hierarchy

import "testing"

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    Level
		wantErr bool
	}{
		{"step", LevelStep, false},
		{"steps", LevelStep, false},
		{"plan_master", LevelPlanMaster, false},
		{"instruction_master", LevelInstructionMaster, false},
		{"migrations", LevelMigration, false},
		{"galaxy", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseLevel(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseLevel(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestLevel_StatusEntityType(t *testing.T) {
	tests := map[Level]string{
		LevelMigration:         "migration",
		LevelPlan:              "plan",
		LevelPlanMaster:        "plan",
		LevelStep:              "step",
		LevelSequenceMaster:    "",
		LevelInstruction:       "",
		LevelInstructionMaster: "",
	}
	for level, want := range tests {
		if got := level.StatusEntityType(); got != want {
			t.Errorf("%s.StatusEntityType() = %q, want %q", level, got, want)
		}
	}
}

func TestLevel_Parent(t *testing.T) {
	// Walking up from an instruction reaches the migration in six hops.
	level := LevelInstruction
	hops := 0
	for level.Parent() != "" {
		level = level.Parent()
		hops++
	}
	if level != LevelMigration || hops != 6 {
		t.Errorf("expected migration after 6 hops, got %s after %d", level, hops)
	}

	if LevelPlanMaster.Parent() != "" {
		t.Error("plan master should be a root")
	}
	if !LevelStepMaster.IsMaster() || LevelStep.IsMaster() {
		t.Error("IsMaster misclassified step levels")
	}
}
