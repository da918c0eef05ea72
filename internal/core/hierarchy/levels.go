// Package hierarchy contains the pure business logic for the migration ledger
// hierarchy: level names, parent/child relations and the guards that decide
// whether a structural change is allowed. No I/O happens here.
package hierarchy

import "fmt"

// Level names one table of the hierarchy.
type Level string

const (
	LevelMigration         Level = "migration"
	LevelIteration         Level = "iteration"
	LevelPlanMaster        Level = "plan_master"
	LevelPlan              Level = "plan"
	LevelSequenceMaster    Level = "sequence_master"
	LevelSequence          Level = "sequence"
	LevelPhaseMaster       Level = "phase_master"
	LevelPhase             Level = "phase"
	LevelStepMaster        Level = "step_master"
	LevelStep              Level = "step"
	LevelInstructionMaster Level = "instruction_master"
	LevelInstruction       Level = "instruction"
)

// Levels lists every level, root first, masters before their instances.
var Levels = []Level{
	LevelMigration, LevelIteration,
	LevelPlanMaster, LevelPlan,
	LevelSequenceMaster, LevelSequence,
	LevelPhaseMaster, LevelPhase,
	LevelStepMaster, LevelStep,
	LevelInstructionMaster, LevelInstruction,
}

var aliases = map[string]Level{
	"migrations":   LevelMigration,
	"iterations":   LevelIteration,
	"plans":        LevelPlan,
	"sequences":    LevelSequence,
	"phases":       LevelPhase,
	"steps":        LevelStep,
	"instructions": LevelInstruction,
}

// ParseLevel accepts a level name or its plural instance alias.
func ParseLevel(s string) (Level, error) {
	for _, l := range Levels {
		if string(l) == s {
			return l, nil
		}
	}
	if l, ok := aliases[s]; ok {
		return l, nil
	}
	return "", fmt.Errorf("unknown hierarchy level %q", s)
}

// IsMaster reports whether the level is a template table.
func (l Level) IsMaster() bool {
	switch l {
	case LevelPlanMaster, LevelSequenceMaster, LevelPhaseMaster, LevelStepMaster, LevelInstructionMaster:
		return true
	}
	return false
}

// StatusEntityType returns the statuses.entity_type valid for the level.
// Levels without a status column return "".
func (l Level) StatusEntityType() string {
	switch l {
	case LevelMigration, LevelIteration, LevelSequence, LevelPhase, LevelStep:
		return string(l)
	case LevelPlan, LevelPlanMaster:
		return "plan"
	}
	return ""
}

// Parent returns the level an instance of l hangs off, or "" for the root
// and for plan masters.
func (l Level) Parent() Level {
	switch l {
	case LevelIteration:
		return LevelMigration
	case LevelPlan:
		return LevelIteration
	case LevelSequence:
		return LevelPlan
	case LevelPhase:
		return LevelSequence
	case LevelStep:
		return LevelPhase
	case LevelInstruction:
		return LevelStep
	case LevelSequenceMaster:
		return LevelPlanMaster
	case LevelPhaseMaster:
		return LevelSequenceMaster
	case LevelStepMaster:
		return LevelPhaseMaster
	case LevelInstructionMaster:
		return LevelStepMaster
	}
	return ""
}

func (l Level) String() string { return string(l) }
