package models

// Stage represents the current lifecycle state of an interview session
type Stage string

const (
	StageIntro             Stage = "intro"
	StageWarmup            Stage = "warmup"
	StageCoreQuestions     Stage = "core_questions"
	StagePressureRound     Stage = "pressure_round"
	StageCommunicationTest Stage = "communication_test"
	StageClosing           Stage = "closing"
	StageFeedback          Stage = "feedback"
)

// StageOrder is the fixed progression of an interview. Stages are entered
// exactly once, in order, with no skips.
var StageOrder = []Stage{
	StageIntro,
	StageWarmup,
	StageCoreQuestions,
	StagePressureRound,
	StageCommunicationTest,
	StageClosing,
	StageFeedback,
}

// Index returns the position of the stage in StageOrder, or -1 if unknown
func (s Stage) Index() int {
	for i, stage := range StageOrder {
		if stage == s {
			return i
		}
	}
	return -1
}

// Next returns the following stage. Feedback is terminal and returns itself.
func (s Stage) Next() Stage {
	i := s.Index()
	if i < 0 || i >= len(StageOrder)-1 {
		return StageFeedback
	}
	return StageOrder[i+1]
}

// IsTerminal returns true once the interview has reached feedback
func (s Stage) IsTerminal() bool {
	return s == StageFeedback
}

// Valid reports whether the stage is one of the known lifecycle states
func (s Stage) Valid() bool {
	return s.Index() >= 0
}

// DefaultStageQuotas returns the number of answered turns required before
// each stage may end. Feedback accepts no answers.
func DefaultStageQuotas() map[Stage]int {
	return map[Stage]int{
		StageIntro:             1,
		StageWarmup:            1,
		StageCoreQuestions:     3,
		StagePressureRound:     2,
		StageCommunicationTest: 1,
		StageClosing:           1,
		StageFeedback:          0,
	}
}
