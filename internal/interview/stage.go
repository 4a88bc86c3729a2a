package interview

import "github.com/terra-clan/interview-engine/internal/models"

// The stage machine tracks (stage, answered turns in stage, quota) and
// nothing else; question-selection policy per stage lives with the
// generators. Stages advance in the fixed order, each entered once.

// quotaMet reports whether the current stage has collected enough
// answered turns to end
func quotaMet(s *models.Session) bool {
	return s.AnsweredInStage(s.Stage) >= s.Config.Quota(s.Stage)
}

// advanceStage moves the session to the next stage when the quota for the
// current stage is met. Returns the stage after the check and whether a
// transition happened. Never moves backward and never skips: a single
// submission advances at most one stage.
func advanceStage(s *models.Session) (models.Stage, bool) {
	if s.Stage.IsTerminal() {
		return s.Stage, false
	}
	if !quotaMet(s) {
		return s.Stage, false
	}
	s.Stage = s.Stage.Next()
	return s.Stage, true
}
