package interview

import (
	"testing"
	"time"

	"github.com/terra-clan/interview-engine/internal/models"
)

func sessionAtStage(stage models.Stage) *models.Session {
	cfg := models.InterviewConfig{Role: "Backend Engineer"}
	cfg.Normalize()
	return &models.Session{
		ID:         "test-session",
		Stage:      stage,
		Config:     cfg,
		Difficulty: 3,
		Memory:     models.NewMemoryProfile(),
	}
}

func addAnsweredTurn(s *models.Session, stage models.Stage, aggregate float64) {
	now := time.Now()
	s.Turns = append(s.Turns, &models.Turn{
		QuestionText:    "q",
		Topic:           "golang",
		StageAtAsk:      stage,
		DifficultyAtAsk: s.Difficulty,
		AskedAt:         now,
		AnswerText:      "a",
		AnsweredAt:      &now,
		Evaluation:      &models.Evaluation{Aggregate: aggregate},
	})
}

func TestAdvanceStageOnQuotaMet(t *testing.T) {
	s := sessionAtStage(models.StageIntro)
	addAnsweredTurn(s, models.StageIntro, 70)

	stage, advanced := advanceStage(s)
	if !advanced {
		t.Fatal("intro quota of 1 should advance the stage")
	}
	if stage != models.StageWarmup {
		t.Errorf("expected warmup, got %s", stage)
	}
}

func TestNoAdvanceWhileQuotaUnmet(t *testing.T) {
	s := sessionAtStage(models.StageCoreQuestions)
	addAnsweredTurn(s, models.StageCoreQuestions, 70)
	addAnsweredTurn(s, models.StageCoreQuestions, 70)

	stage, advanced := advanceStage(s)
	if advanced {
		t.Fatal("core quota is 3, two answers should not advance")
	}
	if stage != models.StageCoreQuestions {
		t.Errorf("expected core_questions, got %s", stage)
	}

	addAnsweredTurn(s, models.StageCoreQuestions, 70)
	stage, advanced = advanceStage(s)
	if !advanced || stage != models.StagePressureRound {
		t.Errorf("third answer should advance to pressure_round, got %s advanced=%v", stage, advanced)
	}
}

func TestAdvanceIgnoresOtherStageTurns(t *testing.T) {
	s := sessionAtStage(models.StageWarmup)
	// Turns answered in earlier stages must not count toward this quota
	addAnsweredTurn(s, models.StageIntro, 70)

	if _, advanced := advanceStage(s); advanced {
		t.Error("intro turns must not satisfy the warmup quota")
	}
}

func TestAdvanceAtMostOneStage(t *testing.T) {
	s := sessionAtStage(models.StageWarmup)
	// Enough answers to satisfy several quotas at once
	for i := 0; i < 5; i++ {
		addAnsweredTurn(s, models.StageWarmup, 70)
	}

	stage, _ := advanceStage(s)
	if stage != models.StageCoreQuestions {
		t.Errorf("a single check must advance one stage only, got %s", stage)
	}
}

func TestNoAdvanceFromTerminal(t *testing.T) {
	s := sessionAtStage(models.StageFeedback)
	addAnsweredTurn(s, models.StageClosing, 70)

	stage, advanced := advanceStage(s)
	if advanced {
		t.Error("feedback is terminal, nothing advances from it")
	}
	if stage != models.StageFeedback {
		t.Errorf("expected feedback, got %s", stage)
	}
}
