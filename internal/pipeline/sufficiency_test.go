package pipeline

import (
	"context"
	"fmt"
	"testing"

	"negotiation-lab/internal/domain"
	"negotiation-lab/internal/storage/memory"
)

func consistentRecord(id, opponent string) *domain.SessionRecord {
	return &domain.SessionRecord{
		SessionID:        id,
		RunID:            "run",
		ScenarioID:       domain.ScenarioSmall,
		StrategyID:       "adaptive",
		OpponentID:       opponent,
		NSteps:           20,
		StepsUsed:        20,
		SelfUtility:      0.2,
		OpponentUtility:  0.4,
		SelfReserved:     0.2,
		OpponentReserved: 0.4,
		Welfare:          0.6,
		EndReason:        domain.EndReasonTimeout,
	}
}

func checkStore(t *testing.T, records []*domain.SessionRecord, th SufficiencyThresholds) *SufficiencyResult {
	t.Helper()
	store := memory.NewSessionRecordStore()
	if err := store.InsertBulk(context.Background(), records); err != nil {
		t.Fatalf("insert: %v", err)
	}
	res, err := NewSufficiencyChecker(store, th).Check(context.Background())
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	return res
}

func TestSufficiency_AllPass(t *testing.T) {
	var records []*domain.SessionRecord
	for i := 0; i < 4; i++ {
		records = append(records, consistentRecord(fmt.Sprintf("a-%d", i), "Linear"))
		records = append(records, consistentRecord(fmt.Sprintf("b-%d", i), "Boulware"))
	}

	res := checkStore(t, records, SufficiencyThresholds{MinSessions: 8, MinSessionsPerOpponent: 4})
	if !res.AllPass {
		t.Errorf("expected all checks to pass, got %+v", res.Checks)
	}
	if len(res.Checks) != 4 {
		t.Errorf("expected 4 checks, got %d", len(res.Checks))
	}
	if len(res.Errors) != 0 {
		t.Errorf("expected no errors, got %v", res.Errors)
	}
}

func TestSufficiency_OpponentCoverage(t *testing.T) {
	records := []*domain.SessionRecord{
		consistentRecord("a-1", "Linear"),
		consistentRecord("a-2", "Linear"),
		consistentRecord("b-1", "Boulware"),
	}

	res := checkStore(t, records, SufficiencyThresholds{MinSessions: 1, MinSessionsPerOpponent: 2})
	if res.AllPass {
		t.Fatal("expected coverage check to fail")
	}
	coverage := res.Checks[1]
	if coverage.Pass || coverage.Actual != "1" {
		t.Errorf("unexpected coverage check: %+v", coverage)
	}
	if len(res.Errors) != 1 {
		t.Errorf("expected 1 error, got %v", res.Errors)
	}
}

func TestSufficiency_ErrorsAndInconsistencies(t *testing.T) {
	errored := consistentRecord("err", "Linear")
	errored.EndReason = domain.EndReasonError

	badSteps := consistentRecord("steps", "Linear")
	badSteps.StepsUsed = 21

	badAgreement := consistentRecord("agree", "Linear")
	badAgreement.Agreement = true

	badWelfare := consistentRecord("welfare", "Linear")
	badWelfare.Welfare = 1

	res := checkStore(t, []*domain.SessionRecord{errored, badSteps, badAgreement, badWelfare},
		SufficiencyThresholds{MinSessions: 1, MinSessionsPerOpponent: 1})

	if res.AllPass {
		t.Fatal("expected failures")
	}
	if res.Checks[2].Pass || res.Checks[2].Actual != "1" {
		t.Errorf("unexpected error-session check: %+v", res.Checks[2])
	}
	if res.Checks[3].Pass || res.Checks[3].Actual != "3" {
		t.Errorf("unexpected consistency check: %+v", res.Checks[3])
	}
}

func TestSufficiency_Empty(t *testing.T) {
	res := checkStore(t, nil, DefaultSufficiencyThresholds())
	if res.AllPass {
		t.Error("expected empty store to fail")
	}
}
