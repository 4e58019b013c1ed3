package repository

import (
	"testing"

	"github.com/callcore/campaign-engine/internal/domain"
)

// Replays the archive-then-prune step each claim runs: the prior terminal
// attempt is snapshotted into the attempts table, then every row below
// oldestRetainedSeq is deleted. A contact's history (archived rows plus the
// live enrollment row) must never exceed MaxAttemptHistory, with the oldest
// attempts dropped first.
func TestAttemptRingCapsAtMaxHistory(t *testing.T) {
	t.Parallel()

	var archived []int
	for seq := 1; seq <= 6; seq++ {
		archived = append(archived, seq)

		kept := archived[:0]
		for _, s := range archived {
			if s >= oldestRetainedSeq(seq) {
				kept = append(kept, s)
			}
		}
		archived = kept

		if total := len(archived) + 1; total > domain.MaxAttemptHistory {
			t.Fatalf("after archiving seq %d history holds %d entries, cap is %d", seq, total, domain.MaxAttemptHistory)
		}
	}

	want := []int{4, 5, 6}
	if len(archived) != len(want) {
		t.Fatalf("archived seqs = %v, want %v", archived, want)
	}
	for i := range want {
		if archived[i] != want[i] {
			t.Fatalf("archived seqs = %v, want %v", archived, want)
		}
	}
}

func TestOldestRetainedSeq(t *testing.T) {
	t.Parallel()

	tests := []struct {
		archivedSeq int
		want        int
	}{
		{archivedSeq: 1, want: -1},
		{archivedSeq: 3, want: 1},
		{archivedSeq: 4, want: 2},
		{archivedSeq: 10, want: 8},
	}

	for _, tt := range tests {
		if got := oldestRetainedSeq(tt.archivedSeq); got != tt.want {
			t.Errorf("oldestRetainedSeq(%d) = %d, want %d", tt.archivedSeq, got, tt.want)
		}
	}
}
