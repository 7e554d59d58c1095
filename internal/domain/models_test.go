package domain

import (
	"testing"
	"time"
)

func TestExpired(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	cases := []struct {
		name     string
		deadline *time.Time
		want     bool
	}{
		{"no deadline", nil, false},
		{"future deadline", &future, false},
		{"past deadline", &past, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := JobRecord{ApplicationDeadline: tc.deadline}
			if got := rec.Expired(now); got != tc.want {
				t.Errorf("Expired = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestDaysUntilDeadline(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

	rec := JobRecord{}
	if _, ok := rec.DaysUntilDeadline(now); ok {
		t.Error("record without deadline should report no day count")
	}

	deadline := now.Add(72 * time.Hour)
	rec.ApplicationDeadline = &deadline
	days, ok := rec.DaysUntilDeadline(now)
	if !ok || days != 3 {
		t.Errorf("DaysUntilDeadline = %d,%v, want 3,true", days, ok)
	}

	overdue := now.Add(-48 * time.Hour)
	rec.ApplicationDeadline = &overdue
	days, ok = rec.DaysUntilDeadline(now)
	if !ok || days != -2 {
		t.Errorf("DaysUntilDeadline = %d,%v, want -2,true", days, ok)
	}
}
