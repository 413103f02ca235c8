package policy

import "github.com/cinesocial/platform/internal/domain"

// FreezeDecision holds the result of a gap evaluation.
type FreezeDecision struct {
	// Covered is true when the policy bridges the gap and the streak
	// continues as if no day was missed.
	Covered bool `json:"covered"`
	// Consumed is the number of freezes spent to cover the gap.
	Consumed int `json:"consumed"`
}

// FreezePolicy decides whether missed calendar days are bridged by spending
// the streak's freeze budget. The streak tracker consults it when activity
// arrives after a gap of one or more whole days.
type FreezePolicy interface {
	EvaluateGap(streak *domain.Streak, missedDays int) FreezeDecision
}

// NoAutoFreeze never spends freezes. The budget is only consumed through the
// explicit freeze endpoint, so a user always opts in to using one.
type NoAutoFreeze struct{}

func (NoAutoFreeze) EvaluateGap(*domain.Streak, int) FreezeDecision {
	return FreezeDecision{}
}

// AutoFreeze spends freezes silently whenever the remaining budget covers
// the whole gap, one freeze per missed day. A partially coverable gap is not
// bridged; spending freezes on a streak that breaks anyway would waste them.
type AutoFreeze struct{}

func (AutoFreeze) EvaluateGap(streak *domain.Streak, missedDays int) FreezeDecision {
	if missedDays <= 0 || streak.FreezesAvailable < missedDays {
		return FreezeDecision{}
	}
	return FreezeDecision{Covered: true, Consumed: missedDays}
}
