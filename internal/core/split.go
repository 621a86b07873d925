package core

// Classification labels for how a transaction's cost is shared.
const (
	LabelPersonal    = "Personal"
	LabelShared      = "Shared (User + Members)"
	LabelMembersOnly = "Members Only (User Paid)"
)

// Split describes how a transaction's cost divides between the paying
// user and the assigned members. All quantities are plain real-number
// division over the decimal amount; rounding is a presentation concern.
type Split interface {
	// CostPerHead is the per-participant share. Zero participants
	// degrade to 0 rather than dividing by zero.
	CostPerHead() float64
	// UserShare is the user's own portion of the cost.
	UserShare() float64
	// MembersTotalShare is the combined portion owed by assigned members.
	MembersTotalShare() float64
	// Classification is the display label for this sharing shape.
	Classification() string
}

// PersonalSplit is a transaction with no assigned members: the user
// bears the full amount.
type PersonalSplit struct {
	Amount Money
}

func (s PersonalSplit) CostPerHead() float64       { return s.Amount.Amount() }
func (s PersonalSplit) UserShare() float64         { return s.Amount.Amount() }
func (s PersonalSplit) MembersTotalShare() float64 { return 0 }
func (s PersonalSplit) Classification() string     { return LabelPersonal }

// SharedSplit is a transaction shared with one or more members. The user
// always pays the full amount upfront; UserParticipates controls whether
// the user also counts as a cost participant.
type SharedSplit struct {
	Amount           Money
	MemberCount      int
	UserParticipates bool
}

func (s SharedSplit) participants() int {
	n := s.MemberCount
	if s.UserParticipates {
		n++
	}
	return n
}

func (s SharedSplit) CostPerHead() float64 {
	n := s.participants()
	if n == 0 {
		return 0
	}
	return s.Amount.Amount() / float64(n)
}

func (s SharedSplit) UserShare() float64 {
	if !s.UserParticipates {
		return 0
	}
	return s.CostPerHead()
}

func (s SharedSplit) MembersTotalShare() float64 {
	return s.CostPerHead() * float64(s.MemberCount)
}

func (s SharedSplit) Classification() string {
	if s.UserParticipates {
		return LabelShared
	}
	return LabelMembersOnly
}

// Split selects the cost-sharing variant for the transaction. Income is
// never split, so it is always personal regardless of assignments.
func (t Transaction) Split() Split {
	if t.Kind == Income || len(t.Members) == 0 {
		return PersonalSplit{Amount: t.Amount}
	}
	return SharedSplit{
		Amount:           t.Amount,
		MemberCount:      len(t.Members),
		UserParticipates: t.UserParticipates,
	}
}

// IsPersonal reports whether no members are assigned.
func (t Transaction) IsPersonal() bool {
	return len(t.Members) == 0
}

// IsShared reports whether at least one member is assigned.
func (t Transaction) IsShared() bool {
	return len(t.Members) > 0
}

// IsMembersOnly reports whether the user paid but does not participate
// in the cost split.
func (t Transaction) IsMembersOnly() bool {
	return t.IsShared() && !t.UserParticipates
}

func (t Transaction) CostPerHead() float64       { return t.Split().CostPerHead() }
func (t Transaction) UserShare() float64         { return t.Split().UserShare() }
func (t Transaction) MembersTotalShare() float64 { return t.Split().MembersTotalShare() }

// UserNetPosition is how much the user is out-of-pocket after every
// assigned member reimburses their computed share.
func (t Transaction) UserNetPosition() float64 {
	return t.Amount.Amount() - t.MembersTotalShare()
}

// ClassificationLabel returns the display label for the sharing shape.
func (t Transaction) ClassificationLabel() string {
	return t.Split().Classification()
}
