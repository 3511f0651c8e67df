package domain

// State is the slot the conversation is currently waiting for.
type State string

const (
	StateAwaitingUserType  State = "awaiting_user_type"
	StateAwaitingNiche     State = "awaiting_niche"
	StateAwaitingPlatform  State = "awaiting_platform"
	StateAwaitingBudget    State = "awaiting_budget"
	StateAwaitingFollowers State = "awaiting_followers"
)

// ConversationSession holds the slots collected so far for one conversation.
// Slots are filled in a fixed order, so the current state is derived from
// which fields are set rather than stored separately.
type ConversationSession struct {
	UserType  UserType
	Niche     *string
	Platform  *string
	Budget    *int64
	Followers *int64
}

// State returns the slot the session is waiting for.
func (s *ConversationSession) State() State {
	switch {
	case s.UserType == UserTypeUnset:
		return StateAwaitingUserType
	case s.Niche == nil:
		return StateAwaitingNiche
	case s.UserType == UserTypeBrand && s.Platform == nil:
		return StateAwaitingPlatform
	case s.UserType == UserTypeBrand:
		return StateAwaitingBudget
	default:
		return StateAwaitingFollowers
	}
}

// IsEmpty reports whether no slot has been filled yet.
func (s *ConversationSession) IsEmpty() bool {
	return s.UserType == UserTypeUnset && s.Niche == nil && s.Platform == nil &&
		s.Budget == nil && s.Followers == nil
}

// Reset clears every slot.
func (s *ConversationSession) Reset() {
	*s = ConversationSession{}
}

// Clone returns a deep copy so callers can compute transitions without
// touching the stored session.
func (s ConversationSession) Clone() ConversationSession {
	out := ConversationSession{UserType: s.UserType}
	if s.Niche != nil {
		v := *s.Niche
		out.Niche = &v
	}
	if s.Platform != nil {
		v := *s.Platform
		out.Platform = &v
	}
	if s.Budget != nil {
		v := *s.Budget
		out.Budget = &v
	}
	if s.Followers != nil {
		v := *s.Followers
		out.Followers = &v
	}
	return out
}
