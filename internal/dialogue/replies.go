package dialogue

import (
	"fmt"
	"strings"

	"github.com/ashureev/collabmatch/internal/domain"
	"github.com/ashureev/collabmatch/internal/match"
)

// Fixed replies.
const (
	ReplyWelcome      = "Welcome! Are you a brand or an influencer? Type 'brand' or 'influencer' to begin."
	ReplyHelp         = "Sorry, I didn't understand. Type 'brand' or 'influencer' to find matches, or 'contact [name]' to reach an influencer."
	ReplyNoMatches    = "No matches yet. Try different criteria or check back later!"
	ReplyMatchFailed  = "Sorry, something went wrong while searching for matches. Please start again with 'hi'."
	ReplyLookupFailed = "Sorry, I couldn't look that up right now. Please try again."
	ReplyFallback     = "Sorry, I'm having trouble answering right now. Type 'brand' or 'influencer' to find matches."

	ReplyDealAccepted = "Deal accepted! Campaign started. Check your dashboard for details."
	ReplyCounterHelp  = "Please specify an amount (e.g., 'counter 600')."

	// ProposedDealAmount is the opening offer made when contacting an influencer.
	ProposedDealAmount = 500
)

var prompts = map[domain.State]string{
	domain.StateAwaitingUserType:  ReplyWelcome,
	domain.StateAwaitingNiche:     "What's your niche (e.g., Fitness, Beauty, Tech, Fashion)?",
	domain.StateAwaitingPlatform:  "Which platform should the influencers be on (e.g., Instagram)?",
	domain.StateAwaitingBudget:    "What's your campaign budget in dollars (e.g., 1000)?",
	domain.StateAwaitingFollowers: "How many followers do you have (e.g., 10000)?",
}

var hints = map[domain.State]string{
	domain.StateAwaitingBudget:    "Please enter your budget as a whole number of dollars (e.g., 1000).",
	domain.StateAwaitingFollowers: "Please enter your follower count as a whole number (e.g., 10000).",
}

// Prompt returns the question asked while waiting in state.
func Prompt(state domain.State) string {
	return prompts[state]
}

// FormatMatches renders a match result as a single reply.
func FormatMatches(res match.Result) string {
	if res.Empty() {
		return ReplyNoMatches
	}

	parts := make([]string, 0, len(res.Influencers)+len(res.Brands))
	for _, inf := range res.Influencers {
		parts = append(parts, fmt.Sprintf("%s (%d followers on %s)", inf.Name, inf.Followers, inf.Platform))
	}
	for _, b := range res.Brands {
		parts = append(parts, fmt.Sprintf("%s ($%d)", b.Name, b.Budget))
	}
	return fmt.Sprintf("Found matches: %s. Want to contact one? Type 'contact [name]'.", strings.Join(parts, ", "))
}

// FormatProfile renders the direct lookup answer.
func FormatProfile(inf *domain.Influencer) string {
	return fmt.Sprintf("%s has %d followers on %s (%s niche).", inf.Name, inf.Followers, inf.Platform, inf.Niche)
}

// FormatNotFound renders the lookup miss.
func FormatNotFound(name string) string {
	return fmt.Sprintf("Sorry, I couldn't find an influencer named %s.", name)
}

// FormatContact renders the opening offer for a found influencer.
func FormatContact(inf *domain.Influencer) string {
	return fmt.Sprintf("Connecting you with %s. Proposed deal: $%d for a post. Reply 'accept' or 'counter [amount]' to proceed.",
		inf.Name, ProposedDealAmount)
}

// FormatCounter renders a counter offer.
func FormatCounter(amount int64) string {
	return fmt.Sprintf("Countered with $%d. Waiting for response from the other party.", amount)
}
