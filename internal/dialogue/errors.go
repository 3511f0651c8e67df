package dialogue

import (
	"fmt"

	"github.com/ashureev/collabmatch/internal/domain"
)

// ValidationError is returned for a slot answer that cannot be accepted.
// The session is left unchanged and the user is re-prompted with Hint.
type ValidationError struct {
	Slot  domain.State
	Input string
	Hint  string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid answer %q for %s", e.Input, e.Slot)
}
