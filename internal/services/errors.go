package services

import (
	"errors"
	"fmt"

	"github.com/loadlink/loadlink-backend/internal/models"
)

// Business-rule rejections. These are returned as values and mapped to HTTP
// statuses by the handlers; they never carry infrastructure detail.
var (
	ErrLoadNotFound   = errors.New("load not found")
	ErrNotAvailable   = errors.New("load is no longer available")
	ErrNotAssigned    = errors.New("driver is not assigned to this load")
	ErrNotOwner       = errors.New("user is not the owner of this load")
	ErrNotParticipant = errors.New("only the customer or the assigned driver can act on this load")
	ErrNoSample       = errors.New("no location sample recorded for driver")
	ErrAlreadyRated   = errors.New("load has already been rated")
	ErrNotRateable    = errors.New("load must be delivered before it can be rated")
	ErrGraceExpired   = errors.New("rating can no longer be changed")
)

// StateError rejects a transition whose current-state precondition does not
// hold, naming the required prior state.
type StateError struct {
	Op       string
	Current  models.LoadStatus
	Required []models.LoadStatus
}

func (e *StateError) Error() string {
	if len(e.Required) == 1 {
		return fmt.Sprintf("cannot %s load: status is %q, must be %q", e.Op, e.Current, e.Required[0])
	}
	return fmt.Sprintf("cannot %s load: status is %q, must be one of %v", e.Op, e.Current, e.Required)
}

// IsRejection reports whether err is a business-rule rejection rather than an
// infrastructure fault.
func IsRejection(err error) bool {
	var stateErr *StateError
	switch {
	case errors.Is(err, ErrLoadNotFound),
		errors.Is(err, ErrNotAvailable),
		errors.Is(err, ErrNotAssigned),
		errors.Is(err, ErrNotOwner),
		errors.Is(err, ErrNotParticipant),
		errors.Is(err, ErrAlreadyRated),
		errors.Is(err, ErrNotRateable),
		errors.Is(err, ErrGraceExpired),
		errors.As(err, &stateErr):
		return true
	}
	return false
}
