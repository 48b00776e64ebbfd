package inspection

import "errors"

var (
	ErrUnknownType     = errors.New("unknown inspection type")
	ErrLocationMissing = errors.New("building location is required")
	ErrUnknownDecision = errors.New("decision must be Approved or Rejected")
)
