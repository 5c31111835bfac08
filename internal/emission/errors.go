package emission

// constError is an immutable error type for sentinel errors.
type constError string

func (e constError) Error() string { return string(e) }

// Errors returned while building or querying a factor table.
var (
	// ErrUnknownActivity indicates an activity key absent from the table.
	ErrUnknownActivity = constError("unknown activity")

	// ErrDuplicateActivity indicates two activities share a key.
	ErrDuplicateActivity = constError("duplicate activity key")

	// ErrInvalidFactor indicates a negative, infinite or NaN factor.
	ErrInvalidFactor = constError("invalid emission factor")

	// ErrInvalidCategory indicates an activity outside the known categories.
	ErrInvalidCategory = constError("invalid category")

	// ErrMissingDefault indicates a category without exactly one default activity.
	ErrMissingDefault = constError("category needs exactly one default activity")
)
