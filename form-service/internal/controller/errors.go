package controller

const (
	msgMissingFile     = "Please select a photo or video to upload."
	msgMissingRequired = "Please fill in all required fields."
	msgBadCoordinates  = "Latitude and longitude must be valid coordinates."
	msgBusy            = "A submission is already in progress."
	msgFallback        = "Something went wrong while submitting the report."
)

// ValidationError reports bad user input. No network call has been made when
// it is returned.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// BusyError is returned when the same form is submitted while a previous
// submission is still running.
type BusyError struct {
	FormID string
}

func (e *BusyError) Error() string {
	return msgBusy
}
