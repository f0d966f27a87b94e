package ui

// Status is the outcome of a registry operation. The set is closed and its
// string forms are the contract with scripts.
type Status int

const (
	Ok Status = iota
	NotFound
	AlreadyRegistered
	InvalidArgument
	Unknown
)

var statusNames = [...]string{
	Ok:                "Ok",
	NotFound:          "NotFound",
	AlreadyRegistered: "AlreadyRegistered",
	InvalidArgument:   "InvalidArgument",
	Unknown:           "Unknown",
}

func (s Status) String() string {
	if s < 0 || int(s) >= len(statusNames) {
		return statusNames[Unknown]
	}
	return statusNames[s]
}

// Statuses returns every status in declaration order.
func Statuses() []Status {
	return []Status{Ok, NotFound, AlreadyRegistered, InvalidArgument, Unknown}
}
