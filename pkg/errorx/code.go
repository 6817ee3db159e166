package errorx

type Code int

var Unknown = Error{Code: 100000, Message: "Request failed"}

const (
	// Common codes
	BadRequest       Code = 100001
	BadResponse      Code = 100002
	PermissionDenied Code = 100003
	NotFound         Code = 100004
	Unauthenticated  Code = 100005
	AlreadyExists    Code = 100006
	Internal         Code = 100007
	Unavailable      Code = 100008
	TooManyRequests  Code = 100010

	// Ticket allocation codes
	InsufficientCapacity Code = 200001
	AllocationConflict   Code = 200002

	// Draw codes
	NotEligible    Code = 300001
	AlreadyDrawn   Code = 300002
	NoTickets      Code = 300003
	ReasonRequired Code = 300004
	DrawFailed     Code = 300005

	// Qualifying codes
	Cooldown    Code = 400001
	TimeExpired Code = 400002
)
