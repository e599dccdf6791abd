package session

// State is the resolution state of a Provider
type State int

const (
	// Uninitialized means resolution has not run yet (or the storage was not ready)
	Uninitialized State = iota
	// Loading means the profile fetch is in flight
	Loading
	// Authenticated means a Session User is populated
	Authenticated
	// Anonymous means there is no valid credential or the profile fetch failed
	Anonymous
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Loading:
		return "loading"
	case Authenticated:
		return "authenticated"
	case Anonymous:
		return "anonymous"
	default:
		return "unknown"
	}
}

// Navigation targets used by the auth actions and page guards
const (
	PathHome         = "/"
	PathSignIn       = "/sign-in"
	PathUnauthorized = "/401"
)

// Fixed storage keys
const (
	AccessTokenKey = "accessToken"
	RedirectKey    = "redirect"
)
