package presence

import "time"

// OnlineWindow is how recently a user must have been active to count as
// online.
const OnlineWindow = 5 * time.Minute

// IsOnline reports whether a user with the given last-activity timestamp is
// currently online.
//
// A timestamp in the future (clock skew between writers) is never online;
// otherwise the user is online iff the activity is within OnlineWindow of
// now. Both bounds are inclusive.
func IsOnline(lastActiveAt, now time.Time) bool {
	if lastActiveAt.After(now) {
		return false
	}
	return now.Sub(lastActiveAt) <= OnlineWindow
}
