//go:build !windows

package sdkdir

// markHidden is a no-op off Windows; the XDG locations are already out of
// the user's way.
func markHidden(string) error { return nil }
