//go:build windows

package sdkdir

import "golang.org/x/sys/windows"

// markHidden sets the hidden attribute so the directory does not clutter
// Explorer views; the path has no dot-prefix convention on Windows.
func markHidden(dir string) error {
	p, err := windows.UTF16PtrFromString(dir)
	if err != nil {
		return err
	}
	attrs, err := windows.GetFileAttributes(p)
	if err != nil {
		return err
	}
	return windows.SetFileAttributes(p, attrs|windows.FILE_ATTRIBUTE_HIDDEN)
}
