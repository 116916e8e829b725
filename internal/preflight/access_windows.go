//go:build windows

package preflight

import (
	"errors"

	"golang.org/x/sys/windows"
)

func checkReadWrite(path string) error {
	p, err := windows.UTF16PtrFromString(path)
	if err != nil {
		return err
	}
	attrs, err := windows.GetFileAttributes(p)
	if err != nil {
		return err
	}
	if attrs&windows.FILE_ATTRIBUTE_READONLY != 0 {
		return errors.New("directory is read-only")
	}
	return nil
}
