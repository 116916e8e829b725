//go:build windows

package archiver

import (
	"errors"

	"golang.org/x/sys/windows"
)

func checkWritable(dir string) error {
	ptr, err := windows.UTF16PtrFromString(dir)
	if err != nil {
		return err
	}
	attrs, err := windows.GetFileAttributes(ptr)
	if err != nil {
		return err
	}
	if attrs&windows.FILE_ATTRIBUTE_READONLY != 0 && attrs&windows.FILE_ATTRIBUTE_DIRECTORY == 0 {
		return errors.New("read-only")
	}
	return nil
}
