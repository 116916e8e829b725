//go:build windows

package codepage

import "golang.org/x/sys/windows"

var procGetOEMCP = windows.NewLazySystemDLL("kernel32.dll").NewProc("GetOEMCP")

func consoleCharset() Charset {
	if err := procGetOEMCP.Find(); err != nil {
		return UTF8
	}
	cp, _, _ := procGetOEMCP.Call()
	cs, err := ForCodePage(int(cp))
	if err != nil {
		return UTF8
	}
	return cs
}
