//go:build !windows

package codepage

func consoleCharset() Charset {
	name := localeCharset()
	if name == "" {
		return UTF8
	}
	cs, err := ForCharset(name)
	if err != nil {
		return UTF8
	}
	return cs
}
