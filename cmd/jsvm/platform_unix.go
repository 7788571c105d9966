//go:build unix

package main

import (
	"bytes"
	"fmt"

	"golang.org/x/sys/unix"
)

// platformVersion describes the kernel the shell is running on.
func platformVersion() string {
	var uname unix.Utsname
	if unix.Uname(&uname) != nil {
		return "unknown"
	}
	r, v := bytes.TrimRight(uname.Release[:], "\x00"), bytes.TrimRight(uname.Version[:], "\x00")
	return fmt.Sprintf("%s %s", r, v)
}
