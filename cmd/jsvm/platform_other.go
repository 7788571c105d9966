//go:build !unix

package main

import "runtime"

func platformVersion() string {
	return runtime.GOARCH
}
