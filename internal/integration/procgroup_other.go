//go:build !unix

package integration

import "os/exec"

// killProcessGroupOnCancel keeps the default behaviour of killing only the
// interpreter. WaitDelay still bounds the wait for inherited pipes.
func killProcessGroupOnCancel(cmd *exec.Cmd) {}
