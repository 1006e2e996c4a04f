package main

import "os/exec"

// shellCommand builds an *exec.Cmd that runs command through the
// user's shell, so --command accepts the same pipelines and
// redirections a shell invocation would.
func shellCommand(command string) *exec.Cmd {
	return exec.Command("sh", "-c", command)
}
