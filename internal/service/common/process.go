//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"os"
	"runtime"
	"strings"

	"github.com/mitchellh/go-ps"
)

// ExecutableName appends ".exe" to base on Windows.
func ExecutableName(base string) string {
	if strings.Contains(strings.ToLower(runtime.GOOS), "windows") {
		return base + ".exe"
	}

	return base
}

// FindOtherProcesses returns the PIDs of running processes named
// processName, excluding the current process.
func FindOtherProcesses(processName string) ([]int, error) {
	processList, err := ps.Processes()
	if err != nil {
		return nil, err
	}

	thisProcessID := os.Getpid()

	var pids []int

	for _, process := range processList {
		if process.Pid() == thisProcessID {
			continue
		}

		if !sameExecutable(process.Executable(), processName) {
			continue
		}

		pids = append(pids, process.Pid())
	}

	return pids, nil
}

// commLength is the longest process name Linux reports; longer names are cut.
const commLength = 15

// sameExecutable compares a reported process name with an executable name,
// allowing for the kernel's truncated names.
func sameExecutable(reported, processName string) bool {
	if reported == processName {
		return true
	}

	return len(reported) == commLength && strings.HasPrefix(processName, reported)
}

// TerminateProcessByName kills every other process named processName.
func TerminateProcessByName(processName string) error {
	pids, err := FindOtherProcesses(processName)
	if err != nil {
		return err
	}

	for _, pid := range pids {
		runningProcess, err := os.FindProcess(pid)
		if err != nil {
			return err
		}

		if err = runningProcess.Kill(); err != nil {
			return err
		}
	}

	return nil
}
