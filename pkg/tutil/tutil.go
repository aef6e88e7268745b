package tutil

import (
	"os"
	"os/exec"
	"strings"
	"testing"
)

func IsIntegrationTest() bool {
	testType := os.Getenv("MC_TEST")
	return strings.ToLower(testType) == "integration"
}

// SkipUnlessIntegration skips t unless MC_TEST=integration.
func SkipUnlessIntegration(t *testing.T) {
	t.Helper()
	if !IsIntegrationTest() {
		t.Skip("set MC_TEST=integration to run")
	}
}

// SkipUnlessTools skips t when any of tools is missing from PATH.
func SkipUnlessTools(t *testing.T, tools ...string) {
	t.Helper()
	for _, tool := range tools {
		if _, err := exec.LookPath(tool); err != nil {
			t.Skipf("%s not on PATH", tool)
		}
	}
}
