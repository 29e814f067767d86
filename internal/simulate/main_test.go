package simulate

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/goleak"
)

const (
	helperEnv     = "SIMULATE_TEST_WORKER_DIR"
	helperFailEnv = "SIMULATE_TEST_WORKER_FAIL"
)

// TestMain doubles as the worker process the spawner tests launch: when
// helperEnv is set the binary records its arguments and exits.
func TestMain(m *testing.M) {
	if dir := os.Getenv(helperEnv); dir != "" {
		os.Exit(fakeWorker(dir, os.Args[1:]))
	}
	goleak.VerifyTestMain(m)
}

func fakeWorker(dir string, args []string) int {
	if len(args) < 3 {
		return 2
	}
	if fail := os.Getenv(helperFailEnv); fail != "" && fail == args[1] {
		return 3
	}
	name := fmt.Sprintf("%s.%s.%s", args[0], args[1], args[2])
	body := strings.Join(args[3:], " ")
	if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
		return 1
	}
	return 0
}
