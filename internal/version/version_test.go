package version

import (
	"context"
	"os"
	"os/exec"
	"runtime/debug"
	"strings"
	"testing"
)

// TestHelperProcess isn't a real test. It's used to mock exec.CommandContext.
func TestHelperProcess(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}
	defer os.Exit(0)

	args := os.Args
	for len(args) > 0 {
		if args[0] == "--" {
			args = args[1:]
			break
		}
		args = args[1:]
	}
	if len(args) < 3 || args[0] != "git" || args[1] != "describe" {
		os.Exit(0)
	}

	switch args[2] {
	case "--always":
		if os.Getenv("MOCK_GIT_COMMIT_FAIL") == "1" {
			os.Exit(1)
		}
		os.Stdout.WriteString("mock-commit-hash\n")
	case "--tags":
		if os.Getenv("MOCK_GIT_VERSION_FAIL") == "1" {
			os.Exit(1)
		}
		os.Stdout.WriteString("v1.0.0\n")
	}
}

func mockExecCommand(env ...string) func(context.Context, string, ...string) *exec.Cmd {
	return func(ctx context.Context, name string, args ...string) *exec.Cmd {
		cs := append([]string{"-test.run=TestHelperProcess", "--", name}, args...)
		cmd := exec.CommandContext(ctx, os.Args[0], cs...)
		cmd.Env = append([]string{"GO_WANT_HELPER_PROCESS=1"}, env...)
		return cmd
	}
}

func noBuildInfo() (*debug.BuildInfo, bool) { return nil, false }

func stubs(t *testing.T) {
	t.Helper()
	origExec, origRead := execCommand, readBuildInfo
	t.Cleanup(func() {
		execCommand, readBuildInfo = origExec, origRead
		Reset()
	})
}

func TestInfo_GitFallback(t *testing.T) {
	tests := []struct {
		name       string
		env        []string
		wantVer    string
		wantCommit string
	}{
		{"Success", nil, "1.0.0", "mock-commit-hash"},
		{"CommitFail", []string{"MOCK_GIT_COMMIT_FAIL=1"}, "1.0.0", "unknown"},
		{"VersionFail", []string{"MOCK_GIT_VERSION_FAIL=1"}, "dev", "mock-commit-hash"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stubs(t)
			readBuildInfo = noBuildInfo
			execCommand = mockExecCommand(tt.env...)
			Reset()

			if got := GetVersion(); got != tt.wantVer {
				t.Errorf("GetVersion() = %q, want %q", got, tt.wantVer)
			}
			if got := GetCommit(); got != tt.wantCommit {
				t.Errorf("GetCommit() = %q, want %q", got, tt.wantCommit)
			}
			if GetDate() == "" {
				t.Error("GetDate() returned empty string")
			}

			info := Info()
			if !strings.HasPrefix(info, "authquota "+tt.wantVer) || !strings.Contains(info, tt.wantCommit) {
				t.Errorf("Info() = %q", info)
			}
		})
	}
}

func TestInfo_BuildInfo(t *testing.T) {
	stubs(t)
	readBuildInfo = func() (*debug.BuildInfo, bool) {
		return &debug.BuildInfo{
			Main: debug.Module{Version: "v2.3.4"},
			Settings: []debug.BuildSetting{
				{Key: "vcs.revision", Value: "0123456789abcdef0123"},
				{Key: "vcs.time", Value: "2025-05-04T03:02:01Z"},
			},
		}, true
	}
	execCommand = func(context.Context, string, ...string) *exec.Cmd {
		t.Fatal("git should not run when build info is complete")
		return nil
	}
	Reset()

	if got := GetVersion(); got != "2.3.4" {
		t.Errorf("GetVersion() = %q", got)
	}
	if got := GetCommit(); got != "0123456789ab" {
		t.Errorf("GetCommit() = %q", got)
	}
	if got := GetDate(); got != "2025-05-04" {
		t.Errorf("GetDate() = %q", got)
	}
}

func TestInfo_DevelBuild(t *testing.T) {
	stubs(t)
	readBuildInfo = func() (*debug.BuildInfo, bool) {
		return &debug.BuildInfo{Main: debug.Module{Version: "(devel)"}}, true
	}
	execCommand = mockExecCommand("MOCK_GIT_VERSION_FAIL=1")
	Reset()

	if got := GetVersion(); got != "dev" {
		t.Errorf("GetVersion() = %q, want dev", got)
	}
}
