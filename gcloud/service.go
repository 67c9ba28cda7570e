package gcloud

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/WandernGeo/wandern-arweave-uploader/common"
)

type ServiceWrapper struct {
	Runner Runner
	Out    io.Writer
}

type execRunner struct {
	binary string
}

func (r execRunner) Run(ctx context.Context, args []string) error {
	cmd := exec.CommandContext(ctx, r.binary, args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

// CommandRunner returns a Runner backed by the gcloud binary on PATH.
func CommandRunner() Runner {
	return execRunner{binary: "gcloud"}
}

// ExitCode maps a Runner error to the wrapper's own exit code. The external
// tool's code is propagated untouched; anything else becomes 1.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return 1
}

func ValidateInputParams(params common.DeployParams) error {
	var errorMessage strings.Builder
	if common.TrimAndCheckEmptyString(&params.FunctionName) {
		errorMessage.WriteString("Function Name cannot be null.\n")
	}
	if common.TrimAndCheckEmptyString(&params.ProjectID) {
		errorMessage.WriteString("Project ID cannot be null.\n")
	}
	if common.TrimAndCheckEmptyString(&params.Region) {
		errorMessage.WriteString("Region cannot be null.\n")
	}
	if common.TrimAndCheckEmptyString(&params.Runtime) {
		errorMessage.WriteString("Runtime must be specified.\n")
	}
	if common.TrimAndCheckEmptyString(&params.SourceDir) {
		errorMessage.WriteString("Source directory must be specified.\n")
	}
	if common.TrimAndCheckEmptyString(&params.EntryPoint) {
		errorMessage.WriteString("Entry point must be specified.\n")
	}

	if len(errorMessage.String()) > 0 {
		return &common.InputError{
			Message: errorMessage.String(),
		}
	}
	return nil
}

// FormatAssignments renders a map as the comma-separated K=V list gcloud
// expects, with keys sorted so the argument list is deterministic.
func FormatAssignments(vars map[string]string) string {
	pairs := make([]string, 0, len(vars))
	for _, k := range common.SortedKeys(vars) {
		pairs = append(pairs, k+"="+vars[k])
	}
	return strings.Join(pairs, ",")
}

func BuildDeployArgs(params common.DeployParams) []string {
	args := []string{
		"functions", "deploy", params.FunctionName,
		"--runtime", params.Runtime,
		"--region", params.Region,
		"--source", params.SourceDir,
		"--entry-point", params.EntryPoint,
		"--trigger-http",
	}
	if params.AllowUnauthenticated {
		args = append(args, "--allow-unauthenticated")
	}
	args = append(args,
		"--memory", params.Memory,
		"--timeout", params.Timeout,
	)
	if len(params.EnvironmentVariables) > 0 {
		args = append(args, "--set-env-vars", FormatAssignments(params.EnvironmentVariables))
	}
	// Secrets ride in as Secret Manager references so no credential material
	// ever appears on the command line.
	if len(params.SecretVariables) > 0 {
		args = append(args, "--set-secrets", FormatAssignments(params.SecretVariables))
	}
	args = append(args, "--project", params.ProjectID)
	return args
}

func BuildDeleteArgs(params common.DeployParams) []string {
	return []string{
		"functions", "delete", params.FunctionName,
		"--region", params.Region,
		"--project", params.ProjectID,
		"--quiet",
	}
}

// FunctionURL is the HTTPS trigger URL gcloud assigns to the function.
func FunctionURL(params common.DeployParams) string {
	return fmt.Sprintf("https://%s-%s.cloudfunctions.net/%s",
		params.Region, params.ProjectID, params.FunctionName)
}

// Deploy prints the start banner, invokes gcloud synchronously and, only if
// the tool exits zero, prints the success banner with the function URL.
func (wrapper ServiceWrapper) Deploy(ctx context.Context, params common.DeployParams) error {
	fmt.Fprintf(wrapper.Out, "🚀 Deploying %s to %s...\n", params.FunctionName, params.Region)

	if err := wrapper.Runner.Run(ctx, BuildDeployArgs(params)); err != nil {
		return err
	}

	fmt.Fprintf(wrapper.Out, "✅ Deployment complete: %s\n", FunctionURL(params))
	return nil
}

func (wrapper ServiceWrapper) Delete(ctx context.Context, params common.DeployParams) error {
	fmt.Fprintf(wrapper.Out, "🗑  Deleting %s from %s...\n", params.FunctionName, params.Region)
	return wrapper.Runner.Run(ctx, BuildDeleteArgs(params))
}
