package gcloud

import "context"

// Runner executes the external gcloud binary. The deploy flow only ever
// needs the exit status; all tool output goes straight to the console.
type Runner interface {
	Run(ctx context.Context, args []string) error
}
