package gcf

import (
	"context"

	"cloud.google.com/go/functions/apiv2/functionspb"
	"github.com/googleapis/gax-go/v2"
)

// FunctionApi is the slice of the Cloud Functions v2 client this tool uses.
// Tests swap in a hand mock.
type FunctionApi interface {
	GetFunction(ctx context.Context, req *functionspb.GetFunctionRequest, opts ...gax.CallOption) (*functionspb.Function, error)
}

type ServiceWrapper struct {
	Client FunctionApi
}
