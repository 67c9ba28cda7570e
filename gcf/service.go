package gcf

import (
	"context"
	"fmt"

	functions "cloud.google.com/go/functions/apiv2"
	"cloud.google.com/go/functions/apiv2/functionspb"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func Client(ctx context.Context, opts ...option.ClientOption) (*functions.FunctionClient, error) {
	return functions.NewFunctionClient(ctx, opts...)
}

// FullName builds the fully qualified resource name of a function.
func FullName(project, region, name string) string {
	return fmt.Sprintf("projects/%s/locations/%s/functions/%s", project, region, name)
}

// GetFunctionDetails fetches the deployed function, or (nil, nil) when no
// function with that name exists yet.
func (wrapper ServiceWrapper) GetFunctionDetails(ctx context.Context, project, region, name string) (*functionspb.Function, error) {
	resp, err := wrapper.Client.GetFunction(ctx, &functionspb.GetFunctionRequest{
		Name: FullName(project, region, name),
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, nil
		}
		return nil, err
	}
	return resp, nil
}
