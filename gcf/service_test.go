package gcf

import (
	"context"
	"testing"

	"cloud.google.com/go/functions/apiv2/functionspb"
	"github.com/googleapis/gax-go/v2"
	"github.com/stretchr/testify/assert"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type mockFunctionApi struct {
	missing bool
}

func (m *mockFunctionApi) GetFunction(ctx context.Context, req *functionspb.GetFunctionRequest, opts ...gax.CallOption) (*functionspb.Function, error) {
	if m.missing {
		return nil, status.Error(codes.NotFound, "function not found")
	}
	return &functionspb.Function{
		Name:  req.Name,
		State: functionspb.Function_ACTIVE,
	}, nil
}

func TestGetFunctionDetails(t *testing.T) {
	ctx := context.TODO()

	t.Run("found", func(t *testing.T) {
		service := ServiceWrapper{Client: &mockFunctionApi{}}
		resp, err := service.GetFunctionDetails(ctx, "wandern-project-startup", "us-central1", "arweave-uploader")
		assert.NoError(t, err)
		assert.NotNil(t, resp)
		assert.Equal(t,
			"projects/wandern-project-startup/locations/us-central1/functions/arweave-uploader",
			resp.Name)
	})

	t.Run("missing", func(t *testing.T) {
		service := ServiceWrapper{Client: &mockFunctionApi{missing: true}}
		resp, err := service.GetFunctionDetails(ctx, "wandern-project-startup", "us-central1", "arweave-uploader")
		assert.NoError(t, err)
		assert.Nil(t, resp)
	})
}

func TestFullName(t *testing.T) {
	assert.Equal(t,
		"projects/p/locations/r/functions/f",
		FullName("p", "r", "f"))
}
