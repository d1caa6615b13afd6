// Package runtimetest provides a testify mock of runtime.Gateway.
package runtimetest

import (
	"context"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/image"
	"github.com/stretchr/testify/mock"

	"dent/pkg/runtime"
)

// MockGateway is a mock implementation of the Gateway interface.
type MockGateway struct {
	mock.Mock
	dryRun bool
}

var _ runtime.Gateway = (*MockGateway)(nil)

func NewMockGateway(dryRun bool) *MockGateway {
	return &MockGateway{dryRun: dryRun}
}

func (m *MockGateway) InspectContainer(ctx context.Context, name string) (*container.InspectResponse, error) {
	args := m.Called(ctx, name)
	c, _ := args.Get(0).(*container.InspectResponse)
	return c, args.Error(1)
}

func (m *MockGateway) InspectImage(ctx context.Context, ref string) (*image.InspectResponse, error) {
	args := m.Called(ctx, ref)
	img, _ := args.Get(0).(*image.InspectResponse)
	return img, args.Error(1)
}

func (m *MockGateway) Run(ctx context.Context, opts runtime.RunOptions) error {
	return m.Called(ctx, opts).Error(0)
}

func (m *MockGateway) Start(ctx context.Context, name string) error {
	return m.Called(ctx, name).Error(0)
}

func (m *MockGateway) Build(ctx context.Context, opts runtime.BuildOptions) error {
	return m.Called(ctx, opts).Error(0)
}

func (m *MockGateway) RemoveImage(ctx context.Context, ref string) error {
	return m.Called(ctx, ref).Error(0)
}

func (m *MockGateway) Exec(ctx context.Context, opts runtime.ExecOptions) error {
	return m.Called(ctx, opts).Error(0)
}

func (m *MockGateway) DryRun() bool {
	return m.dryRun
}

// Container returns an inspect result in the given state. StateAbsent
// yields nil.
func Container(name string, state runtime.ContainerState) *container.InspectResponse {
	if state == runtime.StateAbsent {
		return nil
	}
	return &container.InspectResponse{
		ContainerJSONBase: &container.ContainerJSONBase{
			ID:   "0123456789ab",
			Name: "/" + name,
			State: &container.State{
				Status:  state.String(),
				Running: state == runtime.StateRunning,
			},
		},
	}
}

// Image returns an inspect result for an existing image.
func Image(ref string) *image.InspectResponse {
	return &image.InspectResponse{ID: "sha256:0123456789ab", RepoTags: []string{ref}}
}
