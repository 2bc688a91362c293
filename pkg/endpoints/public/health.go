package public

import (
	"context"
	"fmt"
	"net/http"

	"connectrpc.com/connect"
	"connectrpc.com/grpchealth"
)

// HealthService is the service name reported by the health check
const HealthService = "f1l.livetiming.v1"

type healthChecker struct {
	ready func() bool
}

//nolint:whitespace // can't make both editor and linter happy
func (h *healthChecker) Check(
	ctx context.Context, req *grpchealth.CheckRequest,
) (*grpchealth.CheckResponse, error) {
	if req.Service != "" && req.Service != HealthService {
		return nil, connect.NewError(connect.CodeNotFound,
			fmt.Errorf("unknown service %s", req.Service))
	}
	status := grpchealth.StatusServing
	if !h.ready() {
		status = grpchealth.StatusNotServing
	}
	return &grpchealth.CheckResponse{Status: status}, nil
}

func newHealthHandler(ready func() bool) (string, http.Handler) {
	return grpchealth.NewHandler(&healthChecker{ready: ready})
}
