package clusterapi

import (
	"context"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// readOnlyMethods are the RPCs that never mutate provider state. Grounded
// on cuemby-warren/pkg/api/interceptor.go's ReadOnlyInterceptor, reduced
// from Warren's List*/Get*/Inspect* prefix convention to this service's
// small, explicitly enumerated method set (clusterapi has no naming
// convention to pattern-match against).
var readOnlyMethods = map[string]bool{
	"NewWAL":          false,
	"OpenWriter":      false,
	"Write":           false,
	"WriterOffset":    true,
	"CloseWriter":     false,
	"OpenReader":      false,
	"Read":            true,
	"SeekReader":      true,
	"CloseReader":     false,
	"GetCurrentRoot":  true,
	"UpdateRoot":      false,
	"AcquireRootLock": false,
	"ReleaseRootLock": false,
	"CloseWAL":        false,
}

// ReadOnlyInterceptor rejects every RPC except the read-only subset. Meant
// for a listener a read replica or inspection tool connects to, the same
// role the teacher's Unix-socket listener plays for local CLI access.
func ReadOnlyInterceptor() grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req interface{},
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (interface{}, error) {
		if !isReadOnlyMethod(info.FullMethod) {
			return nil, status.Errorf(codes.PermissionDenied,
				"clusterapi: write operations not allowed on this listener: %s", info.FullMethod)
		}
		return handler(ctx, req)
	}
}

func isReadOnlyMethod(fullMethod string) bool {
	parts := strings.Split(fullMethod, "/")
	if len(parts) == 0 {
		return false
	}
	return readOnlyMethods[parts[len(parts)-1]]
}
