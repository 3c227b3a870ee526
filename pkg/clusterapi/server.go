package clusterapi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/cuemby/protobase/pkg/atom"
	"github.com/cuemby/protobase/pkg/log"
	"github.com/cuemby/protobase/pkg/pberr"
	"github.com/cuemby/protobase/pkg/storage"
)

const defaultReadBufferSize = 64 * 1024

// Server fronts a local storage.BlockProvider over gRPC, the shape
// cuemby-warren/pkg/api/server.go's Server uses for its manager: a thin
// adapter holding the domain object plus the bookkeeping the wire
// protocol needs that the domain interface itself doesn't expose
// (WriteStreamer/ReadStreamer handles keyed by a session id, since a
// single RPC can't return a live handle).
type Server struct {
	UnimplementedClusterAPIServer

	provider storage.BlockProvider
	grpc     *grpc.Server

	mu      sync.Mutex
	writers map[string]storage.WriteStreamer
	readers map[string]storage.ReadStreamer
	locks   map[string]storage.RootLock
}

// NewServer wraps provider for remote access. Callers needing mTLS pass
// grpc.Creds(...) via opts, same as the teacher's NewServer configuring
// credentials.NewTLS before constructing grpc.NewServer; this package
// takes no position on transport security itself.
func NewServer(provider storage.BlockProvider, opts ...grpc.ServerOption) *Server {
	s := &Server{
		provider: provider,
		grpc:     grpc.NewServer(opts...),
		writers:  make(map[string]storage.WriteStreamer),
		readers:  make(map[string]storage.ReadStreamer),
		locks:    make(map[string]storage.RootLock),
	}
	RegisterClusterAPIServer(s.grpc, s)
	return s
}

// Start listens on addr and serves until the listener or server stops.
func (s *Server) Start(addr string) error {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("clusterapi: listen: %w", err)
	}
	log.WithComponent("clusterapi").Info().Str("addr", addr).Msg("gRPC BlockProvider listening")
	return s.grpc.Serve(lis)
}

// Stop gracefully stops the gRPC server.
func (s *Server) Stop() { s.grpc.GracefulStop() }

func toStatus(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, pberr.ErrNotSupported):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, pberr.ErrLocking):
		return status.Error(codes.Aborted, err.Error())
	case errors.Is(err, pberr.ErrValidation):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, pberr.ErrCorruption):
		return status.Error(codes.DataLoss, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}

func (s *Server) NewWAL(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	walID, offset, err := s.provider.NewWAL(ctx)
	if err != nil {
		return nil, toStatus(err)
	}
	return newStruct(map[string]any{"wal_id": walID.String(), "offset": float64(offset)}), nil
}

func (s *Server) OpenWriter(_ context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	walID, err := uuidField(req, "wal_id")
	if err != nil {
		return nil, toStatus(err)
	}
	w, err := s.provider.WriteStreamer(walID)
	if err != nil {
		return nil, toStatus(err)
	}
	offset, err := w.Offset()
	if err != nil {
		return nil, toStatus(err)
	}
	sessionID := uuid.NewString()

	s.mu.Lock()
	s.writers[sessionID] = w
	s.mu.Unlock()

	return newStruct(map[string]any{"session_id": sessionID, "offset": float64(offset)}), nil
}

func (s *Server) writerSession(req *structpb.Struct) (storage.WriteStreamer, error) {
	sessionID, err := stringField(req, "session_id")
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	w, ok := s.writers[sessionID]
	s.mu.Unlock()
	if !ok {
		return nil, pberr.Validationf("clusterapi: unknown writer session %q", sessionID)
	}
	return w, nil
}

func (s *Server) Write(_ context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	w, err := s.writerSession(req)
	if err != nil {
		return nil, toStatus(err)
	}
	encoded, err := stringField(req, "data")
	if err != nil {
		return nil, toStatus(err)
	}
	data, err := decodeBytes(encoded)
	if err != nil {
		return nil, toStatus(err)
	}
	n, err := w.Write(data)
	if err != nil {
		return nil, toStatus(err)
	}
	return newStruct(map[string]any{"written": float64(n)}), nil
}

func (s *Server) WriterOffset(_ context.Context, req *structpb.Struct) (*wrapperspb.UInt64Value, error) {
	w, err := s.writerSession(req)
	if err != nil {
		return nil, toStatus(err)
	}
	offset, err := w.Offset()
	if err != nil {
		return nil, toStatus(err)
	}
	return wrapperspb.UInt64(offset), nil
}

func (s *Server) CloseWriter(_ context.Context, req *structpb.Struct) (*emptypb.Empty, error) {
	sessionID, err := stringField(req, "session_id")
	if err != nil {
		return nil, toStatus(err)
	}
	s.mu.Lock()
	delete(s.writers, sessionID)
	s.mu.Unlock()
	return &emptypb.Empty{}, nil
}

func (s *Server) OpenReader(_ context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	walID, err := uuidField(req, "wal_id")
	if err != nil {
		return nil, toStatus(err)
	}
	offset, err := uint64Field(req, "offset")
	if err != nil {
		return nil, toStatus(err)
	}
	r, err := s.provider.Reader(walID, offset)
	if err != nil {
		return nil, toStatus(err)
	}
	sessionID := uuid.NewString()

	s.mu.Lock()
	s.readers[sessionID] = r
	s.mu.Unlock()

	return newStruct(map[string]any{"session_id": sessionID}), nil
}

func (s *Server) readerSession(req *structpb.Struct) (storage.ReadStreamer, error) {
	sessionID, err := stringField(req, "session_id")
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	r, ok := s.readers[sessionID]
	s.mu.Unlock()
	if !ok {
		return nil, pberr.Validationf("clusterapi: unknown reader session %q", sessionID)
	}
	return r, nil
}

func (s *Server) Read(_ context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	r, err := s.readerSession(req)
	if err != nil {
		return nil, toStatus(err)
	}
	max, err := uint64Field(req, "max")
	if err != nil {
		return nil, toStatus(err)
	}
	if max == 0 || max > defaultReadBufferSize {
		max = defaultReadBufferSize
	}
	buf := make([]byte, max)
	n, err := r.Read(buf)
	eof := errors.Is(err, io.EOF)
	if err != nil && !eof {
		return nil, toStatus(err)
	}
	return newStruct(map[string]any{"data": encodeBytes(buf[:n]), "eof": eof}), nil
}

func (s *Server) SeekReader(_ context.Context, req *structpb.Struct) (*wrapperspb.UInt64Value, error) {
	r, err := s.readerSession(req)
	if err != nil {
		return nil, toStatus(err)
	}
	offset, err := uint64Field(req, "offset")
	if err != nil {
		return nil, toStatus(err)
	}
	whenceF, err := uint64Field(req, "whence")
	if err != nil {
		return nil, toStatus(err)
	}
	newOffset, err := r.Seek(int64(offset), int(whenceF))
	if err != nil {
		return nil, toStatus(err)
	}
	return wrapperspb.UInt64(uint64(newOffset)), nil
}

func (s *Server) CloseReader(_ context.Context, req *structpb.Struct) (*emptypb.Empty, error) {
	sessionID, err := stringField(req, "session_id")
	if err != nil {
		return nil, toStatus(err)
	}
	s.mu.Lock()
	r, ok := s.readers[sessionID]
	delete(s.readers, sessionID)
	s.mu.Unlock()
	if ok {
		_ = r.Close()
	}
	return &emptypb.Empty{}, nil
}

func (s *Server) GetCurrentRoot(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	ptr, found, err := s.provider.GetCurrentRoot(ctx)
	if err != nil {
		return nil, toStatus(err)
	}
	return rootToStruct(ptr, found), nil
}

func (s *Server) UpdateRoot(ctx context.Context, req *structpb.Struct) (*emptypb.Empty, error) {
	ptr, found, err := rootFromStruct(req)
	if err != nil {
		return nil, toStatus(err)
	}
	if !found {
		return nil, status.Error(codes.InvalidArgument, "clusterapi: update_root requires found=true")
	}
	if err := s.provider.UpdateRoot(ctx, atom.Pointer{TransactionID: ptr.TransactionID, Offset: ptr.Offset}); err != nil {
		return nil, toStatus(err)
	}
	return &emptypb.Empty{}, nil
}

func (s *Server) AcquireRootLock(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	lock, err := s.provider.RootContextManager(ctx)
	if err != nil {
		return nil, toStatus(err)
	}
	lockID := uuid.NewString()

	s.mu.Lock()
	s.locks[lockID] = lock
	s.mu.Unlock()

	return newStruct(map[string]any{"lock_id": lockID}), nil
}

func (s *Server) ReleaseRootLock(_ context.Context, req *structpb.Struct) (*emptypb.Empty, error) {
	lockID, err := stringField(req, "lock_id")
	if err != nil {
		return nil, toStatus(err)
	}
	s.mu.Lock()
	lock, ok := s.locks[lockID]
	delete(s.locks, lockID)
	s.mu.Unlock()
	if !ok {
		return nil, status.Errorf(codes.NotFound, "clusterapi: unknown lock %q", lockID)
	}
	lock.Unlock()
	return &emptypb.Empty{}, nil
}

func (s *Server) CloseWAL(_ context.Context, req *structpb.Struct) (*emptypb.Empty, error) {
	walID, err := uuidField(req, "wal_id")
	if err != nil {
		return nil, toStatus(err)
	}
	if err := s.provider.CloseWAL(walID); err != nil {
		return nil, toStatus(err)
	}
	return &emptypb.Empty{}, nil
}
