// Package server implements the gRPC hashstore record service
package server

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/nainya/hashstore/internal/logger"
	"github.com/nainya/hashstore/pkg/codec"
	"github.com/nainya/hashstore/pkg/document"
	"github.com/nainya/hashstore/pkg/meta"
	"github.com/nainya/hashstore/pkg/repository"
	"github.com/nainya/hashstore/pkg/value"
)

// Server implements RecordServiceServer over a document repository
type Server struct {
	repo    *repository.Repository[document.Document]
	idField string
	fields  map[string]struct{}
	log     *logger.Logger
}

// NewServer creates a server for the documents handled by repo. The
// document type must already be registered.
func NewServer(repo *repository.Repository[document.Document], log *logger.Logger) (*Server, error) {
	m, err := repo.Metadata()
	if err != nil {
		return nil, fmt.Errorf("document metadata: %w", err)
	}

	fields := make(map[string]struct{}, len(m.Fields))
	for _, f := range m.Fields {
		fields[f.Name] = struct{}{}
	}
	return &Server{
		repo:    repo,
		idField: m.ID.Name,
		fields:  fields,
		log:     log,
	}, nil
}

// Register adds the record service and a health service that reports it
// as serving. Callers flip the status on shutdown through the returned server.
func Register(gs grpc.ServiceRegistrar, srv *Server) *health.Server {
	RegisterRecordServiceServer(gs, srv)

	hs := health.NewServer()
	healthpb.RegisterHealthServer(gs, hs)
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)
	return hs
}

// ========== Record Operations ==========

func (s *Server) Save(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	doc, err := s.toDocument(req)
	if err != nil {
		s.log.GrpcLogger(MethodSave).Warn("Rejected record").Err(err).Send()
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	saved, err := s.repo.Save(ctx, doc)
	if err != nil {
		return nil, toStatus(err, "failed to save record")
	}
	if saved == nil {
		return nil, status.Error(codes.FailedPrecondition, "record type not configured")
	}
	return s.toStruct(saved), nil
}

func (s *Server) FindByID(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
	id := req.GetValue()
	if id == "" {
		return nil, status.Error(codes.InvalidArgument, "id is required")
	}

	doc, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, toStatus(err, "failed to load record")
	}
	if doc == nil {
		s.log.GrpcLogger(MethodFindByID).Debug("Record not found").Str("id", id).Send()
		return nil, status.Errorf(codes.NotFound, "record %s not found", id)
	}
	return s.toStruct(doc), nil
}

func (s *Server) DeleteByID(ctx context.Context, req *wrapperspb.StringValue) (*emptypb.Empty, error) {
	id := req.GetValue()
	if id == "" {
		return nil, status.Error(codes.InvalidArgument, "id is required")
	}

	if err := s.repo.DeleteByID(ctx, id); err != nil {
		return nil, toStatus(err, "failed to delete record")
	}
	return &emptypb.Empty{}, nil
}

func (s *Server) FindIDsByIndex(ctx context.Context, req *structpb.Struct) (*structpb.ListValue, error) {
	field := req.GetFields()["field"].GetStringValue()
	val := req.GetFields()["value"].GetStringValue()
	if field == "" || val == "" {
		return nil, status.Error(codes.InvalidArgument, "field and value are required")
	}

	ids, err := s.repo.FindIDsByIndex(ctx, field, val)
	if err != nil {
		return nil, toStatus(err, "failed to read index")
	}

	values := make([]*structpb.Value, len(ids))
	for i, id := range ids {
		values[i] = structpb.NewStringValue(id)
	}
	return &structpb.ListValue{Values: values}, nil
}

// ========== Conversion ==========

func (s *Server) toDocument(req *structpb.Struct) (*document.Document, error) {
	doc := document.New()
	var unknown []string

	for name, v := range req.GetFields() {
		if _, ok := s.fields[name]; !ok {
			unknown = append(unknown, name)
			continue
		}
		raw, present, err := scalar(v)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", name, err)
		}
		if !present {
			continue
		}
		if name == s.idField {
			doc.ID = raw
		} else {
			doc.Set(name, raw)
		}
	}

	if len(unknown) > 0 {
		return nil, fmt.Errorf("unknown fields: %s", strings.Join(unknown, ", "))
	}
	return doc, nil
}

// scalar renders a struct value in its stored string form
func scalar(v *structpb.Value) (string, bool, error) {
	switch k := v.GetKind().(type) {
	case *structpb.Value_StringValue:
		return k.StringValue, k.StringValue != "", nil
	case *structpb.Value_NumberValue:
		return value.Float64(k.NumberValue).Format(), true, nil
	case *structpb.Value_BoolValue:
		return value.Bool(k.BoolValue).Format(), true, nil
	case *structpb.Value_NullValue, nil:
		return "", false, nil
	default:
		return "", false, errors.New("only scalar values can be stored")
	}
}

func (s *Server) toStruct(doc *document.Document) *structpb.Struct {
	out := &structpb.Struct{Fields: make(map[string]*structpb.Value, len(doc.Attributes)+1)}
	out.Fields[s.idField] = structpb.NewStringValue(doc.ID)
	for name, v := range doc.Attributes {
		if v != "" {
			out.Fields[name] = structpb.NewStringValue(v)
		}
	}
	return out
}

// toStatus maps repository errors to gRPC status codes
func toStatus(err error, msg string) error {
	var decodeErr *codec.DecodeError
	switch {
	case errors.Is(err, meta.ErrNotConfigured):
		return status.Errorf(codes.FailedPrecondition, "%s: %v", msg, err)
	case errors.Is(err, repository.ErrNotIndexed):
		return status.Errorf(codes.InvalidArgument, "%s: %v", msg, err)
	case errors.Is(err, repository.ErrNoIdentifier):
		return status.Errorf(codes.InvalidArgument, "%s: %v", msg, err)
	case errors.As(err, &decodeErr):
		return status.Errorf(codes.DataLoss, "%s: %v", msg, err)
	case errors.Is(err, context.Canceled):
		return status.Errorf(codes.Canceled, "%s: %v", msg, err)
	case errors.Is(err, context.DeadlineExceeded):
		return status.Errorf(codes.DeadlineExceeded, "%s: %v", msg, err)
	default:
		return status.Errorf(codes.Internal, "%s: %v", msg, err)
	}
}
