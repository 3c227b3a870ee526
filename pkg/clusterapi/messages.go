package clusterapi

import (
	"encoding/base64"

	"github.com/google/uuid"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/cuemby/protobase/pkg/atom"
	"github.com/cuemby/protobase/pkg/pberr"
)

// structpb.Struct only carries JSON-shaped values, so binary payloads
// (WAL bytes) travel as base64 strings and uuid.UUID travels as its
// string form. These helpers are the single place that encoding happens,
// so server and client never drift.

func newStruct(fields map[string]any) *structpb.Struct {
	s, err := structpb.NewStruct(fields)
	if err != nil {
		// Only occurs for value kinds structpb can't represent, which this
		// package never constructs: every field below is a string, float64,
		// or bool.
		panic("clusterapi: invalid struct field: " + err.Error())
	}
	return s
}

func structField(s *structpb.Struct, key string) (*structpb.Value, bool) {
	if s == nil {
		return nil, false
	}
	v, ok := s.Fields[key]
	return v, ok
}

func stringField(s *structpb.Struct, key string) (string, error) {
	v, ok := structField(s, key)
	if !ok {
		return "", pberr.Validationf("clusterapi: missing field %q", key)
	}
	return v.GetStringValue(), nil
}

func uint64Field(s *structpb.Struct, key string) (uint64, error) {
	v, ok := structField(s, key)
	if !ok {
		return 0, pberr.Validationf("clusterapi: missing field %q", key)
	}
	return uint64(v.GetNumberValue()), nil
}

func boolField(s *structpb.Struct, key string) bool {
	v, ok := structField(s, key)
	if !ok {
		return false
	}
	return v.GetBoolValue()
}

func uuidField(s *structpb.Struct, key string) (uuid.UUID, error) {
	raw, err := stringField(s, key)
	if err != nil {
		return uuid.UUID{}, err
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.UUID{}, pberr.Validationf("clusterapi: invalid %s %q: %v", key, raw, err)
	}
	return id, nil
}

func encodeBytes(data []byte) string {
	return base64.StdEncoding.EncodeToString(data)
}

func decodeBytes(s string) ([]byte, error) {
	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, pberr.Validationf("clusterapi: invalid base64 payload: %v", err)
	}
	return data, nil
}

func rootToStruct(ptr atom.Pointer, found bool) *structpb.Struct {
	return newStruct(map[string]any{
		"found":          found,
		"transaction_id": ptr.TransactionID.String(),
		"offset":         float64(ptr.Offset),
	})
}

func rootFromStruct(s *structpb.Struct) (atom.Pointer, bool, error) {
	found := boolField(s, "found")
	if !found {
		return atom.Pointer{}, false, nil
	}
	txID, err := uuidField(s, "transaction_id")
	if err != nil {
		return atom.Pointer{}, false, err
	}
	offset, err := uint64Field(s, "offset")
	if err != nil {
		return atom.Pointer{}, false, err
	}
	return atom.Pointer{TransactionID: txID, Offset: offset}, true, nil
}
