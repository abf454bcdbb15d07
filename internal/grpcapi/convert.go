package grpcapi

import (
	"encoding/json"
	"fmt"

	"github.com/jmerrifield20/anchorledger/pkg/digest"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

// toStruct converts a JSON-tagged value into a Struct through its JSON form,
// so gRPC and HTTP bodies share one field layout.
func toStruct(v any) (*structpb.Struct, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	st := &structpb.Struct{}
	if err := protojson.Unmarshal(b, st); err != nil {
		return nil, err
	}
	return st, nil
}

// fromStruct decodes st into the JSON-tagged value v.
func fromStruct(st *structpb.Struct, v any) error {
	b, err := protojson.Marshal(st)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, v)
}

func digestField(st *structpb.Struct, name string) (digest.Digest, error) {
	v, ok := st.GetFields()[name]
	if !ok {
		return digest.Zero, fmt.Errorf("%s: required", name)
	}
	s, ok := v.GetKind().(*structpb.Value_StringValue)
	if !ok {
		return digest.Zero, fmt.Errorf("%s: must be a string", name)
	}
	d, err := digest.Parse(s.StringValue)
	if err != nil {
		return digest.Zero, fmt.Errorf("%s: %w", name, err)
	}
	return d, nil
}

func digestListField(st *structpb.Struct, name string, required bool) ([]digest.Digest, error) {
	v, ok := st.GetFields()[name]
	if !ok {
		if required {
			return nil, fmt.Errorf("%s: required", name)
		}
		return nil, nil
	}
	list, ok := v.GetKind().(*structpb.Value_ListValue)
	if !ok {
		return nil, fmt.Errorf("%s: must be a list", name)
	}
	out := make([]digest.Digest, 0, len(list.ListValue.GetValues()))
	for i, item := range list.ListValue.GetValues() {
		s, ok := item.GetKind().(*structpb.Value_StringValue)
		if !ok {
			return nil, fmt.Errorf("%s[%d]: must be a string", name, i)
		}
		d, err := digest.Parse(s.StringValue)
		if err != nil {
			return nil, fmt.Errorf("%s[%d]: %w", name, i, err)
		}
		out = append(out, d)
	}
	return out, nil
}

func hashRequest(h digest.Digest) *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"hash": structpb.NewStringValue(h.Hex()),
	}}
}

func digestList(ds []digest.Digest) *structpb.Value {
	vals := make([]*structpb.Value, len(ds))
	for i, d := range ds {
		vals[i] = structpb.NewStringValue(d.Hex())
	}
	return structpb.NewListValue(&structpb.ListValue{Values: vals})
}
