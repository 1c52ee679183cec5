package mongo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/tradeworks/contractor-hub/internal/core/domain"
)

func TestDecimalCodec_RoundTrip(t *testing.T) {
	reg := newRegistry()
	in := domain.SavedItem{ID: "s1", Name: "Drywall", Cost: decimal.RequireFromString("12.345"), Rate: decimal.NewFromInt(40)}

	raw, err := bson.MarshalWithRegistry(reg, in)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if got := bson.Raw(raw).Lookup("cost").Type; got != bson.TypeDecimal128 {
		t.Fatalf("expected cost stored as Decimal128, got %v", got)
	}

	var out domain.SavedItem
	if err := bson.UnmarshalWithRegistry(reg, raw, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !out.Cost.Equal(in.Cost) || !out.Rate.Equal(in.Rate) {
		t.Fatalf("round trip changed values: %s %s", out.Cost, out.Rate)
	}
}

func TestDecimalCodec_DecodesLooseTypes(t *testing.T) {
	reg := newRegistry()
	cases := map[string]bson.M{
		"string": {"cost": "19.99"},
		"double": {"cost": 19.99},
		"int32":  {"cost": int32(20)},
		"int64":  {"cost": int64(20)},
	}
	for name, doc := range cases {
		raw, err := bson.Marshal(doc)
		if err != nil {
			t.Fatalf("%s: marshal: %v", name, err)
		}
		var out domain.SavedItem
		if err := bson.UnmarshalWithRegistry(reg, raw, &out); err != nil {
			t.Fatalf("%s: unmarshal: %v", name, err)
		}
		if out.Cost.IsZero() {
			t.Errorf("%s: expected a non-zero cost", name)
		}
	}
}

func TestClassify(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want domain.Kind
	}{
		{"no documents", mongo.ErrNoDocuments, domain.KindNotFound},
		{"duplicate key", mongo.WriteException{WriteErrors: []mongo.WriteError{{Code: 11000}}}, domain.KindValidation},
		{"deadline", fmt.Errorf("find: %w", context.DeadlineExceeded), domain.KindTransient},
		{"unauthorized", mongo.CommandError{Code: 13, Message: "not authorized"}, domain.KindAuthorization},
		{"atlas", mongo.CommandError{Code: 8000, Message: "user is not allowed"}, domain.KindAuthorization},
		{"namespace", mongo.CommandError{Code: 26, Message: "ns not found"}, domain.KindSchemaMismatch},
		{"validator", mongo.CommandError{Code: 121, Message: "Document failed validation"}, domain.KindValidation},
		{"unknown", errors.New("socket closed"), domain.KindTransient},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := domain.KindOf(classify("list", domain.CollectionJobs, tc.err))
			if !ok || got != tc.want {
				t.Errorf("expected %s, got %s", tc.want, got)
			}
		})
	}

	if classify("list", domain.CollectionJobs, nil) != nil {
		t.Error("nil must stay nil")
	}
	already := domain.NewStoreError(domain.KindSchemaMismatch, "list", domain.CollectionJobs, nil)
	if classify("insert", domain.CollectionJobs, already) != already {
		t.Error("classified errors pass through unchanged")
	}
}

func TestPayloadConversion(t *testing.T) {
	doc, err := payloadToBSON(json.RawMessage(`{"status":"draft","lines":[{"qty":2}]}`))
	if err != nil {
		t.Fatalf("to bson: %v", err)
	}
	back, err := payloadToJSON(doc)
	if err != nil {
		t.Fatalf("to json: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(back, &m); err != nil || m["status"] != "draft" {
		t.Fatalf("unexpected payload %s (%v)", back, err)
	}

	if _, err := payloadToBSON(json.RawMessage(`[1,2]`)); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("expected validation error for a non-object payload, got %v", err)
	}
}
