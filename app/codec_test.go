package app_test

import (
	"testing"

	"github.com/artpar/relay/app"
	"github.com/artpar/relay/domain/dispatch"
)

type createOrder struct {
	SKU      string `json:"sku"`
	Quantity int    `json:"quantity"`
}

func (createOrder) Contract() string { return "Orders.Create" }

func TestJSONCodec_RegisteredTypeRoundTrip(t *testing.T) {
	codec := app.NewJSONCodec()
	codec.RegisterType("Orders.Create", func() dispatch.Request { return &createOrder{} })

	payload, err := codec.Encode(&createOrder{SKU: "A1", Quantity: 3})
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}

	decoded, err := codec.Decode("Orders.Create", payload)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	order, ok := decoded.(*createOrder)
	if !ok {
		t.Fatalf("decoded type = %T, want *createOrder", decoded)
	}
	if order.SKU != "A1" || order.Quantity != 3 {
		t.Errorf("decoded = %+v", order)
	}
}

func TestJSONCodec_UnregisteredTypeFallsBackToParamRequest(t *testing.T) {
	codec := app.NewJSONCodec()

	payload, err := codec.Encode(app.NewParamRequest("Loose.Request", map[string]any{"k": "v"}))
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}

	decoded, err := codec.Decode("Loose.Request", payload)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	param, ok := decoded.(*app.ParamRequest)
	if !ok {
		t.Fatalf("decoded type = %T, want *ParamRequest", decoded)
	}
	if param.Contract() != "Loose.Request" {
		t.Errorf("Contract() = %q", param.Contract())
	}
	if param.Fields["k"] != "v" {
		t.Errorf("Fields = %v", param.Fields)
	}
}

func TestJSONCodec_DecodeBadPayload(t *testing.T) {
	codec := app.NewJSONCodec()
	codec.RegisterType("Orders.Create", func() dispatch.Request { return &createOrder{} })

	if _, err := codec.Decode("Orders.Create", []byte("{not json")); err == nil {
		t.Error("Decode() = nil error for malformed payload")
	}
}
