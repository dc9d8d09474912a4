package app

import (
	"encoding/json"
	"strings"
	"sync"

	"github.com/artpar/relay/domain/dispatch"
	"github.com/artpar/relay/ports"
)

// ParamRequest is a generic request carrying loose field values. It is
// the decode target for queued requests whose concrete type was not
// registered with the codec, and is usable directly for ad-hoc dispatch.
type ParamRequest struct {
	contract string
	Fields   map[string]any
}

func NewParamRequest(contract string, fields map[string]any) *ParamRequest {
	if fields == nil {
		fields = make(map[string]any)
	}
	return &ParamRequest{contract: contract, Fields: fields}
}

func (r *ParamRequest) Contract() string { return r.contract }

// Params implements the binding carrier used by the HTTP executor.
func (r *ParamRequest) Params() map[string]any { return r.Fields }

// MarshalJSON encodes only the fields; the contract travels separately
// alongside the payload.
func (r *ParamRequest) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.Fields)
}

func (r *ParamRequest) UnmarshalJSON(data []byte) error {
	return json.Unmarshal(data, &r.Fields)
}

// JSONCodec persists requests as JSON keyed by contract. Concrete request
// types registered with a factory decode back into their own type;
// anything else decodes into a ParamRequest.
type JSONCodec struct {
	mu        sync.RWMutex
	factories map[string]func() dispatch.Request
}

var _ ports.RequestCodec = (*JSONCodec)(nil)

func NewJSONCodec() *JSONCodec {
	return &JSONCodec{factories: make(map[string]func() dispatch.Request)}
}

// RegisterType binds a contract to a factory producing an empty request
// value for JSON decoding. The factory must return a pointer type.
func (c *JSONCodec) RegisterType(contract string, factory func() dispatch.Request) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.factories[contract] = factory
}

func (c *JSONCodec) Encode(req dispatch.Request) ([]byte, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, &dispatch.SerializationError{Op: "encode", Err: err}
	}
	return payload, nil
}

func (c *JSONCodec) Decode(contract string, payload []byte) (dispatch.Request, error) {
	// Direct requests carry a known shape; rehydrate them as themselves
	// so replay takes the direct execution path.
	if strings.HasPrefix(contract, dispatch.ContractDirect+".") {
		var direct dispatch.DirectRequest
		if err := json.Unmarshal(payload, &direct); err != nil {
			return nil, &dispatch.SerializationError{Op: "decode", Err: err}
		}
		return direct, nil
	}

	c.mu.RLock()
	factory, ok := c.factories[contract]
	c.mu.RUnlock()

	if ok {
		req := factory()
		if err := json.Unmarshal(payload, req); err != nil {
			return nil, &dispatch.SerializationError{Op: "decode", Err: err}
		}
		return req, nil
	}

	req := NewParamRequest(contract, nil)
	if err := json.Unmarshal(payload, req); err != nil {
		return nil, &dispatch.SerializationError{Op: "decode", Err: err}
	}
	return req, nil
}
