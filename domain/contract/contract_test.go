package contract_test

import (
	"strings"
	"testing"

	"github.com/artpar/relay/domain/contract"
)

func validDescriptor() *contract.Descriptor {
	return &contract.Descriptor{
		Contract: "Billing.GetInvoice",
		Method:   "GET",
		Route:    "/invoices/{InvoiceID}",
		Bindings: []contract.Binding{
			{Name: "InvoiceID", Kind: contract.BindPath},
			{Name: "Expand", Kind: contract.BindQuery},
		},
	}
}

func TestValidate_AcceptsWellFormedDescriptor(t *testing.T) {
	if err := validDescriptor().Validate(); err != nil {
		t.Fatalf("Validate() = %v, want nil", err)
	}
}

func TestValidate_RejectsInvalidDescriptors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(d *contract.Descriptor)
		wantErr string
	}{
		{
			name:    "missing contract",
			mutate:  func(d *contract.Descriptor) { d.Contract = "" },
			wantErr: "contract is required",
		},
		{
			name:    "missing method",
			mutate:  func(d *contract.Descriptor) { d.Method = "" },
			wantErr: "method is required",
		},
		{
			name:    "relative route",
			mutate:  func(d *contract.Descriptor) { d.Route = "invoices/{InvoiceID}" },
			wantErr: "must start with /",
		},
		{
			name: "placeholder without binding",
			mutate: func(d *contract.Descriptor) {
				d.Bindings = d.Bindings[1:] // drop InvoiceID
			},
			wantErr: "placeholder {InvoiceID} has no path binding",
		},
		{
			name: "path binding without placeholder",
			mutate: func(d *contract.Descriptor) {
				d.Bindings = append(d.Bindings, contract.Binding{Name: "Orphan", Kind: contract.BindPath})
			},
			wantErr: "has no placeholder in route",
		},
		{
			name: "multiple body bindings",
			mutate: func(d *contract.Descriptor) {
				d.Bindings = append(d.Bindings,
					contract.Binding{Name: "A", Kind: contract.BindBody},
					contract.Binding{Name: "B", Kind: contract.BindBody},
				)
			},
			wantErr: "multiple body bindings",
		},
		{
			name: "duplicate binding name per kind",
			mutate: func(d *contract.Descriptor) {
				d.Bindings = append(d.Bindings, contract.Binding{Name: "Expand", Kind: contract.BindQuery})
			},
			wantErr: "duplicate query binding",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := validDescriptor()
			tt.mutate(d)
			err := d.Validate()
			if err == nil {
				t.Fatal("Validate() = nil, want error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() = %q, want substring %q", err, tt.wantErr)
			}
		})
	}
}

func TestPlaceholders(t *testing.T) {
	got := contract.Placeholders("/a/{First}/b/{Second}")
	if len(got) != 2 || got[0] != "First" || got[1] != "Second" {
		t.Errorf("Placeholders() = %v, want [First Second]", got)
	}
}

func TestBuildURL_RoundTrip(t *testing.T) {
	d := &contract.Descriptor{
		Contract: "Sample.Request",
		Method:   "GET",
		Route:    "/route/{Parameter}",
		Bindings: []contract.Binding{
			{Name: "Parameter", Kind: contract.BindPath},
			{Name: "QueryValue", Kind: contract.BindQuery},
		},
	}

	got, err := d.BuildURL("http://host", map[string]any{
		"Parameter":  "abc",
		"QueryValue": "q1",
	})
	if err != nil {
		t.Fatalf("BuildURL() error = %v", err)
	}
	if want := "http://host/route/abc?QueryValue=q1"; got != want {
		t.Errorf("BuildURL() = %q, want %q", got, want)
	}
}

func TestBuildURL_EscapesPathValues(t *testing.T) {
	d := &contract.Descriptor{
		Contract: "Files.Get",
		Method:   "GET",
		Route:    "/files/{Name}",
		Bindings: []contract.Binding{{Name: "Name", Kind: contract.BindPath}},
	}

	got, err := d.BuildURL("http://host/", map[string]any{"Name": "a b/c"})
	if err != nil {
		t.Fatalf("BuildURL() error = %v", err)
	}
	if want := "http://host/files/a%20b%2Fc"; got != want {
		t.Errorf("BuildURL() = %q, want %q", got, want)
	}
}

func TestBuildURL_MissingPathValue(t *testing.T) {
	d := validDescriptor()
	if _, err := d.BuildURL("http://host", nil); err == nil {
		t.Fatal("BuildURL() = nil error, want missing path parameter error")
	}
}

func TestBuildURL_RelativeBase(t *testing.T) {
	d := validDescriptor()
	if _, err := d.BuildURL("host/api", map[string]any{"InvoiceID": "1"}); err == nil {
		t.Fatal("BuildURL() = nil error, want absolute base error")
	}
}

func TestHeaders_UsesHeaderNameOverride(t *testing.T) {
	d := &contract.Descriptor{
		Contract: "Sample.Request",
		Method:   "GET",
		Route:    "/",
		Bindings: []contract.Binding{
			{Name: "Token", Kind: contract.BindHeader, HeaderName: "X-Auth-Token"},
			{Name: "Trace", Kind: contract.BindHeader},
		},
	}

	got := d.Headers(map[string]any{"Token": "secret", "Trace": "t-1"})
	if got["X-Auth-Token"] != "secret" {
		t.Errorf("X-Auth-Token = %q, want %q", got["X-Auth-Token"], "secret")
	}
	if got["Trace"] != "t-1" {
		t.Errorf("Trace = %q, want %q", got["Trace"], "t-1")
	}
}
