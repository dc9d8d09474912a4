// Package contract provides declarative HTTP request descriptors: verb,
// route template, and parameter bindings. Descriptors are built once per
// request type at registration time and validated immediately, so invalid
// metadata fails at startup rather than at call time.
package contract

import (
	"fmt"
	"regexp"
	"strings"
)

// BindKind tags where a parameter is placed on the outgoing message.
type BindKind string

const (
	BindPath   BindKind = "path"
	BindQuery  BindKind = "query"
	BindHeader BindKind = "header"
	BindBody   BindKind = "body"
)

// Binding maps a named request field to a location on the wire.
type Binding struct {
	Name string
	Kind BindKind
	// HeaderName overrides the transport header name for BindHeader
	// bindings. Defaults to Name.
	HeaderName string
}

// Descriptor is the declarative metadata attached to an HTTP-backed
// request contract.
type Descriptor struct {
	// Contract is the fully-qualified request identity this descriptor
	// serves, e.g. "Billing.GetInvoice".
	Contract string

	// Method is the HTTP verb (GET, POST, PUT, DELETE, ...).
	Method string

	// Route is the path template, with named placeholders in braces:
	// "/invoices/{InvoiceID}".
	Route string

	// Bindings are the parameter bindings, in declaration order.
	Bindings []Binding

	// NewResult allocates the declared result value the response body is
	// deserialized into. Nil means the request declares no result type
	// and completes with the raw response only.
	NewResult func() any
}

// Carrier provides the parameter values a descriptor's bindings draw
// from. HTTP-backed request types implement it alongside their contract.
type Carrier interface {
	Params() map[string]any
}

var placeholderPattern = regexp.MustCompile(`\{([^}]+)\}`)

// Placeholders returns the named placeholders in a route template, in
// order of appearance.
func Placeholders(route string) []string {
	matches := placeholderPattern.FindAllStringSubmatch(route, -1)
	names := make([]string, 0, len(matches))
	for _, m := range matches {
		names = append(names, m[1])
	}
	return names
}

// Validate checks descriptor invariants:
//   - contract, method and route are set
//   - at most one Body binding
//   - every Path placeholder has a matching Path binding, and vice versa
//   - binding names are unique per kind
func (d *Descriptor) Validate() error {
	if d.Contract == "" {
		return fmt.Errorf("descriptor: contract is required")
	}
	if d.Method == "" {
		return fmt.Errorf("descriptor %s: method is required", d.Contract)
	}
	if d.Route == "" {
		return fmt.Errorf("descriptor %s: route is required", d.Contract)
	}
	if !strings.HasPrefix(d.Route, "/") {
		return fmt.Errorf("descriptor %s: route must start with /", d.Contract)
	}

	bodies := 0
	pathBindings := make(map[string]bool)
	seen := make(map[string]bool)
	for _, b := range d.Bindings {
		if b.Name == "" {
			return fmt.Errorf("descriptor %s: binding name is required", d.Contract)
		}
		key := string(b.Kind) + ":" + b.Name
		if seen[key] {
			return fmt.Errorf("descriptor %s: duplicate %s binding %q", d.Contract, b.Kind, b.Name)
		}
		seen[key] = true

		switch b.Kind {
		case BindPath:
			pathBindings[b.Name] = true
		case BindBody:
			bodies++
			if bodies > 1 {
				return fmt.Errorf("descriptor %s: multiple body bindings", d.Contract)
			}
		case BindQuery, BindHeader:
		default:
			return fmt.Errorf("descriptor %s: unknown binding kind %q", d.Contract, b.Kind)
		}
	}

	placeholders := Placeholders(d.Route)
	inRoute := make(map[string]bool, len(placeholders))
	for _, name := range placeholders {
		inRoute[name] = true
		if !pathBindings[name] {
			return fmt.Errorf("descriptor %s: placeholder {%s} has no path binding", d.Contract, name)
		}
	}
	for name := range pathBindings {
		if !inRoute[name] {
			return fmt.Errorf("descriptor %s: path binding %q has no placeholder in route", d.Contract, name)
		}
	}

	return nil
}

// BodyBinding returns the Body binding, if the descriptor declares one.
func (d *Descriptor) BodyBinding() (Binding, bool) {
	for _, b := range d.Bindings {
		if b.Kind == BindBody {
			return b, true
		}
	}
	return Binding{}, false
}
