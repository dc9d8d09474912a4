// Package dispatch provides value types shared by the dispatcher and its
// adapters: request and event contracts, the per-call context, and the
// error taxonomy.
package dispatch

// Request is a value submitted to the dispatcher. Its contract identity is
// a fully-qualified name such as "Billing.GetInvoice"; the part before the
// last dot is the namespace used for wildcard configuration lookups.
//
// Requests are immutable: the dispatcher never mutates them, and handlers
// must not either.
type Request interface {
	Contract() string
}

// Covariant is implemented by requests that declare compatible supertype
// contracts, so a handler registered for a supertype can serve them when
// no handler is registered for the exact contract.
//
// CompatibleWith returns supertypes grouped by specificity, most specific
// level first. Contracts within one level are equally specific: if the
// winning level holds more than one registered handler, single-result
// resolution fails as ambiguous rather than picking arbitrarily.
type Covariant interface {
	CompatibleWith() [][]string
}

// Namespace returns the namespace portion of a contract identity, or ""
// when the identity has no namespace.
func Namespace(contract string) string {
	for i := len(contract) - 1; i >= 0; i-- {
		if contract[i] == '.' {
			return contract[:i]
		}
	}
	return ""
}

// ContractDirect is the supertype contract all direct requests are
// compatible with. The HTTP executor registers under it once rather than
// per lookup name.
const ContractDirect = "Mediator.Direct"

// DirectRequest addresses an HTTP call by a configuration-resolved lookup
// name (or an absolute URI used verbatim) instead of a declarative
// descriptor. The result is returned untyped; the caller casts.
type DirectRequest struct {
	// Name is the lookup name, or an absolute URI.
	Name string
	// Method optionally overrides the configured verb.
	Method string
	// Body, when set, is JSON-serialized as the request body.
	Body any
}

// Contract implements Request.
func (r DirectRequest) Contract() string { return ContractDirect + "." + r.Name }

// CompatibleWith implements Covariant, so one handler registered for
// ContractDirect serves every lookup name.
func (DirectRequest) CompatibleWith() [][]string {
	return [][]string{{ContractDirect}}
}

// RawResponse is returned for requests that declare no result type.
type RawResponse struct {
	Status  int
	Headers map[string]string
	Body    []byte
}

// QueuedResult is the caller-visible outcome of a dispatch intercepted by
// the offline stage. EntryID identifies the queued entry for later
// correlation with replay reports.
type QueuedResult struct {
	EntryID string
}
