package contract

import (
	"fmt"
	"net/url"
	"strings"
)

// stringify renders a bound parameter value for path, query or header use.
func stringify(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case fmt.Stringer:
		return t.String()
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", t)
	}
}

// BuildURL constructs the final request URL from a base URI, the
// descriptor's route template, and the request's parameter values.
// Path-bound values are URL-encoded into their placeholders; query-bound
// values are appended as an encoded query string.
func (d *Descriptor) BuildURL(baseURI string, params map[string]any) (string, error) {
	base, err := url.Parse(baseURI)
	if err != nil {
		return "", fmt.Errorf("parse base uri: %w", err)
	}
	if !base.IsAbs() {
		return "", fmt.Errorf("base uri %q is not absolute", baseURI)
	}

	path := d.Route
	for _, b := range d.Bindings {
		if b.Kind != BindPath {
			continue
		}
		v, ok := params[b.Name]
		if !ok {
			return "", fmt.Errorf("descriptor %s: missing value for path parameter %q", d.Contract, b.Name)
		}
		path = strings.ReplaceAll(path, "{"+b.Name+"}", url.PathEscape(stringify(v)))
	}

	query := url.Values{}
	for _, b := range d.Bindings {
		if b.Kind != BindQuery {
			continue
		}
		if v, ok := params[b.Name]; ok {
			query.Set(b.Name, stringify(v))
		}
	}

	// Path values are escaped already, so the URL is assembled as a
	// string rather than through url.URL (which would escape again).
	final := strings.TrimSuffix(baseURI, "/") + path
	if enc := query.Encode(); enc != "" {
		final += "?" + enc
	}
	return final, nil
}

// Headers returns the transport headers produced by header bindings.
func (d *Descriptor) Headers(params map[string]any) map[string]string {
	headers := make(map[string]string)
	for _, b := range d.Bindings {
		if b.Kind != BindHeader {
			continue
		}
		if v, ok := params[b.Name]; ok {
			name := b.HeaderName
			if name == "" {
				name = b.Name
			}
			headers[name] = stringify(v)
		}
	}
	return headers
}
