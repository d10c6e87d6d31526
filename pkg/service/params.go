package service

// Params is the input of a service action: path parameters, optionally merged
// with the request body. Values are untyped; stores compare them by their
// rendered form.
type Params map[string]any

// ParamsFromPath converts path parameters into Params.
func ParamsFromPath(path map[string]string) Params {
	p := make(Params, len(path))
	for k, v := range path {
		p[k] = v
	}
	return p
}

// Merge returns a new Params holding p overlaid with over. Keys of over win.
// Neither input is modified.
func (p Params) Merge(over map[string]any) Params {
	out := make(Params, len(p)+len(over))
	for k, v := range p {
		out[k] = v
	}
	for k, v := range over {
		out[k] = v
	}
	return out
}

// Without returns a copy of p minus the excluded keys.
func (p Params) Without(excluded ...string) Params {
	out := make(Params, len(p))
	for k, v := range p {
		out[k] = v
	}
	for _, k := range excluded {
		delete(out, k)
	}
	return out
}

// Lookup returns the value of key when it is present and non-nil.
func (p Params) Lookup(key string) (any, bool) {
	v, ok := p[key]
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}
