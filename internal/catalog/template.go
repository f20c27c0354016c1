package catalog

import "strings"

// templateResolver expands a chain of extends names into a single merged
// body, memoizing results and detecting cycles across the whole template
// graph (templates may themselves extend other templates).
type templateResolver struct {
	byName  map[string]RawTemplate
	cache   map[string]mergedBody
	visitng map[string]bool
}

func newTemplateResolver(templates []RawTemplate) *templateResolver {
	byName := make(map[string]RawTemplate, len(templates))
	for _, t := range templates {
		byName[t.Name] = t
	}
	return &templateResolver{
		byName:  byName,
		cache:   make(map[string]mergedBody),
		visitng: make(map[string]bool),
	}
}

// resolveChain expands an ordered list of template names (as used by a
// model's or template's own `extends`) into one mergedBody, composed
// left-to-right with later names winning on scalars.
func (r *templateResolver) resolveChain(names []string, path []string) (mergedBody, error) {
	var acc mergedBody
	for _, name := range names {
		tb, err := r.resolveTemplate(name, path)
		if err != nil {
			return mergedBody{}, err
		}
		acc = acc.overlayWith(tb.Meta, tb.Static, tb.Script, tb.Interactive)
	}
	return acc, nil
}

func (r *templateResolver) resolveTemplate(name string, path []string) (mergedBody, error) {
	if cached, ok := r.cache[name]; ok {
		return cached, nil
	}
	if r.visitng[name] {
		return mergedBody{}, newErr(name, "extends cycle: %s -> %s", strings.Join(path, " -> "), name)
	}
	tmpl, ok := r.byName[name]
	if !ok {
		return mergedBody{}, newErr(name, "unknown template %q", name)
	}

	r.visitng[name] = true
	body, err := r.resolveChain(tmpl.Extends, append(path, name))
	r.visitng[name] = false
	if err != nil {
		return mergedBody{}, err
	}

	body = body.overlayWith(tmpl.Meta, tmpl.Static, tmpl.Script, tmpl.Interactive)
	r.cache[name] = body
	return body, nil
}
