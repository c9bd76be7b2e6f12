package generator

import (
	"fmt"

	"github.com/aymerick/raymond"
)

// HelperSet maps helper names to Handlebars helper functions.
type HelperSet map[string]any

// With returns a new set holding h and other. Helpers in other win.
func (h HelperSet) With(other HelperSet) HelperSet {
	merged := make(HelperSet, len(h)+len(other))
	for k, v := range h {
		merged[k] = v
	}
	for k, v := range other {
		merged[k] = v
	}
	return merged
}

// Renderer executes templates with a fixed helper set. Templates are parsed
// fresh on every call and helpers are registered on the parsed template
// only, never globally.
type Renderer struct {
	helpers HelperSet
	loader  *TemplateLoader
}

// NewRenderer creates a renderer. loader may be nil when only
// RenderString is used.
func NewRenderer(helpers HelperSet, loader *TemplateLoader) *Renderer {
	return &Renderer{helpers: helpers, loader: loader}
}

// Render loads category/name and executes it with data.
func (r *Renderer) Render(category, name string, data any) (string, error) {
	if r.loader == nil {
		return "", fmt.Errorf("render %s/%s: no template loader", category, name)
	}
	src, err := r.loader.Load(category, name)
	if err != nil {
		return "", err
	}
	partials, err := r.loader.Partials()
	if err != nil {
		return "", err
	}
	out, err := r.exec(src, partials, data)
	if err != nil {
		return "", fmt.Errorf("render %s/%s: %w", category, name, err)
	}
	return out, nil
}

// RenderString executes an inline template source.
func (r *Renderer) RenderString(src string, data any) (string, error) {
	return r.exec(src, nil, data)
}

func (r *Renderer) exec(src string, partials map[string]string, data any) (string, error) {
	tpl, err := raymond.Parse(src)
	if err != nil {
		return "", fmt.Errorf("parse template: %w", err)
	}
	if len(r.helpers) > 0 {
		tpl.RegisterHelpers(map[string]interface{}(r.helpers))
	}
	if len(partials) > 0 {
		tpl.RegisterPartials(partials)
	}
	return tpl.Exec(data)
}
