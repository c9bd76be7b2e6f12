package generator

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderer_HelpersDoNotLeak(t *testing.T) {
	stamped := NewRenderer(HelperSet{"stamp": func() string { return "A" }}, nil)
	plain := NewRenderer(nil, nil)

	out, err := stamped.RenderString("[{{stamp}}]", nil)
	require.NoError(t, err)
	assert.Equal(t, "[A]", out)

	out, err = plain.RenderString("[{{stamp}}]", nil)
	require.NoError(t, err)
	assert.Equal(t, "[]", out)

	out, err = stamped.RenderString("[{{stamp}}]", nil)
	require.NoError(t, err)
	assert.Equal(t, "[A]", out, "rendering with another renderer changes nothing")
}

func TestRenderer_SameHelperNameDiffersPerGenerator(t *testing.T) {
	form := NewRenderer(formHelpers(), nil)
	dto := NewRenderer(dtoHelpers(), nil)

	out, err := form.RenderString(`{{tsType "checkbox"}}/{{tsType "Integer"}}`, nil)
	require.NoError(t, err)
	assert.Equal(t, "boolean/string", out)

	out, err = dto.RenderString(`{{tsType "checkbox"}}/{{tsType "Integer"}}`, nil)
	require.NoError(t, err)
	assert.Equal(t, "checkbox/number", out)
}

func TestRenderer_IfEq(t *testing.T) {
	r := NewRenderer(formHelpers(), nil)
	out, err := r.RenderString(`{{#if_eq Lib "yup"}}Y{{else}}N{{/if_eq}}`, map[string]string{"Lib": "yup"})
	require.NoError(t, err)
	assert.Equal(t, "Y", out)

	out, err = r.RenderString(`{{#if_eq Lib "yup"}}Y{{else}}N{{/if_eq}}`, map[string]string{"Lib": "zod"})
	require.NoError(t, err)
	assert.Equal(t, "N", out)
}

func TestRenderer_ParseError(t *testing.T) {
	_, err := NewRenderer(nil, nil).RenderString("{{#if}}", nil)
	assert.Error(t, err)

	_, err = NewRenderer(nil, nil).Render(KindForm, "form", nil)
	assert.Error(t, err, "no loader")
}

func TestTemplateLoader_Resolution(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "form/form.hbs", "custom form {{ComponentName}}")
	writeFile(t, dir, "common/view.hbs", "{{> header}}common view {{ViewName}}")
	writeFile(t, dir, "partials/header.hbs", "// team header\n")

	r := testRegistry(dir)

	res, err := r.Generate(context.Background(), KindForm, Options{Name: "UserForm", DryRun: true})
	require.NoError(t, err)
	assert.Equal(t, "custom form UserForm", res.Code["forms/UserForm.tsx"])

	res, err = r.Generate(context.Background(), KindView, Options{Name: "User", DryRun: true})
	require.NoError(t, err)
	assert.Equal(t, "// team header\ncommon view UserView", res.Code["views/UserView.tsx"])

	// Everything else still comes from the embedded defaults.
	res, err = r.Generate(context.Background(), KindNavigation, Options{Name: "User", DryRun: true})
	require.NoError(t, err)
	assert.Contains(t, res.Code["navigation/UserNavigation.ts"], "// team header")
	assert.Contains(t, res.Code["navigation/UserNavigation.ts"], "export const USER_ROUTE")
}

func TestTemplateLoader_CachesAndReportsMissing(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "dto/dto.hbs", "first")
	l := NewTemplateLoader(dir)

	src, err := l.Load(KindDTO, "dto")
	require.NoError(t, err)
	assert.Equal(t, "first", src)

	writeFile(t, dir, "dto/dto.hbs", "second")
	src, err = l.Load(KindDTO, "dto")
	require.NoError(t, err)
	assert.Equal(t, "first", src, "sources are cached: %s", path)

	_, err = l.Load("nope", "missing")
	assert.ErrorIs(t, err, ErrTemplateNotFound)

	partials, err := NewTemplateLoader("").Partials()
	require.NoError(t, err)
	assert.Contains(t, partials, "header")
}
