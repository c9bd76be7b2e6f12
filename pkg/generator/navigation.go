package generator

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aymerick/raymond"

	"github.com/archbase/archbase-cli/pkg/util"
)

const defaultNavigationCategory = "general"

type navigationOptions struct {
	Name     string `validate:"required"`
	Category string `validate:"required"`
}

// NavigationData is the template context of navigation/navigation.hbs.
type NavigationData struct {
	Name          string
	Label         string
	Category      string
	Feature       string
	AdminRoute    string
	FormRoute     string
	ViewComponent string
	FormComponent string
}

// NavigationGenerator writes route constants and a menu entry for a feature.
type NavigationGenerator struct {
	loader *TemplateLoader
	logger *slog.Logger
}

func NewNavigationGenerator(loader *TemplateLoader, logger *slog.Logger) *NavigationGenerator {
	return &NavigationGenerator{loader: loader, logger: util.OrDefault(logger)}
}

func (g *NavigationGenerator) Kind() string { return KindNavigation }

func (g *NavigationGenerator) Description() string {
	return "Route constants and admin menu entry"
}

func navigationHelpers() HelperSet {
	return baseHelpers().With(HelperSet{
		"if_eq":           ifEqHelper,
		"capitalizeFirst": capitalizeHelper,
		"toLowerCase":     lowercaseHelper,
		"toUpperCase":     uppercaseHelper,
		"toKebabCase":     kebabHelper,
		"lowerFirst":      func(s any) string { return lowerFirst(str(s)) },
		// toConstant turns "user-profile" into "USER_PROFILE".
		"toConstant": func(s any) raymond.SafeString {
			return raymond.SafeString(strings.ToUpper(strings.ReplaceAll(str(s), "-", "_")))
		},
	})
}

// Generate renders navigation/<Name>Navigation.ts.
func (g *NavigationGenerator) Generate(ctx context.Context, opts Options) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	name := strings.TrimSuffix(opts.Name, "Navigation")
	category := orDefault(opts.Category, defaultNavigationCategory)
	if err := validateOptions(navigationOptions{Name: name, Category: category}); err != nil {
		return nil, &util.GeneratorError{Op: KindNavigation, Err: err}
	}
	root, err := outputRoot(opts)
	if err != nil {
		return nil, &util.GeneratorError{Op: KindNavigation, Path: opts.OutputDir, Err: err}
	}

	feature := kebabCase(name)
	data := NavigationData{
		Name:          name,
		Label:         capitalizeFirst(name),
		Category:      category,
		Feature:       feature,
		AdminRoute:    fmt.Sprintf("/admin/%s/%s", category, feature),
		FormRoute:     fmt.Sprintf("/admin/%s/%s/:%sId", category, feature, lowerFirst(name)),
		ViewComponent: capitalizeFirst(name) + "View",
		FormComponent: capitalizeFirst(name) + "Form",
	}

	g.logger.Info("generating navigation", "name", name, "route", data.AdminRoute)
	code, err := NewRenderer(navigationHelpers(), g.loader).Render(KindNavigation, "navigation", data)
	if err != nil {
		return nil, &util.GeneratorError{Op: KindNavigation, Err: err}
	}
	res := newResult()
	res.add(fmt.Sprintf("navigation/%sNavigation.ts", name), code)
	if err := writeResult(root, res, opts.DryRun, g.logger); err != nil {
		return nil, err
	}
	return res, nil
}
