package mcp

import "github.com/mark3labs/mcp-go/mcp"

func analyzeComponentTool() mcp.Tool {
	return mcp.NewTool("analyze_component",
		mcp.WithDescription("Extract props, imports, hooks, DataSource usage and complexity from one React component. "+
			"Pass either a file path or inline code."),
		mcp.WithString("path", mcp.Description("Component file to analyze.")),
		mcp.WithString("code", mcp.Description("Inline component source, used when path is empty.")),
		mcp.WithString("filename",
			mcp.Description("File name for inline code. The extension picks the grammar. Default Component.tsx."),
		),
	)
}

func scanProjectTool() mcp.Tool {
	return mcp.NewTool("scan_project",
		mcp.WithDescription("Scan a project for Archbase component usages, issues, DataSource V1 to V2 "+
			"migration candidates and dependency gaps."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Project root.")),
		mcp.WithArray("include",
			mcp.Description("Glob patterns to include. Default **/*.{ts,tsx,js,jsx}."),
			mcp.Items(map[string]any{"type": "string"}),
		),
		mcp.WithArray("exclude",
			mcp.Description("Glob patterns to exclude. Default node_modules, dist, build and .git."),
			mcp.Items(map[string]any{"type": "string"}),
		),
	)
}

func analyzePatternsTool() mcp.Tool {
	return mcp.NewTool("analyze_patterns",
		mcp.WithDescription("Detect recurring form, DataSource, validation and page patterns across a project "+
			"and recommend templates for them."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Project root.")),
	)
}

func analyzeJavaControllerTool() mcp.Tool {
	return mcp.NewTool("analyze_java_controller",
		mcp.WithDescription("Parse a Spring controller into its class name, base mapping and annotated methods."),
		mcp.WithString("code", mcp.Description("Controller source.")),
		mcp.WithString("path", mcp.Description("Controller file, used when code is empty.")),
	)
}

func mapServiceMethodsTool() mcp.Tool {
	return mcp.NewTool("map_service_methods",
		mcp.WithDescription("Map a Spring controller's methods to TypeScript service methods with HTTP verbs, "+
			"endpoints and parameter sources."),
		mcp.WithString("code", mcp.Required(), mcp.Description("Controller source or file path.")),
		mcp.WithString("endpoint", mcp.Description("Base endpoint. Defaults to the controller's @RequestMapping.")),
	)
}

func listGeneratorsTool() mcp.Tool {
	return mcp.NewTool("list_generators",
		mcp.WithDescription("List the available code generators."),
	)
}

func generateTool(kinds []string) mcp.Tool {
	return mcp.NewTool("generate",
		mcp.WithDescription("Render a service, DTO, form, view or navigation file. "+
			"Runs as a dry run by default and returns the generated code."),
		mcp.WithString("kind", mcp.Required(), mcp.Enum(kinds...), mcp.Description("Generator to run.")),
		mcp.WithString("name", mcp.Required(), mcp.Description("Artifact name, e.g. UserService or UserForm.")),
		mcp.WithString("output_dir", mcp.Description("Directory files are written under when dry_run is false.")),
		mcp.WithBoolean("dry_run", mcp.DefaultBool(true), mcp.Description("Return code without writing files.")),
		mcp.WithString("entity", mcp.Description("Entity name.")),
		mcp.WithString("entity_type", mcp.Description("Service entity DTO type.")),
		mcp.WithString("id_type", mcp.Description("Service id type. Default string.")),
		mcp.WithString("endpoint", mcp.Description("REST endpoint.")),
		mcp.WithString("java_controller", mcp.Description("Controller file or source for service methods.")),
		mcp.WithBoolean("dto", mcp.Description("Also generate the service DTO.")),
		mcp.WithString("fields", mcp.Description("Comma separated name:type fields. A ? after the name marks it optional.")),
		mcp.WithString("validation", mcp.Enum("yup", "zod", "none")),
		mcp.WithString("layout", mcp.Enum("vertical", "horizontal", "grid")),
		mcp.WithString("datasource_version", mcp.Enum("v1", "v2")),
		mcp.WithString("category", mcp.Description("Navigation category.")),
	)
}

func validateCodeTool() mcp.Tool {
	return mcp.NewTool("validate_code",
		mcp.WithDescription("Check generated TypeScript or TSX for syntax errors, missing React and Archbase imports, "+
			"default exports and Props interfaces. Pass either a file path or inline code."),
		mcp.WithString("path", mcp.Description("File to validate.")),
		mcp.WithString("code", mcp.Description("Inline source, used when path is empty.")),
		mcp.WithString("filename", mcp.Description("File name for inline code. Default generated.tsx.")),
	)
}

func analyzeDocsTool() mcp.Tool {
	return mcp.NewTool("analyze_docs",
		mcp.WithDescription("Mine a markdown documentation tree for DataSource V2 features, API references, "+
			"code examples, migration guides and component patterns."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Documentation root.")),
	)
}
