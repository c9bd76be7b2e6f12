package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/archbase/archbase-cli/pkg/generator"
	"github.com/archbase/archbase-cli/pkg/java"
	"github.com/archbase/archbase-cli/pkg/parser"
	"github.com/archbase/archbase-cli/pkg/scanner"
	"github.com/archbase/archbase-cli/pkg/validator"
)

const defaultComponentFilename = "Component.tsx"

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal result: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (s *Server) handleAnalyzeComponent(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path := req.GetString("path", "")
	code := req.GetString("code", "")
	if path == "" && code == "" {
		return mcp.NewToolResultError("either path or code is required"), nil
	}

	if path != "" {
		analysis, err := s.components.AnalyzeFile(path)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if analysis == nil {
			return mcp.NewToolResultError(fmt.Sprintf("%s could not be parsed", path)), nil
		}
		return jsonResult(analysis)
	}

	name := req.GetString("filename", defaultComponentFilename)
	analysis, err := s.components.AnalyzeSource(name, []byte(code))
	if errors.Is(err, parser.ErrUnsupportedLanguage) {
		return mcp.NewToolResultError(fmt.Sprintf("unsupported file type: %s", filepath.Ext(name))), nil
	}
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if analysis == nil {
		return mcp.NewToolResultError("code could not be parsed"), nil
	}
	return jsonResult(analysis)
}

func (s *Server) handleScanProject(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	opts := scanner.ScanOptions{
		ProjectPath: path,
		Include:     req.GetStringSlice("include", nil),
		Exclude:     req.GetStringSlice("exclude", nil),
	}

	key := strings.Join([]string{path, strings.Join(opts.Include, ","), strings.Join(opts.Exclude, ",")}, "|")
	v, err, shared := s.scans.Do(key, func() (any, error) {
		return s.scanner.Scan(ctx, opts)
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if shared {
		s.logger.Debug("scan_project shared an in-flight scan", "path", path)
	}
	return jsonResult(v)
}

func (s *Server) handleAnalyzePatterns(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	analysis, err := s.patterns.Analyze(ctx, path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(analysis)
}

// controllerSource reads code, falling back to path.
func controllerSource(req mcp.CallToolRequest) (string, error) {
	src := req.GetString("code", "")
	if src == "" {
		src = req.GetString("path", "")
	}
	if strings.TrimSpace(src) == "" {
		return "", errors.New("either code or path is required")
	}
	return java.ReadController(src)
}

func (s *Server) handleAnalyzeJavaController(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	code, err := controllerSource(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(java.Analyze(code))
}

func (s *Server) handleMapServiceMethods(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	code, err := controllerSource(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	analysis := java.Analyze(code)
	endpoint := req.GetString("endpoint", analysis.BaseMapping)
	return jsonResult(map[string]any{
		"className": analysis.ClassName,
		"endpoint":  endpoint,
		"methods":   generator.MapControllerMethods(analysis.Methods, endpoint),
	})
}

type generatorInfo struct {
	Kind        string `json:"kind"`
	Description string `json:"description"`
}

func (s *Server) handleListGenerators(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	kinds := s.generators.Kinds()
	out := make([]generatorInfo, 0, len(kinds))
	for _, k := range kinds {
		g, err := s.generators.Lookup(k)
		if err != nil {
			continue
		}
		out = append(out, generatorInfo{Kind: k, Description: g.Description()})
	}
	return jsonResult(out)
}

func (s *Server) handleGenerate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	kind, err := req.RequireString("kind")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	name, err := req.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	opts := generator.Options{
		Name:              name,
		OutputDir:         req.GetString("output_dir", ""),
		DryRun:            req.GetBool("dry_run", true),
		Entity:            req.GetString("entity", ""),
		EntityType:        req.GetString("entity_type", ""),
		IDType:            req.GetString("id_type", ""),
		Endpoint:          req.GetString("endpoint", ""),
		JavaController:    req.GetString("java_controller", ""),
		GenerateDTO:       req.GetBool("dto", false),
		Fields:            req.GetString("fields", ""),
		Validation:        req.GetString("validation", ""),
		Layout:            req.GetString("layout", ""),
		DataSourceVersion: req.GetString("datasource_version", ""),
		Category:          req.GetString("category", ""),
	}

	res, err := s.generators.Generate(ctx, kind, opts)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(map[string]any{
		"kind":   kind,
		"dryRun": opts.DryRun,
		"files":  res.Files,
		"code":   res.Code,
	})
}

func (s *Server) handleValidateCode(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if path := req.GetString("path", ""); path != "" {
		return jsonResult(s.validator.ValidateFile(path))
	}
	code := req.GetString("code", "")
	if code == "" {
		return mcp.NewToolResultError("either path or code is required"), nil
	}
	return jsonResult(s.validator.ValidateCode(code, req.GetString("filename", validator.DefaultFileName)))
}

func (s *Server) handleAnalyzeDocs(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	analysis, err := s.docs.Analyze(ctx, path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(analysis)
}
