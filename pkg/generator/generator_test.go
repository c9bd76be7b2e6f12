package generator

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/archbase/archbase-cli/pkg/java"
	"github.com/archbase/archbase-cli/pkg/util"
)

const userController = `package com.example.api;

@RestController
@RequestMapping("/api/users")
public class UserController {

    @GetMapping("/{id}")
    public ResponseEntity<UserDto> getUser(@PathVariable String id) {
        return null;
    }

    @GetMapping("/{id}/orders")
    public List<OrderDto> orders(@PathVariable String id, @RequestParam int page) {
        return null;
    }

    @PostMapping
    @PreAuthorize("hasRole('ADMIN')")
    public UserDto create(@RequestBody UserDto user) {
        return user;
    }
}
`

const iocTypesSource = `export const API_TYPE = {
  Existing: "Existing",
};
`

const iocContainerSource = `import { Container } from "inversify";
import { ExistingService } from "../services/ExistingService";

const container = new Container();

container
  .bind<ExistingService>(API_TYPE.Existing)
  .to(ExistingService);

export default container;
`

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeFile(t *testing.T, dir, rel, content string) string {
	t.Helper()
	path := filepath.Join(dir, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func testRegistry(templatesDir string) *Registry {
	return Default(Config{TemplatesDir: templatesDir, Logger: testLogger()})
}

func generate(t *testing.T, kind string, opts Options) *Result {
	t.Helper()
	res, err := testRegistry("").Generate(context.Background(), kind, opts)
	require.NoError(t, err)
	require.NotNil(t, res)
	return res
}

func TestRegistry_Kinds(t *testing.T) {
	r := testRegistry("")
	assert.Equal(t, []string{"dto", "form", "navigation", "service", "view"}, r.Kinds())

	for _, kind := range r.Kinds() {
		g, err := r.Lookup(kind)
		require.NoError(t, err)
		assert.Equal(t, kind, g.Kind())
		assert.NotEmpty(t, g.Description())
	}

	_, err := r.Lookup("page")
	assert.ErrorIs(t, err, ErrUnknownGenerator)
	_, err = r.Generate(context.Background(), "page", Options{Name: "X"})
	assert.ErrorIs(t, err, ErrUnknownGenerator)
}

func TestMapJavaType(t *testing.T) {
	tests := map[string]string{
		"String":                      "string",
		"int":                         "number",
		"Long":                        "number",
		"BigDecimal":                  "number",
		"boolean":                     "boolean",
		"LocalDateTime":               "Date",
		"void":                        "void",
		"List<UserDto>":               "UserDto[]",
		"Set<Long>":                   "number[]",
		"Map<String, List<Long>>":     "Record<string, number[]>",
		"String[]":                    "string[]",
		"List<String>[]":              "string[][]",
		"Page<UserDto>":               "Page<UserDto>",
		"Optional<Map<String, Long>>": "Optional<Record<string, number>>",
		"CustomType":                  "CustomType",
	}
	for in, want := range tests {
		assert.Equal(t, want, MapJavaType(in), in)
	}
}

func TestMapControllerMethods_SingleSignature(t *testing.T) {
	a := java.Analyze("public ResponseEntity<UserDto> getUser(@PathVariable String id)")
	methods := MapControllerMethods(a.Methods, "/api/v1/users")

	require.Len(t, methods, 1)
	m := methods[0]
	assert.Equal(t, "getUser", m.Name)
	assert.Equal(t, "get", m.HTTPMethod)
	assert.Equal(t, "UserDto", m.ReturnType)
	assert.Equal(t, "/api/v1/users", m.Endpoint)
	assert.Equal(t, []ServiceParameter{{Name: "id", Type: "string", Source: SourcePath}}, m.Parameters)
}

func TestMapControllerMethods_Controller(t *testing.T) {
	methods := MapControllerMethods(java.Analyze(userController).Methods, "/api/v1/users")
	require.Len(t, methods, 3)

	assert.Equal(t, "/api/v1/users/{id}", methods[0].Endpoint)

	orders := methods[1]
	assert.Equal(t, "OrderDto[]", orders.ReturnType)
	assert.Equal(t, "/api/v1/users/{id}/orders", orders.Endpoint)
	assert.Equal(t, []ServiceParameter{
		{Name: "id", Type: "string", Source: SourcePath},
		{Name: "page", Type: "number", Source: SourceQuery},
	}, orders.Parameters)

	create := methods[2]
	assert.Equal(t, "post", create.HTTPMethod)
	assert.Equal(t, "/api/v1/users", create.Endpoint, "@PreAuthorize value is not a route")
	assert.Equal(t, []ServiceParameter{{Name: "user", Type: "UserDto", Source: SourceBody}}, create.Parameters)
}

func TestMapControllerMethods_AnnotationsAcrossLines(t *testing.T) {
	code := `public class ReportController {
    @GetMapping(
        value = "/daily")
    public ReportDto daily() { return null; }

    @PostMapping("/run")
    // Triggers a rebuild.
    public void run() {}
}`
	methods := MapControllerMethods(java.Analyze(code).Methods, "/api/reports")
	require.Len(t, methods, 2)

	assert.Equal(t, "get", methods[0].HTTPMethod)
	assert.Equal(t, "/api/reports/daily", methods[0].Endpoint)
	assert.Equal(t, "post", methods[1].HTTPMethod)
	assert.Equal(t, "/api/reports/run", methods[1].Endpoint)
}

func TestServiceGenerator_DryRunWithController(t *testing.T) {
	dir := t.TempDir()
	res := generate(t, KindService, Options{
		Name:           "UserService",
		Entity:         "User",
		EntityType:     "UserDto",
		JavaController: userController,
		OutputDir:      dir,
		DryRun:         true,
	})

	require.Equal(t, []string{"services/UserService.ts"}, res.Files)
	code := res.Code["services/UserService.ts"]

	assert.Contains(t, code, "export class UserService extends ArchbaseRemoteApiService<UserDto, string>")
	assert.Contains(t, code, "return '/api/v1/users';")
	assert.Contains(t, code, "import { UserDto } from '../domain/UserDto';")
	assert.Contains(t, code, "import { OrderDto } from '../domain/OrderDto';")
	assert.Contains(t, code, "async getUser(id: string): Promise<UserDto>")
	assert.Contains(t, code, "async orders(id: string, page: number): Promise<OrderDto[]>")
	assert.Contains(t, code, "params.append('page', String(page));")
	assert.Contains(t, code, "`/api/v1/users/${id}/orders${query}`")
	assert.Contains(t, code, "this.client.post<UserDto>(`/api/v1/users${query}`, user,")

	_, err := os.Stat(filepath.Join(dir, "services", "UserService.ts"))
	assert.True(t, os.IsNotExist(err), "dry run writes nothing")
}

func TestServiceGenerator_WritesAndRegistersIOC(t *testing.T) {
	dir := t.TempDir()
	typesPath := writeFile(t, dir, "src/ioc/AppIOCTypes.ts", iocTypesSource)
	containerPath := writeFile(t, dir, "src/ioc/AppContainerIOC.ts", iocContainerSource)

	opts := Options{
		Name:        "UserService",
		Entity:      "User",
		EntityType:  "UserDto",
		IDType:      "number",
		GenerateDTO: true,
		OutputDir:   dir,
	}
	res := generate(t, KindService, opts)
	assert.Equal(t, []string{"services/UserService.ts", "dto/UserDto.ts"}, res.Files)

	service := readFile(t, filepath.Join(dir, "services", "UserService.ts"))
	assert.Contains(t, service, "ArchbaseRemoteApiService<UserDto, number>")
	assert.NotContains(t, service, "async ", "no controller, no custom methods")
	assert.Contains(t, readFile(t, filepath.Join(dir, "dto", "UserDto.ts")), "export class UserDto")

	wantTypes := `export const API_TYPE = {
  Existing: "Existing",
  User: "User",
};
`
	wantContainer := `import { Container } from "inversify";
import { ExistingService } from "../services/ExistingService";
import { UserService } from "../services/UserService";

const container = new Container();

container
  .bind<ExistingService>(API_TYPE.Existing)
  .to(ExistingService);
container
  .bind<UserService>(API_TYPE.User)
  .to(UserService);

export default container;
`
	assert.Equal(t, wantTypes, readFile(t, typesPath))
	assert.Equal(t, wantContainer, readFile(t, containerPath))

	generate(t, KindService, opts)
	assert.Equal(t, wantTypes, readFile(t, typesPath), "registration is idempotent")
	assert.Equal(t, wantContainer, readFile(t, containerPath))
}

func TestServiceGenerator_MissingIOCIsNotFatal(t *testing.T) {
	dir := t.TempDir()
	generate(t, KindService, Options{Name: "UserService", Entity: "User", EntityType: "UserDto", OutputDir: dir})
	assert.FileExists(t, filepath.Join(dir, "services", "UserService.ts"))
}

func TestGenerators_InvalidOptions(t *testing.T) {
	tests := []struct {
		name string
		kind string
		opts Options
	}{
		{"service without entity", KindService, Options{Name: "UserService", EntityType: "UserDto"}},
		{"service without name", KindService, Options{Entity: "User", EntityType: "UserDto"}},
		{"dto without fields", KindDTO, Options{Name: "User"}},
		{"form with unknown validation", KindForm, Options{Name: "UserForm", Validation: "joi"}},
		{"form with unknown layout", KindForm, Options{Name: "UserForm", Layout: "tabs"}},
		{"view with unknown version", KindView, Options{Name: "User", DataSourceVersion: "v3"}},
		{"navigation without name", KindNavigation, Options{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.opts.DryRun = true
			_, err := testRegistry("").Generate(context.Background(), tt.kind, tt.opts)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidOptions)

			var genErr *util.GeneratorError
			assert.True(t, errors.As(err, &genErr))
		})
	}
}

func TestGenerate_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := testRegistry("").Generate(ctx, KindForm, Options{Name: "UserForm", DryRun: true})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDTOGenerator(t *testing.T) {
	res := generate(t, KindDTO, Options{
		Name:   "Customer",
		Fields: "name:String, age:Integer, tags?:List<String>, birth:LocalDate, code",
		DryRun: true,
	})
	require.Equal(t, []string{"domain/CustomerDto.ts"}, res.Files)
	code := res.Code["domain/CustomerDto.ts"]

	assert.Contains(t, code, "export class CustomerDto {")
	assert.Contains(t, code, "  name: string;")
	assert.Contains(t, code, "  age: number;")
	assert.Contains(t, code, "  tags?: string[];")
	assert.Contains(t, code, "  birth: Date;")
	assert.Contains(t, code, "  code: string;")
}

func TestFormGenerator(t *testing.T) {
	res := generate(t, KindForm, Options{
		Name:       "CustomerForm",
		Fields:     "name:text,age:number,active?:checkbox",
		Validation: "zod",
		Layout:     "grid",
		DryRun:     true,
	})
	require.Equal(t, []string{"forms/CustomerForm.tsx"}, res.Files)
	code := res.Code["forms/CustomerForm.tsx"]

	assert.Contains(t, code, "import { z } from 'zod';")
	assert.NotContains(t, code, "yup")
	assert.Contains(t, code, "ArchbaseRemoteDataSourceV2 as FormDataSource")
	assert.Contains(t, code, "export interface Customer {")
	assert.Contains(t, code, "  active?: boolean;")
	assert.Contains(t, code, "export const customerSchema = z.object({")
	assert.Contains(t, code, "  name: z.string().min(1),")
	assert.Contains(t, code, "  age: z.number(),")
	assert.Contains(t, code, "  active: z.boolean().optional(),")
	assert.Contains(t, code, `<ArchbaseNumberEdit dataSource={dataSource} dataField="age"`)
	assert.Contains(t, code, `className="archbase-form archbase-form-grid"`)
	assert.Contains(t, code, "export function CustomerForm(")
}

func TestFormGenerator_Defaults(t *testing.T) {
	code := generate(t, KindForm, Options{Name: "UserForm", DryRun: true}).Code["forms/UserForm.tsx"]

	assert.Contains(t, code, "import * as yup from 'yup';")
	assert.Contains(t, code, "  email: yup.string().email().required(),")
	assert.Contains(t, code, `dataField="name"`)
	assert.Contains(t, code, `dataField="email"`)
	assert.Contains(t, code, "archbase-form-vertical")
}

func TestFormGenerator_NoValidation(t *testing.T) {
	code := generate(t, KindForm, Options{Name: "UserForm", Validation: "none", DataSourceVersion: "v1", DryRun: true}).Code["forms/UserForm.tsx"]
	assert.NotContains(t, code, "Schema")
	assert.Contains(t, code, "ArchbaseDataSource as FormDataSource")
}

func TestViewGenerator(t *testing.T) {
	dir := t.TempDir()
	res := generate(t, KindView, Options{Name: "Customer", Fields: "name,email:email", OutputDir: dir})
	require.Equal(t, []string{"views/CustomerView.tsx"}, res.Files)

	code := readFile(t, filepath.Join(dir, "views", "CustomerView.tsx"))
	assert.Equal(t, res.Code["views/CustomerView.tsx"], code)
	assert.Contains(t, code, "export function CustomerView()")
	assert.Contains(t, code, "endpoint: '/api/v1/customers',")
	assert.Contains(t, code, `<ArchbaseDataGridColumn dataField="email" header="Email" />`)
	assert.Contains(t, code, "useArchbaseRemoteDataSourceV2 as useRemoteDataSource")
}

func TestNavigationGenerator(t *testing.T) {
	res := generate(t, KindNavigation, Options{Name: "UserProfileNavigation", Category: "admin", DryRun: true})
	require.Equal(t, []string{"navigation/UserProfileNavigation.ts"}, res.Files)
	code := res.Code["navigation/UserProfileNavigation.ts"]

	assert.Contains(t, code, "export const ADMIN_CATEGORY = 'admin';")
	assert.Contains(t, code, "export const USER_PROFILE_ROUTE = '/admin/admin/user-profile';")
	assert.Contains(t, code, "export const USER_PROFILE_FORM_ROUTE = '/admin/admin/user-profile/:userProfileId';")
	assert.Contains(t, code, "export const userProfileNavigation = {")
	assert.Contains(t, code, "view: 'UserProfileView',")
}

func TestParseFields(t *testing.T) {
	fields, err := ParseFields(" name , age:number, nick?:text ,", "text")
	require.NoError(t, err)
	require.Len(t, fields, 3)

	assert.Equal(t, Field{Name: "name", Type: "text", Label: "Name", Required: true, Placeholder: "Enter name..."}, fields[0])
	assert.Equal(t, "number", fields[1].Type)
	assert.False(t, fields[2].Required)
	assert.Equal(t, "nick", fields[2].Name)

	_, err = ParseFields(":number", "text")
	assert.ErrorIs(t, err, ErrInvalidOptions)
}
