package validator

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
)

func defaultRules() []rule {
	return []rule{
		{name: "react-component-structure", check: checkDefaultExport},
		{name: "typescript-props-interface", check: checkPropsInterface},
		{name: "required-imports", check: checkReactImport},
		{name: "archbase-imports", check: checkArchbaseImport},
	}
}

func checkDefaultExport(f *facts, _ string, result *ValidationResult) {
	if f.hasDefaultExport {
		return
	}
	name := f.component
	if name == "" {
		name = "Component"
	}
	result.addWarning("React component should have a default export",
		fmt.Sprintf("Add `export default %s`", name))
}

func checkPropsInterface(f *facts, code string, result *ValidationResult) {
	if f.component == "" || f.hasPropsIface || !strings.Contains(code, "props") {
		return
	}
	result.addWarning(fmt.Sprintf("Component %s should define a Props interface", f.component),
		fmt.Sprintf("Add interface %sProps { ... }", f.component))
}

func checkReactImport(f *facts, _ string, result *ValidationResult) {
	if f.usesJSX && !f.importsFrom("react") {
		result.addError(ErrorImport, "Missing React import for JSX usage")
	}
}

func checkArchbaseImport(f *facts, _ string, result *ValidationResult) {
	if len(f.archbaseTags) > 0 && !f.importsFrom("@archbase/react") {
		result.addError(ErrorImport, "Missing @archbase/react import for Archbase components")
	}
}

var (
	requiredDependencies    = []string{"react", "react-dom"}
	recommendedDependencies = []string{"typescript", "@types/react", "@types/react-dom"}
	requiredScripts         = []string{"build", "dev"}
)

type packageManifest struct {
	Dependencies    map[string]string `json:"dependencies"`
	DevDependencies map[string]string `json:"devDependencies"`
	Scripts         map[string]string `json:"scripts"`
}

func validatePackageJSON(path string, result *ValidationResult) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		result.addError(ErrorStructure, "Missing package.json file")
		return
	}
	if err != nil {
		result.addError(ErrorStructure, "Project validation failed: "+err.Error())
		return
	}
	var pkg packageManifest
	if err := json.Unmarshal(data, &pkg); err != nil {
		result.addError(ErrorStructure, "Project validation failed: invalid package.json: "+err.Error())
		return
	}

	has := func(dep string) bool {
		return pkg.Dependencies[dep] != "" || pkg.DevDependencies[dep] != ""
	}
	for _, dep := range requiredDependencies {
		if !has(dep) {
			result.addError(ErrorStructure, "Missing required dependency: "+dep)
		}
	}
	for _, dep := range recommendedDependencies {
		if !has(dep) {
			result.addWarning("Missing recommended dependency: "+dep,
				fmt.Sprintf("Add %s for better development experience", dep))
		}
	}
	for _, script := range requiredScripts {
		if pkg.Scripts[script] == "" {
			result.addWarning("Missing script: "+script,
				fmt.Sprintf("Add %q script to package.json", script))
		}
	}
}
