package generator

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

const (
	iocTypesPattern     = "src/ioc/*IOCTypes.ts"
	iocContainerPattern = "src/ioc/*ContainerIOC.ts"
)

var (
	errIOCFileNotFound = errors.New("IOC file not found")
	lastBindingRe      = regexp.MustCompile(`container\s*\n\s*\.bind[^;]+;`)
)

// registerInIOC adds the service to the project's inversify API_TYPE map and
// container. Both edits are idempotent.
func registerInIOC(root, serviceName, entityName string) error {
	if err := updateIOCTypes(root, entityName); err != nil {
		return err
	}
	return updateIOCContainer(root, serviceName, entityName)
}

func findIOCFile(root, pattern string) (string, error) {
	matches, err := doublestar.Glob(os.DirFS(root), pattern, doublestar.WithFilesOnly())
	if err != nil {
		return "", err
	}
	if len(matches) == 0 {
		return "", fmt.Errorf("%w: %s", errIOCFileNotFound, pattern)
	}
	return filepath.Join(root, filepath.FromSlash(matches[0])), nil
}

// updateIOCTypes inserts `  Key: "Key",` before the first `\n};`.
func updateIOCTypes(root, key string) error {
	path, err := findIOCFile(root, iocTypesPattern)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	content := string(data)
	if strings.Contains(content, key+":") {
		return nil
	}

	end := strings.Index(content, "\n};")
	if end < 0 {
		return fmt.Errorf("%s: no API_TYPE object found", path)
	}
	entry := fmt.Sprintf("\n  %s: %q,", key, key)
	content = content[:end] + entry + content[end:]
	return os.WriteFile(path, []byte(content), 0o644)
}

// updateIOCContainer imports the service after the last import and binds it
// after the last `container .bind...;` statement.
func updateIOCContainer(root, serviceName, entityName string) error {
	path, err := findIOCFile(root, iocContainerPattern)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	content := string(data)
	if strings.Contains(content, "API_TYPE."+entityName) {
		return nil
	}

	bindings := lastBindingRe.FindAllStringIndex(content, -1)
	if len(bindings) == 0 {
		return fmt.Errorf("%s: no container bindings found", path)
	}
	insertAt := bindings[len(bindings)-1][1]
	binding := fmt.Sprintf("\ncontainer\n  .bind<%s>(API_TYPE.%s)\n  .to(%s);", serviceName, entityName, serviceName)
	content = content[:insertAt] + binding + content[insertAt:]

	importLine := fmt.Sprintf("import { %s } from \"../services/%s\";\n", serviceName, serviceName)
	lastImport := strings.LastIndex(content, "import")
	if lastImport < 0 {
		content = importLine + content
	} else if nl := strings.Index(content[lastImport:], "\n"); nl >= 0 {
		at := lastImport + nl + 1
		content = content[:at] + importLine + content[at:]
	} else {
		content += "\n" + importLine
	}
	return os.WriteFile(path, []byte(content), 0o644)
}
