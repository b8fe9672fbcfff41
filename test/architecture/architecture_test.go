package architecture_test

import (
	"go/ast"
	"go/parser"
	"go/token"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const (
	modulePath = "github.com/davidleathers/analysis-orchestrator"
	root       = "../.."
)

// TestDomainPackagesIndependent ensures domain errors stay below the analysis domain
func TestDomainPackagesIndependent(t *testing.T) {
	for _, file := range sourceFiles(t, "internal/domain/errors") {
		for _, imp := range getFileImports(file) {
			if strings.HasPrefix(imp, modulePath+"/internal/domain/") {
				t.Errorf("Domain errors file %s imports %s", file, imp)
			}
		}
	}
}

// TestDomainNotDependOnInfrastructure ensures domain layer doesn't depend on infrastructure
func TestDomainNotDependOnInfrastructure(t *testing.T) {
	forbiddenImports := []string{
		modulePath + "/internal/infrastructure",
		modulePath + "/internal/service",
		modulePath + "/internal/metrics",
		"net/http",
		"github.com/redis/go-redis",
		"github.com/prometheus/client_golang",
		"go.opentelemetry.io/otel",
		"go.uber.org/zap",
	}

	for _, file := range sourceFiles(t, "internal/domain") {
		for _, imp := range getFileImports(file) {
			for _, forbidden := range forbiddenImports {
				if strings.HasPrefix(imp, forbidden) {
					t.Errorf("Domain file %s imports infrastructure: %s", file, imp)
				}
			}
		}
	}
}

// TestServicesDoNotImportInfrastructure ensures service packages depend on
// interfaces only. The root service package composes infrastructure and is
// exempt.
func TestServicesDoNotImportInfrastructure(t *testing.T) {
	forbiddenImports := []string{
		modulePath + "/internal/infrastructure",
		modulePath + "/internal/metrics",
		"github.com/redis/go-redis",
		"github.com/prometheus/client_golang",
		"go.opentelemetry.io/otel/sdk",
	}

	for _, file := range sourceFiles(t, "internal/service") {
		if filepath.Dir(file) == filepath.Join(root, "internal/service") {
			continue
		}
		for _, imp := range getFileImports(file) {
			for _, forbidden := range forbiddenImports {
				if strings.HasPrefix(imp, forbidden) {
					t.Errorf("Service file %s imports infrastructure: %s", file, imp)
				}
			}
		}
	}
}

// TestInfrastructureDoesNotImportComposition ensures infrastructure never
// reaches back into the composition root or the binaries.
func TestInfrastructureDoesNotImportComposition(t *testing.T) {
	for _, file := range sourceFiles(t, "internal/infrastructure", "internal/metrics") {
		for _, imp := range getFileImports(file) {
			if imp == modulePath+"/internal/service" || strings.HasPrefix(imp, modulePath+"/cmd") {
				t.Errorf("Infrastructure file %s imports %s", file, imp)
			}
		}
	}
}

// isOrchestratorService checks if a type coordinates multiple subsystems
func isOrchestratorService(serviceName string) bool {
	return strings.HasSuffix(serviceName, "Engine") ||
		strings.HasSuffix(serviceName, "Factories")
}

// TestServiceMaxDependencies ensures services don't have more than 5 dependencies
func TestServiceMaxDependencies(t *testing.T) {
	for _, file := range sourceFiles(t, "internal/service", "internal/infrastructure/instrumentation") {
		checkServiceDependenciesInFile(t, file)
	}
}

// Helper functions

// sourceFiles lists non-test Go files below the given module-relative dirs
func sourceFiles(t *testing.T, dirs ...string) []string {
	t.Helper()
	var files []string
	for _, dir := range dirs {
		err := filepath.WalkDir(filepath.Join(root, dir), func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() || !strings.HasSuffix(path, ".go") || strings.HasSuffix(path, "_test.go") {
				return nil
			}
			files = append(files, path)
			return nil
		})
		if err != nil {
			t.Fatalf("walking %s: %v", dir, err)
		}
	}
	if len(files) == 0 {
		t.Fatalf("no source files found in %v", dirs)
	}
	return files
}

func checkServiceDependenciesInFile(t *testing.T, filename string) {
	content, err := os.ReadFile(filename)
	if err != nil {
		t.Errorf("Failed to read %s: %v", filename, err)
		return
	}

	fset := token.NewFileSet()
	node, err := parser.ParseFile(fset, filename, content, parser.ParseComments)
	if err != nil {
		t.Errorf("Failed to parse %s: %v", filename, err)
		return
	}

	ast.Inspect(node, func(n ast.Node) bool {
		typeSpec, ok := n.(*ast.TypeSpec)
		if !ok {
			return true
		}
		structType, ok := typeSpec.Type.(*ast.StructType)
		if !ok {
			return true
		}
		serviceName := typeSpec.Name.Name
		if !strings.HasSuffix(serviceName, "Service") && !isOrchestratorService(serviceName) {
			return true
		}

		deps := 0
		for _, field := range structType.Fields.List {
			if isDependency(getTypeString(field.Type)) {
				deps++
			}
		}

		// Orchestrators are allowed up to 8 dependencies
		maxDeps := 5
		if isOrchestratorService(serviceName) {
			maxDeps = 8
		}
		if deps > maxDeps {
			t.Errorf("Service %s has %d dependencies (max allowed: %d) in %s",
				serviceName, deps, maxDeps, filename)
		}
		return true
	})
}

func isDependency(typeStr string) bool {
	for _, marker := range []string{
		"Service", "Generator", "Correlator", "Narrator", "Notifier",
		"Cache", "MetricsCollector", "Clock", "Config",
	} {
		if strings.Contains(typeStr, marker) {
			return true
		}
	}
	return false
}

func getFileImports(filename string) []string {
	content, err := os.ReadFile(filename)
	if err != nil {
		return nil
	}

	fset := token.NewFileSet()
	node, err := parser.ParseFile(fset, filename, content, parser.ImportsOnly)
	if err != nil {
		return nil
	}

	var imports []string
	for _, imp := range node.Imports {
		if imp.Path != nil {
			imports = append(imports, strings.Trim(imp.Path.Value, `"`))
		}
	}
	return imports
}

func getTypeString(expr ast.Expr) string {
	switch t := expr.(type) {
	case *ast.Ident:
		return t.Name
	case *ast.StarExpr:
		return getTypeString(t.X)
	case *ast.SelectorExpr:
		return getTypeString(t.X) + "." + t.Sel.Name
	case *ast.ArrayType:
		return "[]" + getTypeString(t.Elt)
	case *ast.MapType:
		return "map[" + getTypeString(t.Key) + "]" + getTypeString(t.Value)
	default:
		return ""
	}
}
