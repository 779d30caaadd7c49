//go:build ignore

// build.go - Car Sales Pulse build script
// Usage: go run build.go [-target=TARGET] [-v]
// Targets: all, web, sales-report, test, clean, release

package main

import (
	"flag"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/fatih/color"
)

const module = "carsales"

var (
	rootDir string
	distDir string

	// key = source dir under cmd/, value = output name without extension
	executables = map[string]string{
		"web":          "carsales-web",
		"sales-report": "sales-report",
	}
)

func main() {
	target := flag.String("target", "all", "Build target")
	verbose := flag.Bool("v", false, "Verbose output")
	flag.Parse()

	cwd, err := os.Getwd()
	if err != nil {
		printError(fmt.Sprintf("Failed to get current directory: %v", err))
		os.Exit(1)
	}
	rootDir = cwd
	distDir = filepath.Join(rootDir, "dist")

	color.New(color.FgCyan, color.Bold).Println("Car Sales Pulse - build")
	fmt.Println()

	start := time.Now()
	switch *target {
	case "all":
		buildAll(*verbose)
	case "web", "sales-report":
		buildExecutable(*target, *verbose)
	case "test":
		runTests(*verbose)
	case "clean":
		clean()
	case "release":
		buildRelease(*verbose)
	default:
		showHelp()
		os.Exit(1)
	}

	printSuccess(fmt.Sprintf("Build completed in %s", time.Since(start).Round(time.Millisecond)))
}

func printInfo(msg string)    { fmt.Printf("%s %s\n", color.BlueString("[INFO]"), msg) }
func printSuccess(msg string) { fmt.Printf("%s %s\n", color.GreenString("[SUCCESS]"), msg) }
func printError(msg string)   { fmt.Printf("%s %s\n", color.RedString("[ERROR]"), msg) }

func buildAll(verbose bool) {
	printInfo("Building all executables...")
	if err := os.MkdirAll(distDir, 0755); err != nil {
		printError(fmt.Sprintf("Failed to create %s: %v", distDir, err))
		os.Exit(1)
	}
	for name := range executables {
		buildExecutable(name, verbose)
	}
}

func buildExecutable(name string, verbose bool) {
	exeName := executables[name]
	if runtime.GOOS == "windows" || os.Getenv("GOOS") == "windows" {
		exeName += ".exe"
	}
	printInfo(fmt.Sprintf("Building %s...", name))

	outputPath := filepath.Join(distDir, exeName)
	ldflags := fmt.Sprintf("-s -w -X %s/internal/app.BuildTime=%s", module, time.Now().UTC().Format(time.RFC3339))

	args := []string{"build"}
	if verbose {
		args = append(args, "-v")
	}
	args = append(args, "-ldflags", ldflags, "-o", outputPath, "./cmd/"+name)

	if err := goCommand(verbose, args...); err != nil {
		printError(fmt.Sprintf("Failed to build %s: %v", name, err))
		os.Exit(1)
	}

	if info, err := os.Stat(outputPath); err == nil {
		printSuccess(fmt.Sprintf("Built %s (%.1f MB)", exeName, float64(info.Size())/1024/1024))
	}
}

func runTests(verbose bool) {
	printInfo("Running Go tests...")
	args := []string{"test", "-race"}
	if verbose {
		args = append(args, "-v")
	}
	if err := goCommand(true, append(args, "./...")...); err != nil {
		printError(fmt.Sprintf("Go tests failed: %v", err))
		os.Exit(1)
	}
	printSuccess("All tests passed")
}

func buildRelease(verbose bool) {
	printInfo("Building release version...")
	clean()
	os.Setenv("CGO_ENABLED", "0")
	buildAll(verbose)

	content := fmt.Sprintf("Car Sales Pulse\nBuilt: %s\n", time.Now().Format("2006-01-02 15:04:05"))
	if err := os.WriteFile(filepath.Join(distDir, "VERSION.txt"), []byte(content), 0644); err != nil {
		printError(fmt.Sprintf("Failed to write version file: %v", err))
	}
	printSuccess("Release build completed")
}

// clean empties dist/ and removes log files.
func clean() {
	printInfo("Cleaning build artifacts and logs...")
	if err := os.RemoveAll(distDir); err != nil {
		printError(fmt.Sprintf("Failed to clean dist directory: %v", err))
	}

	for _, dir := range []string{rootDir, filepath.Join(rootDir, "logs")} {
		logs, _ := filepath.Glob(filepath.Join(dir, "*.log"))
		for _, f := range logs {
			os.Remove(f)
		}
	}
	printSuccess("Build artifacts cleaned")
}

func goCommand(stream bool, args ...string) error {
	cmd := exec.Command("go", args...)
	cmd.Dir = rootDir
	if stream {
		fmt.Printf("go %s\n", strings.Join(args, " "))
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
	}
	return cmd.Run()
}

func showHelp() {
	fmt.Println("Usage: go run build.go [-target=TARGET] [-v]")
	fmt.Println()
	fmt.Println("Targets:")
	fmt.Println("  all             Build the web server and the report CLI (default)")
	fmt.Println("  web             Build the dashboard server")
	fmt.Println("  sales-report    Build the report CLI")
	fmt.Println("  test            Run all Go tests")
	fmt.Println("  clean           Remove build artifacts and logs")
	fmt.Println("  release         Clean, then build with CGO disabled")
}
