//go:build ignore

// build.go - aqicli build script
// Usage: go run build.go [-target=TARGET]
// Targets: all, processor, splitter, clean, test, release

package main

import (
	"flag"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"time"
)

const versionPkg = "aqicli/pkg/contracts"

var (
	rootDir string
	distDir string

	// Source dir name under cmd/ -> output binary name
	executables = map[string]string{
		"processor": "aqi-processor",
		"splitter":  "aqi-splitter",
	}

	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorBlue   = "\033[34m"
	colorCyan   = "\033[36m"
)

// BuildContext holds configuration for one build invocation
type BuildContext struct {
	Verbose bool
	Release bool
}

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

	printHeader()
	start := time.Now()
	ctx := &BuildContext{Verbose: *verbose}

	switch *target {
	case "all":
		buildAll(ctx)
	case "processor", "splitter":
		prepareDist()
		buildExecutable(*target, ctx)
	case "clean":
		clean()
	case "test":
		runTests(ctx.Verbose)
	case "release":
		ctx.Release = true
		clean()
		buildAll(ctx)
	default:
		showHelp()
		os.Exit(1)
	}

	printSuccess(fmt.Sprintf("Build completed in %s", time.Since(start).Round(time.Millisecond)))
}

func printHeader() {
	fmt.Println(colorCyan + "===========================================" + colorReset)
	fmt.Println(colorCyan + "          aqicli - Build System            " + colorReset)
	fmt.Println(colorCyan + "===========================================" + colorReset)
	fmt.Println()
}

func printInfo(msg string) {
	fmt.Printf("%s[INFO]%s %s\n", colorBlue, colorReset, msg)
}

func printSuccess(msg string) {
	fmt.Printf("%s[SUCCESS]%s %s\n", colorGreen, colorReset, msg)
}

func printError(msg string) {
	fmt.Printf("%s[ERROR]%s %s\n", colorRed, colorReset, msg)
}

func printWarning(msg string) {
	fmt.Printf("%s[WARNING]%s %s\n", colorYellow, colorReset, msg)
}

func buildAll(ctx *BuildContext) {
	printInfo("Building all commands...")
	if err := exec.Command("go", "version").Run(); err != nil {
		printError("Go is not installed or not in PATH")
		os.Exit(1)
	}
	prepareDist()

	names := make([]string, 0, len(executables))
	for name := range executables {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		buildExecutable(name, ctx)
	}
	printSuccess("All commands built successfully!")
}

func prepareDist() {
	if err := os.MkdirAll(distDir, 0755); err != nil {
		printError(fmt.Sprintf("Failed to create %s: %v", distDir, err))
		os.Exit(1)
	}
}

func buildExecutable(name string, ctx *BuildContext) {
	exeName := executables[name]
	if runtime.GOOS == "windows" {
		exeName += ".exe"
	}
	printInfo(fmt.Sprintf("Building %s...", name))

	outputPath := filepath.Join(distDir, exeName)
	ldflags := fmt.Sprintf("-X %s.BuildTime=%s -X %s.GitCommit=%s",
		versionPkg, time.Now().UTC().Format(time.RFC3339), versionPkg, gitCommit())
	if ctx.Release {
		ldflags = "-s -w " + ldflags
	}

	args := []string{"build"}
	if ctx.Verbose {
		args = append(args, "-v")
	}
	if ctx.Release {
		args = append(args, "-trimpath")
	}
	args = append(args, "-ldflags", ldflags, "-o", outputPath, "./cmd/"+name)

	cmd := exec.Command("go", args...)
	cmd.Dir = rootDir
	if ctx.Verbose {
		fmt.Printf("Running: go %s\n", strings.Join(args, " "))
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
	}
	if err := cmd.Run(); err != nil {
		printError(fmt.Sprintf("Failed to build %s: %v", name, err))
		os.Exit(1)
	}

	if info, err := os.Stat(outputPath); err == nil {
		printSuccess(fmt.Sprintf("Built %s (%.1f MB)", exeName, float64(info.Size())/1024/1024))
	}
}

func gitCommit() string {
	out, err := exec.Command("git", "rev-parse", "--short", "HEAD").Output()
	if err != nil {
		return "unknown"
	}
	return strings.TrimSpace(string(out))
}

func clean() {
	printInfo("Cleaning build artifacts and logs...")
	for _, dir := range []string{distDir, filepath.Join(rootDir, "logs")} {
		if err := os.RemoveAll(dir); err != nil {
			printWarning(fmt.Sprintf("Failed to remove %s: %v", dir, err))
		}
	}
	printSuccess("Build artifacts cleaned")
}

func runTests(verbose bool) {
	printInfo("Running Go tests...")
	args := []string{"test", "-race"}
	if verbose {
		args = append(args, "-v")
	}
	args = append(args, "./...")

	cmd := exec.Command("go", args...)
	cmd.Dir = rootDir
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		printError(fmt.Sprintf("Go tests failed: %v", err))
		os.Exit(1)
	}
	printSuccess("All tests passed")
}

func showHelp() {
	fmt.Println("Usage: go run build.go [-target=TARGET] [-v]")
	fmt.Println()
	fmt.Println("Targets:")
	fmt.Println("  all        Build every command (default)")
	fmt.Println("  processor  Build the registry aggregation command")
	fmt.Println("  splitter   Build the monthly GeoJSON splitter")
	fmt.Println("  clean      Remove dist/ and logs/")
	fmt.Println("  test       Run all tests with the race detector")
	fmt.Println("  release    Clean, then build stripped binaries")
}
