// cmd/tools/capabilities-extractor/main.go
package main

import (
	"flag"
	"fmt"
	"os"

	"fourget-bridge/pkg/registry"
)

func main() {
	extractCmd := flag.NewFlagSet("extract", flag.ExitOnError)
	validateCmd := flag.NewFlagSet("validate", flag.ExitOnError)
	indexCmd := flag.NewFlagSet("index", flag.ExitOnError)

	extractDir := extractCmd.String("dir", "4get-repo/scraper", "Directory holding the 4get scraper sources")
	extractOut := extractCmd.String("out", "configs/4get_capabilities.json", "Where to write the capability manifest")

	validatePath := validateCmd.String("path", "configs/4get_capabilities.json", "Path to the capability manifest")

	indexDir := indexCmd.String("dir", "4get-repo/scraper", "Directory holding the 4get scraper sources")
	indexOut := indexCmd.String("out", "manifest.json", "Where to write the sidecar engine manifest")

	if len(os.Args) < 2 {
		help()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "extract":
		_ = extractCmd.Parse(os.Args[2:])
		manifest, err := registry.ExtractDir(*extractDir)
		if err != nil {
			fail("extract failed: %v", err)
		}
		fmt.Printf("Scanned %d engines.\n", len(manifest))
		if err := manifest.Save(*extractOut); err != nil {
			fail("failed to write manifest: %v", err)
		}
		fmt.Printf("Specs generated at %s\n", *extractOut)

	case "validate":
		_ = validateCmd.Parse(os.Args[2:])
		manifest, err := registry.LoadManifest(*validatePath)
		if err != nil {
			fail("Manifest validation failed: %v", err)
		}
		if len(manifest) == 0 {
			fail("Manifest validation failed: no engines")
		}
		fmt.Printf("Manifest validation passed. Found %d engines.\n", len(manifest))

	case "index":
		_ = indexCmd.Parse(os.Args[2:])
		idx, err := registry.BuildEngineIndex(*indexDir)
		if err != nil {
			fail("Error: %v", err)
		}
		if err := idx.Save(*indexOut); err != nil {
			fail("Error: failed to write %s: %v", *indexOut, err)
		}
		fmt.Printf("Manifest successfully generated with %d engines.\n", len(idx))

	case "help":
		help()

	default:
		help()
		os.Exit(1)
	}
}

func fail(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

func help() {
	fmt.Println(`
Usage: capabilities-extractor <command> [flags]

Commands:
  extract   Scan 4get scrapers and write the capability manifest
  validate  Validate a capability manifest against its schema
  index     Write the sidecar's engine manifest (engine -> file, class)
  help      Show this help message

Examples:
  capabilities-extractor extract -dir 4get-repo/scraper -out configs/4get_capabilities.json
  capabilities-extractor validate -path configs/4get_capabilities.json
  capabilities-extractor index -dir 4get-repo/scraper -out sidecar/src/manifest.json

Use 'capabilities-extractor <command> -h' for more information about a command.`)
}
