// cmd/tools/registry-validator/main.go
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"telecom-query-gateway/pkg/registry"
)

func main() {
	validateCmd := flag.NewFlagSet("validate", flag.ExitOnError)
	inspectCmd := flag.NewFlagSet("inspect", flag.ExitOnError)

	validatePath := validateCmd.String("path", "configs/entity-registry.json", "Path to registry file")

	inspectPath := inspectCmd.String("path", "configs/entity-registry.json", "Path to registry file")
	inspectEntity := inspectCmd.String("entity", "", "Entity name to inspect (plural or singular); empty lists all")

	if len(os.Args) < 2 {
		help()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "validate":
		validateCmd.Parse(os.Args[2:])
		reg, err := registry.Load(*validatePath)
		if err != nil {
			fmt.Printf("Registry validation failed: %v\n", err)
			os.Exit(1)
		}
		if err := checkCrossReferences(reg); err != nil {
			fmt.Printf("Registry validation failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Registry validation passed. Found %d entities.\n", len(reg.Entities))

	case "inspect":
		inspectCmd.Parse(os.Args[2:])
		reg, err := registry.Load(*inspectPath)
		if err != nil {
			fmt.Printf("Error loading registry: %v\n", err)
			os.Exit(1)
		}
		if *inspectEntity == "" {
			listEntities(reg)
			return
		}
		e, ok := reg.Lookup(*inspectEntity)
		if !ok {
			fmt.Printf("Entity %q not found. Known entities: %s\n", *inspectEntity, strings.Join(reg.Names(), ", "))
			os.Exit(1)
		}
		printEntity(e)

	case "help":
		fallthrough
	default:
		help()
	}
}

// checkCrossReferences enforces the constraints the document schema and
// the loader's duplicate check leave open: every identifier and join key
// must point at a declared filter.
func checkCrossReferences(reg *registry.EntityRegistry) error {
	for i := range reg.Entities {
		e := &reg.Entities[i]
		for _, m := range e.Identifiers {
			if !e.HasFilter(m.FilterKey) {
				return fmt.Errorf("entity %s: identifier prefix %s maps to undeclared filter %q", e.Name, m.Prefix, m.FilterKey)
			}
		}
		for _, k := range e.JoinKeys {
			if !e.HasFilter(k) {
				return fmt.Errorf("entity %s: join key %q is not a declared filter", e.Name, k)
			}
		}
		if len(e.StatusValues) > 0 && !e.HasFilter("status") {
			return fmt.Errorf("entity %s: declares status values but no status filter", e.Name)
		}
	}
	return nil
}

func listEntities(reg *registry.EntityRegistry) {
	fmt.Printf("Registry version %s (%d entities)\n\n", reg.Version, len(reg.Entities))
	for i := range reg.Entities {
		e := &reg.Entities[i]
		fmt.Printf("  %-15s filters=%d identifiers=%d joinKeys=%d limit=%d\n",
			e.Name, len(e.Filters), len(e.Identifiers), len(e.JoinKeys), e.Limit())
	}
}

func printEntity(e *registry.Entity) {
	fmt.Printf("Entity: %s (singular: %s)\n", e.Name, e.Singular)
	if e.Description != "" {
		fmt.Printf("  Description:  %s\n", e.Description)
	}
	if e.Table != "" {
		fmt.Printf("  Table:        %s\n", e.Table)
	}
	fmt.Printf("  Filters:      %s\n", strings.Join(e.Filters, ", "))
	for _, m := range e.Identifiers {
		fmt.Printf("  Identifier:   %s- -> %s\n", m.Prefix, m.FilterKey)
	}
	if len(e.StatusValues) > 0 {
		fmt.Printf("  Statuses:     %s\n", strings.Join(e.StatusValues, ", "))
	}
	if len(e.JoinKeys) > 0 {
		fmt.Printf("  Join keys:    %s\n", strings.Join(e.JoinKeys, ", "))
	}
	fmt.Printf("  Default limit: %d\n", e.Limit())
}

func help() {
	fmt.Println(`
Usage: registry-validator <command> [flags]

Commands:
  validate  Validate a registry file against the schema and cross-reference rules
  inspect   Print the entities a registry file declares
  help      Show this help message

Examples:
  registry-validator validate -path configs/entity-registry.json
  registry-validator inspect -path configs/entity-registry.json -entity bills

Use 'registry-validator <command> -h' for more information about a command.`)
}
