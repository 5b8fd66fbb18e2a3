// Package main provides the RushDB CLI tool.
//
// Usage:
//
//	rushdb [flags] <group> <command> [args]
//
// Groups:
//
//	records        - Create, update, search and delete records
//	labels         - Label statistics
//	properties     - Property metadata and values
//	relationships  - Relationship search
//	tx             - Transactions
//	query          - Raw queries and query validation
//	snapshot       - Local copies of record sets
//	config         - Configuration management
//
// Configuration:
//
//	The CLI stores configuration in ~/.rushdb/config.yaml.
//	Use 'rushdb config' commands to manage contexts.
package main

import (
	"fmt"
	"os"

	"github.com/haivivi/rushdb-go/cmd/rushdb/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
