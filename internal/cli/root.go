// Package cli implements the qdsl command-line tool: query, explain, and
// validate verbs, each its own flag.FlagSet. There are no write commands —
// this tool only ever reads and evaluates queries.
package cli

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/dustin/go-humanize"

	"github.com/qdsl/qdsl"
	"github.com/qdsl/qdsl/errs"
	"github.com/qdsl/qdsl/operator"
	"github.com/qdsl/qdsl/query"
	"github.com/qdsl/qdsl/storage"
	"github.com/qdsl/qdsl/storage/postgres"
	"github.com/qdsl/qdsl/storage/sqlite"
)

// Execute runs the CLI and returns an exit code.
func Execute(argv []string) int {
	if len(argv) == 0 {
		printRootHelp(os.Stdout)
		return 0
	}

	verb := argv[0]
	rest := argv[1:]

	switch verb {
	case "--help", "-h", "help":
		printRootHelp(os.Stdout)
		return 0
	case "query":
		return runQuery(rest)
	case "explain":
		return runExplain(rest)
	case "validate":
		return runValidate(rest)
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", verb)
		printRootHelp(os.Stderr)
		return 2
	}
}

func printRootHelp(w *os.File) {
	fmt.Fprintln(w, "qdsl - structured query DSL toolkit")
	fmt.Fprintln(w, "\nUsage:")
	fmt.Fprintln(w, "  qdsl query -query <query.json> -records <records.json>")
	fmt.Fprintln(w, "  qdsl explain -query <query.json> -schema <schema.json> [-backend sqlite|postgres]")
	fmt.Fprintln(w, "  qdsl validate -query <query.json> [-backend memory|sql]")
}

func readQuery(path string) (*query.Query, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read query file: %w", err)
	}
	q, err := qdsl.DecodeQuery(data)
	if err != nil {
		return nil, fmt.Errorf("decode query: %w", err)
	}
	return q, nil
}

func runQuery(args []string) int {
	fs := flag.NewFlagSet("query", flag.ContinueOnError)
	queryPath := fs.String("query", "", "query document JSON file (required)")
	recordsPath := fs.String("records", "", "JSON array of records to evaluate against (required)")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *queryPath == "" || *recordsPath == "" {
		fs.Usage()
		return 2
	}

	q, err := readQuery(*queryPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}

	recData, err := os.ReadFile(*recordsPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error reading records file: %v\n", err)
		return 1
	}
	var records []any
	if err := json.Unmarshal(recData, &records); err != nil {
		fmt.Fprintf(os.Stderr, "error parsing records file: %v\n", err)
		return 1
	}

	results, err := qdsl.Search(context.Background(), q, records, nil, nil, nil)
	if err != nil {
		printCLIError(err)
		return 1
	}

	out, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "error encoding results: %v\n", err)
		return 1
	}
	fmt.Println(string(out))
	fmt.Fprintf(os.Stderr, "%s matched\n", humanize.Comma(int64(len(results))))
	return 0
}

func runExplain(args []string) int {
	fs := flag.NewFlagSet("explain", flag.ContinueOnError)
	queryPath := fs.String("query", "", "query document JSON file (required)")
	schemaPath := fs.String("schema", "", "CLI schema document JSON file (required)")
	backend := fs.String("backend", "sqlite", "backend: sqlite or postgres")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *queryPath == "" || *schemaPath == "" {
		fs.Usage()
		return 2
	}

	q, err := readQuery(*queryPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}

	root, schema, err := loadSchema(*schemaPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}

	var adapter storage.Adapter
	switch *backend {
	case "postgres", "pg":
		adapter = postgres.New("", "")
	default:
		adapter = sqlite.New("")
	}

	translated, err := qdsl.Explain(q, adapter, &qdsl.SQLTarget{Model: root, Schema: schema})
	if err != nil {
		printCLIError(err)
		return 1
	}

	fmt.Println("=== SQL ===")
	fmt.Println(translated.SQL)
	fmt.Println("\n=== Params ===")
	for i, a := range translated.Args {
		fmt.Printf("  %d: %v\n", i+1, a)
	}
	fmt.Println("\n=== Joins ===")
	for _, step := range translated.Plan.Steps {
		fmt.Printf("  %s %s AS %s\n", step.Kind.String(), step.Relation, step.Alias)
	}
	return 0
}

func runValidate(args []string) int {
	fs := flag.NewFlagSet("validate", flag.ContinueOnError)
	queryPath := fs.String("query", "", "query document JSON file (required)")
	backend := fs.String("backend", "memory", "operator set to validate against: memory or sql")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *queryPath == "" {
		fs.Usage()
		return 2
	}

	q, err := readQuery(*queryPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}

	ops := operator.ForMemory()
	if *backend == "sql" {
		ops = operator.ForSQL()
	}

	if err := query.Validate(q, query.ValidatorConfig{Operators: ops, MaxDepth: 8}); err != nil {
		printCLIError(err)
		return 1
	}
	fmt.Println("OK")
	return 0
}

func printCLIError(err error) {
	var qerr *errs.Error
	if e, ok := err.(*errs.Error); ok {
		qerr = e
	}
	if qerr == nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return
	}
	fmt.Fprintf(os.Stderr, "error [%s]: %s\n", qerr.Kind, qerr.Message)
	if qerr.Field != "" {
		fmt.Fprintf(os.Stderr, "  field: %s\n", qerr.Field)
	}
	if qerr.Operator != "" {
		fmt.Fprintf(os.Stderr, "  operator: %s\n", qerr.Operator)
	}
	if qerr.Suggestion != "" {
		fmt.Fprintf(os.Stderr, "  did you mean: %s?\n", qerr.Suggestion)
	}
}
