package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"go.uber.org/zap"

	_ "github.com/ClickHouse/clickhouse-go"
	_ "github.com/mattn/go-sqlite3"

	"github.com/jasonphillips/tplm/exec"
	"github.com/jasonphillips/tplm/grid"
	"github.com/jasonphillips/tplm/plan"
	"github.com/jasonphillips/tplm/tpl"
)

var fSchema = flag.String(
	"schema",
	"",
	"table schema, ie occupation:string,income:number",
)

var fTable = flag.String(
	"table",
	"",
	"table name or sql expression to read from",
)

var fDriver = flag.String(
	"driver",
	"sqlite3",
	"database driver, sqlite3 or clickhouse",
)

var fDSN = flag.String(
	"dsn",
	"",
	"database DSN, when empty only the query plan is printed",
)

var fPlan = flag.Bool(
	"plan",
	false,
	"print the table spec and query plan instead of executing",
)

var fVerbose = flag.Bool(
	"verbose",
	false,
	"enable debug logging",
)

func oops(stage string, err error) {
	fmt.Fprintf(os.Stderr, "ERROR [%s]]] %s\n", stage, err)
	os.Exit(-1)
}

func readStdin() string {
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		oops("read tpl", err)
	}
	return string(data)
}

func parseSchema(s string) (*plan.Schema, error) {
	schema := plan.NewSchema()
	if s == "" {
		return nil, fmt.Errorf("schema is empty, pass -schema")
	}
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		kv := strings.SplitN(part, ":", 2)
		if len(kv) != 2 {
			return nil, fmt.Errorf("malformed schema entry %q", part)
		}
		switch kv[1] {
		case "string":
			schema.String(kv[0])
		case "number":
			schema.Number(kv[0])
		default:
			return nil, fmt.Errorf("unknown field type %q in schema entry %q", kv[1], part)
		}
	}
	return schema, nil
}

func dumpPlan(source string, schema *plan.Schema) {
	stmt, err := tpl.Parse(source)
	if err != nil {
		oops("parse", err)
	}

	pending, err := plan.NewBuilder(schema).Build(stmt)
	if err != nil {
		oops("build", err)
	}

	fmt.Print(pending.Spec().Print())

	if pending.HasPending() {
		// without discovery results only the discovery phase is known
		fmt.Println("##> Phase(discovery)")
		for _, q := range pending.DiscoveryQueries() {
			fmt.Printf("  %s\n", q.Key())
		}
		fmt.Println("##> Phase(main) waits on discovery results")
		return
	}

	spec, err := pending.Resolve(plan.ResultSet{})
	if err != nil {
		oops("resolve", err)
	}
	qp, err := plan.BuildPlan(nil, spec)
	if err != nil {
		oops("plan", err)
	}
	fmt.Print(qp.Print())
}

func runQuery(source string, schema *plan.Schema, log *zap.Logger) *grid.Grid {
	db, err := sql.Open(*fDriver, *fDSN)
	if err != nil {
		oops("open", err)
	}
	defer db.Close()

	dims := make([]*exec.Dimension, 0)
	for _, f := range schema.Fields() {
		dims = append(dims, &exec.Dimension{
			Name:       f,
			Expression: f,
		})
	}

	executor := exec.NewSQLExecutor(db, *fTable, dims, log)
	g, err := exec.Compile(context.Background(), source, schema, executor, log)
	if err != nil {
		oops("compile", err)
	}
	return g
}

// ----------------------------------------------------------------------------
// grid rendering

var (
	headerColor = color.New(color.FgCyan, color.Bold)
	totalColor  = color.New(color.FgYellow)
	nullColor   = color.New(color.Faint)
)

func rowLabel(h *grid.Header) string {
	parts := []string{}
	for _, p := range h.Path {
		parts = append(parts, p.Value)
	}
	if h.IsTotal {
		parts = append(parts, h.Label)
	}
	if len(parts) == 0 {
		return h.Label
	}
	return strings.Join(parts, " / ")
}

func renderGrid(g *grid.Grid) {
	multi := len(g.Measures) > 1

	cells := [][]string{}
	head := []string{""}
	for _, c := range g.Cols {
		label := rowLabel(c)
		if multi {
			for _, m := range g.Measures {
				head = append(head, strings.TrimSpace(label+" "+m.Key()))
			}
		} else {
			head = append(head, label)
		}
	}
	cells = append(cells, head)

	for ri, r := range g.Rows {
		line := []string{rowLabel(r)}
		for ci := range g.Cols {
			for _, cell := range g.Cells[ri][ci] {
				line = append(line, cell.Display)
			}
		}
		cells = append(cells, line)
	}

	widths := make([]int, len(head))
	for _, line := range cells {
		for i, c := range line {
			if len(c) > widths[i] {
				widths[i] = len(c)
			}
		}
	}

	pad := func(s string, w int) string {
		return s + strings.Repeat(" ", w-len(s))
	}

	for li, line := range cells {
		out := []string{}
		for i, c := range line {
			out = append(out, pad(c, widths[i]))
		}
		text := strings.Join(out, "  ")

		switch {
		case li == 0:
			headerColor.Println(text)
		case g.Rows[li-1].IsTotal:
			totalColor.Println(text)
		case strings.TrimSpace(strings.Join(line[1:], "")) == "":
			nullColor.Println(text)
		default:
			fmt.Println(text)
		}
	}
}

func main() {
	flag.Parse()
	source := readStdin()

	schema, err := parseSchema(*fSchema)
	if err != nil {
		oops("schema", err)
	}

	if *fPlan || *fDSN == "" {
		dumpPlan(source, schema)
		os.Exit(0)
	}

	if *fTable == "" {
		oops("table", fmt.Errorf("table is empty, pass -table"))
	}

	log := zap.NewNop()
	if *fVerbose {
		log, err = zap.NewDevelopment()
		if err != nil {
			oops("logger", err)
		}
	}

	g := runQuery(source, schema, log)
	renderGrid(g)
	os.Exit(0)
}
