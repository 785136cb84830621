package main

import (
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/mrpasztoradam/goadsym"
	"github.com/mrpasztoradam/goadsym/internal/symbols"
)

const commandHelp = `  shell                   interactive prompt
  serve                   HTTP API
  snapshot <file>         save the symbol tables
  init-config <file>      write an example configuration
  list [pattern]          top-level symbols, optionally filtered
  info <path>             type, address and fields of a path (alias resolve)
  get <path>              read and decode a value
  set <path> <literal>    parse and write a literal (16#FF, "text", [1,2])
  raw <path>              hex dump of the bytes at a path
  verify <path> [literal] check a path or literal offline
  persistent              every persistent path
  bytype <type>           every path declared with a type
  stats                   operation counters
  help                    this text
  quit                    leave the shell
`

// executor runs one command line against a client.
type executor struct {
	client  *goadsym.Client
	metrics *goadsym.InMemoryMetrics
}

func newExecutor(client *goadsym.Client, metrics *goadsym.InMemoryMetrics) *executor {
	return &executor{client: client, metrics: metrics}
}

// exec runs line and writes its output to out. ok is false when the
// command failed; quit is true when the shell should exit.
func (e *executor) exec(ctx context.Context, line string, out io.Writer) (ok, quit bool) {
	line = strings.TrimSpace(line)
	if line == "" {
		return true, false
	}

	command, rest, _ := strings.Cut(line, " ")
	rest = strings.TrimSpace(rest)

	var err error
	switch strings.ToLower(command) {
	case "help", "?":
		fmt.Fprint(out, commandHelp)
	case "quit", "exit", "q":
		return true, true
	case "list", "ls":
		err = e.list(out, rest)
	case "info", "i", "resolve":
		err = e.info(out, rest)
	case "get", "r":
		err = e.get(ctx, out, rest)
	case "set", "w":
		err = e.set(ctx, out, rest)
	case "raw":
		err = e.raw(ctx, out, rest)
	case "verify", "v":
		err = e.verify(out, rest)
	case "persistent":
		printPaths(out, e.client.Persistent())
	case "bytype":
		err = e.byType(out, rest)
	case "stats":
		e.stats(out)
	default:
		err = fmt.Errorf("unknown command %q (type 'help' for commands)", command)
	}

	if err != nil {
		fmt.Fprintln(out, "error:", err)
		return false, false
	}
	return true, false
}

func requirePath(path string) error {
	if path == "" {
		return fmt.Errorf("a path is required")
	}
	return nil
}

func (e *executor) list(out io.Writer, pattern string) error {
	list := e.client.ListSymbols()
	if pattern != "" {
		list = e.client.FindSymbols(pattern)
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	for _, sym := range list {
		fmt.Fprintf(tw, "%s\t%s\t0x%X:%d\t%d\t%s\n", sym.Name, sym.TypeName, sym.IndexGroup, sym.Offset, sym.Size, sym.Comment)
	}
	return tw.Flush()
}

func (e *executor) info(out io.Writer, path string) error {
	if err := requirePath(path); err != nil {
		return err
	}
	dir := e.client.Directory()
	sym, dt, err := dir.Resolve(path)
	if err != nil {
		return err
	}
	loc, err := dir.Locate(path)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "%s: %s (%s)\n", path, dt.Name, dt.Tag)
	fmt.Fprintf(out, "  address    0x%X:%d, %d bytes (%s)\n", loc.IndexGroup, loc.IndexOffset, loc.Size, sym.Group)
	if sym.Persistent {
		fmt.Fprintln(out, "  persistent")
	}
	if sym.Comment != "" {
		fmt.Fprintf(out, "  comment    %s\n", sym.Comment)
	}
	if len(dt.Ranges) > 0 {
		ranges := make([]string, len(dt.Ranges))
		for i, r := range dt.Ranges {
			ranges[i] = r.String()
		}
		fmt.Fprintf(out, "  ranges     %s\n", strings.Join(ranges, ", "))
	}
	if len(dt.Fields) == 0 {
		return nil
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	for _, field := range dt.Fields {
		fmt.Fprintf(tw, "  .%s\t%s\t+%d\t%d\t%s\n", field.Name, field.TypeName, field.Offset, field.Size, fieldFlags(&field))
	}
	return tw.Flush()
}

func fieldFlags(field *symbols.Symbol) string {
	if field.Persistent {
		return "persistent"
	}
	return ""
}

func (e *executor) get(ctx context.Context, out io.Writer, path string) error {
	if err := requirePath(path); err != nil {
		return err
	}
	v, err := e.client.GetValue(ctx, path)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, v)
	return nil
}

func (e *executor) set(ctx context.Context, out io.Writer, args string) error {
	path, text, found := strings.Cut(args, " ")
	if path == "" || !found {
		return fmt.Errorf("usage: set <path> <literal>")
	}
	if err := e.client.SetValueFromString(ctx, path, strings.TrimSpace(text)); err != nil {
		return err
	}
	fmt.Fprintln(out, "ok")
	return nil
}

func (e *executor) raw(ctx context.Context, out io.Writer, path string) error {
	if err := requirePath(path); err != nil {
		return err
	}
	data, err := e.client.ReadRaw(ctx, path)
	if err != nil {
		return err
	}
	fmt.Fprint(out, hex.Dump(data))
	return nil
}

func (e *executor) verify(out io.Writer, args string) error {
	path, text, withText := strings.Cut(args, " ")
	if err := requirePath(path); err != nil {
		return err
	}

	var err error
	if withText {
		err = e.client.VerifyPathAndString(path, strings.TrimSpace(text))
	} else {
		err = e.client.VerifyPath(path)
	}
	if err != nil {
		return err
	}
	fmt.Fprintln(out, "valid")
	return nil
}

func (e *executor) byType(out io.Writer, typeName string) error {
	if typeName == "" {
		return fmt.Errorf("usage: bytype <type>")
	}
	printPaths(out, e.client.SymbolsWithDataTypeName(typeName))
	return nil
}

func printPaths(out io.Writer, paths []string) {
	for _, path := range paths {
		fmt.Fprintln(out, path)
	}
}

func (e *executor) stats(out io.Writer) {
	snap := e.metrics.Snapshot()
	fmt.Fprintf(out, "schema: %d symbols, %d data types in %s\n", snap.Symbols, snap.DataTypes, snap.SchemaLoadTime)
	fmt.Fprintf(out, "bytes:  %d read, %d written\n", snap.BytesRead, snap.BytesWritten)

	ops := make([]string, 0, len(snap.OperationCounts))
	for op := range snap.OperationCounts {
		ops = append(ops, op)
	}
	sort.Strings(ops)
	for _, op := range ops {
		fmt.Fprintf(out, "%-8s%d calls, %d errors\n", op+":", snap.OperationCounts[op], snap.OperationErrors[op])
	}
}
