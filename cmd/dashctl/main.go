// Command dashctl runs the Live Dashboard engine on local files: parse and
// profile a table, apply a chart template, render an HTML dashboard, convert a
// workbook to CSV and keep a session in a local bbolt file. Nothing it reads
// is sent anywhere.
package main

import (
	"context"
	"fmt"
	"os"
)

func main() {
	if err := New().Execute(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "dashctl:", err)
		os.Exit(1)
	}
}
