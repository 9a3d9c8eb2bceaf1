// Package main is the entry point for docqa, a question answering tool over a
// directory of PDF documents.
package main

import (
	_ "go.uber.org/automaxprocs/maxprocs"

	"github.com/kart-io/docqa/cmd/docqa/app"
)

func main() {
	app.NewApp().Run()
}
