// Package features embeds the Gherkin feature files run by the suite.
package features

import "embed"

// FS holds every *.feature file of this directory.
//
//go:embed *.feature
var FS embed.FS
