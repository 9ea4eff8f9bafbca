// Package rfscope statically determines which Robot Framework variables are
// visible at a position of a suite, resource or init file, in the order the
// framework would look them up.
//
// # Resolution order
//
// A [Resolver] reports each visible variable to a [Collector] exactly once
// per defining token, walking:
//
//  1. Local scope: assignments, FOR and EXCEPT targets and [Arguments] of the
//     test or keyword around the cursor.
//  2. The current document: its Variables section and its Set Test/Task,
//     Suite and Global Variable calls.
//  3. Imported resources and suite init files, transitively, each document
//     once even when imports form a cycle.
//  4. Python and YAML variable files.
//  5. The project configuration table.
//  6. Built-in variables.
//
// Imports whose target cannot be determined statically are reported as an
// [UnresolvedImport] naming the variables that would have to be configured.
//
// # Usage
//
//	cache := workspace.NewCache()
//	doc, _ := cache.Get("suite.robot")
//	g, _ := workspace.BuildGraph(ctx, cache, doc, vars)
//
//	cc := &rfscope.CompletionContext{
//		Doc:       doc,
//		Position:  rfscope.Position{Line: 12, Character: 10},
//		Graph:     rfscope.WorkspaceGraph(g),
//		Variables: vars,
//	}
//	found, err := rfscope.NewResolver().Complete(ctx, cc)
//
// # Keyword specs
//
// [Index] caches parsed keyword spec files (libdoc XML, legacy and modern
// schema) in SQLite. [Index.IndexSpecs] hashes each file and skips unchanged
// ones, parsing the rest in a worker pool; [Index.Library] rebuilds a
// [LibraryDoc] from the cache and [Index.FindKeywords] ranks keyword names
// fuzzily.
package rfscope
