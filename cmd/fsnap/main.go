// Fsnap snapshots directory trees and reports what changed between snapshots.
package main

import "github.com/albertocavalcante/fsnap/cmd/fsnap/internal/cli"

func main() {
	cli.Execute()
}
