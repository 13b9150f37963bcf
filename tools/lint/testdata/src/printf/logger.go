package printf

import "fmt"

func ready(entries int, roots []string) {
	fmt.Printf("watching %s entries\n", entries)                   // want "fmt.Printf format %s has arg entries of wrong type int"
	fmt.Printf("watching %d entries in %d root(s)\n", entries)     // want "fmt.Printf format %d reads arg #2, but call has 1 arg"
	fmt.Printf("watching %d entries in %d root(s)\n", entries, len(roots))
}
