// Command csvslice selects, reorders and samples the records and columns of delimited files.
//
// See csvslice --help for the flags and the slice expression grammar.
package main

import "os"

func main() {
	os.Exit(Execute(os.Args[1:]))
}
