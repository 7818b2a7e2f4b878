// Command linerotate reads a stream from stdin, or a file, and writes it
// to a line-capped set of rotating log files.
//
//	<some_binary> 2>&1 | linerotate -f app.log -l 5000 -n 4 -d
package main

import (
	"os"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stderr))
}
