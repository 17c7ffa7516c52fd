// Command osteo evaluates scene scripts against volumetric scans and
// exports the resulting geometry.
//
// Usage:
//
//	osteo run -volume knee.slc -script knee.scene -out out/
//	osteo phantom -out blob.vol -dims 64 -radius 40
//	osteo info -volume knee.slc
//	osteo version
package main

import (
	"fmt"
	"io"
	"os"
)

// Set at build time with -ldflags.
var (
	Version   = "dev"
	GitCommit = "unknown"
)

func main() {
	if len(os.Args) < 2 {
		printUsage(os.Stderr)
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "run":
		err = cmdRun(os.Args[2:], os.Stdout)
	case "phantom":
		err = cmdPhantom(os.Args[2:], os.Stdout)
	case "info":
		err = cmdInfo(os.Args[2:], os.Stdout)
	case "version":
		fmt.Printf("osteo %s (%s)\n", Version, GitCommit)
	case "help", "-h", "--help":
		printUsage(os.Stdout)
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", os.Args[1])
		printUsage(os.Stderr)
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "osteo %s: %v\n", os.Args[1], err)
		os.Exit(1)
	}
}

func printUsage(w io.Writer) {
	fmt.Fprint(w, `Usage: osteo <command> [flags]

Commands:
  run       evaluate a scene script against a volume and export the results
  phantom   write a synthetic spherical density volume
  info      print volume dimensions and statistics
  version   print the version

Run "osteo <command> -h" for command flags.
`)
}
