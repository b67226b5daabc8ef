// raxctl is a command-line companion for the Rax API: chat from the
// terminal, list models, inspect usage, and validate credentials.
package main

import "os"

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
