package main

import (
	"fmt"
	"os"

	"mechci/internal/security"
)

// Generates a runner keypair and writes it where the runner looks for
// one. Usage: genkeys [keydir]
func main() {
	dir := ".mechci/keys"
	if len(os.Args) > 1 {
		dir = os.Args[1]
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		fmt.Fprintf(os.Stderr, "keygen error: %v\n", err)
		os.Exit(2)
	}

	pub, priv, err := security.GenerateKeyPair()
	if err != nil {
		fmt.Fprintf(os.Stderr, "keygen error: %v\n", err)
		os.Exit(2)
	}

	pubPath := dir + "/runner.pub"
	privPath := dir + "/runner.priv"
	if err := security.SaveKeyPair(pub, priv, pubPath, privPath); err != nil {
		fmt.Fprintf(os.Stderr, "keygen error: %v\n", err)
		os.Exit(2)
	}

	fmt.Printf("wrote %s and %s\n", pubPath, privPath)
}
