// Command hash-generator prints bcrypt hashes for seeding users, since
// accounts are provisioned outside the API.
//
// Usage:
//
//	hash-generator [-cost N] password...
//
// With no arguments, passwords are read one per line from stdin.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/phrazzld/library-api/internal/service/auth"
)

func main() {
	cost := flag.Int("cost", 0, "bcrypt cost (0 selects the default)")
	flag.Parse()

	if err := run(os.Stdin, os.Stdout, *cost, flag.Args()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(in io.Reader, out io.Writer, cost int, passwords []string) error {
	if len(passwords) == 0 {
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			if line := scanner.Text(); line != "" {
				passwords = append(passwords, line)
			}
		}
		if err := scanner.Err(); err != nil {
			return fmt.Errorf("failed to read passwords: %w", err)
		}
	}

	for _, password := range passwords {
		hash, err := auth.HashPassword(password, cost)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintln(out, hash); err != nil {
			return err
		}
	}
	return nil
}
