// Command mkpasswd prints a crypt(3) hash of a password read from stdin.
//
//	$ printf 'hunter2' | mkpasswd -algorithm sha512 -rounds 30000
//	$6$rounds=30000$qP8Q1z...$...
//
// Its main use is minting hash.dummy for the server: hash any throwaway
// string with the same algorithm and rounds the server is configured for.
// Only the first line of stdin is used, without its line ending.
package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sakif/cryptpass/internal/crypt"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr, crypt.DefaultPrimitive()))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer, primitive crypt.Primitive) int {
	fs := flag.NewFlagSet("mkpasswd", flag.ContinueOnError)
	fs.SetOutput(stderr)
	algorithm := fs.String("algorithm", string(crypt.SHA512), "one of std_des, ext_des, md5, blowfish, sha256, sha512")
	rounds := fs.Int("rounds", 0, "iteration count (0 = the algorithm's default)")
	salt := fs.String("salt", "", "fixed salt (default: 30 random bytes, base64)")
	list := fs.Bool("list", false, "list the algorithms this build can compute and exit")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	catalog := crypt.NewCatalog(primitive)
	if *list {
		for _, alg := range catalog.AvailableAlgorithms() {
			fmt.Fprintln(stdout, alg)
		}
		return 0
	}

	alg, err := crypt.ParseAlgorithm(*algorithm)
	if err != nil {
		fmt.Fprintln(stderr, "mkpasswd:", err)
		return 2
	}
	if *rounds == 0 {
		*rounds = crypt.DefaultIterations(alg)
	}

	password, err := readPassword(stdin)
	if err != nil {
		fmt.Fprintln(stderr, "mkpasswd:", err)
		return 1
	}

	h := crypt.NewHasher(catalog, crypt.NewSystemEntropy())
	if err := h.SetAlgorithm(alg); err != nil {
		fmt.Fprintln(stderr, "mkpasswd:", err)
		return 1
	}
	h.SetIterations(*rounds)
	if *salt != "" {
		h.SetSalt(*salt)
	}

	hash, err := h.HashKey(password)
	if err != nil {
		fmt.Fprintln(stderr, "mkpasswd:", err)
		return 1
	}
	fmt.Fprintln(stdout, hash)
	return 0
}

func readPassword(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("reading password: %w", err)
	}
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return "", errors.New("empty password on stdin")
	}
	return line, nil
}
