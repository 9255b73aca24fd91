// Command genfwhash derives the 16-byte firmware_hash storage
// discriminator (spec §4.7 "the storage layout is invalidated
// whenever firmware_hash changes", §6 wire format) from a built
// firmware image, so cmd/hub's rp2040 build can stamp a value that
// actually changes when the image does instead of main_rp2040.go's
// zero-valued development placeholder.
//
// This is a build-time identifier, not a validation of user program
// content; it has nothing to do with the excluded "cryptographic
// validation of user programs" non-goal.
package main

import (
	"encoding/hex"
	"flag"
	"fmt"
	"io"
	"os"

	"golang.org/x/crypto/blake2s"
)

func main() {
	var (
		inPath  = flag.String("in", "", "path to the built firmware image")
		outPath = flag.String("out", "", "path to write a Go source file defining firmwareHashBytes (empty = print hex to stdout)")
		pkg     = flag.String("package", "main", "package name for -out")
	)
	flag.Parse()

	if *inPath == "" {
		fmt.Fprintln(os.Stderr, "genfwhash: -in is required")
		os.Exit(2)
	}

	f, err := os.Open(*inPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "genfwhash: ", err)
		os.Exit(1)
	}
	defer f.Close()

	sum, err := hashImage(f)
	if err != nil {
		fmt.Fprintln(os.Stderr, "genfwhash: ", err)
		os.Exit(1)
	}

	if *outPath == "" {
		fmt.Println(hex.EncodeToString(sum[:]))
		return
	}

	if err := writeGoSource(*outPath, *pkg, sum); err != nil {
		fmt.Fprintln(os.Stderr, "genfwhash: ", err)
		os.Exit(1)
	}
}

// hashImage returns the first 16 bytes of the image's blake2s-256 sum.
// blake2s is used instead of a truncated sha256 because the storage
// discriminator is an equality check, not a security boundary, and
// blake2s is the faster primitive x/crypto offers for that job.
func hashImage(r io.Reader) ([16]byte, error) {
	h, err := blake2s.New256(nil)
	if err != nil {
		return [16]byte{}, err
	}
	if _, err := io.Copy(h, r); err != nil {
		return [16]byte{}, err
	}

	var out [16]byte
	copy(out[:], h.Sum(nil))
	return out, nil
}

func writeGoSource(path, pkg string, sum [16]byte) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	fmt.Fprintf(f, "// Code generated by cmd/genfwhash. DO NOT EDIT.\n\n")
	fmt.Fprintf(f, "package %s\n\n", pkg)
	fmt.Fprintf(f, "var firmwareHashBytes = [16]byte{")
	for i, b := range sum {
		if i > 0 {
			fmt.Fprint(f, ", ")
		}
		fmt.Fprintf(f, "0x%02x", b)
	}
	fmt.Fprintf(f, "}\n")
	return nil
}
