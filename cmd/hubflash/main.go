package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"time"
)

func main() {
	var (
		imagePath   = flag.String("image", "", "path to the firmware .bin image")
		consoleDev  = flag.String("console", "", "serial console device to confirm boot (empty = skip)")
		consoleBaud = flag.Uint("baud", 115200, "console baud rate")
		bootWait    = flag.Duration("boot-timeout", 10*time.Second, "how long to wait for the console after flashing")
	)
	flag.Parse()

	if *imagePath == "" {
		fmt.Fprintln(os.Stderr, "hubflash: -image is required")
		os.Exit(2)
	}

	f, err := os.Open(*imagePath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "hubflash: ", err)
		os.Exit(1)
	}
	defer f.Close()

	bl, err := OpenBootloader()
	if err != nil {
		fmt.Fprintln(os.Stderr, "hubflash: ", err)
		os.Exit(1)
	}
	defer bl.Close()

	fmt.Println("hubflash: flashing", *imagePath)
	err = bl.Flash(f, func(written, total int) {
		fmt.Printf("\r%d/%d bytes", written, total)
	})
	fmt.Println()
	if err != nil {
		fmt.Fprintln(os.Stderr, "hubflash: ", err)
		os.Exit(1)
	}
	fmt.Println("hubflash: transfer complete")

	if *consoleDev == "" {
		return
	}

	reader, closer, err := WaitForConsole(*consoleDev, uint32(*consoleBaud), *bootWait)
	if err != nil {
		fmt.Fprintln(os.Stderr, "hubflash: ", err)
		os.Exit(1)
	}
	defer closer.Close()

	fmt.Println("hubflash: console up, reading startup banner")
	scanner := bufio.NewScanner(reader)
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) && scanner.Scan() {
		fmt.Println(scanner.Text())
	}
}
