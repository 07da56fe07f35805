// SPDX-License-Identifier: MIT
//
// Copyright (c) 2025 Aaron LI
//
// ipradix - routing-table style prefix lookups from the command line.
//

package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strings"

	"ipradix/iptree"
	"ipradix/log"
)

const progname = "ipradix"

var (
	// set by build flags
	version     string
	versionDate string
)

func main() {
	logLevel := flag.String("log-level", "warn", "log level: debug/info/warn/error")
	filename := flag.String("file", "", "file with prefixes to load, one per line ('#' comments)")
	exact := flag.Bool("exact", false, "exact match instead of best (longest-prefix) match")
	walk := flag.Bool("walk", false, "list the stored prefixes and exit")
	showVersion := flag.Bool("version", false, "show version")
	flag.Parse()

	if *showVersion {
		fmt.Printf("%s %s (%s)\n", progname, version, versionDate)
		return
	}

	log.SetLevelString(*logLevel)

	tree := iptree.New()
	defer tree.Close()

	if *filename != "" {
		if err := loadPrefixes(tree, *filename); err != nil {
			log.Fatalf("failed to load prefixes from [%s]: %v", *filename, err)
		}
	}

	if *walk {
		for _, e := range tree.Nodes() {
			fmt.Println(e.Prefix)
		}
		return
	}

	if flag.NArg() == 0 {
		fmt.Fprintf(os.Stderr, "usage: %s [options] query...\n\noptions:\n", progname)
		flag.PrintDefaults()
		os.Exit(2)
	}

	for _, query := range flag.Args() {
		var entry *iptree.Entry
		var err error
		if *exact {
			entry, err = tree.SearchExact(query)
		} else {
			entry, err = tree.SearchBest(query)
		}
		if err != nil {
			log.Errorf("invalid query [%s]: %v", query, err)
			continue
		}
		if entry == nil {
			fmt.Printf("%s: no match\n", query)
		} else {
			fmt.Printf("%s: %s\n", query, entry.Prefix)
		}
	}
}

func loadPrefixes(tree *iptree.Tree, filename string) error {
	f, err := os.Open(filename)
	if err != nil {
		return err
	}
	defer f.Close()

	n := 0
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if _, err := tree.Add(line); err != nil {
			return fmt.Errorf("add prefix %q: %w", line, err)
		}
		n++
	}
	if err := scanner.Err(); err != nil {
		return err
	}

	log.Infof("loaded %d prefixes from: %s", n, filename)
	return nil
}
