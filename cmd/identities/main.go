// Command identities inspects and edits the nick to Last.fm account
// mappings the bot remembers.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/llehouerou/aikta/internal/config"
	"github.com/llehouerou/aikta/internal/nowplaying"
	"github.com/llehouerou/aikta/internal/store"
)

const usage = `usage: identities [-store URL] <command>

commands:
  list [prefix]        show every mapping, optionally only nicks starting with prefix
  get <nick>           show the account for nick
  set <nick> <user>    remember user as nick's account
  rm <nick>            forget nick's account
`

func main() {
	storeURL := flag.String("store", "", "store URL (default: from config)")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	ctx := context.Background()

	url, err := resolveURL(*storeURL)
	if err != nil {
		log.Fatalf("Failed to resolve store: %v", err)
	}
	s, err := store.Open(ctx, url)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer s.Close()

	if err := run(ctx, s, os.Stdout, flag.Args()); err != nil {
		s.Close()
		log.Fatalf("%v", err)
	}
}

func resolveURL(flagURL string) (string, error) {
	if flagURL != "" {
		return flagURL, nil
	}
	cfg, err := config.Load()
	if err != nil {
		return "", err
	}
	if cfg.Store.URL != "" {
		return cfg.Store.URL, nil
	}
	return store.DefaultURL(cfg.DataDir)
}

func run(ctx context.Context, s store.Store, out io.Writer, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("missing command\n%s", usage)
	}

	cmd, args := args[0], args[1:]
	switch {
	case cmd == "list" && len(args) <= 1:
		prefix := nowplaying.KeyPrefix
		if len(args) == 1 {
			prefix += args[0]
		}
		keys, err := s.Keys(ctx, prefix)
		if err != nil {
			return fmt.Errorf("list: %w", err)
		}
		for _, k := range keys {
			v, ok, err := s.Read(ctx, k)
			if err != nil {
				return fmt.Errorf("read %s: %w", k, err)
			}
			if ok {
				fmt.Fprintf(out, "%s\t%s\n", strings.TrimPrefix(k, nowplaying.KeyPrefix), v)
			}
		}
		return nil

	case cmd == "get" && len(args) == 1:
		v, ok, err := s.Read(ctx, nowplaying.IdentityKey(args[0]))
		if err != nil {
			return fmt.Errorf("get: %w", err)
		}
		if !ok {
			return fmt.Errorf("no account for %s", args[0])
		}
		fmt.Fprintln(out, v)
		return nil

	case cmd == "set" && len(args) == 2:
		if err := s.Write(ctx, nowplaying.IdentityKey(args[0]), args[1]); err != nil {
			return fmt.Errorf("set: %w", err)
		}
		fmt.Fprintf(out, "%s -> %s\n", args[0], args[1])
		return nil

	case cmd == "rm" && len(args) == 1:
		if err := s.Delete(ctx, nowplaying.IdentityKey(args[0])); err != nil {
			return fmt.Errorf("rm: %w", err)
		}
		return nil
	}

	return fmt.Errorf("bad command %q\n%s", strings.Join(append([]string{cmd}, args...), " "), usage)
}
