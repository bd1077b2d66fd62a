// generate-publisher-key prints a new publisher key and the hash to put in
// PUBLISHER_KEY_HASH.
//
//	go run scripts/generate-publisher-key.go -format json
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/thearyanahmed/newsletter/internal/auth"
)

type output struct {
	KeyID string `json:"key_id"`
	Key   string `json:"key"`
	Hash  string `json:"hash"`
}

func main() {
	format := flag.String("format", "plain", "Output format: plain or json")
	flag.Parse()

	key, err := auth.GeneratePublisherKey()
	if err != nil {
		fmt.Fprintln(os.Stderr, "generate publisher key:", err)
		os.Exit(1)
	}

	out := output{KeyID: key.ID, Key: key.Plaintext, Hash: key.Hash}

	switch *format {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(out); err != nil {
			fmt.Fprintln(os.Stderr, "encode output:", err)
			os.Exit(1)
		}
	case "plain":
		fmt.Printf("Key ID: %s\n", out.KeyID)
		fmt.Printf("Publisher key (shown once): %s\n", out.Key)
		fmt.Printf("PUBLISHER_KEY_HASH=%s\n", out.Hash)
	default:
		fmt.Fprintln(os.Stderr, "format must be plain or json")
		os.Exit(1)
	}
}
