// Moded-analyze decodes captured Mode D byte streams offline.
//
// It reads a raw stream dump (or stdin), runs the same decoder the
// collector uses, and prints every checksum-verified telegram. Frames
// failing their checksum are reported on stderr; decoding continues at the
// next start marker.
//
// Usage:
//
//	moded-analyze [file] [flags]
//
// See 'moded-analyze --help' for available options.
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/metergrid/moded/internal/decoder"
	"github.com/metergrid/moded/internal/telegram"
	"github.com/metergrid/moded/internal/version"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var (
	jsonOutput bool
	quiet      bool
)

var rootCmd = &cobra.Command{
	Use:   "moded-analyze [file]",
	Short: "Decode a captured Mode D stream",
	Long: `Decode a raw Mode D stream dump and print every verified telegram.

Reads the named file, or stdin when no file is given. Corrupt frames are
reported on stderr and skipped; the exit status is non-zero when the
stream yields no telegrams at all.`,
	Example: `  # Decode a captured stream
  moded-analyze capture.bin

  # Decode from stdin, one JSON object per telegram
  socat -u TCP-LISTEN:4059 - | moded-analyze --json

  # Count telegrams in a dump
  moded-analyze --json capture.bin | wc -l`,
	Args:    cobra.MaximumNArgs(1),
	Version: version.Version,
	RunE:    runAnalyze,
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit one JSON object per telegram")
	rootCmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Suppress per-frame error reports")
}

// jsonTelegram is the --json output shape, one object per line.
type jsonTelegram struct {
	Manufacturer string   `json:"manufacturer"`
	Ident        string   `json:"ident"`
	Data         []string `json:"data"`
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	var src io.Reader = os.Stdin
	name := "stdin"

	if len(args) == 1 {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("failed to open input: %w", err)
		}
		defer f.Close()
		src = f
		name = args[0]
	}

	r := decoder.NewReader(src)
	enc := json.NewEncoder(os.Stdout)

	var decoded, corrupt int
	for {
		t, err := r.ReadTelegram()
		switch {
		case err == nil:
			decoded++
			if jsonOutput {
				if err := enc.Encode(jsonTelegram{
					Manufacturer: t.ManufacturerString(),
					Ident:        t.Ident,
					Data:         t.Data,
				}); err != nil {
					return err
				}
			} else {
				printTelegram(decoded, t)
			}

		case decoder.IsDecodeError(err):
			corrupt++
			if !quiet {
				fmt.Fprintf(os.Stderr, "%s: frame %d: %v\n", name, decoded+corrupt, err)
			}

		case errors.Is(err, io.ErrUnexpectedEOF):
			if !quiet {
				fmt.Fprintf(os.Stderr, "%s: stream ends mid-telegram (%d bytes unconsumed)\n", name, r.Buffered())
			}
			return summarize(decoded, corrupt)

		case errors.Is(err, io.EOF):
			return summarize(decoded, corrupt)

		default:
			return fmt.Errorf("failed to read %s: %w", name, err)
		}
	}
}

func printTelegram(n int, t *telegram.Telegram) {
	fmt.Printf("--- telegram %d ---\n", n)
	fmt.Printf("manufacturer: %s\n", t.ManufacturerString())
	fmt.Printf("ident:        %s\n", t.Ident)
	for _, d := range t.Data {
		fmt.Printf("  %s\n", d)
	}
	fmt.Println()
}

func summarize(decoded, corrupt int) error {
	if !jsonOutput {
		fmt.Printf("%d telegram(s) decoded, %d corrupt frame(s) skipped\n", decoded, corrupt)
	}
	if decoded == 0 {
		return fmt.Errorf("no telegrams decoded")
	}
	return nil
}
