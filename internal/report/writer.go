package report

import (
	"fmt"
	"os"
	"strings"

	"github.com/klauspost/compress/zstd"
)

// Write sends a rendered report to stdout, or to path when non-empty.
// A path ending in .zst is written zstd-compressed; large JSON and SARIF
// bodies shrink considerably for artifact storage.
func Write(content, path string) error {
	if path == "" {
		_, err := fmt.Fprintln(os.Stdout, content)
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer f.Close()

	if strings.HasSuffix(path, ".zst") {
		enc, err := zstd.NewWriter(f)
		if err != nil {
			return fmt.Errorf("failed to create zstd writer: %w", err)
		}
		if _, err := enc.Write([]byte(content)); err != nil {
			enc.Close()
			return err
		}
		return enc.Close()
	}

	_, err = f.WriteString(content)
	return err
}
