package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"ffstatic/internal/platform"
)

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// promptKinds asks which binaries to install. An empty answer or EOF selects
// both.
func promptKinds(in io.Reader, out io.Writer) ([]platform.Kind, error) {
	fmt.Fprintln(out, "Which binaries should be installed?")
	fmt.Fprintln(out, "  1) ffmpeg and ffprobe (default)")
	fmt.Fprintln(out, "  2) ffmpeg only")
	fmt.Fprintln(out, "  3) ffprobe only")

	reader := bufio.NewReader(in)
	for {
		fmt.Fprint(out, "Choice [1]: ")
		line, err := reader.ReadString('\n')
		answer := strings.TrimSpace(line)
		switch answer {
		case "", "1":
			if answer == "" && err != nil && err != io.EOF {
				return nil, fmt.Errorf("read choice: %w", err)
			}
			return platform.Kinds(), nil
		case "2":
			return []platform.Kind{platform.KindFFmpeg}, nil
		case "3":
			return []platform.Kind{platform.KindFFprobe}, nil
		}
		if err != nil {
			return nil, fmt.Errorf("invalid choice %q", answer)
		}
		fmt.Fprintf(out, "Please enter 1, 2 or 3.\n")
	}
}
