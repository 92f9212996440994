package doctor

import (
	"errors"
	"fmt"
	"os"

	"golang.org/x/term"
)

// pick presents an interactive list and returns the chosen index.
func pick(title string, items []string, cursor int) (int, error) {
	if len(items) == 0 {
		return 0, errors.New("nothing to choose from")
	}

	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return cursor, errors.New("stdin is not a terminal")
	}
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return 0, fmt.Errorf("setting raw mode: %w", err)
	}
	defer term.Restore(fd, oldState)

	render := func() {
		fmt.Print("\r\x1b[J")
		fmt.Printf("%s\r\n\r\n", title)
		for i, item := range items {
			if i == cursor {
				fmt.Printf("  \x1b[1;36m▶ %s\x1b[0m\r\n", item)
			} else {
				fmt.Printf("    %s\r\n", item)
			}
		}
		// Move back up so the next render overwrites the list.
		fmt.Printf("\x1b[%dA", len(items)+2)
	}
	render()

	buf := make([]byte, 3)
	for {
		n, err := os.Stdin.Read(buf)
		if err != nil {
			return 0, fmt.Errorf("reading input: %w", err)
		}

		if n == 1 {
			switch buf[0] {
			case 13: // Enter
				fmt.Printf("\x1b[%dB\r\n", len(items)+2)
				return cursor, nil
			case 3: // Ctrl+C
				term.Restore(fd, oldState)
				fmt.Print("\r\n")
				os.Exit(130)
			case 'j':
				cursor = min(cursor+1, len(items)-1)
			case 'k':
				cursor = max(cursor-1, 0)
			}
		} else if n == 3 && buf[0] == 0x1b && buf[1] == '[' {
			switch buf[2] {
			case 'A': // Up arrow
				cursor = max(cursor-1, 0)
			case 'B': // Down arrow
				cursor = min(cursor+1, len(items)-1)
			}
		}
		render()
	}
}
