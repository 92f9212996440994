package doctor

import (
	"fmt"
	"os"

	"whisperclip/shutdown"
)

func setupInterruptHandler() {
	sigChan := make(chan os.Signal, 1)
	shutdown.Notify(sigChan)
	go func() {
		<-sigChan
		resetTerminal()
		fmt.Println("\nInterrupted")
		os.Exit(1)
	}()
}
