package ui

import (
	"fmt"
	"os"
	"time"

	"github.com/mattn/go-isatty"
)

var spinnerFrames = [...]string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

const spinnerInterval = 80 * time.Millisecond

// Spinner animates a braille spinner next to a message while a slow
// operation runs. When stdout is not a terminal it degrades to a single
// plain line so piped output stays clean.
type Spinner struct {
	message string
	tty     bool
	stop    chan struct{}
	stopped chan struct{}
}

func NewSpinner(message string) *Spinner {
	return &Spinner{
		message: message,
		tty:     isatty.IsTerminal(os.Stdout.Fd()),
		stop:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
}

// Start begins the animation. It must be paired with exactly one Stop.
func (s *Spinner) Start() {
	if !s.tty {
		fmt.Printf("%s...\n", s.message)
		close(s.stopped)
		return
	}
	go s.spin()
}

func (s *Spinner) spin() {
	defer close(s.stopped)
	ticker := time.NewTicker(spinnerInterval)
	defer ticker.Stop()

	frame := 0
	for {
		select {
		case <-s.stop:
			fmt.Print("\r\033[K")
			return
		case <-ticker.C:
			fmt.Printf("\r%s %s", Bold.Render(spinnerFrames[frame%len(spinnerFrames)]), s.message)
			frame++
		}
	}
}

// Stop halts the animation and clears the spinner line.
func (s *Spinner) Stop() {
	if s.tty {
		close(s.stop)
	}
	<-s.stopped
}

// StopWithCheck halts the animation and prints a checkmarked message.
func (s *Spinner) StopWithCheck(message string) {
	s.Stop()
	fmt.Println(Check(message))
}
