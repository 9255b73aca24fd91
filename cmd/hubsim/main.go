package main

import (
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

func main() {
	sim := newHubSim()

	stop := make(chan struct{})
	go func() {
		ticker := time.NewTicker(2 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				sim.tick()
			case <-stop:
				return
			}
		}
	}()
	defer close(stop)

	p := tea.NewProgram(newModel(sim))
	if _, err := p.Run(); err != nil {
		fmt.Fprintln(os.Stderr, "hubsim: ", err)
		os.Exit(1)
	}
}
