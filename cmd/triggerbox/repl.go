package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"
)

// repl runs an interactive console against e until EOF (Ctrl-D), matching
// the pack's readline-based loop: read a line, evaluate it, print either
// the result or the error, repeat.
func repl(e *env) error {
	rl, err := readline.New("triggerbox> ")
	if err != nil {
		return err
	}
	defer rl.Close()

	for {
		line, err := rl.Readline()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			fmt.Println(err)
			continue
		}
		if len(strings.TrimSpace(line)) == 0 {
			continue
		}
		result, err := e.eval(line)
		if err != nil {
			fmt.Println(err)
			continue
		}
		if result != "" {
			fmt.Print(result)
		}
	}
}
