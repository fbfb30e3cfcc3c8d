package ui

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"
)

// Prompt reads a line of input after printing the label
func Prompt(label string) (string, error) {
	fmt.Printf("%s: ", Cyan(label))

	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return strings.TrimSpace(line), nil
}

// PromptSecret reads input with echo disabled, falling back to a plain
// prompt when stdin is not a terminal
func PromptSecret(label string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return Prompt(label)
	}

	fmt.Printf("%s: ", Cyan(label))
	secret, err := term.ReadPassword(fd)
	fmt.Println()
	if err != nil {
		return "", fmt.Errorf("failed to read secret: %w", err)
	}
	return strings.TrimSpace(string(secret)), nil
}

// Confirm asks a yes/no question and returns the answer. An empty
// response means no.
func Confirm(question string) (bool, error) {
	answer, err := Prompt(question + " [y/N]")
	if err != nil {
		return false, err
	}
	answer = strings.ToLower(answer)
	return answer == "y" || answer == "yes", nil
}

// WaitForEnter blocks until the operator presses Enter
func WaitForEnter(message string) error {
	fmt.Println(Yellow(message))
	fmt.Print(Dim("Press Enter to continue..."))

	reader := bufio.NewReader(os.Stdin)
	if _, err := reader.ReadString('\n'); err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}
	return nil
}
