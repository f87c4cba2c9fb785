package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"groupme-analyzer/backend/internal/state"
	apperrors "groupme-analyzer/backend/pkg/errors"

	"golang.org/x/term"
)

// promptHidden reads a secret without echo when in is a terminal,
// and falls back to a plain line read otherwise.
func promptHidden(in io.Reader, reader *bufio.Reader, out io.Writer, prompt string) (string, error) {
	fmt.Fprint(out, prompt)

	if f, ok := in.(*os.File); ok && reader.Buffered() == 0 && term.IsTerminal(int(f.Fd())) {
		fd := int(f.Fd())
		secret, err := term.ReadPassword(fd)
		fmt.Fprintln(out)
		if err != nil {
			return "", fmt.Errorf("failed to read token: %w", err)
		}
		return strings.TrimSpace(string(secret)), nil
	}

	return readLine(reader)
}

// readLine returns the next line without its trailing newline.
// A final line without a newline is still returned.
func readLine(reader *bufio.Reader) (string, error) {
	line, err := reader.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		if errors.Is(err, io.EOF) {
			return "", apperrors.NewInvalidInput("", "no input")
		}
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// selectGroup resolves a 0-based index typed by the user
func selectGroup(groups []state.Group, input string) (*state.Group, error) {
	idx, err := strconv.Atoi(strings.TrimSpace(input))
	if err != nil {
		return nil, apperrors.NewInvalidInput(input, "not a number")
	}
	if idx < 0 || idx >= len(groups) {
		return nil, apperrors.NewInvalidInput(input, fmt.Sprintf("choose a number between 0 and %d", len(groups)-1))
	}
	return &groups[idx], nil
}
