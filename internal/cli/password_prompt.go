package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

var (
	errNotTerminal       = errors.New("stdin is not a terminal")
	errEmptyPassword     = errors.New("password is required")
	errPasswordsMismatch = errors.New("passwords do not match")
)

// PromptPassword reads one line from in after writing prompt to out. Echo is
// disabled on terminals; piped input is read as is.
func PromptPassword(prompt string, in *os.File, out io.Writer) (string, error) {
	fmt.Fprint(out, prompt)

	raw, err := readPasswordNoEcho(in)
	if errors.Is(err, errNotTerminal) {
		raw, err = readLine(in)
	} else {
		fmt.Fprintln(out)
	}
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}

	password := strings.TrimSpace(string(raw))
	if password == "" {
		return "", errEmptyPassword
	}
	return password, nil
}

// PromptNewPassword asks twice and requires both answers to match.
func PromptNewPassword(in *os.File, out io.Writer) (string, error) {
	password, err := PromptPassword("New password: ", in, out)
	if err != nil {
		return "", err
	}
	confirmation, err := PromptPassword("Repeat new password: ", in, out)
	if err != nil {
		return "", err
	}
	if password != confirmation {
		return "", errPasswordsMismatch
	}
	return password, nil
}

// readLine reads byte by byte so that nothing past the newline is consumed.
func readLine(in io.Reader) ([]byte, error) {
	if in == nil {
		return nil, errors.New("stdin unavailable")
	}

	var line []byte
	buf := make([]byte, 1)
	for {
		n, err := in.Read(buf)
		if n == 1 {
			if buf[0] == '\n' {
				break
			}
			line = append(line, buf[0])
		}
		if errors.Is(err, io.EOF) {
			if len(line) == 0 {
				return nil, io.ErrUnexpectedEOF
			}
			break
		}
		if err != nil {
			return nil, err
		}
	}
	return []byte(strings.TrimRight(string(line), "\r")), nil
}
