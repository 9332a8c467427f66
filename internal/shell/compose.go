package shell

import (
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// readBody collects a message body, from the configured editor when there
// is one and otherwise from input lines ending with a lone ".".
func (s *Shell) readBody(intro, initial string) (string, error) {
	if s.editor != "" {
		return editBody(s.editor, initial)
	}
	s.out.Println(intro + "  Type a period on a line by itself to end.")
	if initial != "" {
		s.out.Println("Current text:")
		s.out.Println(initial)
	}
	var lines []string
	for s.in.Scan() {
		line := s.in.Text()
		if line == "." {
			break
		}
		lines = append(lines, line)
	}
	if err := s.in.Err(); err != nil {
		return "", err
	}
	return strings.Join(lines, "\n"), nil
}

// editBody runs editor on a temp file seeded with initial and returns what
// was saved, without trailing newlines.
func editBody(editor, initial string) (string, error) {
	f, err := os.CreateTemp("", "iris-*.txt")
	if err != nil {
		return "", fmt.Errorf("create draft: %w", err)
	}
	path := f.Name()
	defer os.Remove(path)

	if _, err := f.WriteString(initial); err != nil {
		f.Close()
		return "", fmt.Errorf("write draft: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close draft: %w", err)
	}

	args := strings.Fields(editor)
	if len(args) == 0 {
		return "", fmt.Errorf("editor command is empty")
	}
	cmd := exec.Command(args[0], append(args[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("editor %s: %w", args[0], err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read draft: %w", err)
	}
	return strings.TrimRight(string(data), "\n"), nil
}
