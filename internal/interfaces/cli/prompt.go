package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/erp/books/internal/application/viewstate"
	"go.uber.org/zap"
)

// promptConfirmer asks on the terminal before a destructive mutation. Only
// "y" or "yes" approves; end of input is a refusal.
type promptConfirmer struct {
	mu     sync.Mutex
	reader *bufio.Reader
	out    io.Writer
}

func newPromptConfirmer(in io.Reader, out io.Writer) *promptConfirmer {
	return &promptConfirmer{reader: bufio.NewReader(in), out: out}
}

func (p *promptConfirmer) Confirm(ctx context.Context, prompt string) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return false, err
	}
	fmt.Fprintf(p.out, "%s [y/N]: ", prompt)
	line, err := p.reader.ReadString('\n')
	if err != nil && err != io.EOF {
		return false, err
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	}
	return false, nil
}

// noticePrinter writes success notices to stdout and warnings to stderr
type noticePrinter struct {
	out    io.Writer
	errOut io.Writer
	logger *zap.Logger
}

func newNoticePrinter(out, errOut io.Writer, logger *zap.Logger) *noticePrinter {
	return &noticePrinter{out: out, errOut: errOut, logger: logger}
}

func (n *noticePrinter) Notify(_ context.Context, notice viewstate.Notice) {
	switch notice.Level {
	case viewstate.LevelSuccess:
		fmt.Fprintln(n.out, notice.Message)
	case viewstate.LevelWarning:
		fmt.Fprintf(n.errOut, "warning: %s\n", notice.Message)
		n.logger.Warn(notice.Message, zap.String("mutation", notice.Mutation))
	default:
		// The command returns the error itself; only log it here
		n.logger.Debug("mutation failed", zap.String("mutation", notice.Mutation), zap.Error(notice.Err))
	}
}

// readLine reads one trimmed line, used for secrets piped on stdin
func readLine(in io.Reader) (string, error) {
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
