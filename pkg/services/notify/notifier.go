package notify

import (
	"context"
	"fmt"
	"io"
	"os"
)

// Notifier delivers one rendered report. Implementations do not retry.
type Notifier interface {
	SendReport(ctx context.Context, title, body string) error
}

// ConsoleNotifier prints the report preview when no chat webhook is configured
type ConsoleNotifier struct {
	writer io.Writer
}

func NewConsoleNotifier(writer io.Writer) *ConsoleNotifier {
	if writer == nil {
		writer = os.Stdout
	}
	return &ConsoleNotifier{writer: writer}
}

func (c *ConsoleNotifier) SendReport(_ context.Context, title, body string) error {
	_, err := fmt.Fprintf(c.writer, "\n--- %s ---\n%s\n---------------------------\n", title, body)
	return err
}
