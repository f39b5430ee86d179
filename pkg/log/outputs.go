package log

import (
	"io"
	"os"
	"path/filepath"
	"sync"
)

// ConsoleOutput writes log entries to the console (stdout/stderr).
type ConsoleOutput struct {
	mu            sync.Mutex
	useStderr     bool      // Use stderr instead of stdout
	errorToStderr bool      // Send error and fatal logs to stderr
	writer        io.Writer // Custom writer (optional)
	errorWriter   io.Writer // Custom error writer (optional)
}

// ConsoleOutputOption is a function that configures a ConsoleOutput.
type ConsoleOutputOption func(*ConsoleOutput)

// WithStderr configures the ConsoleOutput to use stderr.
func WithStderr() ConsoleOutputOption {
	return func(o *ConsoleOutput) {
		o.useStderr = true
	}
}

// WithCustomWriter configures the ConsoleOutput to use a custom writer.
func WithCustomWriter(writer io.Writer) ConsoleOutputOption {
	return func(o *ConsoleOutput) {
		o.writer = writer
	}
}

// WithCustomErrorWriter configures the ConsoleOutput to use a custom error writer.
func WithCustomErrorWriter(writer io.Writer) ConsoleOutputOption {
	return func(o *ConsoleOutput) {
		o.errorWriter = writer
	}
}

// NewConsoleOutput creates a new ConsoleOutput with the given options.
func NewConsoleOutput(options ...ConsoleOutputOption) *ConsoleOutput {
	o := &ConsoleOutput{
		errorToStderr: true, // Default to sending errors to stderr
	}

	for _, option := range options {
		option(o)
	}

	return o
}

// Write writes the log entry to the console.
func (o *ConsoleOutput) Write(entry *Entry, formattedEntry []byte) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	var writer io.Writer
	if o.writer != nil {
		writer = o.writer
	} else if o.useStderr {
		writer = os.Stderr
	} else {
		writer = os.Stdout
	}

	if (entry.Level == ErrorLevel || entry.Level == FatalLevel) && o.errorToStderr {
		if o.errorWriter != nil {
			writer = o.errorWriter
		} else {
			writer = os.Stderr
		}
	}

	_, err := writer.Write(formattedEntry)
	return err
}

// Close implements the Output interface but does nothing for console output.
func (o *ConsoleOutput) Close() error {
	return nil
}

// FileOutput appends log entries to a file.
type FileOutput struct {
	mu       sync.Mutex
	file     *os.File
	filename string
}

// NewFileOutput creates a new FileOutput writing to the given path.
func NewFileOutput(filename string) *FileOutput {
	return &FileOutput{filename: filename}
}

// Write writes the log entry to the file.
func (o *FileOutput) Write(entry *Entry, formattedEntry []byte) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.file == nil {
		if err := os.MkdirAll(filepath.Dir(o.filename), 0755); err != nil {
			return err
		}
		file, err := os.OpenFile(o.filename, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return err
		}
		o.file = file
	}

	_, err := o.file.Write(formattedEntry)
	return err
}

// Close closes the underlying file.
func (o *FileOutput) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.file == nil {
		return nil
	}
	err := o.file.Close()
	o.file = nil
	return err
}
