package output

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

type LogLevel int

const (
	// Levels ordered by verbosity (lower value = more verbose)
	LevelDebug LogLevel = iota
	LevelInfo
	LevelSuccess
	LevelWarning
	LevelError
)

type LogMessage struct {
	Level   LogLevel
	Message string
	Time    time.Time
	ack     chan struct{}
}

type Logger struct {
	verbose  bool
	silent   bool
	out      io.Writer
	terminal bool
	outputMu sync.Mutex
	logQueue chan LogMessage
	done     chan struct{}
	closed   sync.Once

	debugColor   func(format string, a ...interface{}) string
	infoColor    func(format string, a ...interface{}) string
	warningColor func(format string, a ...interface{}) string
	errorColor   func(format string, a ...interface{}) string
	successColor func(format string, a ...interface{}) string
	timeColor    func(format string, a ...interface{}) string

	progressBar *ProgressBar
	progressMu  sync.Mutex

	loggedFindings map[string]struct{}
	findingsMu     sync.Mutex
}

// NewLogger writes to stderr. Verbose shows debug output, silent keeps
// only findings and errors.
func NewLogger(verbose, silent bool) *Logger {
	return NewLoggerWithWriter(os.Stderr, verbose, silent)
}

func NewLoggerWithWriter(w io.Writer, verbose, silent bool) *Logger {
	terminal := false
	if f, ok := w.(*os.File); ok {
		terminal = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}

	logger := &Logger{
		verbose:  verbose,
		silent:   silent,
		out:      w,
		terminal: terminal,
		logQueue: make(chan LogMessage, 100),
		done:     make(chan struct{}),

		timeColor:    color.New(color.FgHiBlack).SprintfFunc(),
		debugColor:   color.New(color.FgHiBlack).SprintfFunc(),
		infoColor:    color.New(color.FgCyan).SprintfFunc(),
		warningColor: color.New(color.FgYellow).SprintfFunc(),
		errorColor:   color.New(color.FgRed, color.Bold).SprintfFunc(),
		successColor: color.New(color.FgGreen, color.Bold).SprintfFunc(),

		loggedFindings: make(map[string]struct{}),
	}

	go logger.processLogs()

	return logger
}

func (l *Logger) SetProgressBar(pb *ProgressBar) {
	l.progressMu.Lock()
	defer l.progressMu.Unlock()
	l.progressBar = pb
}

/*
   Processes log messages from the queue in background
*/
func (l *Logger) processLogs() {
	for {
		select {
		case <-l.done:
			return
		case msg := <-l.logQueue:
			if msg.ack != nil {
				close(msg.ack)
				continue
			}
			l.outputMu.Lock()
			l.writeLog(msg)
			l.outputMu.Unlock()
		}
	}
}

func (l *Logger) enabled(level LogLevel) bool {
	switch {
	case l.silent:
		return level == LevelSuccess || level == LevelError
	case l.verbose:
		return true
	default:
		return level != LevelDebug
	}
}

func (l *Logger) writeLog(msg LogMessage) {
	if !l.enabled(msg.Level) {
		return
	}

	l.progressMu.Lock()
	pb := l.progressBar
	l.progressMu.Unlock()

	if pb != nil {
		pb.PauseRender()
		defer pb.ResumeRender()
	}

	timestamp := l.timeColor("[%s]", msg.Time.Format("15:04:05"))
	var prefix, formatted string

	switch msg.Level {
	case LevelDebug:
		prefix = l.debugColor("[DEBUG]")
		formatted = l.debugColor("%s", msg.Message)
	case LevelInfo:
		prefix = l.infoColor("[INFO]")
		formatted = msg.Message
	case LevelWarning:
		prefix = l.warningColor("[WARNING]")
		formatted = l.warningColor("%s", msg.Message)
	case LevelError:
		prefix = l.errorColor("[ERROR]")
		formatted = l.errorColor("%s", msg.Message)
	case LevelSuccess:
		prefix = l.successColor("[SUCCESS]")
		formatted = l.successColor("%s", msg.Message)
	}

	if l.terminal {
		fmt.Fprint(l.out, "\033[2K\r")
	}
	fmt.Fprintf(l.out, "%s %s %s\n", timestamp, prefix, formatted)
}

func (l *Logger) enqueueLog(level LogLevel, format string, args ...interface{}) {
	msg := LogMessage{
		Level:   level,
		Message: fmt.Sprintf(format, args...),
		Time:    time.Now(),
	}

	select {
	case l.logQueue <- msg:
	default:
		l.outputMu.Lock()
		l.writeLog(msg)
		l.outputMu.Unlock()
	}
}

func (l *Logger) Debug(format string, args ...interface{}) {
	l.enqueueLog(LevelDebug, format, args...)
}

func (l *Logger) Info(format string, args ...interface{}) {
	l.enqueueLog(LevelInfo, format, args...)
}

func (l *Logger) Warning(format string, args ...interface{}) {
	l.enqueueLog(LevelWarning, format, args...)
}

func (l *Logger) Error(format string, args ...interface{}) {
	l.enqueueLog(LevelError, format, args...)
}

func (l *Logger) Success(format string, args ...interface{}) {
	l.enqueueLog(LevelSuccess, format, args...)
}

/*
   Logs a new finding once per category and value, no matter how many
   sources repeat it
*/
func (l *Logger) FindingFound(category, value, source string) {
	key := category + "\x00" + value

	l.findingsMu.Lock()
	if _, exists := l.loggedFindings[key]; exists {
		l.findingsMu.Unlock()
		return
	}
	l.loggedFindings[key] = struct{}{}
	l.findingsMu.Unlock()

	l.Success("Found %s: %s in %s", category, truncate(value, 60), source)
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max]) + "..."
}

/*
   Blocks until every message queued before the call has been written
*/
func (l *Logger) Flush() {
	ack := make(chan struct{})
	select {
	case l.logQueue <- LogMessage{ack: ack}:
	case <-l.done:
		return
	}
	select {
	case <-ack:
	case <-l.done:
	}
}

func (l *Logger) Close() {
	l.closed.Do(func() {
		l.Flush()
		close(l.done)

		l.progressMu.Lock()
		if l.progressBar != nil {
			l.progressBar.Stop()
			l.progressBar = nil
		}
		l.progressMu.Unlock()
	})
}

// ResetState forgets which findings were already reported.
func (l *Logger) ResetState() {
	l.findingsMu.Lock()
	defer l.findingsMu.Unlock()
	l.loggedFindings = make(map[string]struct{})
}

func (l *Logger) IsSilent() bool {
	return l.silent
}

func (l *Logger) IsTerminal() bool {
	return l.terminal
}
