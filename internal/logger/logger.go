package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"labelpress/internal/constants"
)

const (
	LevelDebug = "DEBUG"
	LevelInfo  = "INFO"
	LevelWarn  = "WARN"
	LevelError = "ERROR"
)

var levelOrder = map[string]int{
	LevelDebug: 0,
	LevelInfo:  1,
	LevelWarn:  2,
	LevelError: 3,
}

// Logger writes leveled log lines to stdout and, once a work directory is
// set, to per-level files under {workDir}/.internal/logs/ with daily
// rotation.
type Logger struct {
	mu      sync.Mutex
	level   string
	workDir string // empty = stdout only
	files   map[string]*os.File
	day     int // year*1000 + yday, for rotation
}

// NewLogger creates a stdout-only logger. File output is enabled later via
// SetWorkDir once the upload root is known.
func NewLogger(level string) *Logger {
	if _, ok := levelOrder[level]; !ok {
		level = LevelDebug
	}
	return &Logger{
		level: level,
		files: make(map[string]*os.File),
	}
}

// SetWorkDir enables or moves file logging. Pass an empty string to go back
// to stdout only.
func (l *Logger) SetWorkDir(workDir string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.closeFilesLocked()
	l.workDir = workDir
	l.day = dayKey(time.Now())
}

// SetLevel changes the minimum level that gets written.
func (l *Logger) SetLevel(level string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := levelOrder[level]; ok {
		l.level = level
	}
}

// Close releases all open log files. Call on shutdown.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.closeFilesLocked()
}

func (l *Logger) Debug(format string, args ...interface{}) { l.log(LevelDebug, format, args...) }
func (l *Logger) Info(format string, args ...interface{})  { l.log(LevelInfo, format, args...) }
func (l *Logger) Warn(format string, args ...interface{})  { l.log(LevelWarn, format, args...) }
func (l *Logger) Error(format string, args ...interface{}) { l.log(LevelError, format, args...) }

func (l *Logger) log(level, format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if levelOrder[level] < levelOrder[l.level] {
		return
	}

	line := fmt.Sprintf("[%s] %s | %s\n",
		level,
		time.Now().Format(constants.LogTimestampFormat),
		fmt.Sprintf(format, args...))

	fmt.Print(line)

	if l.workDir == "" {
		return
	}

	// Daily rotation: a new day closes every handle so the next write
	// opens a fresh file.
	if today := dayKey(time.Now()); today != l.day {
		l.closeFilesLocked()
		l.day = today
	}

	f, err := l.fileLocked(level)
	if err != nil {
		fmt.Printf("[LOGGER_ERROR] %v\n", err)
		return
	}
	if _, err := f.WriteString(line); err != nil {
		fmt.Printf("[LOGGER_ERROR] write failed: %v\n", err)
	}
}

// fileLocked returns the open handle for a level, creating the file under
// {workDir}/.internal/logs/{level}/{midnight-unix}.log if needed.
func (l *Logger) fileLocked(level string) (*os.File, error) {
	if f, ok := l.files[level]; ok {
		return f, nil
	}

	dir := filepath.Join(l.workDir, constants.InternalDir, constants.LogsDir, levelDir(level))
	if err := os.MkdirAll(dir, constants.DirPermissions); err != nil {
		return nil, fmt.Errorf("failed to create log directory %s: %w", dir, err)
	}

	year, month, day := time.Now().UTC().Date()
	midnight := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	path := filepath.Join(dir, fmt.Sprintf("%d%s", midnight.Unix(), constants.LogFileExtension))

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, constants.FilePermissions)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file %s: %w", path, err)
	}
	l.files[level] = f
	return f, nil
}

func (l *Logger) closeFilesLocked() error {
	var lastErr error
	for level, f := range l.files {
		if err := f.Close(); err != nil {
			lastErr = err
		}
		delete(l.files, level)
	}
	return lastErr
}

func dayKey(t time.Time) int {
	return t.Year()*1000 + t.YearDay()
}

func levelDir(level string) string {
	switch level {
	case LevelInfo:
		return constants.LogsDirInfo
	case LevelWarn:
		return constants.LogsDirWarn
	case LevelError:
		return constants.LogsDirError
	default:
		return constants.LogsDirDebug
	}
}
