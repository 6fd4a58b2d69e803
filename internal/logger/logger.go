package logger

import (
	"log"
	"os"

	"github.com/spf13/viper"
)

var (
	InfoLogger  = log.New(os.Stderr, "INFO: ", log.Ldate|log.Ltime|log.Lshortfile)
	ErrorLogger = log.New(os.Stderr, "ERROR: ", log.Ldate|log.Ltime|log.Lshortfile)
	logFile     *os.File
)

// Init redirects the loggers to the configured log file. Until Init is
// called the loggers write to stderr.
func Init() error {
	logFilePath := viper.GetString("log_file_path")
	if logFilePath == "" {
		return nil
	}

	var err error
	logFile, err = os.OpenFile(logFilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		return err
	}

	InfoLogger.SetOutput(logFile)
	ErrorLogger.SetOutput(logFile)
	return nil
}

// RotateLog clears the current log file or creates a new one to start fresh
func RotateLog() error {
	logFilePath := viper.GetString("log_file_path")
	if logFilePath == "" {
		return nil
	}

	if logFile != nil {
		logFile.Close() // Close the current log file before rotating
	}

	var err error
	logFile, err = os.OpenFile(logFilePath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0666)
	if err != nil {
		return err
	}

	InfoLogger.SetOutput(logFile)
	ErrorLogger.SetOutput(logFile)
	return nil
}

// Cleanup closes the log file when the application is done using it
func Cleanup() {
	if logFile != nil {
		logFile.Close()
	}
}

// Info logs an informational message to the log file
func Info(v ...interface{}) {
	InfoLogger.Println(v...)
}

// Infof logs a formatted informational message to the log file
func Infof(format string, v ...interface{}) {
	InfoLogger.Printf(format, v...)
}

// Error logs an error message to the log file
func Error(v ...interface{}) {
	ErrorLogger.Println(v...)
}

// Errorf logs a formatted error message to the log file
func Errorf(format string, v ...interface{}) {
	ErrorLogger.Printf(format, v...)
}
