// Package crashreport implements the process-wide crash-capture path
// described in §4.9/§4.15: a recover-wrapped supervisor top, an
// at-exit hook standing in for atexit.register/sys.excepthook (Go has
// neither), a zipped log attachment, and best-effort Notifier dispatch.
// Grounded on core_aprs_client.py's client_exception_handler/
// handle_exception pair and utils.py's create_zip_file_from_log.
package crashreport

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Report describes one captured crash.
type Report struct {
	Header         string
	Body           string
	AttachmentPath string
	CorrelationID  string
	Timestamp      time.Time
}

// Notifier is the external collaborator a Report is handed to. It must
// never throw; a nil Notifier simply means crashes are logged but not
// forwarded.
type Notifier interface {
	Notify(header, body, attachmentPath, configPath string) bool
}

// Handler owns the at-exit registry and the optional Notifier dispatch.
type Handler struct {
	mu          sync.Mutex
	atExitFuncs []func()

	logFilePath     string
	notifierCfgPath string
	notifier        Notifier
	log             *logrus.Logger
}

// New constructs a Handler. logFilePath, if non-empty, is zipped and
// attached to the crash report; notifier may be nil to disable forwarding.
func New(logFilePath, notifierCfgPath string, notifier Notifier, log *logrus.Logger) *Handler {
	return &Handler{
		logFilePath:     logFilePath,
		notifierCfgPath: notifierCfgPath,
		notifier:        notifier,
		log:             log,
	}
}

// RegisterAtExit adds fn to the set of functions run by RunAtExit, standing
// in for Python's atexit.register since Go has no built-in equivalent.
func (h *Handler) RegisterAtExit(fn func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.atExitFuncs = append(h.atExitFuncs, fn)
}

// RunAtExit runs every registered at-exit function. Call from main's
// deferred cleanup. A panicking at-exit function is recovered and logged,
// never allowed to mask the functions registered after it.
func (h *Handler) RunAtExit() {
	h.mu.Lock()
	fns := append([]func(){}, h.atExitFuncs...)
	h.mu.Unlock()

	for _, fn := range fns {
		h.safeCall(fn)
	}
}

func (h *Handler) safeCall(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			if h.log != nil {
				h.log.WithField("panic", r).Error("panic in at-exit handler, continuing")
			}
		}
	}()
	fn()
}

// Guard wraps a top-level function (the supervisor's Run) with recover:
// a panic becomes a captured Report and a Notifier dispatch instead of a
// process crash. This path is itself best-effort — a failure while handling
// the panic is logged and swallowed, never re-panicking.
func (h *Handler) Guard(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			stack := string(debug.Stack())
			if h.log != nil {
				h.log.WithField("panic", r).Error("recovered from unhandled panic:\n" + stack)
			}
			h.capture(fmt.Sprintf("%v", r), stack)
			err = fmt.Errorf("crashreport: recovered panic: %v", r)
		}
	}()
	return fn()
}

// capture builds a Report, zips the log file if configured, and forwards it
// to the Notifier. Every step here is best-effort.
func (h *Handler) capture(header, body string) {
	report := Report{
		Header:        header,
		Body:          body,
		CorrelationID: uuid.NewString(),
		Timestamp:     time.Now(),
	}

	if h.logFilePath != "" {
		if zipped, err := zipLogFile(h.logFilePath); err != nil {
			if h.log != nil {
				h.log.WithError(err).Warn("failed to zip log file for crash report")
			}
		} else {
			report.AttachmentPath = zipped
		}
	}

	if h.notifier == nil {
		return
	}
	if !h.notifier.Notify(report.Header, report.Body, report.AttachmentPath, h.notifierCfgPath) {
		if h.log != nil {
			h.log.Warn("notifier reported failure delivering crash report")
		}
	}
}

// zipLogFile compresses path into a new .zip file in the system temp
// directory and returns the zip file's path.
func zipLogFile(path string) (string, error) {
	src, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer src.Close()

	zipPath := filepath.Join(os.TempDir(), fmt.Sprintf("aprsbot-crash-%d.zip", time.Now().UnixNano()))
	dst, err := os.Create(zipPath)
	if err != nil {
		return "", err
	}
	defer dst.Close()

	zw := zip.NewWriter(dst)
	defer zw.Close()

	entry, err := zw.Create(filepath.Base(path))
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(entry, src); err != nil {
		return "", err
	}
	return zipPath, nil
}
