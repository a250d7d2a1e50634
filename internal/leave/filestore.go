package leave

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

const (
	fieldSep = ":"

	// noFileMarker is how an application without an attachment is written.
	// Files produced by earlier deployments use the same marker.
	noFileMarker = "None"

	pendingFields = 6
	decidedFields = 7
)

// FilePaths locates the flat files backing a FileStore.
type FilePaths struct {
	StudentCredentials string
	HODCredentials     string
	Applications       string
}

// FileStore persists credentials and applications as colon-delimited
// lines. Every read scans the whole file and every decision rewrites it.
// There is no locking between concurrent writers.
type FileStore struct {
	paths FilePaths
	log   *slog.Logger
}

// NewFileStore builds a FileStore. A nil logger falls back to slog.Default.
func NewFileStore(paths FilePaths, logger *slog.Logger) *FileStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileStore{paths: paths, log: logger}
}

// Init creates any missing store file. Existing files are left untouched.
func (s *FileStore) Init(_ context.Context) error {
	for _, p := range []string{s.paths.StudentCredentials, s.paths.HODCredentials, s.paths.Applications} {
		if dir := filepath.Dir(p); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("create dir for %s: %w", p, err)
			}
		}
		f, err := os.OpenFile(p, os.O_CREATE|os.O_RDONLY, 0o644)
		if err != nil {
			return fmt.Errorf("init %s: %w", p, err)
		}
		f.Close()
	}
	return nil
}

// Close is a no-op; files are opened per operation.
func (s *FileStore) Close() error { return nil }

// Ping fails if any backing file is missing or is not a regular file.
func (s *FileStore) Ping(_ context.Context) error {
	for _, p := range []string{s.paths.StudentCredentials, s.paths.HODCredentials, s.paths.Applications} {
		st, err := os.Stat(p)
		if err != nil {
			return err
		}
		if !st.Mode().IsRegular() {
			return fmt.Errorf("%s is not a regular file", p)
		}
	}
	return nil
}

func (s *FileStore) credentialsPath(role Role) (string, error) {
	switch role {
	case RoleStudent:
		return s.paths.StudentCredentials, nil
	case RoleHOD:
		return s.paths.HODCredentials, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownRole, role)
}

// Write appends one username:password line. Duplicates are allowed.
func (s *FileStore) Write(_ context.Context, username, password string, role Role) error {
	path, err := s.credentialsPath(role)
	if err != nil {
		return err
	}
	if err := checkFields(username, password); err != nil {
		return err
	}
	return appendLine(path, username+fieldSep+password)
}

// Verify scans the role's file top to bottom and reports the first exact
// match. A line that is not exactly two fields aborts the scan.
func (s *FileStore) Verify(_ context.Context, username, password string, role Role) (bool, error) {
	path, err := s.credentialsPath(role)
	if err != nil {
		return false, err
	}
	f, err := os.Open(path)
	if err != nil {
		return false, fmt.Errorf("open credentials: %w", err)
	}
	defer f.Close()

	found := false
	err = eachLine(f, func(lineNo int, line string) (bool, error) {
		parts := strings.Split(line, fieldSep)
		if len(parts) != 2 {
			return false, fmt.Errorf("%w: %s line %d", ErrMalformedRecord, filepath.Base(path), lineNo)
		}
		found = parts[0] == username && parts[1] == password
		return found, nil
	})
	if err != nil {
		return false, err
	}
	return found, nil
}

// Save appends a pending application as a six-field line.
func (s *FileStore) Save(_ context.Context, app Application) (Application, error) {
	if err := checkFields(app.Username, app.Reason, app.FromDate, app.TillDate, app.Year, app.Filename); err != nil {
		return Application{}, err
	}
	app.ID = ""
	app.Decision = DecisionNone
	filename := app.Filename
	if filename == "" {
		filename = noFileMarker
	}
	line := strings.Join([]string{app.Username, app.Reason, app.FromDate, app.TillDate, app.Year, filename}, fieldSep)
	if err := appendLine(s.paths.Applications, line); err != nil {
		return Application{}, err
	}
	return app, nil
}

// List parses every line of the applications file in file order. Lines
// with an unexpected field count are logged and skipped.
func (s *FileStore) List(_ context.Context) ([]Application, error) {
	f, err := os.Open(s.paths.Applications)
	if err != nil {
		return nil, fmt.Errorf("open applications: %w", err)
	}
	defer f.Close()

	var apps []Application
	err = eachLine(f, func(_ int, line string) (bool, error) {
		app, ok := parseApplication(line)
		if !ok {
			s.log.Warn("ignoring invalid leave application", "line", truncate(line, 200))
			return false, nil
		}
		apps = append(apps, app)
		return false, nil
	})
	if err != nil {
		return nil, err
	}
	return apps, nil
}

// SetDecision records d on the application at index and rewrites the file.
// An out-of-range index leaves the file untouched.
func (s *FileStore) SetDecision(ctx context.Context, index int, d Decision) error {
	apps, err := s.List(ctx)
	if err != nil {
		return err
	}
	if index < 0 || index >= len(apps) {
		return fmt.Errorf("%w: %d", ErrInvalidIndex, index)
	}
	apps[index].Decision = d

	var b strings.Builder
	for _, app := range apps {
		b.WriteString(formatDecided(app))
		b.WriteByte('\n')
	}
	return replaceFile(s.paths.Applications, []byte(b.String()))
}

func parseApplication(line string) (Application, bool) {
	values := strings.Split(line, fieldSep)
	if len(values) != pendingFields && len(values) != decidedFields {
		return Application{}, false
	}
	app := Application{
		Username: values[0],
		Reason:   values[1],
		FromDate: values[2],
		TillDate: values[3],
		Year:     values[4],
		Filename: values[5],
	}
	if app.Filename == noFileMarker {
		app.Filename = ""
	}
	if len(values) == decidedFields {
		app.Decision = Decision(values[6])
	}
	return app, true
}

func formatDecided(app Application) string {
	filename := app.Filename
	if filename == "" {
		filename = noFileMarker
	}
	return strings.Join([]string{
		app.Username, app.Reason, app.FromDate, app.TillDate, app.Year, filename, string(app.Decision),
	}, fieldSep)
}

// eachLine calls fn with every line of f, trimmed, until fn stops or
// fails. Lines have no length limit.
func eachLine(f *os.File, fn func(lineNo int, line string) (stop bool, err error)) error {
	r := bufio.NewReader(f)
	for lineNo := 1; ; lineNo++ {
		line, readErr := r.ReadString('\n')
		if line != "" {
			stop, err := fn(lineNo, strings.TrimSpace(line))
			if err != nil || stop {
				return err
			}
		}
		if errors.Is(readErr, io.EOF) {
			return nil
		}
		if readErr != nil {
			return fmt.Errorf("read %s: %w", filepath.Base(f.Name()), readErr)
		}
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

func checkFields(fields ...string) error {
	for _, f := range fields {
		if strings.ContainsAny(f, fieldSep+"\r\n") {
			return fmt.Errorf("%w: %q", ErrFieldDelimiter, f)
		}
	}
	return nil
}

// appendLine requires the file to exist already; creating stores is Init's job.
func appendLine(path, line string) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND, 0)
	if err != nil {
		return fmt.Errorf("open %s: %w", filepath.Base(path), err)
	}
	if _, err := f.WriteString(line + "\n"); err != nil {
		f.Close()
		return fmt.Errorf("append %s: %w", filepath.Base(path), err)
	}
	return f.Close()
}

// replaceFile writes data next to path and renames it into place so a
// crash mid-write cannot leave a truncated store behind.
func replaceFile(path string, data []byte) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat %s: %w", filepath.Base(path), err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := func(err error) error {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		return cleanup(fmt.Errorf("write temp: %w", err))
	}
	if err := tmp.Chmod(info.Mode().Perm()); err != nil && !errors.Is(err, fs.ErrPermission) {
		return cleanup(fmt.Errorf("chmod temp: %w", err))
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace %s: %w", filepath.Base(path), err)
	}
	return nil
}
