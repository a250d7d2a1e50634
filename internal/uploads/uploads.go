// Package uploads stores documents attached to leave applications in a
// single flat directory.
package uploads

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/unicode/norm"
)

var (
	ErrEmptyName = errors.New("filename is empty after sanitizing")
	ErrNotFound  = errors.New("file not found")
)

// noAttachmentMarker is what the leave file stores for "no attachment", so
// no upload may be named exactly that.
const noAttachmentMarker = "None"

// SanitizeFilename reduces a client-supplied name to a flat ASCII name made
// of [A-Za-z0-9_.-]. Path separators become word breaks, so
// "../../etc/passwd" becomes "etc_passwd". A bare "None" becomes "None_".
// The result may be empty.
func SanitizeFilename(name string) string {
	decomposed := norm.NFKD.String(name)
	var ascii strings.Builder
	for _, r := range decomposed {
		if r < 0x80 {
			ascii.WriteRune(r)
		}
	}
	s := strings.NewReplacer("/", " ", "\\", " ").Replace(ascii.String())
	s = strings.Join(strings.Fields(s), "_")

	var out strings.Builder
	for _, r := range s {
		if isSafe(r) {
			out.WriteRune(r)
		}
	}
	clean := strings.Trim(out.String(), "._")
	if clean == noAttachmentMarker {
		clean += "_"
	}
	return clean
}

func isSafe(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	case r == '_' || r == '.' || r == '-':
		return true
	}
	return false
}

// Dir is the upload directory. Files are keyed by sanitized name only, so
// two uploads with the same name overwrite each other.
type Dir struct {
	root string
}

// New returns a Dir rooted at root.
func New(root string) *Dir {
	return &Dir{root: root}
}

// Root returns the directory path.
func (d *Dir) Root() string { return d.root }

// Init creates the directory if needed.
func (d *Dir) Init() error {
	if err := os.MkdirAll(d.root, 0o755); err != nil {
		return fmt.Errorf("create upload dir: %w", err)
	}
	return nil
}

// Save copies r into the directory under the sanitized form of name and
// returns the stored name.
func (d *Dir) Save(name string, r io.Reader) (string, error) {
	st, err := d.Stage(name, r)
	if err != nil {
		return "", err
	}
	if err := st.Commit(); err != nil {
		return "", err
	}
	return st.Name(), nil
}

// Staged is an upload written to a temp file in the directory. It becomes
// visible under its name only on Commit.
type Staged struct {
	name string
	tmp  string
	dest string
	done bool
}

// Stage writes r to a temp file next to the sanitized form of name. The
// caller must Commit or Discard it.
func (d *Dir) Stage(name string, r io.Reader) (*Staged, error) {
	clean := SanitizeFilename(name)
	if clean == "" {
		return nil, ErrEmptyName
	}
	tmp, err := os.CreateTemp(d.root, ".upload-*.tmp")
	if err != nil {
		return nil, fmt.Errorf("create upload: %w", err)
	}
	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return nil, fmt.Errorf("write upload: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return nil, fmt.Errorf("close upload: %w", err)
	}
	return &Staged{name: clean, tmp: tmp.Name(), dest: filepath.Join(d.root, clean)}, nil
}

// Name is the sanitized name the upload is committed under.
func (s *Staged) Name() string { return s.name }

// Commit moves the upload into place, replacing any file of the same name.
func (s *Staged) Commit() error {
	if s.done {
		return nil
	}
	if err := os.Chmod(s.tmp, 0o644); err != nil {
		return fmt.Errorf("chmod upload: %w", err)
	}
	if err := os.Rename(s.tmp, s.dest); err != nil {
		return fmt.Errorf("store upload: %w", err)
	}
	s.done = true
	return nil
}

// Discard removes an uncommitted upload. It is a no-op after Commit.
func (s *Staged) Discard() error {
	if s.done {
		return nil
	}
	s.done = true
	if err := os.Remove(s.tmp); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// Resolve maps a requested name to a regular file directly inside the
// directory. Anything else, including names with separators or dot
// segments, is ErrNotFound.
func (d *Dir) Resolve(name string) (string, error) {
	if name == "" || strings.HasPrefix(name, ".") || strings.ContainsAny(name, `/\`) || filepath.Base(name) != name {
		return "", ErrNotFound
	}
	rootAbs, err := filepath.Abs(d.root)
	if err != nil {
		return "", err
	}
	p := filepath.Join(rootAbs, name)
	if filepath.Dir(p) != filepath.Clean(rootAbs) {
		return "", ErrNotFound
	}
	st, err := os.Lstat(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", ErrNotFound
		}
		return "", err
	}
	if !st.Mode().IsRegular() {
		return "", ErrNotFound
	}
	return p, nil
}
