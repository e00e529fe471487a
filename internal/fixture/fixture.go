// Package fixture loads the account key file that parametrizes the test
// portal's replies.
//
// The file lives at <dir>/account and uses the GKeyFile dialect:
//
//	[account]
//	reason=Allow access
//	id=mclasen
//	name=Matthias Clasen
//	image=file:///home/mclasen/.face
//
// It is read on every request; nothing is cached between calls.
package fixture

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/ini.v1"
)

// FileName is the base name of the fixture inside the data directory.
const FileName = "account"

// Section is the key file group holding the account fields.
const Section = "account"

// Key names inside Section.
const (
	KeyReason = "reason"
	KeyID     = "id"
	KeyName   = "name"
	KeyImage  = "image"
)

// DataDirEnv names the environment variable that locates the fixture.
const DataDirEnv = "XDG_DATA_HOME"

// ErrMalformed reports a fixture that exists but cannot be parsed.
var ErrMalformed = errors.New("malformed account fixture")

// Record holds the fields of the [account] group. A nil field was not
// present in the file.
type Record struct {
	Reason *string
	ID     *string
	Name   *string
	Image  *string
}

// Dir returns the fixture directory from the environment. It is read on every
// call so tests can repoint it between requests.
func Dir() (string, error) {
	dir := os.Getenv(DataDirEnv)
	if dir == "" {
		return "", fmt.Errorf("%s is not set", DataDirEnv)
	}
	return dir, nil
}

// Path returns the fixture path inside dir.
func Path(dir string) string {
	return filepath.Join(dir, FileName)
}

// Load reads and parses the fixture in dir.
func Load(dir string) (*Record, error) {
	path := Path(dir)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture: %w", err)
	}
	rec, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return rec, nil
}

// Parse decodes key file data.
func Parse(data []byte) (*Record, error) {
	f, err := ini.LoadSources(ini.LoadOptions{
		IgnoreInlineComment:     true,
		IgnoreContinuation:      true,
		PreserveSurroundedQuote: true,
	}, data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	// GKeyFile rejects keys that appear before the first group.
	if len(f.Section(ini.DefaultSection).Keys()) > 0 {
		return nil, fmt.Errorf("%w: key file does not start with a group", ErrMalformed)
	}

	rec := &Record{}
	sec, err := f.GetSection(Section)
	if err != nil {
		// A file without the group loads fine; every field is just absent.
		return rec, nil
	}

	for key, dst := range map[string]**string{
		KeyReason: &rec.Reason,
		KeyID:     &rec.ID,
		KeyName:   &rec.Name,
		KeyImage:  &rec.Image,
	} {
		if !sec.HasKey(key) {
			continue
		}
		v, err := unescape(sec.Key(key).Value())
		if err != nil {
			return nil, fmt.Errorf("%w: key %q: %v", ErrMalformed, key, err)
		}
		*dst = &v
	}
	return rec, nil
}

// unescape decodes the GKeyFile string escapes \s \n \t \r and \\.
func unescape(s string) (string, error) {
	if !strings.Contains(s, `\`) {
		return s, nil
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' {
			b.WriteByte(c)
			continue
		}
		i++
		if i == len(s) {
			return "", errors.New("escape character at end of line")
		}
		switch s[i] {
		case 's':
			b.WriteByte(' ')
		case 'n':
			b.WriteByte('\n')
		case 't':
			b.WriteByte('\t')
		case 'r':
			b.WriteByte('\r')
		case '\\':
			b.WriteByte('\\')
		default:
			return "", fmt.Errorf("invalid escape sequence \\%c", s[i])
		}
	}
	return b.String(), nil
}
