// Package markdown converts notes to and from Markdown files with YAML frontmatter.
package markdown

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/aretw0/quill/pkg/core"
)

// Frontmatter is the YAML header of an exported note.
type Frontmatter struct {
	ID        core.NoteID `yaml:"id,omitempty"`
	Title     string      `yaml:"title"`
	Icon      string      `yaml:"icon,omitempty"`
	CreatedAt *time.Time  `yaml:"created_at,omitempty"`
	UpdatedAt *time.Time  `yaml:"updated_at,omitempty"`
	Fragments int         `yaml:"fragments,omitempty"`
}

// Render encodes a note and its materialized text.
func Render(note core.Note, doc core.Document) ([]byte, error) {
	created, updated := note.CreatedAt.UTC(), note.UpdatedAt.UTC()
	fm := Frontmatter{
		ID:        note.ID,
		Title:     note.Title,
		CreatedAt: &created,
		UpdatedAt: &updated,
		Fragments: doc.Fragments,
	}
	if note.Icon != nil {
		fm.Icon = *note.Icon
	}

	var buf bytes.Buffer
	buf.WriteString("---\n")
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)
	if err := encoder.Encode(fm); err != nil {
		return nil, err
	}
	if err := encoder.Close(); err != nil {
		return nil, err
	}
	buf.WriteString("---\n")
	buf.WriteString(doc.Text)
	return buf.Bytes(), nil
}

// Parse splits a Markdown file into its frontmatter and body.
// A file without frontmatter yields a zero Frontmatter and the whole file as body.
func Parse(data []byte) (Frontmatter, string, error) {
	var fm Frontmatter
	if !bytes.HasPrefix(data, []byte("---\n")) && !bytes.HasPrefix(data, []byte("---\r\n")) {
		return fm, string(data), nil
	}

	rest := data[3:]
	parts := bytes.SplitN(rest, []byte("\n---"), 2)
	if len(parts) == 1 {
		return fm, "", errors.New("frontmatter started but no closing delimiter found")
	}

	if err := yaml.Unmarshal(parts[0], &fm); err != nil {
		return fm, "", fmt.Errorf("failed to parse frontmatter: %w", err)
	}

	body := strings.TrimPrefix(string(parts[1]), "\r")
	body = strings.TrimPrefix(body, "\n")
	return fm, body, nil
}

// FileName returns "<id>-<slug>.md" for a note.
func FileName(note core.Note) string {
	slug := Slug(note.Title)
	if slug == "" {
		return fmt.Sprintf("%d.md", note.ID)
	}
	return fmt.Sprintf("%d-%s.md", note.ID, slug)
}

// Slug lowercases s and keeps letters and digits, joining words with dashes.
func Slug(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		case b.Len() > 0 && !dash:
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
