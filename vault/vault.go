// Copyright 2024 YDC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package vault

import (
	"fmt"
	"io/ioutil"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	glob "github.com/bmatcuk/doublestar"
	"github.com/karrick/godirwalk"
)

// File identifies one resource inside a vault by its vault-relative,
// slash-separated path
type File struct {
	Path      string `json:"path"`
	Name      string `json:"name"`
	Extension string `json:"extension"`
	Size      int64  `json:"size"`
}

// NewFile builds a File from a vault-relative path
func NewFile(relPath string) File {
	base := path.Base(relPath)
	ext := strings.TrimPrefix(path.Ext(relPath), ".")
	return File{Path: relPath, Name: base, Extension: ext}
}

// IsDocument reports whether the file is a publishable markdown document
func (f File) IsDocument() bool {
	return f.Extension == "md" || f.Extension == "mdx"
}

// Vault is the local document store collaborator. Implementations
// resolve link references and hand back file bytes; they never talk
// to the network.
type Vault interface {

	// Name of the vault, sent along with every publish
	Name() string

	// ReadText returns the text content of a document
	ReadText(f File) (string, error)

	// ReadBinary returns the raw bytes of an attachment
	ReadBinary(f File) ([]byte, error)

	// ResolveLink maps a link reference to a concrete file, trying
	// the referencing document's directory first, then the vault root,
	// then a vault-wide basename search. The error is non-nil only
	// when the search itself failed, never for an unresolved link.
	ResolveLink(name, fromPath string) (File, bool, error)

	// Files lists the markdown documents in the vault, sorted by path
	Files() ([]File, error)
}

// Dir is a Vault over a directory tree
type Dir struct {
	root    string
	name    string
	ignores []string
}

// NewDir returns a Vault rooted at the given directory. Paths matching
// any ignore glob are invisible to listing and link resolution.
func NewDir(root, name string, ignores []string) (*Dir, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("Failed to resolve vault directory %s: %s", root, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("Failed to open vault directory %s: %s", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("Vault path is not a directory: %s", root)
	}
	if name == "" {
		name = filepath.Base(abs)
	}
	return &Dir{root: abs, name: name, ignores: ignores}, nil
}

// Name of the vault
func (d *Dir) Name() string { return d.name }

// Root directory of the vault on disk
func (d *Dir) Root() string { return d.root }

// ReadText returns the document text
func (d *Dir) ReadText(f File) (string, error) {
	data, err := d.ReadBinary(f)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// ReadBinary returns the raw file bytes
func (d *Dir) ReadBinary(f File) ([]byte, error) {
	data, err := ioutil.ReadFile(d.abs(f.Path))
	if err != nil {
		return nil, fmt.Errorf("Failed to read %s: %s", f.Path, err)
	}
	return data, nil
}

// ResolveLink maps a reference like "img.png" or "docs/img.png" to a
// file in the vault
func (d *Dir) ResolveLink(name, fromPath string) (File, bool, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return File{}, false, nil
	}

	// Relative to the referencing document, then to the vault root
	candidates := []string{
		path.Join(path.Dir(fromPath), name),
		name,
	}
	for _, candidate := range candidates {
		candidate = path.Clean(candidate)
		if strings.HasPrefix(candidate, "..") {
			continue
		}
		if d.ignored(candidate) {
			continue
		}
		if f, ok := d.stat(candidate); ok {
			return f, true, nil
		}
	}

	// Vault-wide search by basename, first match in path order
	base := path.Base(name)
	var found File
	var ok bool
	err := d.walk(func(relPath string) {
		if !ok && path.Base(relPath) == base {
			if f, exists := d.stat(relPath); exists {
				found, ok = f, true
			}
		}
	})
	if err != nil && !ok {
		return File{}, false, fmt.Errorf("Failed to search vault for %s: %s", name, err)
	}
	return found, ok, nil
}

// Files lists the markdown documents in the vault
func (d *Dir) Files() ([]File, error) {
	var files []File
	err := d.walk(func(relPath string) {
		f := NewFile(relPath)
		if !f.IsDocument() {
			return
		}
		if full, ok := d.stat(relPath); ok {
			files = append(files, full)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("Failed to list vault: %s", err)
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, nil
}

func (d *Dir) abs(relPath string) string {
	return filepath.Join(d.root, filepath.FromSlash(relPath))
}

func (d *Dir) stat(relPath string) (File, bool) {
	info, err := os.Stat(d.abs(relPath))
	if err != nil || info.IsDir() {
		return File{}, false
	}
	f := NewFile(relPath)
	f.Size = info.Size()
	return f, true
}

func (d *Dir) ignored(relPath string) bool {
	if strings.HasPrefix(path.Base(relPath), ".") {
		return true
	}
	for _, pattern := range d.ignores {
		if match, _ := glob.Match(pattern, relPath); match {
			return true
		}
	}
	return false
}

func (d *Dir) walk(visit func(relPath string)) error {
	return godirwalk.Walk(d.root, &godirwalk.Options{
		Unsorted: false,
		Callback: func(osPathname string, de *godirwalk.Dirent) error {
			rel, err := filepath.Rel(d.root, osPathname)
			if err != nil {
				return err
			}
			rel = filepath.ToSlash(rel)
			if de.IsDir() {
				if rel != "." && strings.HasPrefix(path.Base(rel), ".") {
					return filepath.SkipDir
				}
				return nil
			}
			if d.ignored(rel) {
				return nil
			}
			visit(rel)
			return nil
		},
	})
}
