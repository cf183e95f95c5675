package docmodel

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
)

// ErrMissingDocumentPart is returned when the package has no main
// document part. This is the one hard extraction failure: optional
// parts (styles, numbering) degrade gracefully instead.
var ErrMissingDocumentPart = errors.New("word/document.xml not found in archive")

const (
	partDocument  = "word/document.xml"
	partStyles    = "word/styles.xml"
	partNumbering = "word/numbering.xml"
)

// Package gives access to the raw XML parts of a .docx archive.
type Package struct {
	document  []byte
	styles    []byte // nil when the part is absent
	numbering []byte // nil when the part is absent
}

// OpenPackage reads a .docx file from disk.
func OpenPackage(path string) (*Package, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	return OpenPackageReader(f, info.Size())
}

// OpenPackageReader reads a .docx archive from an in-memory or seekable
// source.
func OpenPackageReader(r io.ReaderAt, size int64) (*Package, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("open zip: %w", err)
	}

	pkg := &Package{}
	for _, f := range zr.File {
		switch f.Name {
		case partDocument:
			pkg.document, err = readPart(f)
		case partStyles:
			pkg.styles, err = readPart(f)
		case partNumbering:
			pkg.numbering, err = readPart(f)
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", f.Name, err)
		}
	}

	if pkg.document == nil {
		return nil, ErrMissingDocumentPart
	}
	return pkg, nil
}

func readPart(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

// Document returns a reader over the main document part.
func (p *Package) Document() io.Reader { return bytes.NewReader(p.document) }

// Styles returns a reader over the styles part, or nil when absent.
func (p *Package) Styles() io.Reader {
	if p.styles == nil {
		return nil
	}
	return bytes.NewReader(p.styles)
}

// Numbering returns a reader over the numbering part, or nil when absent.
func (p *Package) Numbering() io.Reader {
	if p.numbering == nil {
		return nil
	}
	return bytes.NewReader(p.numbering)
}
