package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"io/fs"
	"maps"
	"os"
	"path/filepath"

	"go.trai.ch/lpm/internal/core/domain"
	"go.trai.ch/zerr"
)

const dependenciesKey = "dependencies"

// LoadManifest reads package.json from root.
func (l *Loader) LoadManifest(root string) (*domain.Manifest, error) {
	path := filepath.Join(root, domain.ManifestFileName)
	data, err := readManifest(path)
	if err != nil {
		return nil, err
	}

	var pkg PackageJSON
	if err := json.Unmarshal(data, &pkg); err != nil {
		return nil, zerr.With(zerr.Wrap(domain.ErrManifestParseFailed, err.Error()), "path", path)
	}

	deps := pkg.Dependencies
	if deps == nil {
		deps = make(map[string]string)
	}
	return &domain.Manifest{Name: pkg.Name, Version: pkg.Version, Dependencies: deps}, nil
}

// AddDependencies merges deps into the dependencies object of package.json.
// Other top-level fields keep their order and content; the file is
// re-indented with two spaces.
func (l *Loader) AddDependencies(root string, deps map[string]string) error {
	path := filepath.Join(root, domain.ManifestFileName)
	data, err := readManifest(path)
	if err != nil {
		return err
	}

	fields, err := decodeObject(data)
	if err != nil {
		return zerr.With(zerr.Wrap(domain.ErrManifestParseFailed, err.Error()), "path", path)
	}

	merged := make(map[string]string, len(deps))
	idx := -1
	for i, f := range fields {
		if f.key == dependenciesKey {
			idx = i
			if err := json.Unmarshal(f.value, &merged); err != nil {
				return zerr.With(zerr.Wrap(domain.ErrManifestParseFailed, err.Error()), "path", path)
			}
		}
	}
	if merged == nil {
		merged = make(map[string]string, len(deps))
	}
	maps.Copy(merged, deps)

	value, err := marshal(merged)
	if err != nil {
		return zerr.With(zerr.Wrap(domain.ErrManifestWriteFailed, err.Error()), "path", path)
	}
	if idx >= 0 {
		fields[idx].value = value
	} else {
		fields = append(fields, field{key: dependenciesKey, value: value})
	}

	out, err := encodeObject(fields)
	if err != nil {
		return zerr.With(zerr.Wrap(domain.ErrManifestWriteFailed, err.Error()), "path", path)
	}
	return writeFileAtomic(path, out)
}

func readManifest(path string) ([]byte, error) {
	// #nosec G304 -- path is built from the project root
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, zerr.With(zerr.Wrap(domain.ErrManifestNotFound, err.Error()), "path", path)
		}
		return nil, zerr.With(zerr.Wrap(domain.ErrManifestReadFailed, err.Error()), "path", path)
	}
	return data, nil
}

// field is one top-level member of a JSON object, in source order.
type field struct {
	key   string
	value json.RawMessage
}

func decodeObject(data []byte) ([]field, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, errors.New("package.json must contain a JSON object")
	}

	var fields []field
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, _ := tok.(string)

		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return nil, err
		}
		fields = append(fields, field{key: key, value: value})
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return fields, nil
}

func encodeObject(fields []field) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString("{\n")
	for i, f := range fields {
		key, err := marshal(f.key)
		if err != nil {
			return nil, err
		}
		buf.WriteString("  ")
		buf.Write(key)
		buf.WriteString(": ")
		if err := json.Indent(&buf, f.value, "  ", "  "); err != nil {
			return nil, err
		}
		if i < len(fields)-1 {
			buf.WriteByte(',')
		}
		buf.WriteByte('\n')
	}
	buf.WriteString("}\n")
	return buf.Bytes(), nil
}

// marshal encodes v compactly without escaping <, > and &, which are common in ranges.
func marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSpace(buf.Bytes()), nil
}

func writeFileAtomic(path string, data []byte) error {
	perm := os.FileMode(domain.FilePerm)
	if info, err := os.Stat(path); err == nil {
		perm = info.Mode().Perm()
	}

	tmpFile, err := os.CreateTemp(filepath.Dir(path), ".package.json.tmp-*")
	if err != nil {
		return zerr.With(zerr.Wrap(domain.ErrManifestWriteFailed, err.Error()), "path", path)
	}
	tmpName := tmpFile.Name()
	defer func() {
		_ = os.Remove(tmpName)
	}()

	if _, err := tmpFile.Write(data); err != nil {
		_ = tmpFile.Close()
		return zerr.With(zerr.Wrap(domain.ErrManifestWriteFailed, err.Error()), "path", path)
	}
	if err := tmpFile.Close(); err != nil {
		return zerr.With(zerr.Wrap(domain.ErrManifestWriteFailed, err.Error()), "path", path)
	}
	if err := os.Chmod(tmpName, perm); err != nil {
		return zerr.With(zerr.Wrap(domain.ErrManifestWriteFailed, err.Error()), "path", path)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return zerr.With(zerr.Wrap(domain.ErrManifestWriteFailed, err.Error()), "path", path)
	}
	return nil
}
