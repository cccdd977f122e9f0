package manifest

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// SetImageTag points every service running image (with any tag or none) at
// image:tag and rewrites the manifest in place. It returns the number of
// services updated; when nothing matched the file is left untouched.
func SetImageTag(path, image, tag string) (int, error) {
	image = strings.TrimSpace(image)
	tag = strings.TrimSpace(tag)
	if image == "" || tag == "" {
		return 0, errors.New("image name and tag are required")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read manifest: %w", err)
	}
	out, updated, err := RewriteImageTag(data, image, tag)
	if err != nil {
		return 0, err
	}
	if updated == 0 {
		return 0, nil
	}
	if err := writeFileAtomic(path, out); err != nil {
		return 0, err
	}
	return updated, nil
}

// RewriteImageTag is SetImageTag on an in-memory document.
func RewriteImageTag(data []byte, image, tag string) ([]byte, int, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, 0, fmt.Errorf("parse manifest: %w", err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, 0, errors.New("manifest is empty")
	}

	services := mappingValue(doc.Content[0], "services")
	if services == nil || services.Kind != yaml.MappingNode {
		return nil, 0, errors.New("manifest has no services mapping")
	}

	updated := 0
	want := image + ":" + tag
	for i := 1; i < len(services.Content); i += 2 {
		img := mappingValue(services.Content[i], "image")
		if img == nil || img.Kind != yaml.ScalarNode {
			continue
		}
		name, _ := splitImageTag(img.Value)
		if name != image || img.Value == want {
			continue
		}
		img.Value = want
		updated++
	}
	if updated == 0 {
		return data, 0, nil
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&doc); err != nil {
		return nil, 0, fmt.Errorf("encode manifest: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, 0, fmt.Errorf("encode manifest: %w", err)
	}
	return buf.Bytes(), updated, nil
}

func mappingValue(node *yaml.Node, key string) *yaml.Node {
	if node == nil || node.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i].Value == key {
			return node.Content[i+1]
		}
	}
	return nil
}

// splitImageTag separates "repo[:tag][@digest]" into repo and tag. A colon
// before the last slash belongs to a registry host, not a tag.
func splitImageTag(ref string) (string, string) {
	ref = strings.TrimSpace(ref)
	if at := strings.IndexByte(ref, '@'); at >= 0 {
		ref = ref[:at]
	}
	colon := strings.LastIndexByte(ref, ':')
	if colon < 0 || colon < strings.LastIndexByte(ref, '/') {
		return ref, ""
	}
	return ref[:colon], ref[colon+1:]
}

func writeFileAtomic(path string, data []byte) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat manifest: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create temp manifest: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp manifest: %w", err)
	}
	if err := tmp.Chmod(info.Mode().Perm()); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("chmod temp manifest: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp manifest: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace manifest: %w", err)
	}
	return nil
}
