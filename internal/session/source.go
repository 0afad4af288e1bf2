package session

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"blockshell/internal/domain"
	"blockshell/internal/pointer"
)

// FileSource reads a bundle from a YAML (.yaml, .yml) or JSON file.
type FileSource struct {
	Path string
}

func (s FileSource) LoadBundle(_ context.Context) (*domain.Bundle, error) {
	raw, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("read bundle: %w", err)
	}
	return DecodeBundle(raw, filepath.Ext(s.Path))
}

// DecodeBundle parses raw as YAML when ext is .yaml or .yml, else as JSON.
func DecodeBundle(raw []byte, ext string) (*domain.Bundle, error) {
	var b domain.Bundle
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(raw, &b); err != nil {
			return nil, fmt.Errorf("decode yaml bundle: %w", err)
		}
	default:
		if err := json.Unmarshal(raw, &b); err != nil {
			return nil, fmt.Errorf("decode json bundle: %w", err)
		}
	}
	if err := b.Normalize(); err != nil {
		return nil, err
	}
	return &b, nil
}

// StaticSource serves a copy of an in-memory bundle.
type StaticSource struct {
	Bundle *domain.Bundle
}

func (s StaticSource) LoadBundle(_ context.Context) (*domain.Bundle, error) {
	if s.Bundle == nil {
		return nil, fmt.Errorf("static source: no bundle")
	}
	return CloneBundle(s.Bundle), nil
}

// CloneBundle deep-copies b so block data can be mutated independently.
func CloneBundle(b *domain.Bundle) *domain.Bundle {
	out := &domain.Bundle{Manifest: b.Manifest, Blocks: make(map[string]domain.Block, len(b.Blocks))}
	if b.Manifest.Routes != nil {
		out.Manifest.Routes = make(map[string]string, len(b.Manifest.Routes))
		for k, v := range b.Manifest.Routes {
			out.Manifest.Routes[k] = v
		}
	}
	for id, blk := range b.Blocks {
		blk.Data = pointer.CloneMap(blk.Data)
		out.Blocks[id] = blk
	}
	return out
}

// ManifestRouter resolves slugs from the bundle's own manifest:
// manifest.routes first, then manifest.main for the manifest's entry slug.
type ManifestRouter struct{}

func (ManifestRouter) Resolve(_ context.Context, bundle *domain.Bundle, slug string) (domain.RouteResolution, error) {
	if bundle == nil {
		return domain.RouteResolution{}, fmt.Errorf("resolve %q: no bundle", slug)
	}
	target, ok := bundle.Manifest.Routes[slug]
	if !ok && slug == bundle.Manifest.EntrySlug {
		target, ok = bundle.Manifest.Main, bundle.Manifest.Main != ""
	}
	if !ok || target == "" {
		return domain.RouteResolution{Allowed: false, Status: http.StatusNotFound, Error: "no route for " + slug}, nil
	}
	return domain.RouteResolution{Allowed: true, Status: http.StatusOK, TargetBlockID: target}, nil
}
