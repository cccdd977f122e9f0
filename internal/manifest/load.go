package manifest

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/compose-spec/compose-go/v2/dotenv"
	"github.com/compose-spec/compose-go/v2/loader"
	compose "github.com/compose-spec/compose-go/v2/types"
)

// dotEnvFile is read from the manifest directory, as the compose CLI does.
const dotEnvFile = ".env"

// Load reads and parses the compose file at path. An empty project derives
// the name from the manifest directory. Any failure is a *ParseError.
func Load(ctx context.Context, path, project string) (Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Manifest{}, &ParseError{Path: path, Err: err}
	}
	if strings.TrimSpace(project) == "" {
		project = ProjectName(path)
	}

	m, err := Parse(ctx, data, filepath.Dir(path), project)
	if err != nil {
		return Manifest{}, &ParseError{Path: path, Err: err}
	}
	m.Path = path
	return m, nil
}

// File is a manifest on disk, re-read on every Load.
type File struct {
	Path    string
	Project string
}

func (f File) Load(ctx context.Context) (Manifest, error) {
	return Load(ctx, f.Path, f.Project)
}

// Parse converts compose YAML into a Manifest. workingDir resolves relative
// paths inside the document.
func Parse(ctx context.Context, data []byte, workingDir, project string) (Manifest, error) {
	absDir, err := filepath.Abs(workingDir)
	if err != nil {
		return Manifest{}, fmt.Errorf("resolve working dir: %w", err)
	}

	env, err := projectEnvironment(absDir)
	if err != nil {
		return Manifest{}, err
	}
	details := compose.ConfigDetails{
		WorkingDir: absDir,
		ConfigFiles: []compose.ConfigFile{
			{Filename: filepath.Join(absDir, "compose.yaml"), Content: data},
		},
		Environment: env,
	}

	p, err := loader.LoadWithContext(ctx, details, func(o *loader.Options) {
		// Normalization injects an implicit "default" network that the
		// document never declared.
		o.SkipNormalization = true
		if project != "" {
			o.SetProjectName(project, true)
		}
	})
	if err != nil {
		return Manifest{}, fmt.Errorf("parse compose spec: %w", err)
	}
	return FromProject(p), nil
}

// FromProject converts a loaded compose project.
func FromProject(p *compose.Project) Manifest {
	m := Manifest{Project: p.Name}
	for name, svc := range p.Services {
		m.Services = append(m.Services, NormalizeServiceSpec(name, svc))
	}
	m.Services = sortedServices(m.Services)
	if len(p.Volumes) > 0 {
		m.Volumes = slices.Sorted(maps.Keys(p.Volumes))
	}
	if len(p.Networks) > 0 {
		m.Networks = slices.Sorted(maps.Keys(p.Networks))
	}
	return m
}

// ProjectName derives the compose project name from the directory holding
// the manifest, normalized the same way the compose CLI does.
func ProjectName(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	return loader.NormalizeProjectName(filepath.Base(filepath.Dir(abs)))
}

// QualifiedName is the runtime name compose gives a declared volume or
// network: "{project}_{name}", or the bare name when there is no project.
func QualifiedName(project, name string) string {
	if project == "" {
		return name
	}
	return project + "_" + name
}

// projectEnvironment is the interpolation environment compose uses for a
// project in dir: the process environment, plus variables from dir/.env
// that the process does not already set.
func projectEnvironment(dir string) (map[string]string, error) {
	env := processEnvironment()
	envFile := filepath.Join(dir, dotEnvFile)
	info, err := os.Stat(envFile)
	if errors.Is(err, fs.ErrNotExist) || (err == nil && info.IsDir()) {
		return env, nil
	}
	if err != nil {
		return nil, fmt.Errorf("stat env file: %w", err)
	}

	fromFile, err := dotenv.GetEnvFromFile(env, []string{envFile})
	if err != nil {
		return nil, fmt.Errorf("read env file: %w", err)
	}
	for k, v := range fromFile {
		if _, set := env[k]; !set {
			env[k] = v
		}
	}
	return env, nil
}

func processEnvironment() map[string]string {
	env := make(map[string]string)
	for _, kv := range os.Environ() {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || key == "" {
			continue
		}
		env[key] = value
	}
	return env
}
