package artifacts

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/trebuchet-org/treb-deploy/internal/domain"
	"github.com/trebuchet-org/treb-deploy/internal/domain/config"
	"github.com/trebuchet-org/treb-deploy/internal/domain/models"
	"github.com/trebuchet-org/treb-deploy/internal/usecase"
)

// Repository indexes compiled contract artifacts found under the artifacts
// directory. Both Foundry (out/<Source>.sol/<Name>.json) and Hardhat
// (artifacts/contracts/<Source>.sol/<Name>.json) layouts are understood.
type Repository struct {
	projectRoot string
	dir         string
	log         *slog.Logger

	mu      sync.Mutex
	indexed bool
	byName  map[string][]*entry // key: contract name
	byKey   map[string]*entry   // key: "<Source>.sol:<Name>"
	clashes map[string][]string // key -> paths of every artifact sharing it
}

type entry struct {
	name   string
	source string
	path   string
}

// rawArtifact covers the fields shared by Foundry and Hardhat artifacts
type rawArtifact struct {
	ContractName string          `json:"contractName"`
	SourceName   string          `json:"sourceName"`
	ABI          json.RawMessage `json:"abi"`
	Bytecode     json.RawMessage `json:"bytecode"`
	Metadata     json.RawMessage `json:"metadata"`
}

// NewRepository creates a repository over cfg.ArtifactsDir
func NewRepository(cfg *config.RuntimeConfig, log *slog.Logger) *Repository {
	dir := cfg.ArtifactsDir
	if dir == "" {
		dir = config.DefaultArtifactsDir
	}
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(cfg.ProjectRoot, dir)
	}
	return &Repository{
		projectRoot: cfg.ProjectRoot,
		dir:         dir,
		log:         log,
	}
}

// GetArtifact loads the artifact of a contract by name or by "<Source>.sol:<Name>"
func (r *Repository) GetArtifact(ctx context.Context, name string) (*models.Artifact, error) {
	e, err := r.lookup(name)
	if err != nil {
		return nil, err
	}
	return r.load(e)
}

func (r *Repository) lookup(name string) (*entry, error) {
	if err := r.index(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if paths, ok := r.clashes[name]; ok {
		return nil, fmt.Errorf("artifact %s is ambiguous, found at: %s", name, strings.Join(paths, ", "))
	}
	if e, ok := r.byKey[name]; ok {
		return e, nil
	}

	matches := r.byName[name]
	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("artifact %s in %s: %w", name, r.dir, domain.ErrNotFound)
	case 1:
		return matches[0], nil
	}

	keys := make([]string, len(matches))
	for i, m := range matches {
		key := m.source + ":" + m.name
		if _, clash := r.clashes[key]; clash {
			key = m.path
		}
		keys[i] = key
	}
	sort.Strings(keys)
	return nil, fmt.Errorf("multiple artifacts named %s, use one of: %s", name, strings.Join(keys, ", "))
}

// index walks the artifacts directory once
func (r *Repository) index() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.indexed {
		return nil
	}

	r.byName = make(map[string][]*entry)
	r.byKey = make(map[string]*entry)
	r.clashes = make(map[string][]string)

	if _, err := os.Stat(r.dir); os.IsNotExist(err) {
		return fmt.Errorf("artifacts directory %s not found (compile your contracts first)", r.dir)
	}

	err := filepath.WalkDir(r.dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == "build-info" {
				return filepath.SkipDir
			}
			return nil
		}
		if filepath.Ext(path) != ".json" || strings.HasSuffix(path, ".dbg.json") {
			return nil
		}

		e, ok := r.probe(path)
		if !ok {
			return nil
		}

		r.byName[e.name] = append(r.byName[e.name], e)
		key := e.source + ":" + e.name
		if first, ok := r.byKey[key]; ok {
			if len(r.clashes[key]) == 0 {
				r.clashes[key] = []string{first.path}
			}
			r.clashes[key] = append(r.clashes[key], e.path)
			return nil
		}
		r.byKey[key] = e
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to index artifacts: %w", err)
	}

	r.log.Debug("indexed artifacts", "dir", r.dir, "contracts", len(r.byKey))
	r.indexed = true
	return nil
}

// probe reads just enough of a file to know whether it is a deployable artifact
func (r *Repository) probe(path string) (*entry, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false
	}

	var raw rawArtifact
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, false
	}
	if len(raw.ABI) == 0 {
		return nil, false
	}
	if code, err := decodeBytecode(raw.Bytecode); err != nil || code == "" || code == "0x" {
		return nil, false
	}

	name, source := raw.ContractName, raw.SourceName
	if name == "" {
		name, source = compilationTarget(raw.Metadata)
	}
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(path), ".json")
	}
	if source == "" {
		source = filepath.Base(filepath.Dir(path))
	}

	rel, err := filepath.Rel(r.projectRoot, path)
	if err != nil {
		rel = path
	}
	return &entry{name: name, source: filepath.Base(source), path: rel}, true
}

func (r *Repository) load(e *entry) (*models.Artifact, error) {
	path := e.path
	if !filepath.IsAbs(path) {
		path = filepath.Join(r.projectRoot, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read artifact %s: %w", e.path, err)
	}

	var raw rawArtifact
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse artifact %s: %w", e.path, err)
	}

	code, err := decodeBytecode(raw.Bytecode)
	if err != nil {
		return nil, fmt.Errorf("artifact %s: %w", e.path, err)
	}
	if strings.Contains(code, "__") {
		return nil, fmt.Errorf("artifact %s has unlinked library references", e.path)
	}
	bytecode, err := hexutil.Decode(code)
	if err != nil {
		return nil, fmt.Errorf("artifact %s: invalid bytecode: %w", e.path, err)
	}

	parsed, err := abi.JSON(strings.NewReader(string(raw.ABI)))
	if err != nil {
		return nil, fmt.Errorf("artifact %s: invalid ABI: %w", e.path, err)
	}

	return &models.Artifact{
		Name:     e.name,
		Path:     e.path,
		Bytecode: bytecode,
		ABI:      &parsed,
	}, nil
}

// decodeBytecode accepts Hardhat's plain string and Foundry's {"object": ...}
func decodeBytecode(raw json.RawMessage) (string, error) {
	if len(raw) == 0 {
		return "", nil
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return ensurePrefix(s), nil
	}

	var obj struct {
		Object string `json:"object"`
	}
	if err := json.Unmarshal(raw, &obj); err != nil {
		return "", fmt.Errorf("unrecognized bytecode format: %w", err)
	}
	return ensurePrefix(obj.Object), nil
}

func ensurePrefix(code string) string {
	if code == "" || strings.HasPrefix(code, "0x") {
		return code
	}
	return "0x" + code
}

// compilationTarget extracts the contract from Foundry's metadata, which is
// an object in recent versions and a JSON string in older ones
func compilationTarget(raw json.RawMessage) (name, source string) {
	if len(raw) == 0 {
		return "", ""
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		raw = json.RawMessage(s)
	}

	var metadata struct {
		Settings struct {
			CompilationTarget map[string]string `json:"compilationTarget"`
		} `json:"settings"`
	}
	if err := json.Unmarshal(raw, &metadata); err != nil {
		return "", ""
	}
	for src, contract := range metadata.Settings.CompilationTarget {
		return contract, src
	}
	return "", ""
}

var _ usecase.ArtifactRepository = (*Repository)(nil)
