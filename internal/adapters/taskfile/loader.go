package taskfile

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"math/big"
	"os"
	"regexp"
	"slices"
	"strings"

	"github.com/trebuchet-org/treb-deploy/internal/domain"
	"gopkg.in/yaml.v3"
)

// File is the structure of a tasks file
//
//	tasks:
//	  - name: Registry
//	    tags: [all, Registry]
//	    from: deployer
//	    args: ["${accounts.owner}", "${deployments.Transport}"]
//	    confirmations: 2
type File struct {
	Tasks []TaskSpec `yaml:"tasks"`
}

// TaskSpec declares a task that deploys a single contract
type TaskSpec struct {
	Name string   `yaml:"name"`
	Tags []string `yaml:"tags"`
	// Contract is the artifact name; defaults to Name
	Contract string `yaml:"contract"`
	// From is the signing role; defaults to "deployer"
	From          string  `yaml:"from"`
	Args          Args    `yaml:"args"`
	Confirmations *uint64 `yaml:"confirmations"`
	Log           *bool   `yaml:"log"`
}

// Args are constructor arguments. Decimal integer literals beyond 64 bits
// keep their exact value instead of being resolved as floats.
type Args []any

var decimalLiteral = regexp.MustCompile(`^[-+]?[0-9][0-9_]*$`)

// UnmarshalYAML implements yaml.Unmarshaler
func (a *Args) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.SequenceNode {
		return fmt.Errorf("line %d: args must be a list", node.Line)
	}
	args, err := decodeArg(node)
	if err != nil {
		return err
	}
	*a = args.([]any)
	return nil
}

func decodeArg(node *yaml.Node) (any, error) {
	switch node.Kind {
	case yaml.AliasNode:
		return decodeArg(node.Alias)
	case yaml.SequenceNode:
		out := make([]any, len(node.Content))
		for i, item := range node.Content {
			v, err := decodeArg(item)
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return out, nil
	case yaml.ScalarNode:
		if node.ShortTag() == "!!float" && decimalLiteral.MatchString(node.Value) {
			n, ok := new(big.Int).SetString(strings.ReplaceAll(node.Value, "_", ""), 10)
			if !ok {
				return nil, fmt.Errorf("line %d: invalid integer %q", node.Line, node.Value)
			}
			if n.IsInt64() {
				return int(n.Int64()), nil
			}
			return n, nil
		}
	}

	var v any
	if err := node.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}

const defaultFromRole = "deployer"

var refPattern = regexp.MustCompile(`\$\{(accounts|deployments)\.([A-Za-z0-9_.\-]+)\}`)

// LoadFile reads the tasks declared in path
func LoadFile(path string) ([]*domain.Task, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	tasks, err := Load(f, path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return tasks, nil
}

// Load decodes a tasks file; source is recorded on every task
func Load(r io.Reader, source string) ([]*domain.Task, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var file File
	if err := dec.Decode(&file); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse tasks file: %w", err)
	}

	tasks := make([]*domain.Task, 0, len(file.Tasks))
	for i, spec := range file.Tasks {
		task, err := spec.build(source)
		if err != nil {
			return nil, fmt.Errorf("task #%d: %w", i+1, err)
		}
		tasks = append(tasks, task)
	}
	return tasks, nil
}

// Parse is Load over an in-memory document
func Parse(data []byte, source string) ([]*domain.Task, error) {
	return Load(bytes.NewReader(data), source)
}

func (s TaskSpec) build(source string) (*domain.Task, error) {
	from := s.From
	if from == "" {
		from = defaultFromRole
	}

	roles := []string{from}
	for _, ref := range references(s.Args) {
		if ref[0] == "accounts" && !slices.Contains(roles, ref[1]) {
			roles = append(roles, ref[1])
		}
	}

	task := &domain.Task{
		Name:   s.Name,
		Tags:   s.Tags,
		Roles:  roles,
		Source: source,
		Func:   s.run(from),
	}
	if err := task.Validate(); err != nil {
		return nil, err
	}
	return task, nil
}

func (s TaskSpec) run(from string) domain.TaskFunc {
	return func(ctx context.Context, env domain.TaskEnv) error {
		args, err := interpolate(ctx, env, s.Args)
		if err != nil {
			return err
		}

		log := true
		if s.Log != nil {
			log = *s.Log
		}

		_, err = env.Deploy(ctx, s.Name, domain.DeployOptions{
			Contract:          s.Contract,
			From:              from,
			Args:              args,
			WaitConfirmations: s.Confirmations,
			Log:               log,
		})
		return err
	}
}

// interpolate replaces ${accounts.<role>} with the role's address and
// ${deployments.<name>} with the recorded address of a deployment
func interpolate(ctx context.Context, env domain.TaskEnv, args []any) ([]any, error) {
	out := make([]any, len(args))
	for i, arg := range args {
		switch v := arg.(type) {
		case string:
			s, err := expand(ctx, env, v)
			if err != nil {
				return nil, err
			}
			out[i] = s
		case []any:
			nested, err := interpolate(ctx, env, v)
			if err != nil {
				return nil, err
			}
			out[i] = nested
		default:
			out[i] = v
		}
	}
	return out, nil
}

func expand(ctx context.Context, env domain.TaskEnv, s string) (string, error) {
	var firstErr error
	expanded := refPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := refPattern.FindStringSubmatch(match)
		kind, name := parts[1], parts[2]

		switch kind {
		case "accounts":
			account, err := env.Account(ctx, name)
			if err != nil {
				if firstErr == nil {
					firstErr = err
				}
				return match
			}
			return account.Address.Hex()
		default:
			deployment, err := env.Get(ctx, name)
			if err != nil {
				if firstErr == nil {
					firstErr = fmt.Errorf("%s: deployment %s: %w", match, name, err)
				}
				return match
			}
			return deployment.Address
		}
	})
	return expanded, firstErr
}

// references lists the [kind, name] pairs referenced by args
func references(args []any) [][2]string {
	var refs [][2]string
	for _, arg := range args {
		switch v := arg.(type) {
		case string:
			for _, m := range refPattern.FindAllStringSubmatch(v, -1) {
				refs = append(refs, [2]string{m[1], m[2]})
			}
		case []any:
			refs = append(refs, references(v)...)
		}
	}
	return refs
}
